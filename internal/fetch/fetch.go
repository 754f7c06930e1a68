// Package fetch downloads remote icon images.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pendergraft/contract-metadata/internal/registry"
)

// DefaultExtension is used when neither the URL nor the content type name a
// supported format.
const DefaultExtension = ".png"

// mimeExtensions maps declared content types to icon extensions.
var mimeExtensions = map[string]string{
	"image/svg+xml": ".svg",
	"image/svg":     ".svg",
	"image/png":     ".png",
	"image/x-png":   ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/pjpeg":   ".jpg",
}

// Config controls fetch behavior.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxBodySize is the largest accepted body in bytes. Zero means the
	// fasthttp default.
	MaxBodySize int
	// RatePerSecond throttles requests. Zero disables throttling.
	RatePerSecond float64
}

// DefaultConfig returns the fetch defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRedirects: 5,
		MaxBodySize:  10 << 20,
	}
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithDialer replaces the network dialer. Used to point the client at an
// in-memory listener.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(f *Fetcher) {
		f.client.Dial = dial
	}
}

// Result is a downloaded image.
type Result struct {
	Body        []byte
	ContentType string
	// FinalURL is the URL that produced the body after redirects.
	FinalURL  string
	Extension string
}

// Fetcher performs GET requests with manual redirect handling.
type Fetcher struct {
	client  *fasthttp.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Fetcher.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxRedirects < 0 {
		cfg.MaxRedirects = 0
	}
	f := &Fetcher{
		client: &fasthttp.Client{
			ReadTimeout:         cfg.Timeout,
			MaxResponseBodySize: cfg.MaxBodySize,
		},
		cfg:    cfg,
		logger: logger.Named("fetch"),
	}
	if cfg.RatePerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsRemote reports whether src is an http(s) URL rather than a local path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch downloads rawURL, following up to MaxRedirects 3xx responses.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	current := u
	for hop := 0; ; hop++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindTransport, URL: current.String(), Err: err}
			}
		}

		res, location, err := f.do(ctx, current.String())
		if err != nil {
			return nil, err
		}
		if location == "" {
			res.Extension = ExtensionFor(res.FinalURL, res.ContentType)
			return res, nil
		}

		if hop >= f.cfg.MaxRedirects {
			return nil, &Error{Kind: KindTooManyRedirects, URL: rawURL}
		}
		next, err := current.Parse(location)
		if err != nil {
			return nil, &Error{Kind: KindTransport, URL: current.String(), Err: fmt.Errorf("bad redirect location %q: %w", location, err)}
		}
		f.logger.Debug("Following redirect",
			zap.String("from", current.String()),
			zap.String("to", next.String()),
		)
		current = next
	}
}

// do performs one request. A redirect response returns its Location and a nil result.
func (f *Fetcher) do(ctx context.Context, target string) (*Result, string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "image/svg+xml,image/png,image/*;q=0.8")

	timeout := f.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, "", &Error{Kind: KindTimeout, URL: target, Err: context.DeadlineExceeded}
	}

	if err := f.client.DoTimeout(req, resp, timeout); err != nil {
		switch {
		case isTimeout(err):
			f.logger.Debug("Image request timed out", zap.String("url", target), zap.Duration("timeout", timeout))
			return nil, "", &Error{Kind: KindTimeout, URL: target, Err: err}
		case errors.Is(err, fasthttp.ErrBodyTooLarge):
			return nil, "", &Error{Kind: KindTooLarge, URL: target, Err: err}
		default:
			f.logger.Debug("Image request failed", zap.String("url", target), zap.Error(err))
			return nil, "", &Error{Kind: KindTransport, URL: target, Err: err}
		}
	}

	status := resp.StatusCode()
	switch status {
	case fasthttp.StatusMovedPermanently, fasthttp.StatusFound, fasthttp.StatusSeeOther,
		fasthttp.StatusTemporaryRedirect, fasthttp.StatusPermanentRedirect:
		location := string(resp.Header.Peek(fasthttp.HeaderLocation))
		if location == "" {
			return nil, "", &Error{Kind: KindStatus, URL: target, StatusCode: status}
		}
		return nil, location, nil
	case fasthttp.StatusOK:
	default:
		f.logger.Debug("Image request returned non-OK status", zap.String("url", target), zap.Int("statusCode", status))
		return nil, "", &Error{Kind: KindStatus, URL: target, StatusCode: status}
	}

	body := append([]byte(nil), resp.Body()...)
	return &Result{
		Body:        body,
		ContentType: string(resp.Header.ContentType()),
		FinalURL:    target,
	}, "", nil
}

func isTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ExtensionFor picks the icon extension for a downloaded image: the URL path
// suffix when it is a supported format, else the content type mapping, else
// DefaultExtension.
func ExtensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext, ok := registry.SupportedExtension(path.Base(u.Path)); ok {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := mimeExtensions[strings.ToLower(mediaType)]; ok {
			return ext
		}
	}
	return DefaultExtension
}
