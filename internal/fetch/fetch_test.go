package fetch

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

const svgBody = `<svg xmlns="http://www.w3.org/2000/svg"/>`

func newTestServer(t *testing.T) fasthttp.DialFunc {
	t.Helper()

	r := router.New()
	r.GET("/logo.svg", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("text/plain")
		ctx.SetBodyString(svgBody)
	})
	r.GET("/image", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("image/svg+xml; charset=utf-8")
		ctx.SetBodyString(svgBody)
	})
	r.GET("/opaque", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/octet-stream")
		ctx.SetBodyString("\x89PNG")
	})
	r.GET("/moved", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/logo.svg", fasthttp.StatusMovedPermanently)
	})
	r.GET("/found", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/moved", fasthttp.StatusFound)
	})
	r.GET("/loop", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/loop", fasthttp.StatusFound)
	})
	r.GET("/missing", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})
	r.GET("/slow", func(ctx *fasthttp.RequestCtx) {
		time.Sleep(500 * time.Millisecond)
		ctx.SetBodyString(svgBody)
	})
	r.GET("/big", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("image/png")
		ctx.SetBody(make([]byte, 4096))
	})

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: r.Handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	return func(string) (net.Conn, error) { return ln.Dial() }
}

func newTestFetcher(t *testing.T, cfg Config) *Fetcher {
	return New(cfg, zap.NewNop(), WithDialer(newTestServer(t)))
}

func TestFetch(t *testing.T) {
	f := newTestFetcher(t, DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name      string
		url       string
		wantExt   string
		wantFinal string
	}{
		{"extension from url path", "http://icons.test/logo.svg", ".svg", "http://icons.test/logo.svg"},
		{"extension from content type", "http://icons.test/image", ".svg", "http://icons.test/image"},
		{"default extension", "http://icons.test/opaque", ".png", "http://icons.test/opaque"},
		{"single redirect", "http://icons.test/moved", ".svg", "http://icons.test/logo.svg"},
		{"redirect chain", "http://icons.test/found", ".svg", "http://icons.test/logo.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.Fetch(ctx, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, res.Extension)
			assert.Equal(t, tt.wantFinal, res.FinalURL)
			assert.NotEmpty(t, res.Body)
		})
	}
}

func TestFetch_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRedirects = 3
	cfg.MaxBodySize = 1024
	f := newTestFetcher(t, cfg)
	ctx := context.Background()

	tests := []struct {
		name     string
		url      string
		wantKind ErrorKind
	}{
		{"status error", "http://icons.test/missing", KindStatus},
		{"timeout", "http://icons.test/slow", KindTimeout},
		{"redirect loop", "http://icons.test/loop", KindTooManyRedirects},
		{"body too large", "http://icons.test/big", KindTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(ctx, tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}

	t.Run("status code is reported", func(t *testing.T) {
		_, err := f.Fetch(ctx, "http://icons.test/missing")
		var fe *Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, fasthttp.StatusNotFound, fe.StatusCode)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestFetch_TransportError(t *testing.T) {
	dialErr := errors.New("connection refused")
	f := New(DefaultConfig(), zap.NewNop(), WithDialer(func(string) (net.Conn, error) {
		return nil, dialErr
	}))

	_, err := f.Fetch(context.Background(), "http://icons.test/logo.svg")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New(DefaultConfig(), zap.NewNop())
	for _, raw := range []string{"ftp://x/logo.png", "/tmp/logo.png", "http://"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestFetch_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatePerSecond = 1
	f := newTestFetcher(t, cfg)

	_, err := f.Fetch(context.Background(), "http://icons.test/logo.svg")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, "http://icons.test/logo.svg")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://cdn.test/a/logo.PNG", "image/svg+xml", ".png"},
		{"https://cdn.test/a/logo.svg?size=64", "", ".svg"},
		{"https://cdn.test/a/logo.jpeg", "", ".jpeg"},
		{"https://cdn.test/a/logo", "image/jpeg", ".jpg"},
		{"https://cdn.test/a/logo", "image/png; charset=binary", ".png"},
		{"https://cdn.test/a/logo.gif", "image/gif", ".png"},
		{"https://cdn.test/a/logo", "", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.url+"|"+tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFor(tt.url, tt.contentType))
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://x/logo.png"))
	assert.True(t, IsRemote("http://x/logo.png"))
	assert.False(t, IsRemote("./logo.png"))
	assert.False(t, IsRemote("/abs/logo.png"))
}
