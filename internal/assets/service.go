package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/fetch"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

// ImageFetcher downloads remote images.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Service creates and updates registry entries.
type Service struct {
	layout  registry.Layout
	fetcher ImageFetcher
	tempDir string
	logger  *zap.Logger
}

// NewService creates a new asset service. Remote images are downloaded into
// the system temp directory.
func NewService(layout registry.Layout, fetcher ImageFetcher, logger *zap.Logger) *Service {
	return &Service{
		layout:  layout,
		fetcher: fetcher,
		tempDir: os.TempDir(),
		logger:  logger.Named("assets"),
	}
}

// stagedImage is an image ready to be copied into the icon directory.
type stagedImage struct {
	path string
	ext  string
}

// Upsert creates the record for id or merges u into the existing one.
//
// A new record needs name, symbol, decimals and an image. The merged record
// is validated before any icon or metadata file is touched, and the metadata
// file is replaced atomically. Downloaded images are removed on every path.
func (s *Service) Upsert(ctx context.Context, id caip.AssetID, u Update) (*Result, error) {
	existing, err := s.load(id)
	if err != nil {
		return nil, err
	}
	created := existing == nil

	if created {
		if missing := missingFields(u); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequiredField, strings.Join(missing, ", "))
		}
	}

	var img *stagedImage
	if u.Image != "" {
		var cleanup func()
		img, cleanup, err = s.stageImage(ctx, u.Image)
		defer cleanup()
		if err != nil {
			return nil, err
		}
	}

	merged, err := s.merge(id, existing, u, img)
	if err != nil {
		return nil, err
	}
	if violations := validation.CheckMetadataValue(merged); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	res := &Result{ID: id, Metadata: merged, Created: created}
	if img != nil {
		res.IconPath, res.RemovedIcons, err = s.installIcon(id, img)
		if err != nil {
			return nil, err
		}
	}

	if err := s.layout.Write(id, merged); err != nil {
		return nil, fmt.Errorf("writing metadata: %w", err)
	}

	if created {
		s.logger.Info("Asset created", zap.String("asset", id.String()))
	} else {
		s.logger.Info("Asset updated", zap.String("asset", id.String()))
	}
	return res, nil
}

// load returns the existing record, nil when there is none.
func (s *Service) load(id caip.AssetID) (*registry.Metadata, error) {
	m, err := s.layout.Read(id)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, registry.ErrNotFound):
		return nil, nil
	case errors.Is(err, registry.ErrMalformed):
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedExisting, s.layout.Paths(id).MetadataPath, err)
	default:
		return nil, err
	}
}

func missingFields(u Update) []string {
	var missing []string
	if u.Name == nil || *u.Name == "" {
		missing = append(missing, "name")
	}
	if u.Symbol == nil || *u.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if u.Decimals == nil {
		missing = append(missing, "decimals")
	}
	if u.Image == "" {
		missing = append(missing, "image")
	}
	return missing
}

func (s *Service) merge(id caip.AssetID, existing *registry.Metadata, u Update, img *stagedImage) (*registry.Metadata, error) {
	m := existing.Clone()
	if m == nil {
		m = &registry.Metadata{}
	}

	if u.Name != nil && *u.Name != "" {
		m.Name = *u.Name
	}
	if u.Symbol != nil && *u.Symbol != "" {
		m.Symbol = *u.Symbol
	}
	if u.Decimals != nil {
		d := *u.Decimals
		m.Decimals = &d
	}

	switch {
	case u.ERC20 != nil:
		v := *u.ERC20
		m.ERC20 = &v
	case existing == nil && id.AssetNamespace == "erc20":
		v := true
		m.ERC20 = &v
	}
	switch {
	case u.SPL != nil:
		v := *u.SPL
		m.SPL = &v
	case existing == nil && id.AssetNamespace == "spl":
		v := true
		m.SPL = &v
	}

	if img != nil {
		m.Logo = registry.LogoPath(id, img.ext)
		return m, nil
	}

	// Keep logo pointing at the icon derived from the identifier.
	icon, err := s.layout.FindIcon(id)
	if err != nil {
		return nil, err
	}
	if icon != "" {
		m.Logo = registry.LogoPath(id, filepath.Ext(icon))
	}
	return m, nil
}

// stageImage resolves src to a local file. The returned cleanup is always
// safe to call and removes any temporary download.
func (s *Service) stageImage(ctx context.Context, src string) (*stagedImage, func(), error) {
	noop := func() {}

	if !fetch.IsRemote(src) {
		ext, ok := registry.SupportedExtension(src)
		if !ok {
			return nil, noop, fmt.Errorf("%w: %q (supported: %s)",
				ErrUnsupportedFormat, filepath.Ext(src), strings.Join(registry.IconExtensions, ", "))
		}
		info, err := os.Stat(src)
		if errors.Is(err, os.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
			return nil, noop, fmt.Errorf("%w: %s", ErrImageNotFound, src)
		}
		if err != nil {
			return nil, noop, fmt.Errorf("checking image %s: %w", src, err)
		}
		if info.Size() == 0 {
			return nil, noop, fmt.Errorf("%w: %s", ErrEmptyImage, src)
		}
		return &stagedImage{path: src, ext: ext}, noop, nil
	}

	if s.fetcher == nil {
		return nil, noop, fmt.Errorf("no image fetcher configured for %s", src)
	}

	s.logger.Info("Downloading image", zap.String("url", src))
	res, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, noop, err
	}
	if len(res.Body) == 0 {
		return nil, noop, fmt.Errorf("%w: %s", ErrEmptyImage, src)
	}

	tmp := filepath.Join(s.tempDir, "contract-metadata-"+uuid.NewString()+res.Extension)
	cleanup := func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove temporary download", zap.String("path", tmp), zap.Error(err))
		}
	}
	if err := os.WriteFile(tmp, res.Body, 0600); err != nil {
		return nil, cleanup, fmt.Errorf("saving download: %w", err)
	}
	s.logger.Debug("Downloaded image",
		zap.String("url", src),
		zap.String("contentType", res.ContentType),
		zap.String("extension", res.Extension),
	)
	return &stagedImage{path: tmp, ext: res.Extension}, cleanup, nil
}

// installIcon copies img to its canonical location and removes icons left
// under other extensions.
func (s *Service) installIcon(id caip.AssetID, img *stagedImage) (string, []string, error) {
	paths := s.layout.Paths(id)
	if err := os.MkdirAll(paths.IconDir, 0755); err != nil {
		return "", nil, fmt.Errorf("creating icon directory: %w", err)
	}

	target := s.layout.IconPath(id, img.ext)
	if err := copyFileAtomic(img.path, target); err != nil {
		return "", nil, fmt.Errorf("saving icon: %w", err)
	}

	icons, err := s.layout.FindIcons(id)
	if err != nil {
		return "", nil, err
	}
	var removed []string
	for _, icon := range icons {
		if icon == target {
			continue
		}
		if err := os.Remove(icon); err != nil {
			return "", nil, fmt.Errorf("removing old icon %s: %w", icon, err)
		}
		s.logger.Debug("Removed old icon", zap.String("path", icon))
		removed = append(removed, icon)
	}
	return target, removed, nil
}
