package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/chains"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

// evmNamespace is the namespace whose hex references must carry a checksum.
const evmNamespace = "eip155"

// Service evaluates registry entries.
type Service struct {
	layout   registry.Layout
	registry *chains.Registry
	logger   *zap.Logger
}

// NewService creates a new verification service.
func NewService(layout registry.Layout, chainRegistry *chains.Registry, logger *zap.Logger) *Service {
	return &Service{
		layout:   layout,
		registry: chainRegistry,
		logger:   logger.Named("verification"),
	}
}

// Verify runs every check for id. Expected failures become report entries;
// the error return is reserved for I/O problems that prevent checking at all.
func (s *Service) Verify(ctx context.Context, id caip.AssetID) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := newReport(id)

	meta, err := s.checkMetadata(id, report)
	if err != nil {
		return nil, err
	}
	if err := s.checkIcon(id, meta, report); err != nil {
		return nil, err
	}
	s.checkChecksum(id, report)

	s.logger.Debug("Verified asset",
		zap.String("asset", id.String()),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// VerifyAll verifies every record in the registry, in identifier order.
func (s *Service) VerifyAll(ctx context.Context, filter registry.Filter) (*Summary, error) {
	records, err := s.layout.Scan(filter)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Reports: make([]*Report, 0, len(records))}
	for _, rec := range records {
		report, err := s.Verify(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", rec.ID, err)
		}
		summary.Reports = append(summary.Reports, report)
		if report.OK() {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary, nil
}

// checkMetadata covers file presence, JSON shape and the schema rules. The
// decoded record is returned when the file parsed, so icon checks can
// compare against its logo.
func (s *Service) checkMetadata(id caip.AssetID, report *Report) (*registry.Metadata, error) {
	raw, err := s.layout.ReadRaw(id)
	if errors.Is(err, registry.ErrNotFound) {
		report.errorf(KindMetadataNotFound, fmt.Sprintf("metadata file not found: %s", s.layout.Paths(id).MetadataPath))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	violations := validation.CheckMetadata(raw)
	for _, v := range violations {
		if v.Kind == validation.KindMalformedJSON {
			report.errorf(KindMalformedJSON, fmt.Sprintf("metadata file is not a valid JSON object: %s", v.Message))
			return nil, nil
		}
	}
	for _, v := range violations {
		report.errorf(Kind(v.Kind), v.String())
	}

	meta, err := registry.Decode(raw)
	if err != nil {
		// Mistyped fields are already reported; keep the logo for the icon checks.
		var loose map[string]any
		if json.Unmarshal(raw, &loose) == nil {
			if logo, ok := loose["logo"].(string); ok {
				return &registry.Metadata{Logo: logo}, nil
			}
		}
		return nil, nil
	}
	return meta, nil
}

func (s *Service) checkIcon(id caip.AssetID, meta *registry.Metadata, report *Report) error {
	icons, err := s.layout.FindIcons(id)
	if err != nil {
		return err
	}

	if meta != nil && meta.Logo != "" && strings.ContainsFunc(meta.Logo, unicode.IsSpace) {
		report.errorf(KindIconFileName, fmt.Sprintf("logo path must not contain spaces: %q", meta.Logo))
	}

	if len(icons) == 0 {
		report.errorf(KindIconNotFound, fmt.Sprintf("icon file not found: %s.{%s}",
			s.layout.Paths(id).IconBase, strings.Join(trimDots(registry.IconExtensions), ",")))
		return nil
	}
	if len(icons) > 1 {
		names := make([]string, len(icons))
		for i, icon := range icons {
			names[i] = filepath.Base(icon)
		}
		report.errorf(KindIconDuplicate, fmt.Sprintf("more than one icon file: %s", strings.Join(names, ", ")))
	}

	icon := icons[0]
	info, err := os.Stat(icon)
	if err != nil {
		return fmt.Errorf("checking icon: %w", err)
	}
	if info.Size() == 0 {
		report.errorf(KindIconEmpty, fmt.Sprintf("icon file is empty: %s", icon))
	}

	ext := filepath.Ext(icon)
	if !registry.IsPreferredExtension(ext) {
		report.warnf(KindIconFormat, fmt.Sprintf("icon should be .svg or .png, found %s", ext))
	}
	if strings.ContainsFunc(filepath.Base(icon), unicode.IsSpace) {
		report.errorf(KindIconFileName, fmt.Sprintf("icon file name must not contain spaces: %q", filepath.Base(icon)))
	}

	if meta != nil && meta.Logo != "" {
		if want := registry.LogoPath(id, ext); meta.Logo != want {
			report.errorf(KindLogoMismatch, fmt.Sprintf("logo %q does not match icon file, expected %q", meta.Logo, want))
		}
	}
	return nil
}

func (s *Service) checkChecksum(id caip.AssetID, report *Report) {
	ref := id.AssetReference
	if !validation.LooksLikeAddress(ref) {
		if id.ChainNamespace == evmNamespace && id.AssetNamespace == "erc20" {
			report.warnf(KindReferenceFormat, fmt.Sprintf("reference %q is not a hex address; checksum not checked", ref))
		}
		return
	}

	var validator chains.ChecksumValidator
	module, ok := s.registry.Get(id.ChainNamespace)
	if ok {
		validator = module.Checksum()
	}
	if validator == nil {
		if id.ChainNamespace == evmNamespace {
			report.warnf(KindChecksumUnavailable, "checksum validator unavailable; address casing not checked")
		}
		return
	}

	if validator.IsValidChecksumAddress(ref) {
		return
	}
	msg := fmt.Sprintf("address %s does not match its %s checksum", ref, module.DisplayName())
	if f, ok := validator.(chains.ChecksumFormatter); ok {
		if want, err := f.ToChecksumAddress(ref); err == nil {
			msg = fmt.Sprintf("address %s does not match its %s checksum, expected %s", ref, module.DisplayName(), want)
		} else {
			msg = fmt.Sprintf("address %s is not a valid address: %v", ref, err)
		}
	}
	report.errorf(KindChecksumMismatch, msg)
}

func trimDots(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}
