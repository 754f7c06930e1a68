package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/fetch"
)

// LegacyEntry is one value of a legacy contract-map.json, keyed by address.
type LegacyEntry struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
	Logo     string `json:"logo"`
	ERC20    bool   `json:"erc20"`
}

// ImportOptions controls a legacy import.
type ImportOptions struct {
	Chain caip.ChainID
	// ImagesDir resolves relative logo file names.
	ImagesDir string
}

// ImportFailure records an entry that could not be imported.
type ImportFailure struct {
	Address string
	Err     error
}

// ImportSummary reports the outcome of Import.
type ImportSummary struct {
	Imported []caip.AssetID
	Skipped  []string
	Failed   []ImportFailure
}

// Import migrates a legacy address-keyed contract map into the registry
// layout under opts.Chain. Only erc20 entries are imported. Entries are
// processed in address order and one failure does not stop the rest.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportSummary, error) {
	var legacy map[string]LegacyEntry
	if err := json.NewDecoder(r).Decode(&legacy); err != nil {
		return nil, fmt.Errorf("decoding contract map: %w", err)
	}

	addresses := make([]string, 0, len(legacy))
	for addr := range legacy {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	summary := &ImportSummary{}
	for _, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		entry := legacy[addr]
		if !entry.ERC20 {
			summary.Skipped = append(summary.Skipped, addr)
			continue
		}

		id, err := caip.Parse(opts.Chain.String() + "/erc20:" + addr)
		if err != nil {
			summary.Failed = append(summary.Failed, ImportFailure{Address: addr, Err: err})
			continue
		}

		u := Update{
			Name:     &entry.Name,
			Symbol:   &entry.Symbol,
			Decimals: entry.Decimals,
			Image:    legacyImage(entry.Logo, opts.ImagesDir),
		}
		if _, err := s.Upsert(ctx, id, u); err != nil {
			s.logger.Warn("Import failed", zap.String("address", addr), zap.Error(err))
			summary.Failed = append(summary.Failed, ImportFailure{Address: addr, Err: err})
			continue
		}
		summary.Imported = append(summary.Imported, id)
	}

	s.logger.Info("Import finished",
		zap.Int("imported", len(summary.Imported)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func legacyImage(logo, imagesDir string) string {
	if logo == "" || fetch.IsRemote(logo) {
		return logo
	}
	return filepath.Join(imagesDir, logo)
}
