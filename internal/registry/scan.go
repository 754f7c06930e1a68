package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pendergraft/contract-metadata/internal/caip"
)

// Record is one metadata file found by Scan.
type Record struct {
	ID       caip.AssetID
	Path     string
	Metadata *Metadata
	// Err is set when the file could not be decoded.
	Err error
}

// Filter narrows Scan results.
type Filter struct {
	// Chain matches a full chain id ("eip155:56") exactly or a bare
	// namespace ("eip155"). Empty matches everything.
	Chain string
}

// Validate checks that Chain is empty, a bare namespace or a CAIP-2 chain id.
func (f Filter) Validate() error {
	if f.Chain == "" || caip.IsNamespace(f.Chain) {
		return nil
	}
	if _, err := caip.ParseChainID(f.Chain); err != nil {
		return fmt.Errorf("%w %q: expected a namespace (eip155) or chain id (eip155:1)", ErrInvalidFilter, f.Chain)
	}
	return nil
}

func (f Filter) match(id caip.AssetID) bool {
	if f.Chain == "" {
		return true
	}
	if strings.Contains(f.Chain, ":") {
		return id.ChainID().String() == f.Chain
	}
	return id.ChainNamespace == f.Chain
}

// Scan walks the metadata tree and returns every record matching filter,
// sorted by identifier. Files whose names do not form a valid identifier are
// skipped. The index is rebuilt on every call.
func (l Layout) Scan(filter Filter) ([]Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	root := l.MetadataRoot()
	chainDirs, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	var records []Record
	for _, chainDir := range chainDirs {
		if !chainDir.IsDir() {
			continue
		}

		dir := filepath.Join(root, chainDir.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || filepath.Ext(name) != ".json" {
				continue
			}
			id, err := caip.Parse(chainDir.Name() + "/" + strings.TrimSuffix(name, ".json"))
			if err != nil || !filter.match(id) {
				continue
			}

			rec := Record{ID: id, Path: filepath.Join(dir, name)}
			data, err := os.ReadFile(rec.Path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", rec.Path, err)
			}
			rec.Metadata, rec.Err = Decode(data)
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID.String() < records[j].ID.String()
	})
	return records, nil
}
