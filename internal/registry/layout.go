// Package registry maps CAIP-19 identifiers onto the on-disk registry layout
// and reads and writes metadata records and icons.
//
// Layout:
//
//	<root>/metadata/<chainNs>:<chainRef>/<assetNs>:<assetRef>.json
//	<root>/icons/<chainNs>:<chainRef>/<assetNs>:<assetRef>.{svg|png|jpg|jpeg}
//
// The identifier is the source of truth for where an icon lives. The logo
// field of a record is a denormalized copy of LogoPath and every write keeps
// the two equal.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pendergraft/contract-metadata/internal/caip"
)

const (
	metadataDir = "metadata"
	iconsDir    = "icons"
)

// IconExtensions lists supported icon extensions in lookup priority order.
var IconExtensions = []string{".svg", ".png", ".jpg", ".jpeg"}

// PreferredExtensions are the icon formats that pass verification without a warning.
var PreferredExtensions = []string{".svg", ".png"}

// Layout resolves registry paths under Root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root. An empty root means the current directory.
func NewLayout(root string) Layout {
	if root == "" {
		root = "."
	}
	return Layout{Root: root}
}

// Paths are the derived locations of one asset.
type Paths struct {
	MetadataPath string
	MetadataDir  string
	IconDir      string
	// IconBase is the icon path without an extension.
	IconBase string
}

// Paths is a pure mapping from identifier to file locations.
func (l Layout) Paths(id caip.AssetID) Paths {
	chain := id.ChainID().String()
	key := id.AssetKey()

	metaDir := filepath.Join(l.Root, metadataDir, chain)
	iconDir := filepath.Join(l.Root, iconsDir, chain)
	return Paths{
		MetadataPath: filepath.Join(metaDir, key+".json"),
		MetadataDir:  metaDir,
		IconDir:      iconDir,
		IconBase:     filepath.Join(iconDir, key),
	}
}

// MetadataRoot is the directory holding all per-chain metadata directories.
func (l Layout) MetadataRoot() string {
	return filepath.Join(l.Root, metadataDir)
}

// IconPath is the icon location for id with the given extension.
func (l Layout) IconPath(id caip.AssetID, ext string) string {
	return l.Paths(id).IconBase + ext
}

// LogoPath is the value stored in a record's logo field: a slash-separated
// path relative to the registry root.
func LogoPath(id caip.AssetID, ext string) string {
	return "./" + path.Join(iconsDir, id.ChainID().String(), id.AssetKey()+ext)
}

// FindIcons returns every existing icon file for id, in extension priority order.
func (l Layout) FindIcons(id caip.AssetID) ([]string, error) {
	base := l.Paths(id).IconBase
	var found []string
	for _, ext := range IconExtensions {
		p := base + ext
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking icon %s: %w", p, err)
		}
		if info.Mode().IsRegular() {
			found = append(found, p)
		}
	}
	return found, nil
}

// FindIcon returns the highest priority icon for id, or "" when none exists.
func (l Layout) FindIcon(id caip.AssetID) (string, error) {
	icons, err := l.FindIcons(id)
	if err != nil || len(icons) == 0 {
		return "", err
	}
	return icons[0], nil
}

// SupportedExtension returns the lower-cased extension of name when it is a
// supported icon format.
func SupportedExtension(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range IconExtensions {
		if ext == e {
			return ext, true
		}
	}
	return "", false
}

// IsPreferredExtension reports whether ext is svg or png.
func IsPreferredExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range PreferredExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
