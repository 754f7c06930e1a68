package export

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

const (
	evmNamespace    = "eip155"
	defaultDecimals = 18
)

// TokenList is a token list document in the Uniswap token list format.
type TokenList struct {
	Name      string             `json:"name"`
	LogoURI   string             `json:"logoURI,omitempty"`
	Keywords  []string           `json:"keywords"`
	Timestamp string             `json:"timestamp"`
	Tokens    []Token            `json:"tokens"`
	Version   validation.Version `json:"version"`
}

// Token is one token list entry.
type Token struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// TokenListOptions controls token list generation.
type TokenListOptions struct {
	Name    string
	LogoURI string
	// LogoBaseURL is prefixed to icons/<chain>/<asset><ext> for each token.
	LogoBaseURL string
	Keywords    []string
	Version     string
	Now         func() time.Time
}

// BuildTokenList converts EVM records with hex references into a token list.
// Other namespaces have no numeric chain id and are left out.
func BuildTokenList(records []registry.Record, opts TokenListOptions) (*TokenList, error) {
	if err := usable(records); err != nil {
		return nil, err
	}
	version, err := validation.ParseVersion(opts.Version)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	keywords := opts.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	list := &TokenList{
		Name:      opts.Name,
		LogoURI:   opts.LogoURI,
		Keywords:  keywords,
		Timestamp: now().UTC().Format(time.RFC3339),
		Tokens:    []Token{},
		Version:   version,
	}

	for _, rec := range records {
		id := rec.ID
		if id.ChainNamespace != evmNamespace || !validation.LooksLikeAddress(id.AssetReference) {
			continue
		}
		chainID, err := validation.ValidateChainID(id.ChainReference)
		if err != nil {
			continue
		}

		m := rec.Metadata
		decimals := defaultDecimals
		if m.Decimals != nil {
			decimals = *m.Decimals
		}
		var logoURI string
		if ext := path.Ext(m.Logo); ext != "" {
			logoURI = joinURL(opts.LogoBaseURL, strings.TrimPrefix(registry.LogoPath(id, ext), "./"))
		}

		list.Tokens = append(list.Tokens, Token{
			ChainID:  chainID,
			Address:  id.AssetReference,
			Name:     m.Name,
			Symbol:   m.Symbol,
			Decimals: decimals,
			LogoURI:  logoURI,
		})
	}
	return list, nil
}

// WriteTokenList builds and encodes a token list.
func WriteTokenList(w io.Writer, records []registry.Record, opts TokenListOptions) (int, error) {
	list, err := BuildTokenList(records, opts)
	if err != nil {
		return 0, err
	}
	return len(list.Tokens), writeJSON(w, list)
}

func joinURL(base, rel string) string {
	if base == "" {
		return rel
	}
	return strings.TrimSuffix(base, "/") + "/" + rel
}
