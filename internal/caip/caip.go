// Package caip parses CAIP-2 chain identifiers and CAIP-19 asset identifiers.
package caip

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidFormat is returned when a string is not a valid identifier.
var ErrInvalidFormat = errors.New("not a valid CAIP-19 identifier")

// Namespaces are 3-8 lowercase alphanumerics or hyphens. Chain references
// allow up to 32 characters, asset references up to 128 so that long
// non-EVM references (e.g. base58 mints) fit.
var (
	assetIDRegex = regexp.MustCompile(`^[-a-z0-9]{3,8}:[-a-zA-Z0-9]{1,32}/[-a-z0-9]{3,8}:[-a-zA-Z0-9]{1,128}$`)
	chainIDRegex = regexp.MustCompile(`^[-a-z0-9]{3,8}:[-a-zA-Z0-9]{1,32}$`)
)

// Example is shown in error messages and help text.
const Example = "eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F"

// ChainID is a CAIP-2 chain identifier such as "eip155:1".
type ChainID struct {
	Namespace string
	Reference string
}

// String returns the canonical "namespace:reference" form.
func (c ChainID) String() string {
	return c.Namespace + ":" + c.Reference
}

// AssetID is a parsed CAIP-19 asset identifier.
type AssetID struct {
	ChainNamespace string
	ChainReference string
	AssetNamespace string
	AssetReference string
}

// String reassembles the identifier. For any AssetID returned by Parse it
// equals the parsed input.
func (a AssetID) String() string {
	return a.ChainID().String() + "/" + a.AssetKey()
}

// ChainID returns the chain half of the identifier.
func (a AssetID) ChainID() ChainID {
	return ChainID{Namespace: a.ChainNamespace, Reference: a.ChainReference}
}

// AssetKey returns the asset half, e.g. "erc20:0x6B17...".
func (a AssetID) AssetKey() string {
	return a.AssetNamespace + ":" + a.AssetReference
}

// Parse validates raw against the CAIP-19 grammar and splits it into its
// four components.
func Parse(raw string) (AssetID, error) {
	if !assetIDRegex.MatchString(raw) {
		return AssetID{}, fmt.Errorf("%w: %q (expected namespace:chainId/assetNamespace:assetReference, e.g. %s)",
			ErrInvalidFormat, raw, Example)
	}

	chainPart, assetPart, _ := strings.Cut(raw, "/")
	chainNS, chainRef, _ := strings.Cut(chainPart, ":")
	assetNS, assetRef, _ := strings.Cut(assetPart, ":")

	return AssetID{
		ChainNamespace: chainNS,
		ChainReference: chainRef,
		AssetNamespace: assetNS,
		AssetReference: assetRef,
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) AssetID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseChainID validates a CAIP-2 chain identifier.
func ParseChainID(raw string) (ChainID, error) {
	if !chainIDRegex.MatchString(raw) {
		return ChainID{}, fmt.Errorf("invalid chain id %q: expected namespace:reference, e.g. eip155:1", raw)
	}
	ns, ref, _ := strings.Cut(raw, ":")
	return ChainID{Namespace: ns, Reference: ref}, nil
}

// IsNamespace reports whether s is a bare chain namespace such as "eip155".
func IsNamespace(s string) bool {
	if len(s) < 3 || len(s) > 8 {
		return false
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' {
			return false
		}
	}
	return true
}
