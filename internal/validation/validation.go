// Package validation provides input validation for the asset registry: the
// metadata record schema, hex address shape checks and semver versions.
package validation

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a parsed major.minor.patch version.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ValidateVersion validates a semantic version string
func ValidateVersion(v string) error {
	// Normalize: strip leading 'v' if present, then add it back for semver library
	normalized := NormalizeVersion(v)
	if normalized == "" {
		return errors.New("version cannot be empty")
	}

	if !semver.IsValid("v" + normalized) {
		return errors.New("invalid semver version: must be in format X.Y.Z")
	}

	// semver accepts "v1" and "v1.2"; token lists need all three parts
	mainPart, _, _ := strings.Cut(normalized, "-")
	mainPart, _, _ = strings.Cut(mainPart, "+")
	if strings.Count(mainPart, ".") < 2 {
		return errors.New("invalid semver version: must be in format X.Y.Z (major.minor.patch)")
	}

	return nil
}

// ParseVersion validates v and returns its numeric parts. Prerelease and
// build suffixes are ignored.
func ParseVersion(v string) (Version, error) {
	if err := ValidateVersion(v); err != nil {
		return Version{}, err
	}

	canonical := strings.TrimPrefix(semver.Canonical("v"+NormalizeVersion(v)), "v")
	canonical, _, _ = strings.Cut(canonical, "-")
	parts := strings.SplitN(canonical, ".", 3)

	var out Version
	var err error
	if out.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, err
	}
	if out.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, err
	}
	if out.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return Version{}, err
	}
	return out, nil
}

// NormalizeVersion normalizes a version string (strips leading 'v')
func NormalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// ValidateAddress validates the shape of an Ethereum address. It does not
// check the EIP-55 checksum.
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	// Check hex characters
	for _, c := range addr[2:] {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid address: contains non-hex characters")
		}
	}
	return nil
}

// LooksLikeAddress reports whether ref uses the 0x hex prefix convention.
func LooksLikeAddress(ref string) bool {
	return strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X")
}

// ValidateChainID validates a numeric EVM chain ID
func ValidateChainID(ref string) (int64, error) {
	chainID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, errors.New("chain ID must be an integer")
	}
	if chainID <= 0 {
		return 0, errors.New("chain ID must be positive")
	}
	return chainID, nil
}
