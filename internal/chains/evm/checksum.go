package evm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/contract-metadata/internal/validation"
)

// Checksum validates EIP-55 mixed-case checksum addresses.
type Checksum struct{}

// IsValidChecksumAddress reports whether addr is a 0x-prefixed 20-byte hex
// address whose letter casing matches its EIP-55 checksum.
func (Checksum) IsValidChecksumAddress(addr string) bool {
	if validation.ValidateAddress(addr) != nil {
		return false
	}
	return common.HexToAddress(addr).Hex() == addr
}

// ToChecksumAddress implements chains.ChecksumFormatter.
func (Checksum) ToChecksumAddress(addr string) (string, error) {
	return ToChecksumAddress(addr)
}

// ToChecksumAddress returns the EIP-55 form of a hex address.
func ToChecksumAddress(addr string) (string, error) {
	if err := validation.ValidateAddress(addr); err != nil {
		return "", err
	}
	return common.HexToAddress(addr).Hex(), nil
}
