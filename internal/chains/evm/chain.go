// Package evm provides the EVM chain module for Ethereum and compatible chains.
package evm

import (
	"github.com/pendergraft/contract-metadata/internal/chains"
)

// Namespace is the CAIP-2 namespace of EVM chains.
const Namespace = "eip155"

// Chain implements chains.Module for EVM-compatible blockchains.
type Chain struct {
	checksum chains.ChecksumValidator
}

// NewChain creates a new EVM chain module using the EIP-55 checksum.
func NewChain() *Chain {
	return &Chain{checksum: Checksum{}}
}

// Namespace returns the chain namespace.
func (c *Chain) Namespace() string {
	return Namespace
}

// DisplayName returns a human-readable name.
func (c *Chain) DisplayName() string {
	return "Ethereum/EVM"
}

// Checksum returns the EIP-55 validator.
func (c *Chain) Checksum() chains.ChecksumValidator {
	return c.checksum
}

// DefaultRegistry returns a registry with the built-in chain modules.
func DefaultRegistry() *chains.Registry {
	r := chains.NewRegistry()
	r.Register(NewChain())
	return r
}
