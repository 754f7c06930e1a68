// Package chains holds per-namespace capabilities used when checking asset
// references, such as the EVM checksum algorithm.
package chains

// ChecksumValidator checks that an address carries a valid mixed-case checksum.
type ChecksumValidator interface {
	IsValidChecksumAddress(address string) bool
}

// ChecksumFormatter is implemented by validators that can produce the
// correctly cased form of an address.
type ChecksumFormatter interface {
	ToChecksumAddress(address string) (string, error)
}

// Module describes how a chain namespace handles asset references.
type Module interface {
	Namespace() string   // "eip155", "solana"
	DisplayName() string // "Ethereum/EVM", "Solana"

	// Checksum returns the namespace's checksum validator, or nil when the
	// namespace has none.
	Checksum() ChecksumValidator
}

// Registry holds the modules known to the tool, keyed by namespace.
type Registry struct {
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry, replacing any module with the same namespace.
func (r *Registry) Register(m Module) {
	r.modules[m.Namespace()] = m
}

// Get retrieves a module by namespace.
func (r *Registry) Get(namespace string) (Module, bool) {
	m, ok := r.modules[namespace]
	return m, ok
}
