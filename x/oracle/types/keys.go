package types

const (
	// ModuleName is the disaster oracle module namespace.
	ModuleName = "oracle"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// AuthorizedKeyPrefix stores the set of principals allowed to declare.
	AuthorizedKeyPrefix = []byte{0x01}

	// DeclarationKeyPrefix stores declarations keyed by sequence.
	DeclarationKeyPrefix = []byte{0x02}

	// DeclarationCountKey stores the last assigned declaration sequence.
	DeclarationCountKey = []byte{0x03}
)
