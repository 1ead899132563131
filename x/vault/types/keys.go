package types

const (
	// ModuleName is the aid vault module namespace.
	ModuleName = "vault"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// DistributionKeyPrefix stores distribution records keyed by the
	// originating declaration sequence (the idempotency key).
	DistributionKeyPrefix = []byte{0x01}

	// LocationLedgerKeyPrefix stores cumulative credited amounts per location.
	LocationLedgerKeyPrefix = []byte{0x02}

	// BalanceKey stores the pooled vault balance.
	BalanceKey = []byte{0x03}

	// TotalDistributedKey stores the cumulative distributed amount.
	TotalDistributedKey = []byte{0x04}

	// ParamsKey stores the payout policy parameters.
	ParamsKey = []byte{0x05}
)
