package keeper

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/morelucks/reactiaid/x/vault/types"
)

// RegisterInvariants registers all module invariants with the invariant registry.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "ledger-consistency", LedgerConsistencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "records-match-total", RecordsMatchTotalInvariant(k))
	ir.RegisterRoute(types.ModuleName, "non-negative-amounts", NonNegativeAmountsInvariant(k))
}

// AllInvariants runs all invariants of the vault module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		invariants := []sdk.Invariant{
			LedgerConsistencyInvariant(k),
			RecordsMatchTotalInvariant(k),
			NonNegativeAmountsInvariant(k),
		}

		for _, inv := range invariants {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// LedgerConsistencyInvariant checks that the cumulative distributed amount
// equals the sum over all location ledger entries.
func LedgerConsistencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		ledgerSum := sdkmath.ZeroInt()
		_ = k.WalkLedger(ctx, func(_ string, amount sdkmath.Int) (bool, error) {
			ledgerSum = ledgerSum.Add(amount)
			return false, nil
		})

		total := k.GetTotalDistributed(ctx)
		if !total.Equal(ledgerSum) {
			return fmt.Sprintf(
				"INVARIANT BROKEN: total distributed %s != location ledger sum %s\n",
				total, ledgerSum,
			), true
		}
		return "", false
	}
}

// RecordsMatchTotalInvariant checks that the cumulative distributed amount
// equals the sum of every distribution record ever created.
func RecordsMatchTotalInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		recordSum := sdkmath.ZeroInt()
		_ = k.WalkDistributions(ctx, func(record types.DistributionRecord) (bool, error) {
			recordSum = recordSum.Add(record.Amount)
			return false, nil
		})

		total := k.GetTotalDistributed(ctx)
		if !total.Equal(recordSum) {
			return fmt.Sprintf(
				"INVARIANT BROKEN: total distributed %s != distribution record sum %s\n",
				total, recordSum,
			), true
		}
		return "", false
	}
}

// NonNegativeAmountsInvariant checks that no ledger entry or record carries
// a negative amount.
func NonNegativeAmountsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var msg string
		broken := false

		_ = k.WalkLedger(ctx, func(location string, amount sdkmath.Int) (bool, error) {
			if amount.IsNegative() {
				msg += fmt.Sprintf("INVARIANT BROKEN: ledger entry %q is negative: %s\n", location, amount)
				broken = true
			}
			return false, nil
		})

		_ = k.WalkDistributions(ctx, func(record types.DistributionRecord) (bool, error) {
			if record.Amount.IsNil() || record.Amount.IsNegative() {
				msg += fmt.Sprintf("INVARIANT BROKEN: distribution %d has invalid amount\n", record.DeclarationRef)
				broken = true
			}
			return false, nil
		})

		return msg, broken
	}
}
