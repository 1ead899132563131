package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	"github.com/morelucks/reactiaid/x/vault/types"
)

// Keeper manages the pooled aid funds, the per-location ledger and the
// distribution records. Distribute is idempotent on the declaration
// reference so relay retries can never double-pay.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	relayProxy   string

	Distributions    collections.Map[uint64, string]
	LocationLedger   collections.Map[string, string]
	Balance          collections.Item[string]
	TotalDistributed collections.Item[string]
	Params           collections.Item[string]
}

// NewKeeper creates a new vault keeper. Only the relay proxy principal may
// call Distribute.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	relayProxy string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		relayProxy:   strings.TrimSpace(relayProxy),
		Distributions: collections.NewMap(
			sb,
			collections.NewPrefix(types.DistributionKeyPrefix),
			"distributions",
			collections.Uint64Key,
			collections.StringValue,
		),
		LocationLedger: collections.NewMap(
			sb,
			collections.NewPrefix(types.LocationLedgerKeyPrefix),
			"location_ledger",
			collections.StringKey,
			collections.StringValue,
		),
		Balance: collections.NewItem(
			sb,
			collections.NewPrefix(types.BalanceKey),
			"balance",
			collections.StringValue,
		),
		TotalDistributed: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalDistributedKey),
			"total_distributed",
			collections.StringValue,
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collections.StringValue,
		),
	}
}

// GetRelayProxy returns the principal allowed to distribute.
func (k Keeper) GetRelayProxy() string {
	return k.relayProxy
}

// SetParams replaces the payout policy.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return k.Params.Set(ctx, string(raw))
}

// GetParams returns the payout policy, falling back to defaults when unset.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	raw, err := k.Params.Get(ctx)
	if err != nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// Distribute converts a declaration into a bounded fund transfer. Callable
// only by the relay proxy. If a record already exists for declarationRef the
// call is a no-op returning the previously computed amount. On success the
// balance is debited, the location ledger credited, the record persisted and
// an aid_distributed event emitted, all after every check has passed.
func (k Keeper) Distribute(
	ctx context.Context,
	caller string,
	declarationRef uint64,
	disasterType oracletypes.DisasterType,
	severity uint32,
	location string,
	responseLevel types.ResponseLevel,
) (sdkmath.Int, error) {
	if strings.TrimSpace(caller) != k.relayProxy {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s is not the relay proxy", types.ErrUnauthorized, caller)
	}
	if declarationRef == 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: declaration reference cannot be zero", types.ErrInvalidInput)
	}
	if !disasterType.Valid() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: unknown disaster type %d", types.ErrInvalidInput, disasterType)
	}
	if !responseLevel.Valid() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: unknown response level %d", types.ErrInvalidInput, responseLevel)
	}
	if err := oracletypes.ValidateLocation(location); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", types.ErrInvalidInput, err)
	}
	location = strings.TrimSpace(location)

	// Idempotency check before any state mutation.
	if prior, err := k.GetDistribution(ctx, declarationRef); err == nil {
		return prior.Amount, nil
	}

	params := k.GetParams(ctx)
	amount, err := params.PayoutAmount(severity, responseLevel)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	balance := k.GetBalance(ctx)
	remaining := balance.Sub(amount)
	if remaining.LT(params.DebtFloor.Neg()) {
		return sdkmath.ZeroInt(), fmt.Errorf(
			"%w: payout %s would leave balance %s below floor -%s",
			types.ErrInsufficientFunds, amount, remaining, params.DebtFloor,
		)
	}

	sdkCtx, now := contextNow(ctx)
	record := types.DistributionRecord{
		DeclarationRef:    declarationRef,
		DisasterType:      disasterType,
		Severity:          severity,
		ResponseLevel:     responseLevel,
		Amount:            amount,
		RecipientLocation: location,
		ProcessedAtUnix:   now.Unix(),
		ProcessedAtBlock:  sdkCtx.BlockHeight(),
	}

	if err := k.Balance.Set(ctx, remaining.String()); err != nil {
		return sdkmath.ZeroInt(), err
	}
	credited := k.LocationFunds(ctx, location).Add(amount)
	if err := k.LocationLedger.Set(ctx, location, credited.String()); err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := k.GetTotalDistributed(ctx).Add(amount)
	if err := k.TotalDistributed.Set(ctx, total.String()); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.setDistribution(ctx, record); err != nil {
		return sdkmath.ZeroInt(), err
	}

	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		"aid_distributed",
		sdk.NewAttribute("declaration_ref", fmt.Sprintf("%d", declarationRef)),
		sdk.NewAttribute("disaster_type", disasterType.String()),
		sdk.NewAttribute("severity", fmt.Sprintf("%d", severity)),
		sdk.NewAttribute("location", location),
		sdk.NewAttribute("response_level", responseLevel.String()),
		sdk.NewAttribute("amount", amount.String()),
	))

	return amount, nil
}

// Pay credits the pooled balance. It never creates a distribution record.
func (k Keeper) Pay(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: payment must be positive", types.ErrInvalidInput)
	}
	balance := k.GetBalance(ctx).Add(amount)
	return k.Balance.Set(ctx, balance.String())
}

// CoverDebt tops the balance back up to zero when the vault is in debt and
// returns the amount credited. A vault not in debt is left untouched. It
// never creates a distribution record.
func (k Keeper) CoverDebt(ctx context.Context) (sdkmath.Int, error) {
	balance := k.GetBalance(ctx)
	if !balance.IsNegative() {
		return sdkmath.ZeroInt(), nil
	}
	covered := balance.Neg()
	if err := k.Balance.Set(ctx, sdkmath.ZeroInt().String()); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return covered, nil
}

// GetBalance returns the pooled balance, zero when unset. The balance may be
// negative down to the configured debt floor.
func (k Keeper) GetBalance(ctx context.Context) sdkmath.Int {
	return k.getIntItem(ctx, k.Balance)
}

// GetTotalDistributed returns the cumulative distributed amount.
func (k Keeper) GetTotalDistributed(ctx context.Context) sdkmath.Int {
	return k.getIntItem(ctx, k.TotalDistributed)
}

// LocationFunds returns the cumulative amount credited to a location.
func (k Keeper) LocationFunds(ctx context.Context, location string) sdkmath.Int {
	raw, err := k.LocationLedger.Get(ctx, strings.TrimSpace(location))
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return parseIntOrZero(raw)
}

// GetDistribution loads the distribution record for a declaration reference.
func (k Keeper) GetDistribution(ctx context.Context, declarationRef uint64) (*types.DistributionRecord, error) {
	raw, err := k.Distributions.Get(ctx, declarationRef)
	if err != nil {
		return nil, fmt.Errorf("%w: declaration %d", types.ErrDistributionNotFound, declarationRef)
	}
	var record types.DistributionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}
	return &record, nil
}

// WalkDistributions visits every distribution record in reference order.
func (k Keeper) WalkDistributions(ctx context.Context, fn func(types.DistributionRecord) (stop bool, err error)) error {
	return k.Distributions.Walk(ctx, nil, func(_ uint64, raw string) (bool, error) {
		var record types.DistributionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return false, fmt.Errorf("decode distribution: %w", err)
		}
		return fn(record)
	})
}

// WalkLedger visits every location ledger entry.
func (k Keeper) WalkLedger(ctx context.Context, fn func(location string, amount sdkmath.Int) (stop bool, err error)) error {
	return k.LocationLedger.Walk(ctx, nil, func(location string, raw string) (bool, error) {
		return fn(location, parseIntOrZero(raw))
	})
}

func (k Keeper) setDistribution(ctx context.Context, record types.DistributionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return k.Distributions.Set(ctx, record.DeclarationRef, string(raw))
}

func (k Keeper) getIntItem(ctx context.Context, item collections.Item[string]) sdkmath.Int {
	raw, err := item.Get(ctx)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return parseIntOrZero(raw)
}

func parseIntOrZero(raw string) sdkmath.Int {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return v
}

func unwrapSDKContext(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

func contextNow(ctx context.Context) (sdk.Context, time.Time) {
	if sdkCtx, ok := unwrapSDKContext(ctx); ok {
		return sdkCtx, sdkCtx.BlockTime()
	}
	return sdk.Context{}, time.Now().UTC()
}

func emitEventIfPossible(ctx sdk.Context, event sdk.Event) {
	if em := ctx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}
