package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	"github.com/morelucks/reactiaid/x/vault/keeper"
	"github.com/morelucks/reactiaid/x/vault/types"
)

const testRelayProxy = "relief1relay"

func setupKeeper(t *testing.T) (keeper.Keeper, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "reactiaid-test-1",
		Height:  1,
		Time:    time.Unix(1_770_000_000, 0).UTC(),
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	k := keeper.NewKeeper(
		cdc,
		runtime.NewKVStoreService(storeKey),
		testRelayProxy,
	)

	return k, ctx
}

func requireLedgerConsistent(t *testing.T, k keeper.Keeper, ctx sdk.Context) {
	t.Helper()
	msg, broken := keeper.AllInvariants(k)(ctx)
	require.False(t, broken, msg)
}

func TestDistributeRejectsNonProxyCaller(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(1_000_000)))

	_, err := k.Distribute(ctx, "relief1mallory", 1, oracletypes.DisasterFlood, 7, "Region-A", types.ResponseHigh)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.True(t, k.GetTotalDistributed(ctx).IsZero())
	require.True(t, k.LocationFunds(ctx, "Region-A").IsZero())
	requireLedgerConsistent(t, k, ctx)
}

func TestDistributeAppliesFormulaDeterministically(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(10_000_000)))

	params := k.GetParams(ctx)
	for severity := uint32(1); severity <= 10; severity++ {
		want, err := params.PayoutAmount(severity, types.ResponseHigh)
		require.NoError(t, err)
		require.Equal(t, params.BaseUnit.MulRaw(int64(severity)).MulRaw(int64(params.WeightHigh)), want)

		got, err := k.Distribute(ctx, testRelayProxy, uint64(severity), oracletypes.DisasterEarthquake, severity, "Region-B", types.ResponseHigh)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	requireLedgerConsistent(t, k, ctx)
}

func TestDistributeIsIdempotentPerDeclaration(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(1_000_000)))

	first, err := k.Distribute(ctx, testRelayProxy, 42, oracletypes.DisasterEarthquake, 9, "Region-B", types.ResponseHigh)
	require.NoError(t, err)
	require.True(t, first.IsPositive())

	totalAfter := k.GetTotalDistributed(ctx)
	balanceAfter := k.GetBalance(ctx)

	// Simulated duplicate relay delivery: no further state change.
	second, err := k.Distribute(ctx, testRelayProxy, 42, oracletypes.DisasterEarthquake, 9, "Region-B", types.ResponseHigh)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, totalAfter, k.GetTotalDistributed(ctx))
	require.Equal(t, balanceAfter, k.GetBalance(ctx))
	require.Equal(t, first, k.LocationFunds(ctx, "Region-B"))

	record, err := k.GetDistribution(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, first, record.Amount)
	requireLedgerConsistent(t, k, ctx)
}

func TestDistributeHonorsDebtFloor(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.SetParams(ctx, types.Params{
		BaseUnit:       sdkmath.NewInt(1000),
		WeightLow:      1,
		WeightMedium:   2,
		WeightHigh:     3,
		WeightCritical: 5,
		DebtFloor:      sdkmath.NewInt(5000),
	}))

	// Empty vault: severity 5 low response costs 5000, exactly the floor.
	amount, err := k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterFlood, 5, "Region-C", types.ResponseLow)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(5000), amount)
	require.Equal(t, sdkmath.NewInt(-5000), k.GetBalance(ctx))

	// Any further payout breaches the floor and must leave state untouched.
	total := k.GetTotalDistributed(ctx)
	_, err = k.Distribute(ctx, testRelayProxy, 2, oracletypes.DisasterFlood, 1, "Region-D", types.ResponseLow)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
	require.Equal(t, sdkmath.NewInt(-5000), k.GetBalance(ctx))
	require.Equal(t, total, k.GetTotalDistributed(ctx))
	require.True(t, k.LocationFunds(ctx, "Region-D").IsZero())
	_, err = k.GetDistribution(ctx, 2)
	require.ErrorIs(t, err, types.ErrDistributionNotFound)
	requireLedgerConsistent(t, k, ctx)
}

func TestPayAndCoverDebtNeverCreateRecords(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.NoError(t, k.SetParams(ctx, types.Params{
		BaseUnit:       sdkmath.NewInt(1000),
		WeightLow:      1,
		WeightMedium:   2,
		WeightHigh:     3,
		WeightCritical: 5,
		DebtFloor:      sdkmath.NewInt(10_000),
	}))

	// Drive the vault into debt.
	_, err := k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterTornado, 2, "Plains-3", types.ResponseMedium)
	require.NoError(t, err)
	require.True(t, k.GetBalance(ctx).IsNegative())
	total := k.GetTotalDistributed(ctx)

	covered, err := k.CoverDebt(ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(4000), covered)
	require.True(t, k.GetBalance(ctx).IsZero())

	// Covering a solvent vault is a no-op.
	covered, err = k.CoverDebt(ctx)
	require.NoError(t, err)
	require.True(t, covered.IsZero())

	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(750)))
	require.Equal(t, sdkmath.NewInt(750), k.GetBalance(ctx))

	// Funding operations leave the distribution history untouched.
	require.Equal(t, total, k.GetTotalDistributed(ctx))
	count := 0
	require.NoError(t, k.WalkDistributions(ctx, func(types.DistributionRecord) (bool, error) {
		count++
		return false, nil
	}))
	require.Equal(t, 1, count)
	requireLedgerConsistent(t, k, ctx)
}

func TestPayRejectsNonPositiveAmounts(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.ErrorIs(t, k.Pay(ctx, sdkmath.ZeroInt()), types.ErrInvalidInput)
	require.ErrorIs(t, k.Pay(ctx, sdkmath.NewInt(-5)), types.ErrInvalidInput)
}

func TestDistributeValidatesInput(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(1_000_000)))

	_, err := k.Distribute(ctx, testRelayProxy, 0, oracletypes.DisasterFlood, 5, "Region-A", types.ResponseLow)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterType(99), 5, "Region-A", types.ResponseLow)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterFlood, 11, "Region-A", types.ResponseLow)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterFlood, 5, "  ", types.ResponseLow)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterFlood, 5, "Region-A", types.ResponseLevel(99))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	require.True(t, k.GetTotalDistributed(ctx).IsZero())
	requireLedgerConsistent(t, k, ctx)
}

func TestDistributeEmitsEvent(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(1_000_000)))

	amount, err := k.Distribute(ctx, testRelayProxy, 7, oracletypes.DisasterHurricane, 8, "Coast-1", types.ResponseCritical)
	require.NoError(t, err)

	var found bool
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == "aid_distributed" {
			found = true
			attrs := map[string]string{}
			for _, a := range ev.Attributes {
				attrs[a.Key] = a.Value
			}
			require.Equal(t, "7", attrs["declaration_ref"])
			require.Equal(t, "hurricane", attrs["disaster_type"])
			require.Equal(t, "critical", attrs["response_level"])
			require.Equal(t, amount.String(), attrs["amount"])
		}
	}
	require.True(t, found)
}

func TestLedgerAccumulatesAcrossLocations(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.Pay(ctx, sdkmath.NewInt(10_000_000)))

	a1, err := k.Distribute(ctx, testRelayProxy, 1, oracletypes.DisasterFlood, 4, "Delta-7", types.ResponseMedium)
	require.NoError(t, err)
	a2, err := k.Distribute(ctx, testRelayProxy, 2, oracletypes.DisasterFlood, 6, "Delta-7", types.ResponseHigh)
	require.NoError(t, err)
	a3, err := k.Distribute(ctx, testRelayProxy, 3, oracletypes.DisasterWildfire, 3, "Hills-9", types.ResponseLow)
	require.NoError(t, err)

	require.Equal(t, a1.Add(a2), k.LocationFunds(ctx, "Delta-7"))
	require.Equal(t, a3, k.LocationFunds(ctx, "Hills-9"))
	require.Equal(t, a1.Add(a2).Add(a3), k.GetTotalDistributed(ctx))
	requireLedgerConsistent(t, k, ctx)
}
