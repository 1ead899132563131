package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/log"
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

	"github.com/morelucks/reactiaid/x/oracle/keeper"
	"github.com/morelucks/reactiaid/x/oracle/types"
)

const testOwner = "relief1owner"

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
		testOwner,
	)

	return k, ctx
}

func TestOwnerIsImplicitlyAuthorized(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.True(t, k.IsAuthorized(ctx, testOwner))

	err := k.SetAuthorization(ctx, types.NewMsgRevokeAuthorization(testOwner, testOwner))
	require.ErrorIs(t, err, types.ErrInvalidInput)
	require.True(t, k.IsAuthorized(ctx, testOwner))
}

func TestSetAuthorizationOwnerOnly(t *testing.T) {
	k, ctx := setupKeeper(t)

	err := k.SetAuthorization(ctx, types.NewMsgGrantAuthorization("relief1mallory", "relief1mallory"))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.False(t, k.IsAuthorized(ctx, "relief1mallory"))

	require.NoError(t, k.SetAuthorization(ctx, types.NewMsgGrantAuthorization(testOwner, "relief1agency")))
	require.True(t, k.IsAuthorized(ctx, "relief1agency"))

	require.NoError(t, k.SetAuthorization(ctx, types.NewMsgRevokeAuthorization(testOwner, "relief1agency")))
	require.False(t, k.IsAuthorized(ctx, "relief1agency"))
}

func TestTriggerDisasterRejectsUnauthorized(t *testing.T) {
	k, ctx := setupKeeper(t)

	_, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster("relief1mallory", types.DisasterFlood, 7, "Region-A"))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.EqualValues(t, 0, k.LatestSequence(ctx))
}

func TestTriggerDisasterValidatesInput(t *testing.T) {
	k, ctx := setupKeeper(t)

	_, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterFlood, 0, "Region-A"))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterFlood, 11, "Region-A"))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterFlood, 5, "   "))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterType(99), 5, "Region-A"))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	require.EqualValues(t, 0, k.LatestSequence(ctx))
}

func TestTriggerDisasterAppendsWithMonotonicSequence(t *testing.T) {
	k, ctx := setupKeeper(t)

	seq1, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterEarthquake, 9, "Region-B"))
	require.NoError(t, err)
	require.EqualValues(t, 1, seq1)

	seq2, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterFlood, 4, "Region-C"))
	require.NoError(t, err)
	require.EqualValues(t, 2, seq2)

	decl, err := k.GetDeclaration(ctx, seq1)
	require.NoError(t, err)
	require.Equal(t, types.DisasterEarthquake, decl.DisasterType)
	require.EqualValues(t, 9, decl.Severity)
	require.Equal(t, "Region-B", decl.Location)
	require.Equal(t, testOwner, decl.DeclaredBy)
	require.EqualValues(t, ctx.BlockTime().Unix(), decl.DeclaredAtUnix)
	require.EqualValues(t, ctx.BlockHeight(), decl.DeclaredAtBlock)
}

func TestTriggerDisasterEmitsEvent(t *testing.T) {
	k, ctx := setupKeeper(t)

	_, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterHurricane, 8, "Coast-1"))
	require.NoError(t, err)

	events := ctx.EventManager().Events()
	require.NotEmpty(t, events)

	var found bool
	for _, ev := range events {
		if ev.Type == "disaster_declared" {
			found = true
			attrs := map[string]string{}
			for _, a := range ev.Attributes {
				attrs[a.Key] = a.Value
			}
			require.Equal(t, "hurricane", attrs["disaster_type"])
			require.Equal(t, "8", attrs["severity"])
			require.Equal(t, "Coast-1", attrs["location"])
			require.Equal(t, testOwner, attrs["declared_by"])
		}
	}
	require.True(t, found)
}

func TestRevocationDoesNotInvalidatePriorDeclarations(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.NoError(t, k.SetAuthorization(ctx, types.NewMsgGrantAuthorization(testOwner, "relief1agency")))
	seq, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster("relief1agency", types.DisasterWildfire, 6, "Hills-9"))
	require.NoError(t, err)

	require.NoError(t, k.SetAuthorization(ctx, types.NewMsgRevokeAuthorization(testOwner, "relief1agency")))

	decl, err := k.GetDeclaration(ctx, seq)
	require.NoError(t, err)
	require.Equal(t, "relief1agency", decl.DeclaredBy)

	_, err = k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster("relief1agency", types.DisasterWildfire, 6, "Hills-9"))
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestDeclarationsSinceCursor(t *testing.T) {
	k, ctx := setupKeeper(t)

	for i := 0; i < 5; i++ {
		_, err := k.TriggerDisaster(ctx, types.NewMsgTriggerDisaster(testOwner, types.DisasterFlood, 3, "Delta-7"))
		require.NoError(t, err)
	}

	all, err := k.DeclarationsSince(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, decl := range all {
		require.EqualValues(t, i+1, decl.Sequence)
	}

	tail, err := k.DeclarationsSince(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.EqualValues(t, 4, tail[0].Sequence)

	capped, err := k.DeclarationsSince(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)

	empty, err := k.DeclarationsSince(ctx, 5, 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}
