package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/morelucks/reactiaid/x/oracle/types"
)

// Keeper manages the authorization registry and the append-only declaration
// log. The log is the canonical, replayable history of declared disasters;
// the relay coordinator consumes it through DeclarationsSince.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	owner        string

	Authorized       collections.KeySet[string]
	Declarations     collections.Map[uint64, string]
	DeclarationCount collections.Item[uint64]
}

// NewKeeper creates a new oracle keeper. The owner principal administers the
// authorization registry and is always implicitly authorized to declare.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	owner string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		owner:        strings.TrimSpace(owner),
		Authorized: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.AuthorizedKeyPrefix),
			"authorized",
			collections.StringKey,
		),
		Declarations: collections.NewMap(
			sb,
			collections.NewPrefix(types.DeclarationKeyPrefix),
			"declarations",
			collections.Uint64Key,
			collections.StringValue,
		),
		DeclarationCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.DeclarationCountKey),
			"declaration_count",
			collections.Uint64Value,
		),
	}
}

// GetOwner returns the owner principal.
func (k Keeper) GetOwner() string {
	return k.owner
}

// IsAuthorized reports whether the principal may declare disasters. The
// owner is always authorized regardless of registry contents.
func (k Keeper) IsAuthorized(ctx context.Context, principal string) bool {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return false
	}
	if principal == k.owner {
		return true
	}
	ok, err := k.Authorized.Has(ctx, principal)
	return err == nil && ok
}

// SetAuthorization grants or revokes a principal's declaration rights.
// Only the owner may mutate the registry; the owner itself cannot be
// revoked. Mutations are visible to subsequent reads immediately.
func (k Keeper) SetAuthorization(ctx context.Context, msg types.MsgSetAuthorization) error {
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.Requester) != k.owner {
		return fmt.Errorf("%w: only the owner may change authorization", types.ErrUnauthorized)
	}

	principal := strings.TrimSpace(msg.Principal)
	if msg.Granted {
		return k.Authorized.Set(ctx, principal)
	}
	if principal == k.owner {
		return fmt.Errorf("%w: owner authorization cannot be revoked", types.ErrInvalidInput)
	}
	return k.Authorized.Remove(ctx, principal)
}

// TriggerDisaster validates and appends a declaration, assigning the next
// sequence number, and emits a disaster_declared event carrying the full
// record. Appended declarations are immutable and never deleted.
func (k Keeper) TriggerDisaster(ctx context.Context, msg types.MsgTriggerDisaster) (uint64, error) {
	if err := msg.ValidateBasic(); err != nil {
		return 0, err
	}
	if !k.IsAuthorized(ctx, msg.Declarer) {
		return 0, fmt.Errorf("%w: %s may not declare disasters", types.ErrUnauthorized, msg.Declarer)
	}

	sdkCtx, now := contextNow(ctx)
	seq, err := k.nextSequence(ctx)
	if err != nil {
		return 0, err
	}

	decl := types.Declaration{
		Sequence:        seq,
		DisasterType:    msg.DisasterType,
		Severity:        msg.Severity,
		Location:        strings.TrimSpace(msg.Location),
		DeclaredBy:      strings.TrimSpace(msg.Declarer),
		DeclaredAtUnix:  now.Unix(),
		DeclaredAtBlock: sdkCtx.BlockHeight(),
	}
	if err := k.setDeclaration(ctx, decl); err != nil {
		return 0, err
	}

	emitEventIfPossible(sdkCtx, sdk.NewEvent(
		"disaster_declared",
		sdk.NewAttribute("sequence", fmt.Sprintf("%d", decl.Sequence)),
		sdk.NewAttribute("disaster_type", decl.DisasterType.String()),
		sdk.NewAttribute("severity", fmt.Sprintf("%d", decl.Severity)),
		sdk.NewAttribute("location", decl.Location),
		sdk.NewAttribute("declared_by", decl.DeclaredBy),
		sdk.NewAttribute("declared_at_unix", fmt.Sprintf("%d", decl.DeclaredAtUnix)),
	))

	return seq, nil
}

// GetDeclaration loads a single declaration by sequence.
func (k Keeper) GetDeclaration(ctx context.Context, seq uint64) (*types.Declaration, error) {
	raw, err := k.Declarations.Get(ctx, seq)
	if err != nil {
		return nil, fmt.Errorf("%w: sequence %d", types.ErrDeclarationNotFound, seq)
	}
	decl, err := decodeDeclaration(raw)
	if err != nil {
		return nil, err
	}
	return &decl, nil
}

// DeclarationsSince returns up to limit declarations with sequence greater
// than afterSeq, in ascending order. A limit of zero means no cap. This is
// the relay coordinator's cursor read over the log.
func (k Keeper) DeclarationsSince(ctx context.Context, afterSeq uint64, limit int) ([]types.Declaration, error) {
	out := make([]types.Declaration, 0)
	rng := new(collections.Range[uint64]).StartExclusive(afterSeq)
	err := k.Declarations.Walk(ctx, rng, func(_ uint64, raw string) (bool, error) {
		decl, err := decodeDeclaration(raw)
		if err != nil {
			return false, err
		}
		out = append(out, decl)
		return limit > 0 && len(out) >= limit, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LatestSequence returns the highest assigned sequence, zero when the log is
// empty.
func (k Keeper) LatestSequence(ctx context.Context) uint64 {
	count, err := k.DeclarationCount.Get(ctx)
	if err != nil {
		return 0
	}
	return count
}

func (k Keeper) nextSequence(ctx context.Context) (uint64, error) {
	count, err := k.DeclarationCount.Get(ctx)
	if err != nil {
		count = 0
	}
	count++
	if err := k.DeclarationCount.Set(ctx, count); err != nil {
		return 0, err
	}
	return count, nil
}

func (k Keeper) setDeclaration(ctx context.Context, decl types.Declaration) error {
	raw, err := json.Marshal(decl)
	if err != nil {
		return err
	}
	return k.Declarations.Set(ctx, decl.Sequence, string(raw))
}

func decodeDeclaration(raw string) (types.Declaration, error) {
	var decl types.Declaration
	if err := json.Unmarshal([]byte(raw), &decl); err != nil {
		return types.Declaration{}, fmt.Errorf("decode declaration: %w", err)
	}
	return decl, nil
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
