package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
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
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/morelucks/reactiaid/client/tracker"
	"github.com/morelucks/reactiaid/relay"
	oraclekeeper "github.com/morelucks/reactiaid/x/oracle/keeper"
	oracletypes "github.com/morelucks/reactiaid/x/oracle/types"
	vaultkeeper "github.com/morelucks/reactiaid/x/vault/keeper"
	vaulttypes "github.com/morelucks/reactiaid/x/vault/types"
)

const defaultListenAddr = ":8610"

type config struct {
	ListenAddr     string
	ChainID        string
	Owner          string
	RelayProxy     string
	BlockInterval  time.Duration
	PollInterval   time.Duration
	FinalityWindow time.Duration
	WorkerCount    int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
	SubmitTimeout  time.Duration
	ConfirmTimeout time.Duration
	BaseUnit       int64
	WeightLow      uint64
	WeightMedium   uint64
	WeightHigh     uint64
	WeightCritical uint64
	DebtFloor      int64
	InitialFunds   int64
}

func loadConfig() config {
	relayCfg := relay.DefaultConfig()
	trackerCfg := tracker.DefaultConfig()
	params := vaulttypes.DefaultParams()

	return config{
		ListenAddr:     envOrDefault("REACTIAID_LISTEN_ADDR", defaultListenAddr),
		ChainID:        envOrDefault("REACTIAID_CHAIN_ID", "reactiaid-local-1"),
		Owner:          envOrDefault("REACTIAID_OWNER", "relief1owner"),
		RelayProxy:     envOrDefault("REACTIAID_RELAY_PROXY", "relief1relay"),
		BlockInterval:  envDuration("REACTIAID_BLOCK_INTERVAL", time.Second),
		PollInterval:   envDuration("REACTIAID_POLL_INTERVAL", relayCfg.PollInterval),
		FinalityWindow: envDuration("REACTIAID_FINALITY_WINDOW", relayCfg.FinalityWindow),
		WorkerCount:    envInt("REACTIAID_WORKERS", relayCfg.WorkerCount),
		MaxAttempts:    envInt("REACTIAID_MAX_ATTEMPTS", relayCfg.MaxAttempts),
		RetryBaseDelay: envDuration("REACTIAID_RETRY_BASE_DELAY", relayCfg.RetryBaseDelay),
		MaxRetryDelay:  envDuration("REACTIAID_MAX_RETRY_DELAY", relayCfg.MaxRetryDelay),
		SubmitTimeout:  envDuration("REACTIAID_SUBMIT_TIMEOUT", relayCfg.SubmitTimeout),
		ConfirmTimeout: envDuration("REACTIAID_CONFIRM_TIMEOUT", trackerCfg.ConfirmTimeout),
		BaseUnit:       envInt64("REACTIAID_BASE_UNIT", params.BaseUnit.Int64()),
		WeightLow:      envUint64("REACTIAID_WEIGHT_LOW", params.WeightLow),
		WeightMedium:   envUint64("REACTIAID_WEIGHT_MEDIUM", params.WeightMedium),
		WeightHigh:     envUint64("REACTIAID_WEIGHT_HIGH", params.WeightHigh),
		WeightCritical: envUint64("REACTIAID_WEIGHT_CRITICAL", params.WeightCritical),
		DebtFloor:      envInt64("REACTIAID_DEBT_FLOOR", params.DebtFloor.Int64()),
		InitialFunds:   envInt64("REACTIAID_INITIAL_FUNDS", 0),
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := cast.ToIntE(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := cast.ToInt64E(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envUint64(key string, fallback uint64) uint64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := cast.ToUint64E(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// chain holds the in-process state machine the daemon fronts: a committed
// multistore with the oracle and vault keepers mounted, plus a block clock.
// All keeper access goes through the mutex so HTTP handlers, the relay
// coordinator and the clock never interleave within a keeper call.
type chain struct {
	mu     sync.Mutex
	ctx    sdk.Context
	oracle oraclekeeper.Keeper
	vault  vaultkeeper.Keeper
}

func newChain(cfg config) (*chain, error) {
	oracleKey := storetypes.NewKVStoreKey(oracletypes.StoreKey)
	vaultKey := storetypes.NewKVStoreKey(vaulttypes.StoreKey)

	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(oracleKey, storetypes.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(vaultKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load multistore: %w", err)
	}

	header := tmproto.Header{
		ChainID: cfg.ChainID,
		Height:  1,
		Time:    time.Now().UTC(),
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	cdc := codec.NewProtoCodec(reg)

	c := &chain{
		ctx:    ctx,
		oracle: oraclekeeper.NewKeeper(cdc, runtime.NewKVStoreService(oracleKey), cfg.Owner),
		vault:  vaultkeeper.NewKeeper(cdc, runtime.NewKVStoreService(vaultKey), cfg.RelayProxy),
	}

	params := vaulttypes.Params{
		BaseUnit:       sdkmath.NewInt(cfg.BaseUnit),
		WeightLow:      cfg.WeightLow,
		WeightMedium:   cfg.WeightMedium,
		WeightHigh:     cfg.WeightHigh,
		WeightCritical: cfg.WeightCritical,
		DebtFloor:      sdkmath.NewInt(cfg.DebtFloor),
	}
	if err := c.vault.SetParams(ctx, params); err != nil {
		return nil, fmt.Errorf("set vault params: %w", err)
	}
	if cfg.InitialFunds > 0 {
		if err := c.vault.Pay(ctx, sdkmath.NewInt(cfg.InitialFunds)); err != nil {
			return nil, fmt.Errorf("seed vault: %w", err)
		}
	}
	return c, nil
}

// with runs fn against the current block context under the chain mutex.
func (c *chain) with(fn func(sdk.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.ctx)
}

func (c *chain) height() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx.BlockHeight()
}

func (c *chain) advanceBlock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = c.ctx.
		WithBlockHeight(c.ctx.BlockHeight() + 1).
		WithBlockTime(time.Now().UTC())
}

// chainSource adapts the oracle keeper's cursor read to the coordinator's
// declaration source.
type chainSource struct {
	chain *chain
}

func (s chainSource) DeclarationsSince(_ context.Context, afterSeq uint64, limit int) ([]oracletypes.Declaration, error) {
	var out []oracletypes.Declaration
	err := s.chain.with(func(ctx sdk.Context) error {
		decls, err := s.chain.oracle.DeclarationsSince(ctx, afterSeq, limit)
		out = decls
		return err
	})
	return out, err
}

// chainDistributor adapts the vault keeper to the coordinator's distributor,
// signing every call as the relay proxy principal.
type chainDistributor struct {
	chain *chain
	proxy string
}

func (d chainDistributor) Distribute(
	_ context.Context,
	declarationRef uint64,
	disasterType oracletypes.DisasterType,
	severity uint32,
	location string,
	responseLevel vaulttypes.ResponseLevel,
) (sdkmath.Int, error) {
	amount := sdkmath.ZeroInt()
	err := d.chain.with(func(ctx sdk.Context) error {
		got, err := d.chain.vault.Distribute(ctx, d.proxy, declarationRef, disasterType, severity, location, responseLevel)
		amount = got
		return err
	})
	return amount, err
}

type server struct {
	cfg         config
	logger      log.Logger
	chain       *chain
	coordinator *relay.Coordinator

	mu          sync.Mutex
	subSeq      uint64
	submissions map[string]*tracker.Submission
}

func newServer(cfg config, logger log.Logger, ch *chain, coordinator *relay.Coordinator) *server {
	return &server{
		cfg:         cfg,
		logger:      logger,
		chain:       ch,
		coordinator: coordinator,
		submissions: make(map[string]*tracker.Submission),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/declare", s.handleDeclare)
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/declarations", s.handleDeclarations)
	mux.HandleFunc("/distributions", s.handleDistributions)
	mux.HandleFunc("/failures", s.handleFailures)
	mux.HandleFunc("/locations/", s.handleLocation)
	mux.HandleFunc("/funds", s.handleFunds)
	mux.HandleFunc("/pay", s.handlePay)
	mux.HandleFunc("/cover-debt", s.handleCoverDebt)
	mux.HandleFunc("/submissions/", s.handleSubmission)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "reactiaid-relayd",
		"status":  "ok",
		"height":  s.chain.height(),
		"cursor":  s.coordinator.Cursor(),
	})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"height":       s.chain.height(),
		"cursor":       s.coordinator.Cursor(),
		"metrics":      s.coordinator.MetricsSnapshot(),
		"declarations": s.coordinator.Statuses(),
	})
}

type declareRequest struct {
	Declarer     string `json:"declarer"`
	DisasterType string `json:"disaster_type"`
	Severity     uint32 `json:"severity"`
	Location     string `json:"location"`
}

func (s *server) handleDeclare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req declareRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid declare request")
		return
	}
	disasterType, err := oracletypes.DisasterTypeFromString(req.DisasterType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := oracletypes.NewMsgTriggerDisaster(req.Declarer, disasterType, req.Severity, req.Location)
	sub := tracker.New(s.logger, tracker.Config{
		SubmitTimeout:  s.cfg.SubmitTimeout,
		ConfirmTimeout: s.cfg.ConfirmTimeout,
	})

	s.mu.Lock()
	s.subSeq++
	id := fmt.Sprintf("sub-%d", s.subSeq)
	s.submissions[id] = sub
	s.mu.Unlock()

	sub.Start(
		func(_ context.Context) (uint64, error) {
			var seq uint64
			err := s.chain.with(func(ctx sdk.Context) error {
				got, err := s.chain.oracle.TriggerDisaster(ctx, msg)
				seq = got
				return err
			})
			return seq, err
		},
		s.awaitDistribution,
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"submission_id": id,
		"status":        sub.Status(),
	})
}

// awaitDistribution polls until the vault holds a record for the declaration
// or the relay marks it terminally failed, whichever comes first.
func (s *server) awaitDistribution(ctx context.Context, seq uint64) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		var found bool
		_ = s.chain.with(func(sdkCtx sdk.Context) error {
			if _, err := s.chain.vault.GetDistribution(sdkCtx, seq); err == nil {
				found = true
			}
			return nil
		})
		if found {
			return nil
		}
		if st, ok := s.coordinator.Status(seq); ok && st.State == relay.StateFailed {
			if st.LastErr != nil {
				return st.LastErr
			}
			return fmt.Errorf("distribution failed: %s", st.LastError)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/submissions/")
	s.mu.Lock()
	sub, ok := s.submissions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown submission")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submission_id": id,
		"status":        sub.Status(),
	})
}

type authorizeRequest struct {
	Requester string `json:"requester"`
	Principal string `json:"principal"`
	Granted   bool   `json:"granted"`
}

func (s *server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req authorizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid authorize request")
		return
	}

	msg := oracletypes.MsgSetAuthorization{
		Requester: req.Requester,
		Principal: req.Principal,
		Granted:   req.Granted,
	}
	err := s.chain.with(func(ctx sdk.Context) error {
		return s.chain.oracle.SetAuthorization(ctx, msg)
	})
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"principal": strings.TrimSpace(req.Principal),
		"granted":   req.Granted,
	})
}

func (s *server) handleDeclarations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var decls []oracletypes.Declaration
	err := s.chain.with(func(ctx sdk.Context) error {
		got, err := s.chain.oracle.DeclarationsSince(ctx, 0, 0)
		decls = got
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"declarations": decls})
}

func (s *server) handleDistributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records := make([]vaulttypes.DistributionRecord, 0)
	err := s.chain.with(func(ctx sdk.Context) error {
		return s.chain.vault.WalkDistributions(ctx, func(record vaulttypes.DistributionRecord) (bool, error) {
			records = append(records, record)
			return false, nil
		})
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"distributions": records})
}

func (s *server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"failures": s.coordinator.Failures()})
}

func (s *server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	location := strings.TrimPrefix(r.URL.Path, "/locations/")
	if location == "" {
		ledger := make(map[string]string)
		_ = s.chain.with(func(ctx sdk.Context) error {
			return s.chain.vault.WalkLedger(ctx, func(loc string, amount sdkmath.Int) (bool, error) {
				ledger[loc] = amount.String()
				return false, nil
			})
		})
		writeJSON(w, http.StatusOK, map[string]any{"locations": ledger})
		return
	}

	var amount sdkmath.Int
	_ = s.chain.with(func(ctx sdk.Context) error {
		amount = s.chain.vault.LocationFunds(ctx, location)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"location": location,
		"amount":   amount.String(),
	})
}

func (s *server) handleFunds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var balance, total sdkmath.Int
	_ = s.chain.with(func(ctx sdk.Context) error {
		balance = s.chain.vault.GetBalance(ctx)
		total = s.chain.vault.GetTotalDistributed(ctx)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":           balance.String(),
		"total_distributed": total.String(),
	})
}

type payRequest struct {
	Amount string `json:"amount"`
}

func (s *server) handlePay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req payRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pay request")
		return
	}
	amount, ok := sdkmath.NewIntFromString(strings.TrimSpace(req.Amount))
	if !ok {
		writeError(w, http.StatusBadRequest, "amount must be an integer string")
		return
	}

	err := s.chain.with(func(ctx sdk.Context) error {
		return s.chain.vault.Pay(ctx, amount)
	})
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	var balance sdkmath.Int
	_ = s.chain.with(func(ctx sdk.Context) error {
		balance = s.chain.vault.GetBalance(ctx)
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"credited": amount.String(),
		"balance":  balance.String(),
	})
}

func (s *server) handleCoverDebt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var covered, balance sdkmath.Int
	err := s.chain.with(func(ctx sdk.Context) error {
		got, err := s.chain.vault.CoverDebt(ctx)
		covered = got
		balance = s.chain.vault.GetBalance(ctx)
		return err
	})
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"covered": covered.String(),
		"balance": balance.String(),
	})
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, oracletypes.ErrUnauthorized), errors.Is(err, vaulttypes.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, oracletypes.ErrInvalidInput), errors.Is(err, vaulttypes.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, vaulttypes.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, oracletypes.ErrDeclarationNotFound), errors.Is(err, vaulttypes.ErrDistributionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func run() error {
	cfg := loadConfig()
	logger := log.NewLogger(os.Stderr)

	ch, err := newChain(cfg)
	if err != nil {
		return fmt.Errorf("init chain state: %w", err)
	}

	relayCfg := relay.DefaultConfig()
	relayCfg.PollInterval = cfg.PollInterval
	relayCfg.FinalityWindow = cfg.FinalityWindow
	relayCfg.WorkerCount = cfg.WorkerCount
	relayCfg.MaxAttempts = cfg.MaxAttempts
	relayCfg.RetryBaseDelay = cfg.RetryBaseDelay
	relayCfg.MaxRetryDelay = cfg.MaxRetryDelay
	relayCfg.SubmitTimeout = cfg.SubmitTimeout

	coordinator := relay.NewCoordinator(
		logger,
		chainSource{chain: ch},
		chainDistributor{chain: ch, proxy: cfg.RelayProxy},
		relayCfg,
	)
	coordinator.Start()
	defer coordinator.Stop()

	stopClock := make(chan struct{})
	defer close(stopClock)
	go func() {
		ticker := time.NewTicker(cfg.BlockInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopClock:
				return
			case <-ticker.C:
				ch.advanceBlock()
			}
		}
	}()

	srv := newServer(cfg, logger, ch, coordinator)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting relay daemon",
		"listen", cfg.ListenAddr,
		"owner", cfg.Owner,
		"relay_proxy", cfg.RelayProxy,
		"finality_window", cfg.FinalityWindow,
	)
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "reactiaid-relayd",
		Short:        "Relay daemon bridging disaster declarations to aid distribution",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
