package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/scout/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createSignalsTableSQL = "CREATE TABLE IF NOT EXISTS signals (id TEXT PRIMARY KEY, createdon INTEGER, market TEXT, entryprice REAL, regime1h TEXT, rsi REAL, status TEXT, reason TEXT)"
	tableInfoSQL          = "PRAGMA table_info(signals)"
	insertSignalSQL       = "INSERT INTO signals(id, createdon, hourofday, market, direction, entryprice, regime1h, regime4h, regime1d, rsi, adx, atr, stoploss, takeprofit, aligned, confidence, volumeratio, pctchange, status, reason) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
	queryOpenSignalsSQL   = "SELECT id, createdon, hourofday, market, direction, entryprice, regime1h, regime4h, regime1d, rsi, adx, atr, stoploss, takeprofit, aligned, confidence, volumeratio, pctchange, status, reason FROM signals WHERE status = ?"
	querySignalStatusSQL  = "SELECT status FROM signals WHERE id = ?"
	closeSignalSQL        = "UPDATE signals SET status = ?, reason = ?, pctchange = ? WHERE id = ? AND status = ?"
)

// migration represents one idempotent schema evolution step. A step only
// executes when its column is absent, so the ordered list can be re-applied
// on every startup without touching existing rows.
type migration struct {
	column string
	ddl    string
}

// migrations lists the schema steps in the order they were introduced.
var migrations = []migration{
	{column: "regime4h", ddl: "ALTER TABLE signals ADD COLUMN regime4h TEXT DEFAULT 'unknown'"},
	{column: "regime1d", ddl: "ALTER TABLE signals ADD COLUMN regime1d TEXT DEFAULT 'unknown'"},
	{column: "hourofday", ddl: "ALTER TABLE signals ADD COLUMN hourofday INTEGER DEFAULT 0"},
	{column: "direction", ddl: "ALTER TABLE signals ADD COLUMN direction TEXT DEFAULT 'none'"},
	{column: "adx", ddl: "ALTER TABLE signals ADD COLUMN adx REAL DEFAULT 0"},
	{column: "atr", ddl: "ALTER TABLE signals ADD COLUMN atr REAL DEFAULT 0"},
	{column: "stoploss", ddl: "ALTER TABLE signals ADD COLUMN stoploss REAL DEFAULT 0"},
	{column: "takeprofit", ddl: "ALTER TABLE signals ADD COLUMN takeprofit REAL DEFAULT 0"},
	{column: "aligned", ddl: "ALTER TABLE signals ADD COLUMN aligned INTEGER DEFAULT 0"},
	{column: "confidence", ddl: "ALTER TABLE signals ADD COLUMN confidence REAL DEFAULT 0"},
	{column: "volumeratio", ddl: "ALTER TABLE signals ADD COLUMN volumeratio REAL DEFAULT 0"},
	{column: "pctchange", ddl: "ALTER TABLE signals ADD COLUMN pctchange REAL DEFAULT 0"},
}

// StoreConfig is the configuration for the signal store.
type StoreConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the store logger.
	Logger *zerolog.Logger
}

// SignalStore is the durable, append-only record of every evaluated decision.
type SignalStore struct {
	cfg    *StoreConfig
	client *rqlitehttp.Client

	// exec and queryRows front the store client so the lifecycle rules can
	// be exercised without a live node.
	exec      func(ctx context.Context, sql string, params ...any) error
	queryRows func(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// NewSignalStore initializes a new signal store connection and reconciles
// the schema.
func NewSignalStore(ctx context.Context, cfg *StoreConfig) (*SignalStore, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating signal store client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	store := &SignalStore{
		cfg:    cfg,
		client: client,
	}
	store.exec = store.execStatement
	store.queryRows = store.querySingleRows

	err = store.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing signal store: %w", err)
	}

	return store, nil
}

// execStatement runs a single write statement transactionally against the
// store client.
func (s *SignalStore) execStatement(ctx context.Context, sql string, params ...any) error {
	stmts := rqlitehttp.SQLStatements{{SQL: sql}}
	if len(params) > 0 {
		stmts[0].PositionalParams = params
	}

	resp, err := s.client.Execute(ctx, stmts, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("%d -> %s", idx, errStr)
	}

	return nil
}

// querySingleRows runs a single read statement against the store client and
// flattens the response into associative rows.
func (s *SignalStore) querySingleRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	resp, err := s.client.QuerySingle(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	rows := []map[string]any{}
	for _, result := range resp.GetQueryResultsAssoc() {
		rows = append(rows, result.Rows...)
	}

	return rows, nil
}

// tableColumns returns the set of columns currently present on the signals table.
func (s *SignalStore) tableColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.queryRows(ctx, tableInfoSQL)
	if err != nil {
		return nil, fmt.Errorf("inspecting signals table: %w", err)
	}

	columns := make(map[string]bool)
	for _, row := range rows {
		name, ok := row["name"].(string)
		if ok {
			columns[name] = true
		}
	}

	return columns, nil
}

// Initialize creates the signals table if absent and applies any missing
// column migrations in their introduction order. It is idempotent, running
// it twice is a no-op on the second call and existing rows are preserved.
func (s *SignalStore) Initialize(ctx context.Context) error {
	err := s.exec(ctx, createSignalsTableSQL)
	if err != nil {
		return fmt.Errorf("creating signals table: %w", err)
	}

	columns, err := s.tableColumns(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if columns[step.column] {
			continue
		}

		s.cfg.Logger.Info().Msgf("adding missing signals column: %s", step.column)
		err := s.exec(ctx, step.ddl)
		if err != nil {
			return fmt.Errorf("adding column %s: %w", step.column, err)
		}
	}

	return nil
}

// InsertSignal appends the provided signal row. It never updates or deletes
// existing rows.
func (s *SignalStore) InsertSignal(ctx context.Context, signal *Signal) error {
	if signal.Status != Elite && signal.Status != Rejected {
		s.cfg.Logger.Error().Msgf("unexpected signal state for insert: %s", spew.Sdump(signal))
		return fmt.Errorf("only evaluated (elite or rejected) signals are persisted, got %s",
			signal.Status.String())
	}

	var aligned int
	if signal.Aligned {
		aligned = 1
	}

	err := s.exec(ctx, insertSignalSQL,
		signal.ID, signal.CreatedOn, signal.HourOfDay, signal.Market,
		signal.Direction.String(), signal.EntryPrice,
		signal.Regimes[shared.OneHour].String(), signal.Regimes[shared.FourHour].String(),
		signal.Regimes[shared.OneDay].String(), signal.RSI, signal.ADX, signal.ATR,
		signal.StopLoss, signal.TakeProfit, aligned, signal.Confidence,
		signal.VolumeRatio, signal.PercentChange, signal.Status.String(), signal.Reason)
	if err != nil {
		return fmt.Errorf("inserting signal %s: %w", signal.ID, err)
	}

	return nil
}

// FetchOpenSignals returns all elite signals that have not yet resolved.
func (s *SignalStore) FetchOpenSignals(ctx context.Context) ([]*Signal, error) {
	rows, err := s.queryRows(ctx, queryOpenSignalsSQL, Elite.String())
	if err != nil {
		return nil, fmt.Errorf("querying open signals: %w", err)
	}

	signals := []*Signal{}
	for _, row := range rows {
		signal, err := rowToSignal(row)
		if err != nil {
			return nil, err
		}

		signals = append(signals, signal)
	}

	return signals, nil
}

// CloseSignal transitions exactly one elite signal to the provided terminal
// status, recording the realized percent change. Missing ids and
// already-terminal signals error rather than silently creating or
// overwriting a resolution.
func (s *SignalStore) CloseSignal(ctx context.Context, id string, status SignalStatus, reason string, pnlPercent float64) error {
	if status != ClosedTakeProfit && status != ClosedStopLoss {
		return fmt.Errorf("closing a signal requires a terminal closed status, got %s",
			status.String())
	}

	rows, err := s.queryRows(ctx, querySignalStatusSQL, id)
	if err != nil {
		return fmt.Errorf("querying signal %s: %w", id, err)
	}

	current := ""
	for _, row := range rows {
		str, ok := row["status"].(string)
		if ok {
			current = str
		}
	}

	switch {
	case current == "":
		return fmt.Errorf("no signal found with id %s", id)
	case current != Elite.String():
		return fmt.Errorf("signal %s is already %s", id, current)
	}

	// The status predicate keeps a racing second close from double
	// transitioning the row.
	err = s.exec(ctx, closeSignalSQL, status.String(), reason, pnlPercent, id, Elite.String())
	if err != nil {
		return fmt.Errorf("closing signal %s: %w", id, err)
	}

	return nil
}

// asString coerces the provided row value to a string.
func asString(value any) string {
	str, ok := value.(string)
	if !ok {
		return ""
	}

	return str
}

// asFloat coerces the provided row value to a float. Numeric values arrive
// from the store as json numbers.
func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// rowToSignal converts a signals table row to a signal.
func rowToSignal(row map[string]any) (*Signal, error) {
	status, err := ParseSignalStatus(asString(row["status"]))
	if err != nil {
		return nil, fmt.Errorf("parsing signal row: %w", err)
	}

	signal := &Signal{
		ID:         asString(row["id"]),
		CreatedOn:  uint64(asFloat(row["createdon"])),
		HourOfDay:  int(asFloat(row["hourofday"])),
		Market:     asString(row["market"]),
		Direction:  shared.ParseDirection(asString(row["direction"])),
		EntryPrice: asFloat(row["entryprice"]),
		Regimes: map[shared.Timeframe]shared.Regime{
			shared.OneHour:  shared.ParseRegime(asString(row["regime1h"])),
			shared.FourHour: shared.ParseRegime(asString(row["regime4h"])),
			shared.OneDay:   shared.ParseRegime(asString(row["regime1d"])),
		},
		RSI:           asFloat(row["rsi"]),
		ADX:           asFloat(row["adx"]),
		ATR:           asFloat(row["atr"]),
		StopLoss:      asFloat(row["stoploss"]),
		TakeProfit:    asFloat(row["takeprofit"]),
		Aligned:       asFloat(row["aligned"]) != 0,
		Confidence:    asFloat(row["confidence"]),
		VolumeRatio:   asFloat(row["volumeratio"]),
		PercentChange: asFloat(row["pctchange"]),
		Status:        status,
		Reason:        asString(row["reason"]),
	}

	if signal.ID == "" {
		return nil, fmt.Errorf("signal row has no id")
	}

	return signal, nil
}
