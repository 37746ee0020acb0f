package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/scout/database"
	"github.com/dnldd/scout/engine"
	"github.com/dnldd/scout/monitor"
	"github.com/dnldd/scout/risk"
	"github.com/dnldd/scout/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// defaultScanInterval is the cadence of full market scans.
	defaultScanInterval = time.Hour
	// defaultMonitorInterval is the cadence of open signal checks.
	defaultMonitorInterval = time.Minute * 5
	// defaultCandleLimit is the candle history depth fetched per timeframe.
	defaultCandleLimit = 100
)

// ScoutConfig represents the configuration struct for the scout service.
type ScoutConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Source fetches market data.
	Source shared.MarketSource
	// Indicators computes indicator snapshots from candle history.
	Indicators shared.IndicatorEngine
	// Sentiment scores market sentiment. A nil source scores neutral.
	Sentiment shared.SentimentSource
	// InsertSignal persists an evaluated signal.
	InsertSignal func(ctx context.Context, signal *database.Signal) error
	// FetchOpenSignals fetches all unresolved elite signals.
	FetchOpenSignals func(ctx context.Context) ([]*database.Signal, error)
	// CloseSignal transitions the provided signal to a terminal status,
	// recording the realized percent change.
	CloseSignal func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error
	// Notifier sends outbound alerts. A nil notifier disables alerting.
	Notifier shared.Notifier
	// StopPolicy selects the stop placement policy.
	StopPolicy risk.StopPolicy
	// StopMultiplier scales volatility based stops.
	StopMultiplier float64
	// RewardRatio is the reward multiple per unit of risk.
	RewardRatio float64
	// ScanInterval is the cadence of full market scans.
	ScanInterval time.Duration
	// MonitorInterval is the cadence of open signal checks.
	MonitorInterval time.Duration
	// CandleLimit is the candle history depth fetched per timeframe.
	CandleLimit int
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *ScoutConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scout service"))
	}
	if cfg.Source == nil {
		errs = errors.Join(errs, fmt.Errorf("market data source cannot be nil"))
	}
	if cfg.Indicators == nil {
		errs = errors.Join(errs, fmt.Errorf("indicator engine cannot be nil"))
	}
	if cfg.InsertSignal == nil {
		errs = errors.Join(errs, fmt.Errorf("insert signal function cannot be nil"))
	}
	if cfg.FetchOpenSignals == nil {
		errs = errors.Join(errs, fmt.Errorf("fetch open signals function cannot be nil"))
	}
	if cfg.CloseSignal == nil {
		errs = errors.Join(errs, fmt.Errorf("close signal function cannot be nil"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = defaultScanInterval
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = defaultMonitorInterval
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = defaultCandleLimit
	}

	return errs
}

// Scout represents the market signal scouting service.
type Scout struct {
	cfg           *ScoutConfig
	classifier    *engine.Classifier
	alignment     *engine.AlignmentEvaluator
	calculator    *risk.Calculator
	signalMonitor *monitor.Monitor
	logger        *zerolog.Logger
}

// NewScout initializes a new scout service.
func NewScout(cfg *ScoutConfig) (*Scout, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "scout").Logger()

	classifier := engine.NewClassifier(&engine.ClassifierConfig{})
	alignment := engine.NewAlignmentEvaluator(&engine.AlignmentConfig{})
	calculator := risk.NewCalculator(&risk.CalculatorConfig{
		Policy:         cfg.StopPolicy,
		StopMultiplier: cfg.StopMultiplier,
		RewardRatio:    cfg.RewardRatio,
	})

	var notifyFunc func(message string)
	if cfg.Notifier != nil {
		notifyFunc = cfg.Notifier.Notify
	}

	monitorLogger := logger.With().Str("component", "monitor").Logger()
	signalMonitor, err := monitor.NewMonitor(&monitor.MonitorConfig{
		FetchOpenSignals: cfg.FetchOpenSignals,
		CloseSignal:      cfg.CloseSignal,
		FetchLastPrice:   cfg.Source.FetchLastPrice,
		Notify:           notifyFunc,
		Logger:           &monitorLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating signal monitor: %v", err)
	}

	service := &Scout{
		cfg:           cfg,
		classifier:    classifier,
		alignment:     alignment,
		calculator:    calculator,
		signalMonitor: signalMonitor,
		logger:        &logger,
	}

	return service, nil
}

// scoreSentiment fetches a sentiment score for the provided market. An
// unavailable or failing sentiment source defaults to neutral, sentiment
// tilts confidence but never blocks a scan.
func (s *Scout) scoreSentiment(ctx context.Context, market string) float64 {
	if s.cfg.Sentiment == nil {
		return 0
	}

	score, err := s.cfg.Sentiment.Score(ctx, market)
	if err != nil {
		s.logger.Warn().Msgf("scoring sentiment for %s, defaulting to neutral: %v", market, err)
		return 0
	}

	return score
}

// persistSignal appends the evaluated signal to the store.
func (s *Scout) persistSignal(ctx context.Context, signal *database.Signal) (*database.Signal, error) {
	err := s.cfg.InsertSignal(ctx, signal)
	if err != nil {
		return nil, fmt.Errorf("persisting signal for %s: %w", signal.Market, err)
	}

	return signal, nil
}

// evaluateMarket runs the full decision pipeline for one market and returns
// the persisted signal. Markets with no usable data persist nothing, an
// absent row means the market was not evaluated, never that it was rejected.
func (s *Scout) evaluateMarket(ctx context.Context, market string) (*database.Signal, error) {
	snapshots := make(map[shared.Timeframe]*shared.MarketSnapshot)
	regimes := make(map[shared.Timeframe]shared.Regime)

	for _, timeframe := range shared.RequiredTimeframes() {
		candles, err := s.cfg.Source.FetchCandles(ctx, market, timeframe, s.cfg.CandleLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching %s candles for %s: %w", timeframe.String(), market, err)
		}

		snapshot, err := s.cfg.Indicators.Compute(candles)
		if err != nil {
			return nil, fmt.Errorf("computing %s indicators for %s: %w", timeframe.String(), market, err)
		}

		snapshots[timeframe] = snapshot
		regimes[timeframe] = s.classifier.Classify(snapshot)
	}

	primary := snapshots[shared.OneHour]
	entryPrice, ok := primary.LastClose()
	if !ok {
		return nil, fmt.Errorf("no usable close price for %s", market)
	}

	signal := database.NewSignal(market, entryPrice)
	signal.Regimes = regimes
	signal.RSI = primary.RSI
	signal.ADX = primary.ADX
	signal.ATR = primary.ATR
	signal.VolumeRatio = primary.VolumeRatio

	aligned, alignReason := s.alignment.Evaluate(regimes, primary.ADX)
	signal.Aligned = aligned
	if !aligned {
		err := signal.Reject(alignReason)
		if err != nil {
			return nil, err
		}

		return s.persistSignal(ctx, signal)
	}

	// A unanimous ranging alignment carries no tradeable direction.
	direction, ok := regimes[shared.OneHour].Direction()
	if !ok {
		err := signal.Reject(fmt.Sprintf("%s market carries no direction",
			regimes[shared.OneHour].String()))
		if err != nil {
			return nil, err
		}

		return s.persistSignal(ctx, signal)
	}
	signal.Direction = direction

	passed, momentumReason := s.alignment.CheckMomentum(direction, primary.RSI)
	if !passed {
		err := signal.Reject(momentumReason)
		if err != nil {
			return nil, err
		}

		return s.persistSignal(ctx, signal)
	}

	timeframes := shared.RequiredTimeframes()
	agreements := make([]bool, 0, len(timeframes))
	for _, timeframe := range timeframes {
		regimeDirection, ok := regimes[timeframe].Direction()
		agreements = append(agreements, ok && regimeDirection == direction)
	}

	sentimentScore := s.scoreSentiment(ctx, market)
	signal.Confidence = engine.Confidence(agreements, sentimentScore, direction)

	stopLoss, takeProfit, err := s.calculator.Levels(primary, direction, entryPrice)
	if err != nil {
		rejectErr := signal.Reject(fmt.Sprintf("no usable risk levels: %v", err))
		if rejectErr != nil {
			return nil, rejectErr
		}

		return s.persistSignal(ctx, signal)
	}

	signal.StopLoss = stopLoss
	signal.TakeProfit = takeProfit

	err = signal.Accept(alignReason)
	if err != nil {
		return nil, err
	}

	return s.persistSignal(ctx, signal)
}

// RunScan evaluates every tracked market once. A failure on one market is
// logged and skipped, it never aborts the batch.
func (s *Scout) RunScan(ctx context.Context) {
	for _, market := range s.cfg.Markets {
		if ctx.Err() != nil {
			return
		}

		signal, err := s.evaluateMarket(ctx, market)
		if err != nil {
			s.logger.Error().Msgf("evaluating %s: %v", market, err)
			continue
		}

		switch signal.Status {
		case database.Elite:
			s.logger.Info().Msgf("elite %s signal for %s: entry %.8f, stop %.8f, target %.8f, confidence %.2f",
				signal.Direction.String(), signal.Market, signal.EntryPrice,
				signal.StopLoss, signal.TakeProfit, signal.Confidence)

			if s.cfg.Notifier != nil {
				s.cfg.Notifier.Notify(fmt.Sprintf("%s %s elite signal: entry %.8f, stop %.8f, target %.8f, confidence %.2f",
					signal.Market, signal.Direction.String(), signal.EntryPrice,
					signal.StopLoss, signal.TakeProfit, signal.Confidence))
			}
		default:
			s.logger.Info().Msgf("rejected signal for %s: %s", signal.Market, signal.Reason)
		}
	}
}

// RunMonitor re-evaluates open elite signals once, closing those that
// crossed their levels.
func (s *Scout) RunMonitor(ctx context.Context) {
	_, err := s.signalMonitor.Scan(ctx)
	if err != nil {
		s.logger.Error().Msgf("monitoring open signals: %v", err)
	}
}

// Run handles the lifecycle processes of the scout service.
func (s *Scout) Run(ctx context.Context) error {
	// Evaluate all tracked markets immediately, the scheduler only fires
	// after a full interval elapses.
	s.RunScan(ctx)

	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(s.cfg.ScanInterval).Do(func() {
		s.RunScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling market scans: %v", err)
	}

	_, err = scheduler.Every(s.cfg.MonitorInterval).Do(func() {
		s.RunMonitor(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling signal monitoring: %v", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	return nil
}
