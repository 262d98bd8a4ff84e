package app

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/matchwire/external/apifootball"
	"github.com/riskibarqy/matchwire/external/openai"
	"github.com/riskibarqy/matchwire/internal/config"
	"github.com/riskibarqy/matchwire/internal/infrastructure/notifier"
	"github.com/riskibarqy/matchwire/internal/infrastructure/notifier/redisstream"
	"github.com/riskibarqy/matchwire/internal/infrastructure/notifier/telegram"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
	"github.com/riskibarqy/matchwire/internal/platform/resilience"
	"github.com/riskibarqy/matchwire/internal/usecase"
)

// App is the wired tracker process.
type App struct {
	Tracker  *usecase.TrackerService
	Pool     *usecase.TrackerPool
	Notifier usecase.EventNotifier
	closers  []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	profiles, err := config.LoadCompetitionProfiles(cfg.CompetitionProfilesFile)
	if err != nil {
		return nil, err
	}

	a := &App{}
	sinks, err := a.buildSinks(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	fanout := notifier.NewFanout(sinks...)
	if fanout.Len() == 0 {
		logger.Warn("no notification sinks enabled, events will be dropped")
	}
	a.Notifier = notifier.NewDedup(fanout, cfg.NotifierDedupTTL)

	provider := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:                    cfg.APIFootballBaseURL,
		APIKey:                     cfg.APIFootballKey,
		Timeout:                    cfg.APIFootballTimeout,
		MaxRetries:                 cfg.APIFootballMaxRetries,
		RetryInterval:              cfg.APIFootballRetryInterval,
		RateLimitBackoffMultiplier: cfg.APIFootballRateLimitMultiplier,
		Logger:                     logger.Named("apifootball"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootballCircuitEnabled,
			FailureThreshold: cfg.APIFootballCircuitFailureCount,
			OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMax,
		},
	})

	commentator := usecase.NewNoopCommentator()
	if cfg.OpenAIEnabled {
		commentator = openai.NewClient(openai.ClientConfig{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIKey,
			Model:          cfg.OpenAIModel,
			Timeout:        cfg.OpenAITimeout,
			CacheTTL:       cfg.NotifierDedupTTL,
			Logger:         logger.Named("openai"),
			CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		})
	}

	usecaseLogger := logger.Named("tracker")
	a.Tracker = usecase.NewTrackerService(
		provider,
		a.Notifier,
		commentator,
		usecase.NewBudgetGuard(cfg.TrackerQuotaFloor, usecaseLogger),
		usecase.NewReconciler(EngineConfig(cfg), usecaseLogger),
		usecase.NewPhaseMachine(PhaseConfig(cfg), usecaseLogger),
		CadencePolicy(cfg, profiles),
		usecase.TrackerConfig{
			MaxConsecutiveMisses: cfg.TrackerMaxConsecutiveMisses,
			RetryInterval:        cfg.TrackerRetryInterval,
			CommentaryTimeout:    cfg.TrackerCommentaryTimeout,
		},
		usecaseLogger,
	)
	a.Pool = usecase.NewTrackerPool(a.Tracker, cfg.TrackerWorkers, usecaseLogger)

	return a, nil
}

func (a *App) buildSinks(ctx context.Context, cfg config.Config, logger *logging.Logger) ([]notifier.Sink, error) {
	sinks := make([]notifier.Sink, 0, 3)

	if cfg.TelegramEnabled {
		bot, err := telegram.New(telegram.Config{
			Token:        cfg.TelegramToken,
			ChatIDs:      cfg.TelegramChatIDs,
			SendInterval: cfg.TelegramSendInterval,
		}, logger.Named("telegram"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notifier.Sink{Name: "telegram", Notifier: bot})
	}

	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, crerr.Wrapf(err, "ping redis %s", cfg.RedisAddr)
		}
		publisher := redisstream.NewPublisher(client, redisstream.Config{
			Prefix:   cfg.RedisStreamPrefix,
			MaxLen:   cfg.RedisStreamMaxLen,
			ClaimTTL: cfg.NotifierDedupTTL,
		}, logger.Named("redisstream"))
		sinks = append(sinks, notifier.Sink{Name: "redis", Notifier: publisher})
	}

	if cfg.LogSinkEnabled {
		sinks = append(sinks, notifier.Sink{Name: "log", Notifier: notifier.NewLogNotifier(logger.Named("events"))})
	}

	return sinks, nil
}

// Close releases client connections opened by New.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = crerr.CombineErrors(errs, a.closers[i]())
	}
	a.closers = nil
	return errs
}

func EngineConfig(cfg config.Config) usecase.EngineConfig {
	return usecase.EngineConfig{
		StaleTolerance: cfg.EngineStaleTolerance,
		BurstThreshold: cfg.EngineBurstThreshold,
	}
}

func PhaseConfig(cfg config.Config) usecase.PhaseConfig {
	return usecase.PhaseConfig{
		PreKickoffInterval:   cfg.PhasePreKickoffInterval,
		HalfTimePause:        cfg.PhaseHalfTimePause,
		HalfTimeRecheck:      cfg.PhaseHalfTimeRecheck,
		ShootoutPauseShort:   cfg.PhaseShootoutPauseShort,
		ShootoutPauseLong:    cfg.PhaseShootoutPauseLong,
		ShootoutInterval:     cfg.PhaseShootoutInterval,
		InterruptionPause:    cfg.PhaseInterruptionPause,
		InterruptionInterval: cfg.PhaseInterruptionInterval,
		PlanTier:             cfg.PhasePlanTier,
	}
}

// CadencePolicy merges file profiles over the built-in ones; a league listed
// in the file replaces its default entry.
func CadencePolicy(cfg config.Config, profiles config.CompetitionProfiles) *usecase.CadencePolicy {
	merged := usecase.DefaultCompetitionProfiles()
	index := make(map[int64]int, len(merged))
	for i, item := range merged {
		index[item.LeagueID] = i
	}
	for _, item := range profiles.Competitions {
		profile := usecase.CompetitionProfile{
			LeagueID:        item.LeagueID,
			Name:            item.Name,
			ExpectedMinutes: item.ExpectedMinutes,
			CallsPerMatch:   item.CallsPerMatch,
		}
		if i, ok := index[item.LeagueID]; ok {
			merged[i] = profile
			continue
		}
		index[item.LeagueID] = len(merged)
		merged = append(merged, profile)
	}

	fallback := usecase.DefaultFallbackProfile()
	if profiles.Fallback.ExpectedMinutes > 0 {
		fallback.ExpectedMinutes = profiles.Fallback.ExpectedMinutes
	}
	if profiles.Fallback.CallsPerMatch > 0 {
		fallback.CallsPerMatch = profiles.Fallback.CallsPerMatch
	}

	return usecase.NewCadencePolicy(merged, fallback, cfg.CadenceMinLiveInterval)
}
