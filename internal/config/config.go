package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the tracker.
type Config struct {
	AppEnv         string `validate:"oneof=dev stage prod"`
	ServiceName    string `validate:"required"`
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      string `validate:"oneof=json console"`

	APIFootballBaseURL             string        `validate:"required,url"`
	APIFootballKey                 string        `validate:"required"`
	APIFootballTimeout             time.Duration `validate:"gt=0"`
	APIFootballMaxRetries          int           `validate:"gte=0,lte=10"`
	APIFootballRetryInterval       time.Duration `validate:"gt=0"`
	APIFootballRateLimitMultiplier float64       `validate:"gte=1"`
	APIFootballCircuitEnabled      bool
	APIFootballCircuitFailureCount int           `validate:"gte=1"`
	APIFootballCircuitOpenTimeout  time.Duration `validate:"gt=0"`
	APIFootballCircuitHalfOpenMax  int           `validate:"gte=1"`

	TrackFixtureIDs             []int64       `validate:"dive,gt=0"`
	TrackerWorkers              int           `validate:"gte=1"`
	TrackerMaxConsecutiveMisses int           `validate:"gte=1"`
	TrackerRetryInterval        time.Duration `validate:"gt=0"`
	TrackerCommentaryTimeout    time.Duration `validate:"gt=0"`
	TrackerQueriesPerCycle      int           `validate:"gte=1"`
	// TrackerQuotaFloor must leave room for at least one full cycle of queries.
	TrackerQuotaFloor int `validate:"gtfield=TrackerQueriesPerCycle"`

	EngineStaleTolerance int `validate:"gte=0"`
	EngineBurstThreshold int `validate:"gte=2"`

	PhasePreKickoffInterval   time.Duration `validate:"gt=0"`
	PhaseHalfTimePause        time.Duration `validate:"gt=0"`
	PhaseHalfTimeRecheck      time.Duration `validate:"gt=0"`
	PhaseShootoutPauseShort   time.Duration `validate:"gt=0"`
	PhaseShootoutPauseLong    time.Duration `validate:"gtefield=PhaseShootoutPauseShort"`
	PhaseShootoutInterval     time.Duration `validate:"gt=0"`
	PhaseInterruptionPause    time.Duration `validate:"gt=0"`
	PhaseInterruptionInterval time.Duration `validate:"gt=0"`
	PhasePlanTier             string        `validate:"oneof=free paid"`

	CadenceMinLiveInterval  time.Duration `validate:"gt=0"`
	CompetitionProfilesFile string

	NotifierDedupTTL time.Duration `validate:"gt=0"`
	LogSinkEnabled   bool

	TelegramEnabled      bool
	TelegramToken        string        `validate:"required_if=TelegramEnabled true"`
	TelegramChatIDs      []int64       `validate:"required_if=TelegramEnabled true,dive,ne=0"`
	TelegramSendInterval time.Duration `validate:"gt=0"`

	RedisEnabled      bool
	RedisAddr         string `validate:"required_if=RedisEnabled true"`
	RedisPassword     string
	RedisDB           int   `validate:"gte=0"`
	RedisStreamPrefix string `validate:"required"`
	RedisStreamMaxLen int64  `validate:"gt=0"`

	OpenAIEnabled bool
	OpenAIBaseURL string        `validate:"required,url"`
	OpenAIKey     string        `validate:"required_if=OpenAIEnabled true"`
	OpenAIModel   string        `validate:"required"`
	OpenAITimeout time.Duration `validate:"gt=0"`

	UptraceEnabled     bool
	UptraceDSN         string `validate:"required_if=UptraceEnabled true"`
	UptraceLogsEnabled bool

	PprofEnabled bool
	PprofAddr    string `validate:"required_if=PprofEnabled true"`

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration `validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load() (Config, error) {
	p := &envParser{}

	appEnv := strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", EnvDev)))
	logLevel, err := logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, crerr.Wrap(err, "parse APP_LOG_LEVEL")
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    strings.TrimSpace(getEnv("APP_SERVICE_NAME", "matchwire-tracker")),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:       logLevel,
		LogFormat:      strings.ToLower(strings.TrimSpace(getEnv("APP_LOG_FORMAT", logging.FormatJSON))),

		APIFootballBaseURL:             strings.TrimSpace(getEnv("APIFOOTBALL_BASE_URL", "https://v3.football.api-sports.io")),
		APIFootballKey:                 strings.TrimSpace(getEnv("APIFOOTBALL_KEY", "")),
		APIFootballTimeout:             p.duration("APIFOOTBALL_TIMEOUT", "20s"),
		APIFootballMaxRetries:          p.int("APIFOOTBALL_MAX_RETRIES", 2),
		APIFootballRetryInterval:       p.duration("APIFOOTBALL_RETRY_INTERVAL", "1s"),
		APIFootballRateLimitMultiplier: p.float("APIFOOTBALL_RATE_LIMIT_MULTIPLIER", 4),
		APIFootballCircuitEnabled:      p.bool("APIFOOTBALL_CIRCUIT_ENABLED", true),
		APIFootballCircuitFailureCount: p.int("APIFOOTBALL_CIRCUIT_FAILURE_COUNT", 5),
		APIFootballCircuitOpenTimeout:  p.duration("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT", "30s"),
		APIFootballCircuitHalfOpenMax:  p.int("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 1),

		TrackFixtureIDs:             p.ids("TRACK_FIXTURE_IDS"),
		TrackerWorkers:              p.int("TRACKER_WORKERS", 4),
		TrackerMaxConsecutiveMisses: p.int("TRACKER_MAX_CONSECUTIVE_MISSES", 30),
		TrackerRetryInterval:        p.duration("TRACKER_RETRY_INTERVAL", "30s"),
		TrackerCommentaryTimeout:    p.duration("TRACKER_COMMENTARY_TIMEOUT", "45s"),
		TrackerQueriesPerCycle:      p.int("TRACKER_QUERIES_PER_CYCLE", 1),
		TrackerQuotaFloor:           p.int("TRACKER_QUOTA_FLOOR", 2),

		EngineStaleTolerance: p.int("ENGINE_STALE_TOLERANCE", 10),
		EngineBurstThreshold: p.int("ENGINE_BURST_THRESHOLD", 2),

		PhasePreKickoffInterval:   p.duration("PHASE_PRE_KICKOFF_INTERVAL", "60s"),
		PhaseHalfTimePause:        p.duration("PHASE_HALF_TIME_PAUSE", "13m"),
		PhaseHalfTimeRecheck:      p.duration("PHASE_HALF_TIME_RECHECK", "45s"),
		PhaseShootoutPauseShort:   p.duration("PHASE_SHOOTOUT_PAUSE_SHORT", "2m"),
		PhaseShootoutPauseLong:    p.duration("PHASE_SHOOTOUT_PAUSE_LONG", "10m"),
		PhaseShootoutInterval:     p.duration("PHASE_SHOOTOUT_INTERVAL", "2m"),
		PhaseInterruptionPause:    p.duration("PHASE_INTERRUPTION_PAUSE", "10m"),
		PhaseInterruptionInterval: p.duration("PHASE_INTERRUPTION_INTERVAL", "3m"),
		PhasePlanTier:             strings.ToLower(strings.TrimSpace(getEnv("PHASE_PLAN_TIER", "free"))),

		CadenceMinLiveInterval:  p.duration("CADENCE_MIN_LIVE_INTERVAL", "30s"),
		CompetitionProfilesFile: strings.TrimSpace(getEnv("COMPETITION_PROFILES_FILE", "")),

		NotifierDedupTTL: p.duration("NOTIFIER_DEDUP_TTL", "6h"),
		LogSinkEnabled:   p.bool("NOTIFIER_LOG_ENABLED", true),

		TelegramEnabled:      p.bool("TELEGRAM_ENABLED", false),
		TelegramToken:        strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		TelegramChatIDs:      p.chatIDs("TELEGRAM_CHAT_IDS"),
		TelegramSendInterval: p.duration("TELEGRAM_SEND_INTERVAL", "2s"),

		RedisEnabled:      p.bool("REDIS_ENABLED", false),
		RedisAddr:         strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           p.int("REDIS_DB", 0),
		RedisStreamPrefix: strings.TrimSpace(getEnv("REDIS_STREAM_PREFIX", "matchwire:events")),
		RedisStreamMaxLen: int64(p.int("REDIS_STREAM_MAX_LEN", 1000)),

		OpenAIEnabled: p.bool("OPENAI_ENABLED", false),
		OpenAIBaseURL: strings.TrimSpace(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
		OpenAIKey:     strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIModel:   strings.TrimSpace(getEnv("OPENAI_MODEL", "gpt-4o-mini")),
		OpenAITimeout: p.duration("OPENAI_TIMEOUT", "60s"),

		UptraceEnabled:     p.bool("UPTRACE_ENABLED", false),
		UptraceLogsEnabled: p.bool("UPTRACE_LOGS_ENABLED", true),

		PprofEnabled: p.bool("PPROF_ENABLED", false),
		PprofAddr:    strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),

		PyroscopeEnabled:           p.bool("PYROSCOPE_ENABLED", false),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        p.duration("PYROSCOPE_UPLOAD_RATE", "15s"),
	}
	if p.err != nil {
		return Config{}, p.err
	}

	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the struct rules and reports every violated field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !crerr.As(err, &fieldErrs) {
		return crerr.Wrap(err, "validate config")
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fe.Namespace()+" failed "+rule)
	}
	return crerr.Newf("invalid config: %s", strings.Join(parts, "; "))
}

// envParser keeps the first parse error so Load can read every key in one pass.
type envParser struct {
	err error
}

func (p *envParser) fail(key string, err error) {
	if p.err == nil {
		p.err = crerr.Wrapf(err, "parse %s", key)
	}
}

func (p *envParser) duration(key, fallback string) time.Duration {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return out
}

func (p *envParser) int(key string, fallback int) int {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return out
}

func (p *envParser) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	out, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return out
}

func (p *envParser) bool(key string, fallback bool) bool {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		p.fail(key, err)
		return false
	}
	return out
}

// ids parses a CSV of positive fixture ids.
func (p *envParser) ids(key string) []int64 {
	out, err := parseInt64List(getEnv(key, ""), false)
	if err != nil {
		p.fail(key, err)
	}
	return out
}

// chatIDs parses a CSV of chat ids; group chats are negative.
func (p *envParser) chatIDs(key string) []int64 {
	out, err := parseInt64List(getEnv(key, ""), true)
	if err != nil {
		p.fail(key, err)
	}
	return out
}

func parseInt64List(raw string, allowNegative bool) ([]int64, error) {
	items := splitCSV(raw)
	out := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, crerr.Wrapf(err, "invalid id %q", item)
		}
		if value == 0 || (!allowNegative && value < 0) {
			return nil, crerr.Newf("invalid id %q", item)
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}
