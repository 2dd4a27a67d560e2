package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
)

// EnvPrefix prefixes environment overrides for any config key, for example
// DATABRICKS_MCP_STATEMENT_MAXWAITSECONDS.
const EnvPrefix = "DATABRICKS_MCP"

// Options tunes a Loader.
type Options struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// OpenKeyring defaults to the OS keyring.
	OpenKeyring KeyringOpener
	// SkipCredentials accepts a config without host or token. Used by
	// commands that never contact the workspace.
	SkipCredentials bool
}

type Loader struct {
	logger          *zap.Logger
	lookupEnv       func(string) (string, bool)
	openKeyring     KeyringOpener
	skipCredentials bool
}

func NewLoader(logger *zap.Logger, opts Options) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	} else {
		logger = logger.Named("config")
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	opener := opts.OpenKeyring
	if opener == nil {
		opener = OpenOSKeyring
	}
	return &Loader{
		logger:          logger,
		lookupEnv:       lookup,
		openKeyring:     opener,
		skipCredentials: opts.SkipCredentials,
	}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("workspace.host", "")
	v.SetDefault("workspace.token", "")
	v.SetDefault("workspace.tokenEnv", domain.DefaultTokenEnv)
	v.SetDefault("workspace.envFile", "")
	v.SetDefault("workspace.keyring.service", "")
	v.SetDefault("workspace.keyring.key", DefaultKeyringKey)
	v.SetDefault("workspace.keyring.backend", "")
	v.SetDefault("remote.timeoutSeconds", domain.DefaultRemoteTimeoutSeconds)
	v.SetDefault("remote.maxRetries", domain.DefaultRemoteMaxRetries)
	v.SetDefault("remote.retryBaseMillis", domain.DefaultRemoteRetryBaseMillis)
	v.SetDefault("remote.retryMaxMillis", domain.DefaultRemoteRetryMaxMillis)
	v.SetDefault("remote.userAgent", domain.DefaultUserAgent)
	v.SetDefault("statement.defaultWaitSeconds", domain.DefaultStatementWaitSeconds)
	v.SetDefault("statement.maxWaitSeconds", domain.DefaultStatementMaxWaitSeconds)
	v.SetDefault("statement.pollIntervalMillis", domain.DefaultPollIntervalMillis)
	v.SetDefault("statement.pollMaxIntervalMillis", domain.DefaultPollMaxIntervalMillis)
	v.SetDefault("statement.maxRows", domain.DefaultMaxResultRows)
	v.SetDefault("statement.maxBytes", domain.DefaultMaxResultBytes)
	v.SetDefault("listing.pageSize", domain.DefaultListingPageSize)
	v.SetDefault("listing.timeoutSeconds", domain.DefaultListingTimeoutSeconds)
	v.SetDefault("listing.maxPages", domain.DefaultListingMaxPages)
	v.SetDefault("dispatch.callTimeoutSeconds", domain.DefaultCallTimeoutSeconds)
	for _, service := range domain.Services {
		v.SetDefault("services."+service+".enabled", true)
	}
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.healthz", true)
}

type rawConfig struct {
	Workspace     rawWorkspace     `mapstructure:"workspace"`
	Remote        rawRemote        `mapstructure:"remote"`
	Statement     rawStatement     `mapstructure:"statement"`
	Listing       rawListing       `mapstructure:"listing"`
	Dispatch      rawDispatch      `mapstructure:"dispatch"`
	Services      rawServices      `mapstructure:"services"`
	Observability rawObservability `mapstructure:"observability"`
}

type rawWorkspace struct {
	Host     string     `mapstructure:"host"`
	Token    string     `mapstructure:"token"`
	TokenEnv string     `mapstructure:"tokenEnv"`
	EnvFile  string     `mapstructure:"envFile"`
	Keyring  rawKeyring `mapstructure:"keyring"`
}

type rawKeyring struct {
	Service string `mapstructure:"service"`
	Key     string `mapstructure:"key"`
	Backend string `mapstructure:"backend"`
}

type rawRemote struct {
	TimeoutSeconds  int    `mapstructure:"timeoutSeconds"`
	MaxRetries      int    `mapstructure:"maxRetries"`
	RetryBaseMillis int    `mapstructure:"retryBaseMillis"`
	RetryMaxMillis  int    `mapstructure:"retryMaxMillis"`
	UserAgent       string `mapstructure:"userAgent"`
}

type rawStatement struct {
	DefaultWaitSeconds    int   `mapstructure:"defaultWaitSeconds"`
	MaxWaitSeconds        int   `mapstructure:"maxWaitSeconds"`
	PollIntervalMillis    int   `mapstructure:"pollIntervalMillis"`
	PollMaxIntervalMillis int   `mapstructure:"pollMaxIntervalMillis"`
	MaxRows               int   `mapstructure:"maxRows"`
	MaxBytes              int64 `mapstructure:"maxBytes"`
}

type rawListing struct {
	PageSize       int `mapstructure:"pageSize"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
	MaxPages       int `mapstructure:"maxPages"`
}

type rawDispatch struct {
	CallTimeoutSeconds int `mapstructure:"callTimeoutSeconds"`
}

type rawToggle struct {
	Enabled bool `mapstructure:"enabled"`
}

type rawServices struct {
	SQL  rawToggle `mapstructure:"sql"`
	UC   rawToggle `mapstructure:"uc"`
	WS   rawToggle `mapstructure:"ws"`
	Jobs rawToggle `mapstructure:"jobs"`
}

type rawObservability struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

// Load reads the YAML file at path, which may be empty, and returns a
// validated configuration. Every validation problem is reported at once.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	var data []byte
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		data = content
	}

	lookup, err := l.envLookup(path, data)
	if err != nil {
		return domain.Config{}, err
	}

	expanded, missing, err := expandConfigEnv(data, lookup)
	if err != nil {
		return domain.Config{}, err
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.Config{}, fmt.Errorf("parse config: %w", err)
	}
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg, problems := normalizeConfig(raw)
	if !l.skipCredentials || raw.Workspace.Host != "" || hasEnv(lookup, domain.DefaultHostEnv) {
		problems = append(problems, l.resolveHost(&cfg, raw.Workspace, lookup)...)
	}
	if !l.skipCredentials {
		problems = append(problems, l.resolveToken(&cfg, raw.Workspace, lookup)...)
	}
	if len(problems) > 0 {
		return domain.Config{}, &ValidationError{Problems: problems}
	}

	l.logger.Debug("config loaded",
		zap.String("path", path),
		zap.String("host", cfg.Workspace.Host),
		zap.String("token_source", cfg.Workspace.TokenSource),
	)
	return cfg, nil
}

// envLookup layers the dotenv file under the process environment. Variables
// already set in the process are never overridden.
func (l *Loader) envLookup(path string, data []byte) (func(string) (string, bool), error) {
	envFile, explicit, err := envFilePath(path, data)
	if err != nil {
		return nil, err
	}
	values, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return l.lookupEnv, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}
	l.logger.Debug("env file loaded", zap.String("path", envFile), zap.Int("vars", len(values)))
	return func(key string) (string, bool) {
		if val, ok := l.lookupEnv(key); ok {
			return val, true
		}
		val, ok := values[key]
		return val, ok
	}, nil
}

// envFilePath peeks at workspace.envFile before expansion. A relative path
// is taken from the config file's directory.
func envFilePath(path string, data []byte) (string, bool, error) {
	var peek struct {
		Workspace struct {
			EnvFile string `yaml:"envFile"`
		} `yaml:"workspace"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &peek); err != nil {
			return "", false, fmt.Errorf("parse config: %w", err)
		}
	}
	envFile := strings.TrimSpace(peek.Workspace.EnvFile)
	if envFile == "" {
		return domain.DefaultEnvFile, false, nil
	}
	if !filepath.IsAbs(envFile) && path != "" {
		envFile = filepath.Join(filepath.Dir(path), envFile)
	}
	return envFile, true, nil
}

func normalizeConfig(raw rawConfig) (domain.Config, []error) {
	var problems []error
	cfg := domain.DefaultConfig()

	if raw.Remote.TimeoutSeconds <= 0 {
		problems = append(problems, errors.New("remote.timeoutSeconds must be > 0"))
	}
	if raw.Remote.MaxRetries < 0 {
		problems = append(problems, errors.New("remote.maxRetries must be >= 0"))
	}
	if raw.Remote.RetryBaseMillis <= 0 {
		problems = append(problems, errors.New("remote.retryBaseMillis must be > 0"))
	}
	if raw.Remote.RetryMaxMillis < raw.Remote.RetryBaseMillis {
		problems = append(problems, errors.New("remote.retryMaxMillis must be >= remote.retryBaseMillis"))
	}
	cfg.Remote.Timeout = seconds(raw.Remote.TimeoutSeconds)
	cfg.Remote.MaxRetries = raw.Remote.MaxRetries
	cfg.Remote.RetryBase = millis(raw.Remote.RetryBaseMillis)
	cfg.Remote.RetryMax = millis(raw.Remote.RetryMaxMillis)
	if ua := strings.TrimSpace(raw.Remote.UserAgent); ua != "" {
		cfg.Remote.UserAgent = ua
	}

	st := raw.Statement
	if st.MaxWaitSeconds <= 0 {
		problems = append(problems, errors.New("statement.maxWaitSeconds must be > 0"))
	}
	if st.DefaultWaitSeconds < 0 || st.DefaultWaitSeconds > st.MaxWaitSeconds {
		problems = append(problems, errors.New("statement.defaultWaitSeconds must be between 0 and statement.maxWaitSeconds"))
	}
	if st.PollIntervalMillis <= 0 {
		problems = append(problems, errors.New("statement.pollIntervalMillis must be > 0"))
	}
	if st.PollMaxIntervalMillis < st.PollIntervalMillis {
		problems = append(problems, errors.New("statement.pollMaxIntervalMillis must be >= statement.pollIntervalMillis"))
	}
	if st.MaxRows < 0 {
		problems = append(problems, errors.New("statement.maxRows must be >= 0"))
	}
	if st.MaxBytes < 0 {
		problems = append(problems, errors.New("statement.maxBytes must be >= 0"))
	}
	cfg.Statement = domain.StatementConfig{
		DefaultWait:     seconds(st.DefaultWaitSeconds),
		MaxWait:         seconds(st.MaxWaitSeconds),
		PollInterval:    millis(st.PollIntervalMillis),
		PollMaxInterval: millis(st.PollMaxIntervalMillis),
		MaxRows:         st.MaxRows,
		MaxBytes:        st.MaxBytes,
	}

	if raw.Listing.PageSize < 0 {
		problems = append(problems, errors.New("listing.pageSize must be >= 0"))
	}
	if raw.Listing.TimeoutSeconds <= 0 {
		problems = append(problems, errors.New("listing.timeoutSeconds must be > 0"))
	}
	if raw.Listing.MaxPages <= 0 {
		problems = append(problems, errors.New("listing.maxPages must be > 0"))
	}
	cfg.Listing = domain.ListingConfig{
		PageSize: raw.Listing.PageSize,
		Timeout:  seconds(raw.Listing.TimeoutSeconds),
		MaxPages: raw.Listing.MaxPages,
	}

	if raw.Dispatch.CallTimeoutSeconds < st.MaxWaitSeconds {
		problems = append(problems, errors.New("dispatch.callTimeoutSeconds must be >= statement.maxWaitSeconds"))
	}
	cfg.Dispatch.CallTimeout = seconds(raw.Dispatch.CallTimeoutSeconds)

	cfg.Services = domain.ServicesConfig{
		SQL:  raw.Services.SQL.Enabled,
		UC:   raw.Services.UC.Enabled,
		WS:   raw.Services.WS.Enabled,
		Jobs: raw.Services.Jobs.Enabled,
	}
	if !cfg.Services.SQL && !cfg.Services.UC && !cfg.Services.WS && !cfg.Services.Jobs {
		problems = append(problems, errors.New("services: at least one service must be enabled"))
	}

	cfg.Observability = domain.ObservabilityConfig{
		ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
		Metrics:       raw.Observability.Metrics,
		Healthz:       raw.Observability.Healthz,
	}
	if cfg.Observability.ListenAddress == "" {
		cfg.Observability.ListenAddress = domain.DefaultObservabilityListenAddress
	}

	if backend := raw.Workspace.Keyring.Backend; backend != "" && !knownBackend(backend) {
		problems = append(problems, fmt.Errorf("workspace.keyring.backend %q is not supported", backend))
	}
	return cfg, problems
}

func (l *Loader) resolveHost(cfg *domain.Config, ws rawWorkspace, lookup func(string) (string, bool)) []error {
	host := strings.TrimSpace(ws.Host)
	if host == "" {
		host, _ = lookup(domain.DefaultHostEnv)
	}
	parsed, err := remote.ParseBaseURL(host)
	if err != nil {
		return []error{fmt.Errorf("workspace.host: %w", err)}
	}
	cfg.Workspace.Host = parsed.String()
	return nil
}

// resolveToken tries the literal token, then the named env var, then the
// keyring entry.
func (l *Loader) resolveToken(cfg *domain.Config, ws rawWorkspace, lookup func(string) (string, bool)) []error {
	if token := strings.TrimSpace(ws.Token); token != "" {
		cfg.Workspace.Token = token
		cfg.Workspace.TokenSource = "config"
		return nil
	}

	tokenEnv := strings.TrimSpace(ws.TokenEnv)
	if tokenEnv == "" {
		tokenEnv = domain.DefaultTokenEnv
	}
	if token, ok := lookup(tokenEnv); ok && strings.TrimSpace(token) != "" {
		cfg.Workspace.Token = strings.TrimSpace(token)
		cfg.Workspace.TokenSource = "env:" + tokenEnv
		return nil
	}

	if ws.Keyring.Service != "" {
		token, err := readKeyringToken(l.openKeyring, ws.Keyring)
		if err != nil {
			return []error{fmt.Errorf("workspace.keyring: %w", err)}
		}
		cfg.Workspace.Token = token
		cfg.Workspace.TokenSource = "keyring:" + ws.Keyring.Service
		return nil
	}

	return []error{fmt.Errorf("%w: set workspace.token, %s or workspace.keyring", domain.ErrMissingToken, tokenEnv)}
}

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

func hasEnv(lookup func(string) (string, bool), key string) bool {
	val, ok := lookup(key)
	return ok && strings.TrimSpace(val) != ""
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
