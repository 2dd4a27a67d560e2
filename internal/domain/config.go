package domain

import "time"

// Config is the process-wide configuration, immutable after loading.
type Config struct {
	Workspace     WorkspaceConfig
	Remote        RemoteConfig
	Statement     StatementConfig
	Listing       ListingConfig
	Dispatch      DispatchConfig
	Services      ServicesConfig
	Observability ObservabilityConfig
}

// WorkspaceConfig identifies the remote workspace and its credential.
type WorkspaceConfig struct {
	Host        string
	Token       string
	TokenSource string
}

// RemoteConfig tunes the HTTP client and read retries.
type RemoteConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration
	UserAgent  string
}

// StatementConfig bounds statement polling and result size.
type StatementConfig struct {
	DefaultWait     time.Duration
	MaxWait         time.Duration
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	MaxRows         int
	MaxBytes        int64
}

// ListingConfig bounds pagination draining.
type ListingConfig struct {
	PageSize int
	Timeout  time.Duration
	MaxPages int
}

// DispatchConfig bounds a single tool call.
type DispatchConfig struct {
	CallTimeout time.Duration
}

// ServicesConfig toggles tool groups.
type ServicesConfig struct {
	SQL  bool
	UC   bool
	WS   bool
	Jobs bool
}

// Enabled reports whether the named service is on.
func (s ServicesConfig) Enabled(service string) bool {
	switch service {
	case ServiceSQL:
		return s.SQL
	case ServiceUC:
		return s.UC
	case ServiceWS:
		return s.WS
	case ServiceJobs:
		return s.Jobs
	default:
		return false
	}
}

// ObservabilityConfig controls the metrics and health listener.
type ObservabilityConfig struct {
	ListenAddress string
	Metrics       bool
	Healthz       bool
}

// DefaultConfig returns a configuration with every default applied and no
// workspace credentials.
func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			Timeout:    DefaultRemoteTimeoutSeconds * time.Second,
			MaxRetries: DefaultRemoteMaxRetries,
			RetryBase:  DefaultRemoteRetryBaseMillis * time.Millisecond,
			RetryMax:   DefaultRemoteRetryMaxMillis * time.Millisecond,
			UserAgent:  DefaultUserAgent,
		},
		Statement: StatementConfig{
			DefaultWait:     DefaultStatementWaitSeconds * time.Second,
			MaxWait:         DefaultStatementMaxWaitSeconds * time.Second,
			PollInterval:    DefaultPollIntervalMillis * time.Millisecond,
			PollMaxInterval: DefaultPollMaxIntervalMillis * time.Millisecond,
			MaxRows:         DefaultMaxResultRows,
			MaxBytes:        DefaultMaxResultBytes,
		},
		Listing: ListingConfig{
			PageSize: DefaultListingPageSize,
			Timeout:  DefaultListingTimeoutSeconds * time.Second,
			MaxPages: DefaultListingMaxPages,
		},
		Dispatch: DispatchConfig{
			CallTimeout: DefaultCallTimeoutSeconds * time.Second,
		},
		Services: ServicesConfig{SQL: true, UC: true, WS: true, Jobs: true},
		Observability: ObservabilityConfig{
			Metrics: true,
			Healthz: true,
		},
	}
}
