package domain

const (
	ServerName    = "Databricks Unified MCP Server"
	ServerVersion = "0.1.0"

	ServiceSQL  = "sql"
	ServiceUC   = "uc"
	ServiceWS   = "ws"
	ServiceJobs = "jobs"

	DefaultHostEnv  = "DATABRICKS_HOST"
	DefaultTokenEnv = "DATABRICKS_TOKEN"
	DefaultEnvFile  = ".env"

	DefaultRemoteTimeoutSeconds  = 60
	DefaultRemoteMaxRetries      = 2
	DefaultRemoteRetryBaseMillis = 200
	DefaultRemoteRetryMaxMillis  = 2000
	DefaultUserAgent             = "databricks-mcp-server/" + ServerVersion

	DefaultStatementWaitSeconds    = 30
	DefaultStatementMaxWaitSeconds = 120
	DefaultPollIntervalMillis      = 500
	DefaultPollMaxIntervalMillis   = 5000
	DefaultMaxResultRows           = 10000
	DefaultMaxResultBytes          = 16 * 1024 * 1024

	DefaultListingPageSize       = 0
	DefaultListingTimeoutSeconds = 60
	DefaultListingMaxPages       = 1000

	DefaultCallTimeoutSeconds = 180

	DefaultJobsLimit = 20
	MaxJobsLimit     = 100
	MaxRunsLimit     = 1000

	DefaultObservabilityListenAddress = "127.0.0.1:9090"
)

// Services lists the service prefixes in registration order.
var Services = []string{ServiceSQL, ServiceUC, ServiceWS, ServiceJobs}
