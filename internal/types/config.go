package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server with the in-memory event bus
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// PubSubDriver selects the backend used for lifecycle events
type PubSubDriver string

const (
	PubSubMemory PubSubDriver = "memory"
	PubSubKafka  PubSubDriver = "kafka"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)
