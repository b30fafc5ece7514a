package config

import "time"

// Defaults applied when the corresponding variable is unset
const (
	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultServiceName = "dcm-engine"
	DefaultVersion     = "dev"
	DefaultEnvironment = "dev"
	DefaultLogDir      = "logs"

	DefaultLeverageBound    = 5.0
	DefaultMaxLeverageBound = 100.0
	DefaultMaxParticipants  = 1000
	DefaultBatchConcurrency = 4

	DefaultDBMaxConns        = 10
	DefaultDBMinConns        = 2
	DefaultDBMaxConnIdle     = 5 * time.Minute
	DefaultDBMaxConnLife     = time.Hour
	DefaultScenarioCacheSize = 512
	DefaultScenarioCacheTTL  = 10 * time.Minute

	DefaultEventMaxRetries = 5
	DefaultEventRetryDelay = 2 * time.Second
	DefaultDeadLetterPath  = "logs/deadletter.jsonl"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)
