// Package config manages application configuration for nonagon.
//
// Configuration is parsed from environment variables with
// github.com/caarlos0/env struct tags and checked by Validate, which reports
// every problem at once:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Configuration Groups
//
//   - ServerConfig: environment, log level, metrics address, lifecycle job timing
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: optional identifier claim store
//   - AllocatorConfig: identifier allocation retry bound
//   - CodecConfig: handling of unknown stored enum values
//
// # Environment Variables
//
//	SERVER_ENV            - development, production or test (default: development)
//	LOG_LEVEL             - debug, info, warn or error (default: info)
//	METRICS_ADDR          - Prometheus listen address, empty disables (default: :9090)
//	LIFECYCLE_INTERVAL    - quest lifecycle pass interval (default: 1m)
//	LIFECYCLE_CONCURRENCY - guilds processed at once (default: 4)
//	SHUTDOWN_TIMEOUT      - graceful shutdown bound (default: 15s)
//	DB_HOST, DB_PORT      - SurrealDB address (default: localhost:8000)
//	DB_NAMESPACE          - SurrealDB namespace (default: nonagon)
//	DB_DATABASE           - SurrealDB database (default: main)
//	DB_USER, DB_PASSWORD  - SurrealDB credentials
//	REDIS_URL             - redis:// URL for identifier claims, empty disables
//	REDIS_CLAIM_TTL       - how long a claim is held (default: 30s)
//	ID_MAX_ATTEMPTS       - candidates per allocation, 0 is unbounded (default: 0)
//	CODEC_UNKNOWN_ENUMS   - reject or keep (default: reject)
package config
