package redis

import "time"

// Config holds the chat history store settings.
type Config struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`

	// HistoryPrefix namespaces the history keys.
	HistoryPrefix string `env:"HISTORY_KEY_PREFIX" envDefault:"scribe:history:"`
	// HistoryTTL is refreshed on every write to a session.
	HistoryTTL time.Duration `env:"HISTORY_TTL" envDefault:"720h"`
	// HistoryMaxEntries caps the exchanges kept per session; 0 keeps all.
	HistoryMaxEntries int `env:"HISTORY_MAX_ENTRIES" envDefault:"200"`
}
