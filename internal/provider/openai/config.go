package openai

import "time"

// Config contains OpenAI chat provider configuration.
// Fields map to OpenAI SDK options:
//   - APIKey: option.WithAPIKey()
//   - BaseURL: option.WithBaseURL()
//   - RequestTimeout: option.WithRequestTimeout()
//   - MaxRetries: option.WithMaxRetries()
type Config struct {
	APIKey         string        `env:"OPENAI_API_KEY"`
	BaseURL        string        `env:"OPENAI_BASE_URL"        envDefault:"https://api.openai.com/v1"`
	RequestTimeout time.Duration `env:"OPENAI_REQUEST_TIMEOUT" envDefault:"60s"`
	MaxRetries     int           `env:"OPENAI_MAX_RETRIES"     envDefault:"0"`
}
