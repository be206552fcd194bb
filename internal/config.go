package internal

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT,required=true" validate:"gt=0,lte=65535"`
	LogLevel             string        `env:"LOG_LEVEL,required=true" validate:"oneof=DEBUG INFO WARN ERROR"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true" validate:"min=32"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true" validate:"gt=0"`
	PresenceBufferSize   int           `env:"PRESENCE_BUFFER_SIZE,required=true" validate:"gt=0"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,required=true"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,required=true"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,required=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS,required=true"`
}

var validate = validator.New()

func (c Config) Validate() error {
	return validate.Struct(c)
}

// Origins splits the comma-separated ALLOWED_ORIGINS value for the
// CORS layer.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
