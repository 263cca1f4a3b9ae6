package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// DefaultOrigins are the browser origins allowed when CORS_ALLOWED_ORIGINS is unset.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5000",
	"https://omsalve501.github.io",
}

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=5000" validate:"min=1,max=65535"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	FrontendURL          string        `env:"FRONTEND_URL" validate:"omitempty,url"`
	CorsAllowedOrigins   string        `env:"CORS_ALLOWED_ORIGINS"`
	StaticDir            string        `env:"STATIC_DIR,default=../client/build"`
	MessageStore         string        `env:"MESSAGE_STORE,default=memory" validate:"oneof=memory badger"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=500ms" validate:"gt=0"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gt=0"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=65536" validate:"min=1"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=1m" validate:"gt=0"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	MaxWorkerRestarts    int           `env:"MAX_WORKER_RESTARTS,default=5" validate:"min=0"`
}

// Validate checks the decoded values, go-env only checks their presence and type.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins returns the CORS allow list: CORS_ALLOWED_ORIGINS when set,
// the default list otherwise, FRONTEND_URL included in both cases.
func (c Config) Origins() []string {
	origins := DefaultOrigins
	if strings.TrimSpace(c.CorsAllowedOrigins) != "" {
		origins = lo.Map(strings.Split(c.CorsAllowedOrigins, ","), func(o string, _ int) string {
			return strings.TrimSpace(o)
		})
	}
	if c.FrontendURL != "" {
		origins = append(append([]string{}, origins...), c.FrontendURL)
	}
	return lo.Uniq(lo.Compact(origins))
}
