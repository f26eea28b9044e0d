package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first call.
func Use() *Configuration {
	return singleton()
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"directory"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type MailerOptions struct {
	// APIURL is the HTTP mail-provider endpoint. Empty means notifications
	// are logged instead of delivered (development default).
	APIURL      string        `env:"MAIL_API_URL"`
	APIKey      string        `env:"MAIL_API_KEY"`
	FromAddress string        `env:"MAIL_FROM_ADDRESS" envDefault:"noreply@openplaces.example"`
	FromName    string        `env:"MAIL_FROM_NAME" envDefault:"Openplaces Directory"`
	Timeout     time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
}

type OutboxOptions struct {
	PollInterval    time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize       int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`
	MaxAttempts     int           `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"8"`
	DispatchTimeout time.Duration `env:"OUTBOX_DISPATCH_TIMEOUT" envDefault:"15s"`
	SingleActive    bool          `env:"OUTBOX_SINGLE_ACTIVE" envDefault:"true"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Mailer     MailerOptions
	Outbox     OutboxOptions
	Prometheus PrometheusOptions

	GoAppEnvironment string   `env:"GO_APP_ENV" envDefault:"development"`
	ServerAddress    string   `env:"SERVER_ADDRESS" envDefault:":3200"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
	AdminEmails      []string `env:"ADMIN_NOTIFICATION_EMAILS" envSeparator:","`

	logger *logrus.Logger
}

func (c *Configuration) load(envFiles []string) error {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return err
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.logger = newLogger(c)
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func newLogger(c *Configuration) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.GoAppEnvironment == Production {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
