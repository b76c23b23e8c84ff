// Package config resolves endpoints and options from defaults, the
// environment (optionally seeded from a .env file) and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ports the broadcaster listens on.
const (
	PushTransactionPort        = 9109
	PublishSummaryPort         = 9110
	PublishConnectionCountPort = 9112
)

// TargetConnections is how many peer connections the broadcaster tries to
// keep.
const TargetConnections = 40

// Environment variable names.
const (
	EnvTxEndpoint   = "BRC_TX_ENDPOINT"
	EnvConnEndpoint = "BRC_CONN_ENDPOINT"
	EnvPushEndpoint = "BRC_PUSH_ENDPOINT"
	EnvTxBind       = "BRC_TX_BIND"
	EnvConnBind     = "BRC_CONN_BIND"
	EnvTopic        = "BRC_TOPIC"
	EnvDialRetry    = "BRC_DIAL_RETRY"
	EnvHTTPAddr     = "BRC_HTTP_ADDR"
	EnvLogLevel     = "BRC_LOG_LEVEL"
	EnvLogFormat    = "BRC_LOG_FORMAT"
)

type Config struct {
	// Endpoints the watchers and pusher connect to.
	TxEndpoint   string
	ConnEndpoint string
	PushEndpoint string

	// Endpoints the simulator binds.
	TxBind   string
	ConnBind string

	Topic     string
	DialRetry time.Duration

	// HTTPAddr enables the status server when non-empty.
	HTTPAddr string

	LogLevel  string
	LogFormat string
}

func Default() Config {
	return Config{
		TxEndpoint:   fmt.Sprintf("tcp://localhost:%d", PublishSummaryPort),
		ConnEndpoint: fmt.Sprintf("tcp://localhost:%d", PublishConnectionCountPort),
		PushEndpoint: fmt.Sprintf("tcp://localhost:%d", PushTransactionPort),
		TxBind:       fmt.Sprintf("tcp://*:%d", PublishSummaryPort),
		ConnBind:     fmt.Sprintf("tcp://*:%d", PublishConnectionCountPort),
		DialRetry:    250 * time.Millisecond,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads envFile into the process environment when given, or ./.env
// when present, then resolves the configuration from the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv overlays the variables found by lookup on Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvTxEndpoint, &c.TxEndpoint)
	str(EnvConnEndpoint, &c.ConnEndpoint)
	str(EnvPushEndpoint, &c.PushEndpoint)
	str(EnvTxBind, &c.TxBind)
	str(EnvConnBind, &c.ConnBind)
	str(EnvHTTPAddr, &c.HTTPAddr)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	// The topic may legitimately be empty, so any set value counts.
	if v, ok := lookup(EnvTopic); ok {
		c.Topic = v
	}

	if v, ok := lookup(EnvDialRetry); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDialRetry, err)
		}
		c.DialRetry = d
	}

	return c, nil
}

var schemes = []string{"tcp://", "ipc://", "inproc://"}

func validEndpoint(e string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(e, s) && len(e) > len(s) {
			return true
		}
	}
	return false
}

// Validate checks every endpoint has a ZeroMQ transport scheme.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct{ name, v string }{
		{"tx endpoint", c.TxEndpoint},
		{"connections endpoint", c.ConnEndpoint},
		{"push endpoint", c.PushEndpoint},
		{"tx bind", c.TxBind},
		{"connections bind", c.ConnBind},
	} {
		if !validEndpoint(f.v) {
			errs = append(errs, fmt.Errorf("%s %q: want tcp://, ipc:// or inproc://", f.name, f.v))
		}
	}
	if c.DialRetry <= 0 {
		errs = append(errs, fmt.Errorf("dial retry %s: must be positive", c.DialRetry))
	}
	return errors.Join(errs...)
}
