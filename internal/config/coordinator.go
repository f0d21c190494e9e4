package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CoordinatorConfig holds the coordinator process settings, read from the
// environment with the MICROSTORE prefix.
type CoordinatorConfig struct {
	DatastoreRoot       string        `envconfig:"DATASTORE_ROOT"`
	InputDir            string        `envconfig:"INPUT_DIR"`
	WorkingDir          string        `envconfig:"WORKING_DIR"`
	JobServiceURL       string        `envconfig:"JOB_SERVICE_URL" default:"http://localhost:8050"`
	PseudonymServiceURL string        `envconfig:"PSEUDONYM_SERVICE_URL" default:"http://localhost:8060"`
	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	MaxWorkers          int           `envconfig:"MAX_WORKERS" default:"4"`
	MaxWorkerInputBytes int64         `envconfig:"MAX_WORKER_INPUT_BYTES" default:"5368709120"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat           string        `envconfig:"LOG_FORMAT" default:"json"`
}

// LoadCoordinator reads the coordinator configuration from the environment.
func LoadCoordinator() (*CoordinatorConfig, error) {
	var cfg CoordinatorConfig
	if err := envconfig.Process("MICROSTORE", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
