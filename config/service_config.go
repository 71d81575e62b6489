package config

import "fmt"

// a type with service configuration parameters
type serviceConfig struct {
	// the name of this service instance (used in logs and journal files)
	Name string `yaml:"name"`
	// port on which the API service listens
	Port int `yaml:"port"`
	// maximum number of allowed incoming connections
	MaxConnections int `yaml:"max_connections"`
	// interval at which the coordinator polls file statuses (milliseconds)
	PollInterval int `yaml:"poll_interval"`
	// directory in which per-task working directories are created
	WorkDirectory string `yaml:"work_dir"`
	// directory in which the translation journal is kept
	DataDirectory string `yaml:"data_dir"`
	// time after which terminal tasks and orphaned working directories are
	// purged by the janitor (seconds)
	DeleteAfter int `yaml:"delete_after"`
	// interval at which the janitor sweeps (seconds)
	SweepInterval int `yaml:"sweep_interval"`
	// enables debug-level logging
	Debug bool `yaml:"debug"`
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		Name:           "mts",
		Port:           8080,
		MaxConnections: 100,
		PollInterval:   2000,
		WorkDirectory:  "/tmp/mts-work",
		DataDirectory:  "/tmp/mts-data",
		DeleteAfter:    7 * 24 * 3600,
		SweepInterval:  3600,
	}
}

// This helper validates the given service parameters, returning an error
// indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("invalid max_connections: %d (must be positive)",
			params.MaxConnections)
	}
	if params.PollInterval <= 0 {
		return fmt.Errorf("invalid poll_interval: %d (must be positive)",
			params.PollInterval)
	}
	if params.WorkDirectory == "" {
		return fmt.Errorf("no work directory was specified!")
	}
	return nil
}
