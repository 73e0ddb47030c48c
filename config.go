package bankcore

type Config struct {
	Listen   string `yaml:"listen"`
	Database struct {
		ConnectionString string `yaml:"conn_str"`
	} `yaml:"database"`
	Limits struct {
		InFlight         int64 `yaml:"in_flight"`
		AcquireTimeoutMS int   `yaml:"acquire_timeout_ms"`
	} `yaml:"limits"`
}
