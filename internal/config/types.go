package config

// Config represents the complete resmon configuration
type Config struct {
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig represents the default sampling session parameters
type SessionConfig struct {
	DurationSeconds float64 `yaml:"duration_seconds"`
	IntervalSeconds float64 `yaml:"interval_seconds"`
}

// MetricsConfig represents metric source configuration
type MetricsConfig struct {
	EnableGPU bool   `yaml:"enable_gpu"`
	DiskPath  string `yaml:"disk_path"`
}

// StorageConfig represents session snapshot storage configuration
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig represents the HTTP/WebSocket transport configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
