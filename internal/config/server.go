package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ServerConfig configures the `serve` command.
type ServerConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DBPath is the sqlite database holding todos.
	DBPath string `yaml:"db_path"`
	// BasicAuth, if set with a non-empty username and password, protects
	// every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`
	// WeatherURL is the upstream One Call endpoint.
	WeatherURL string `yaml:"weather_url"`
	// WeatherKeyEnv names the environment variable holding the API key.
	WeatherKeyEnv string `yaml:"weather_key_env"`
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:        "0.0.0.0:8000",
		DBPath:        "todos.db",
		WeatherURL:    "https://api.openweathermap.org/data/3.0/onecall",
		WeatherKeyEnv: "OPENWEATHER_API_KEY",
	}
}

// Normalize fills zero values with defaults.
func (c *ServerConfig) Normalize() {
	def := DefaultServerConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.WeatherURL == "" {
		c.WeatherURL = def.WeatherURL
	}
	if c.WeatherKeyEnv == "" {
		c.WeatherKeyEnv = def.WeatherKeyEnv
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

// LoadServer reads a YAML server config. A missing file yields defaults.
func LoadServer(path string) (*ServerConfig, error) {
	if path == "" {
		return DefaultServerConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultServerConfig(), nil
		}
		return nil, err
	}
	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// WeatherKey returns the upstream API key from the environment.
func (c *ServerConfig) WeatherKey() string {
	return os.Getenv(c.WeatherKeyEnv)
}
