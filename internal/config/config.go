package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultSessionDBName  = "session.db"
	DefaultLogFileName    = "todoboard.log"
	DefaultServerURL      = "http://127.0.0.1:8000"
	DefaultWeatherRefresh = "@every 3m"

	appDirName = "todoboard"
	configEnv  = "TODOBOARD_CONFIG"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Toggle       string `toml:"toggle"`
	Delete       string `toml:"delete"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	Rename       string `toml:"rename"`
	Due          string `toml:"due"`
	Archive      string `toml:"archive"`
	ShowArchived string `toml:"show_archived"`
	Calendar     string `toml:"calendar"`
	ResetFilter  string `toml:"reset_filter"`
	Refresh      string `toml:"refresh"`
	Export       string `toml:"export"`
	Import       string `toml:"import"`
	Weather      string `toml:"weather"`
}

type WeatherConfig struct {
	Enabled bool    `toml:"enabled"`
	Lat     float64 `toml:"lat"`
	Lon     float64 `toml:"lon"`
	Units   string  `toml:"units"`
	// Refresh is a cron spec, e.g. "@every 3m" or "*/5 * * * *".
	Refresh string `toml:"refresh"`
}

type Config struct {
	ServerURL string `toml:"server_url"`
	// Timezone is an IANA name; empty means the system zone.
	Timezone  string `toml:"timezone"`
	WeekStart string `toml:"week_start"`
	SessionDB string `toml:"session_db"`
	// SessionScope names the session a stored credential belongs to.
	// Empty means the parent process (the invoking shell).
	SessionScope string        `toml:"session_scope"`
	ExportDir    string        `toml:"export_dir"`
	LogFile      string        `toml:"log_file"`
	LogLevel     string        `toml:"log_level"`
	Weather      WeatherConfig `toml:"weather"`
	Keys         Keymap        `toml:"keys"`
}

// ResolveConfigPath returns $TODOBOARD_CONFIG, or config.toml in the
// user config directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(configEnv)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) normalize() {
	def := defaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	switch strings.ToLower(c.WeekStart) {
	case "sunday", "monday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = def.WeekStart
	}
	if c.SessionDB == "" {
		c.SessionDB = def.SessionDB
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Weather.Units == "" {
		c.Weather.Units = def.Weather.Units
	}
	if c.Weather.Refresh == "" {
		c.Weather.Refresh = def.Weather.Refresh
	}
	fillKeys(&c.Keys, def.Keys)
}

func fillKeys(k *Keymap, def Keymap) {
	pairs := []struct {
		dst *string
		def string
	}{
		{&k.Quit, def.Quit}, {&k.Add, def.Add}, {&k.Up, def.Up}, {&k.Down, def.Down},
		{&k.Toggle, def.Toggle}, {&k.Delete, def.Delete}, {&k.Confirm, def.Confirm},
		{&k.Cancel, def.Cancel}, {&k.Rename, def.Rename}, {&k.Due, def.Due},
		{&k.Archive, def.Archive}, {&k.ShowArchived, def.ShowArchived},
		{&k.Calendar, def.Calendar}, {&k.ResetFilter, def.ResetFilter},
		{&k.Refresh, def.Refresh}, {&k.Export, def.Export}, {&k.Import, def.Import},
		{&k.Weather, def.Weather},
	}
	for _, p := range pairs {
		if *p.dst == "" {
			*p.dst = p.def
		}
	}
}

// Location resolves Timezone, falling back to the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// FirstWeekday maps WeekStart onto a weekday.
func (c Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

// Default returns the configuration written on first launch.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		ServerURL: DefaultServerURL,
		WeekStart: "sunday",
		// Credentials must not outlive the machine session.
		SessionDB: filepath.Join(os.TempDir(), appDirName, DefaultSessionDBName),
		ExportDir: ".",
		LogFile:   filepath.Join(stateDir(), DefaultLogFileName),
		LogLevel:  "info",
		Weather: WeatherConfig{
			Enabled: false,
			Units:   "metric",
			Refresh: DefaultWeatherRefresh,
		},
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			Up:           "k",
			Down:         "j",
			Toggle:       " ",
			Delete:       "d",
			Confirm:      "enter",
			Cancel:       "esc",
			Rename:       "r",
			Due:          "t",
			Archive:      "z",
			ShowArchived: "Z",
			Calendar:     "c",
			ResetFilter:  "x",
			Refresh:      "R",
			Export:       "E",
			Import:       "I",
			Weather:      "w",
		},
	}
}
