package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/llmstack/llmstack/internal/launcher"
	"github.com/llmstack/llmstack/internal/logger"
	"github.com/llmstack/llmstack/internal/probe"
	"github.com/llmstack/llmstack/internal/supervisor"
)

// Defaults applied to service entries that omit the polling knobs.
const (
	DefaultMaxAttempts  = 5
	DefaultPollInterval = time.Second
)

// Config is the top-level TOML structure.
type Config struct {
	LogLevel string          `toml:"log_level" mapstructure:"log_level"`
	Redis    RedisConfig     `toml:"redis" mapstructure:"redis"`
	Ollama   OllamaConfig    `toml:"ollama" mapstructure:"ollama"`
	Server   ServerConfig    `toml:"server" mapstructure:"server"`
	Report   ReportConfig    `toml:"report" mapstructure:"report"`
	Log      *logger.Config  `toml:"log" mapstructure:"log"`
	Services []ServiceConfig `toml:"services" mapstructure:"services"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" mapstructure:"addr"`
	Password string `toml:"password" mapstructure:"password"`
	DB       int    `toml:"db" mapstructure:"db"`
}

type OllamaConfig struct {
	BaseURL string        `toml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr     string `toml:"addr" mapstructure:"addr"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type ReportConfig struct {
	// SQLitePath is where launch reports are kept; empty disables persistence.
	SQLitePath string `toml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServiceConfig declares one supervised service in the config file.
type ServiceConfig struct {
	Name         string         `toml:"name" mapstructure:"name"`
	Command      string         `toml:"command" mapstructure:"command"`
	WorkDir      string         `toml:"workdir" mapstructure:"workdir"`
	Env          []string       `toml:"env" mapstructure:"env"`
	MaxAttempts  int            `toml:"max_attempts" mapstructure:"max_attempts"`
	PollInterval time.Duration  `toml:"poll_interval" mapstructure:"poll_interval"`
	Required     *bool          `toml:"required" mapstructure:"required"`
	Probe        ProbeConfig    `toml:"probe" mapstructure:"probe"`
	Log          *logger.Config `toml:"log" mapstructure:"log"`
}

// ProbeConfig selects and parameterizes the readiness check for a service.
type ProbeConfig struct {
	Type     string        `toml:"type" mapstructure:"type"`         // redis | http | tcp | command
	URL      string        `toml:"url" mapstructure:"url"`           // http
	Addr     string        `toml:"addr" mapstructure:"addr"`         // redis, tcp
	Password string        `toml:"password" mapstructure:"password"` // redis; defaults to [redis] password
	DB       int           `toml:"db" mapstructure:"db"`             // redis; defaults to [redis] db
	Command  string        `toml:"command" mapstructure:"command"`   // command
	Timeout  time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Load reads a TOML config from path and applies defaults.
// An empty path yields the built-in default stack.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	// file-provided services replace the default set entirely
	if v.IsSet("services") {
		cfg.Services = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default is the built-in local stack: Redis, Ollama and the Streamlit web UI,
// matching the ports the rest of the tool assumes.
func Default() *Config {
	required := true
	optional := false
	return &Config{
		LogLevel: "info",
		Redis:    RedisConfig{Addr: "127.0.0.1:6379"},
		Ollama:   OllamaConfig{BaseURL: "http://127.0.0.1:11434"},
		Server:   ServerConfig{Addr: "127.0.0.1:8080", BasePath: "/api"},
		Services: []ServiceConfig{
			{
				Name:         "redis",
				Command:      "redis-server",
				MaxAttempts:  4,
				PollInterval: time.Second,
				Required:     &required,
				Probe:        ProbeConfig{Type: "redis", Addr: "127.0.0.1:6379"},
			},
			{
				Name:         "ollama",
				Command:      "ollama serve",
				MaxAttempts:  6,
				PollInterval: time.Second,
				Required:     &required,
				Probe:        ProbeConfig{Type: "http", URL: "http://127.0.0.1:11434/api/tags"},
			},
			{
				Name:         "webui",
				Command:      "streamlit run app.py",
				MaxAttempts:  5,
				PollInterval: time.Second,
				Required:     &optional,
				Probe:        ProbeConfig{Type: "http", URL: "http://127.0.0.1:8501/_stcore/health"},
			},
		},
	}
}

// ServiceSpecs materializes the declared services into supervisor specs.
func (c *Config) ServiceSpecs() ([]supervisor.ServiceSpec, error) {
	seen := make(map[string]bool, len(c.Services))
	specs := make([]supervisor.ServiceSpec, 0, len(c.Services))
	for _, sc := range c.Services {
		if sc.Name == "" {
			return nil, fmt.Errorf("service with empty name")
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("duplicate service name %q", sc.Name)
		}
		seen[sc.Name] = true

		p, err := c.buildProbe(sc)
		if err != nil {
			return nil, err
		}

		var st launcher.Starter = launcher.Noop{}
		if sc.Command != "" {
			st = launcher.Command{
				Name:    sc.Name,
				Command: sc.Command,
				WorkDir: sc.WorkDir,
				Env:     sc.Env,
				Log:     c.serviceLog(sc),
			}
		}

		maxAttempts := sc.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = DefaultMaxAttempts
		}
		interval := sc.PollInterval
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		required := true
		if sc.Required != nil {
			required = *sc.Required
		}
		specs = append(specs, supervisor.ServiceSpec{
			Name:         sc.Name,
			Probe:        p,
			Starter:      st,
			MaxAttempts:  maxAttempts,
			PollInterval: interval,
			Required:     required,
		})
	}
	return specs, nil
}

func (c *Config) buildProbe(sc ServiceConfig) (probe.Probe, error) {
	pc := sc.Probe
	switch pc.Type {
	case "redis":
		if pc.Addr == "" {
			return nil, fmt.Errorf("probe redis requires addr for service %s", sc.Name)
		}
		// A probe without its own credentials checks the same server the
		// rest of the stack talks to, so it inherits the [redis] ones.
		password := pc.Password
		if password == "" {
			password = c.Redis.Password
		}
		db := pc.DB
		if db == 0 {
			db = c.Redis.DB
		}
		return probe.Redis{Addr: pc.Addr, Password: password, DB: db}, nil
	case "http":
		if pc.URL == "" {
			return nil, fmt.Errorf("probe http requires url for service %s", sc.Name)
		}
		return probe.HTTP{URL: pc.URL, Timeout: pc.Timeout}, nil
	case "tcp":
		if pc.Addr == "" {
			return nil, fmt.Errorf("probe tcp requires addr for service %s", sc.Name)
		}
		return probe.TCP{Addr: pc.Addr, Timeout: pc.Timeout}, nil
	case "command":
		if pc.Command == "" {
			return nil, fmt.Errorf("probe command requires command for service %s", sc.Name)
		}
		return probe.Command{Command: pc.Command}, nil
	default:
		return nil, fmt.Errorf("unknown probe type %q for service %s", pc.Type, sc.Name)
	}
}

// serviceLog merges the top-level log defaults with per-service overrides.
func (c *Config) serviceLog(sc ServiceConfig) logger.Config {
	var lc logger.Config
	if c.Log != nil {
		lc = *c.Log
	}
	if sc.Log != nil {
		if sc.Log.Dir != "" {
			lc.Dir = sc.Log.Dir
		}
		if sc.Log.StdoutPath != "" {
			lc.StdoutPath = sc.Log.StdoutPath
		}
		if sc.Log.StderrPath != "" {
			lc.StderrPath = sc.Log.StderrPath
		}
		if sc.Log.MaxSizeMB != 0 {
			lc.MaxSizeMB = sc.Log.MaxSizeMB
		}
		if sc.Log.MaxBackups != 0 {
			lc.MaxBackups = sc.Log.MaxBackups
		}
		if sc.Log.MaxAgeDays != 0 {
			lc.MaxAgeDays = sc.Log.MaxAgeDays
		}
		if sc.Log.Compress {
			lc.Compress = true
		}
	}
	return lc
}
