package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log          LogConfig          `koanf:"log"`
	Server       ServerConfig       `koanf:"server"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	NWS          NWSConfig          `koanf:"nws"`
	Warehouse    WarehouseConfig    `koanf:"warehouse"`
	Ledger       LedgerConfig       `koanf:"ledger"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
	Scheduler    SchedulerConfig    `koanf:"scheduler"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type ServerConfig struct {
	Addr                string `koanf:"addr"`
	ReadTimeoutSeconds  int    `koanf:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `koanf:"write_timeout_seconds"`
}

type OrchestratorConfig struct {
	ResponderTimeoutSeconds int `koanf:"responder_timeout_seconds"`
}

type NWSConfig struct {
	BaseURL             string  `koanf:"base_url"`
	UserAgent           string  `koanf:"user_agent"`
	TimeoutSeconds      int     `koanf:"timeout_seconds"`
	MaxRetries          int     `koanf:"max_retries"`
	BreakerMaxFailures  int     `koanf:"breaker_max_failures"`
	BreakerResetSeconds int     `koanf:"breaker_reset_seconds"`
	DefaultCity         string  `koanf:"default_city"`
	DefaultLat          float64 `koanf:"default_lat"`
	DefaultLon          float64 `koanf:"default_lon"`
}

type WarehouseConfig struct {
	Path string `koanf:"path"` // sqlite file, empty for in-memory
}

type LedgerConfig struct {
	Backend     string `koanf:"backend"` // memory, sqlite
	Capacity    int    `koanf:"capacity"`
	MaxAgeHours int    `koanf:"max_age_hours"`
	Path        string `koanf:"path"` // sqlite file when backend=sqlite
}

type TelemetryConfig struct {
	ServiceName        string            `koanf:"service_name"`
	Exporter           string            `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint       string            `koanf:"otlp_endpoint"`
	OTLPInsecure       bool              `koanf:"otlp_insecure"`
	OTLPHeaders        map[string]string `koanf:"otlp_headers"`
	OTLPUser           string            `koanf:"otlp_user"`
	OTLPToken          string            `koanf:"otlp_token"`
	OTLPTimeoutSeconds int               `koanf:"otlp_timeout_seconds"`
}

type SchedulerConfig struct {
	Enabled              bool `koanf:"enabled"`
	PruneIntervalMinutes int  `koanf:"prune_interval_minutes"`
	ProbeIntervalMinutes int  `koanf:"probe_interval_minutes"`
}

// Global k instance
var k = koanf.New(".")

// Load reads configuration from the optional file at path, then the
// environment, then applies defaults for anything unset.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile loads the base config file and, when a profile is given and
// a sibling config.<profile>.yaml exists, layers it on top of the base.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(path, profile, nil)
}

// LoadWithCLI loads configuration honoring command line overrides:
// --config <path>, --profile/--env <name>, and repeated --set key=value.
// --set values win over both file and environment.
func LoadWithCLI(args []string) (*Config, error) {
	opts, _, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(opts.configPath, opts.profile, opts.sets)
}

func load(path, profile string, sets []string) (*Config, error) {
	applyDefaults()

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Layer profile file on top (config.yaml -> config.dev.yaml)
	if profilePath := profileConfigPath(path, profile); profilePath != "" {
		if err := k.Load(file.Provider(profilePath), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load from ENV (ANEMOS_LOG_LEVEL -> log.level)
	if err := k.Load(env.Provider("ANEMOS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ANEMOS_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// 4. CLI --set overrides win last
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q, expected key=value", s)
		}
		k.Set(key, parseOverrideValue(value))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults() {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("server.addr", ":8080")
	k.Set("server.read_timeout_seconds", 15)
	k.Set("server.write_timeout_seconds", 30)

	k.Set("orchestrator.responder_timeout_seconds", 15)

	k.Set("nws.base_url", "https://api.weather.gov")
	k.Set("nws.user_agent", "anemos/1.0 (weather advisor)")
	k.Set("nws.timeout_seconds", 10)
	k.Set("nws.max_retries", 3)
	k.Set("nws.breaker_max_failures", 5)
	k.Set("nws.breaker_reset_seconds", 30)
	k.Set("nws.default_city", "Dallas")
	k.Set("nws.default_lat", 32.7767)
	k.Set("nws.default_lon", -96.7970)

	k.Set("warehouse.path", "")

	k.Set("ledger.backend", "memory")
	k.Set("ledger.capacity", 1000)
	k.Set("ledger.max_age_hours", 24)
	k.Set("ledger.path", "anemos-ledger.db")

	k.Set("telemetry.service_name", "anemos")
	k.Set("telemetry.exporter", "none")
	k.Set("telemetry.otlp_timeout_seconds", 10)

	k.Set("scheduler.enabled", false)
	k.Set("scheduler.prune_interval_minutes", 60)
	k.Set("scheduler.probe_interval_minutes", 15)
}

// profileConfigPath returns the profile variant of the base config path
// (config.yaml + "dev" -> config.dev.yaml) if that file exists, else "".
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(filepath.Base(base), ext)
	path := filepath.Join(dir, name+"."+profile+ext)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

type cliOverrides struct {
	configPath string
	profile    string
	sets       []string
}

// parseCLIOverrides extracts --config, --profile/--env, and --set flags from
// args, returning the remaining arguments untouched.
func parseCLIOverrides(args []string) (cliOverrides, []string, error) {
	var o cliOverrides
	rest := make([]string, 0, len(args))

	consume := func(flag, value string) error {
		switch flag {
		case "--config":
			o.configPath = value
		case "--profile", "--env":
			o.profile = value
		case "--set":
			if !strings.Contains(value, "=") {
				return fmt.Errorf("invalid --set %q, expected key=value", value)
			}
			o.sets = append(o.sets, value)
		}
		return nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "--profile" || arg == "--env" || arg == "--set":
			if i+1 >= len(args) {
				return o, nil, fmt.Errorf("missing value for %s", arg)
			}
			i++
			if err := consume(arg, args[i]); err != nil {
				return o, nil, err
			}
		case strings.HasPrefix(arg, "--config="),
			strings.HasPrefix(arg, "--profile="),
			strings.HasPrefix(arg, "--env="),
			strings.HasPrefix(arg, "--set="):
			flag, value, _ := strings.Cut(arg, "=")
			if err := consume(flag, value); err != nil {
				return o, nil, err
			}
		default:
			rest = append(rest, arg)
		}
	}
	return o, rest, nil
}

// parseOverrideValue decodes JSON-looking --set values (numbers, booleans,
// objects) so nested structures survive the trip through koanf.
func parseOverrideValue(value string) interface{} {
	var parsed interface{}
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		return parsed
	}
	return value
}
