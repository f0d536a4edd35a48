package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/llmstack/llmstack/internal/probe"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "llmstack.toml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestDefaultStack(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		t.Fatalf("specs: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("default services: %d", len(specs))
	}
	if specs[0].Name != "redis" || specs[1].Name != "ollama" || specs[2].Name != "webui" {
		t.Fatalf("default order: %+v", specs)
	}
	if !specs[0].Required || !specs[1].Required || specs[2].Required {
		t.Fatalf("required flags: redis/ollama required, webui optional")
	}
}

func TestLoadFileOverridesServices(t *testing.T) {
	p := writeConfig(t, `
log_level = "debug"

[redis]
addr = "127.0.0.1:6390"

[report]
sqlite_path = "/tmp/reports.db"

[[services]]
name = "cache"
command = "redis-server --port 6390"
max_attempts = 7
poll_interval = "250ms"
[services.probe]
type = "redis"
addr = "127.0.0.1:6390"

[[services]]
name = "api"
required = false
[services.probe]
type = "http"
url = "http://127.0.0.1:9999/health"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Redis.Addr != "127.0.0.1:6390" {
		t.Fatalf("top-level fields: %+v", cfg)
	}
	if cfg.Report.SQLitePath != "/tmp/reports.db" {
		t.Fatalf("report path: %q", cfg.Report.SQLitePath)
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		t.Fatalf("specs: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("file services must replace defaults: %d", len(specs))
	}
	if specs[0].MaxAttempts != 7 || specs[0].PollInterval != 250*time.Millisecond {
		t.Fatalf("cache knobs: %+v", specs[0])
	}
	if !specs[0].Required {
		t.Fatalf("required must default to true")
	}
	if specs[1].Required {
		t.Fatalf("api declared optional")
	}
	// api has no command: starter must be a no-op, not nil
	if specs[1].Starter == nil || specs[1].Starter.Describe() != "noop" {
		t.Fatalf("starter for command-less service: %+v", specs[1].Starter)
	}
}

func TestDefaultsAppliedToSparseService(t *testing.T) {
	p := writeConfig(t, `
[[services]]
name = "thing"
command = "thing --serve"
[services.probe]
type = "tcp"
addr = "127.0.0.1:7000"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		t.Fatalf("specs: %v", err)
	}
	if specs[0].MaxAttempts != DefaultMaxAttempts || specs[0].PollInterval != DefaultPollInterval {
		t.Fatalf("defaults not applied: %+v", specs[0])
	}
}

func TestRedisProbeInheritsCredentials(t *testing.T) {
	p := writeConfig(t, `
[redis]
addr = "127.0.0.1:6390"
password = "hunter2"
db = 2

[[services]]
name = "cache"
[services.probe]
type = "redis"
addr = "127.0.0.1:6390"

[[services]]
name = "other"
[services.probe]
type = "redis"
addr = "127.0.0.1:6400"
password = "different"
db = 4
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		t.Fatalf("specs: %v", err)
	}
	rp, ok := specs[0].Probe.(probe.Redis)
	if !ok {
		t.Fatalf("cache probe type: %T", specs[0].Probe)
	}
	if rp.Password != "hunter2" || rp.DB != 2 {
		t.Fatalf("credentials not inherited from [redis]: %+v", rp)
	}
	rp, ok = specs[1].Probe.(probe.Redis)
	if !ok {
		t.Fatalf("other probe type: %T", specs[1].Probe)
	}
	if rp.Password != "different" || rp.DB != 4 {
		t.Fatalf("per-probe credentials must win: %+v", rp)
	}
}

func TestRejectsBadProbe(t *testing.T) {
	p := writeConfig(t, `
[[services]]
name = "x"
[services.probe]
type = "carrier-pigeon"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.ServiceSpecs(); err == nil {
		t.Fatalf("unknown probe type must be rejected")
	}
}

func TestRejectsDuplicateNames(t *testing.T) {
	p := writeConfig(t, `
[[services]]
name = "dup"
[services.probe]
type = "tcp"
addr = "127.0.0.1:1"

[[services]]
name = "dup"
[services.probe]
type = "tcp"
addr = "127.0.0.1:2"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.ServiceSpecs(); err == nil {
		t.Fatalf("duplicate names must be rejected")
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.toml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
