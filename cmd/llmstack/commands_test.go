package main

import (
	"testing"

	"github.com/llmstack/llmstack/internal/supervisor"
)

func TestBuildRootSubcommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"up": false, "status": false, "chat": false, "serve": false, "history": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestCountRequiredFailures(t *testing.T) {
	rep := supervisor.Report{
		{Name: "a", Outcome: supervisor.FailedToStart, Required: true},
		{Name: "b", Outcome: supervisor.FailedToStart, Required: false},
		{Name: "c", Outcome: supervisor.StartedSuccessfully, Required: true},
	}
	if got := countRequiredFailures(rep); got != 1 {
		t.Fatalf("required failures: %d", got)
	}
}

func TestUpFailsOnBadConfigPath(t *testing.T) {
	cmd := command{flags: &GlobalFlags{ConfigPath: "/does/not/exist.toml", LogLevel: "error"}}
	if err := cmd.Up(UpFlags{}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestHistoryRequiresStore(t *testing.T) {
	cmd := command{flags: &GlobalFlags{LogLevel: "error"}}
	if err := cmd.History(HistoryFlags{Limit: 5}); err == nil {
		t.Fatalf("expected error without configured report store")
	}
}
