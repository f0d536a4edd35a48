package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/llmstack/llmstack"
	"github.com/llmstack/llmstack/internal/config"
	"github.com/llmstack/llmstack/internal/history"
	"github.com/llmstack/llmstack/internal/logger"
	"github.com/llmstack/llmstack/internal/ollama"
	"github.com/llmstack/llmstack/internal/report/sqlite"
	"github.com/llmstack/llmstack/internal/supervisor"
	"github.com/llmstack/llmstack/pkg/client"
)

type command struct {
	flags *GlobalFlags
}

// loadConfig reads the config file (or the built-in default stack) and
// installs the process logger.
func (c command) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := c.flags.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger.SetupWithRotation(level, cfg.Log)
	return cfg, nil
}

// Up ensures every declared service is ready, prints the launch report and
// exits non-zero when a required service failed.
func (c command) Up(f UpFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		return err
	}
	_ = llmstack.RegisterMetricsDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	rep := llmstack.New().EnsureReady(ctx, specs)
	printReport(rep)
	saveReport(cfg, rep)

	if !rep.Ok() {
		return fmt.Errorf("%d required service(s) failed to start", countRequiredFailures(rep))
	}
	return nil
}

// saveReport persists the launch outcome when a report store is configured.
func saveReport(cfg *config.Config, rep supervisor.Report) {
	if cfg.Report.SQLitePath == "" {
		return
	}
	db, err := sqlite.New(cfg.Report.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: report store unavailable: %v\n", err)
		return
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report schema: %v\n", err)
		return
	}
	runID := time.Now().UTC().Format("20060102-150405")
	if err := db.SaveReport(ctx, runID, rep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report save: %v\n", err)
	}
}

func countRequiredFailures(rep supervisor.Report) int {
	n := 0
	for _, st := range rep.Failed() {
		if st.Required {
			n++
		}
	}
	return n
}

func printReport(rep supervisor.Report) {
	for _, st := range rep {
		marker := "ok"
		if st.Outcome == supervisor.FailedToStart {
			marker = "FAIL"
			if !st.Required {
				marker = "fail (optional)"
			}
		}
		fmt.Printf("%-12s %-16s attempts=%-3d elapsed=%-10s %s\n",
			st.Name, st.Outcome, st.Attempts, st.Elapsed.Round(time.Millisecond), marker)
	}
}

// Status probes without starting anything, locally or via a running daemon.
func (c command) Status(f StatusFlags) error {
	if f.APIUrl != "" {
		api := client.New(client.Config{BaseURL: f.APIUrl, Timeout: f.APITimeout})
		ctx := context.Background()
		if !api.IsReachable(ctx) {
			return fmt.Errorf("daemon not reachable at %s - start it with 'llmstack serve'", f.APIUrl)
		}
		states, err := api.Services(ctx)
		if err != nil {
			return err
		}
		for _, st := range states {
			printState(st.Name, st.Ready, st.ProbedBy)
		}
		return nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	specs, err := cfg.ServiceSpecs()
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, spec := range specs {
		ready := false
		if spec.Probe != nil {
			ok, perr := spec.Probe.Ready(ctx)
			ready = ok && perr == nil
		}
		printState(spec.Name, ready, spec.Probe.Describe())
	}
	return nil
}

func printState(name string, ready bool, probedBy string) {
	state := "not ready"
	if ready {
		state = "ready"
	}
	fmt.Printf("%-12s %-10s (%s)\n", name, state, probedBy)
}

// Chat runs an interactive REPL against a local Ollama model with
// Redis-backed conversation history.
func (c command) Chat(f ChatFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm := ollama.New(ollama.Config{BaseURL: cfg.Ollama.BaseURL})
	model := f.Model
	if model == "" {
		models, err := llm.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("cannot list models (is ollama running? try 'llmstack up'): %w", err)
		}
		if len(models) == 0 {
			return fmt.Errorf("no models installed; pull one with 'ollama pull <model>'")
		}
		model = models[0].Name
	}

	hist := history.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = hist.Close() }()

	opts := &ollama.Options{Temperature: f.Temperature, TopP: f.TopP, NumPredict: f.MaxTokens}
	fmt.Printf("chatting with %s as %q (exit to quit)\n", model, f.User)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		past, err := hist.Conversation(ctx, f.User)
		if err != nil {
			return err
		}
		msgs := make([]ollama.Message, 0, len(past)+1)
		for _, m := range past {
			msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
		}
		msgs = append(msgs, ollama.Message{Role: "user", Content: line})

		reply, err := llm.Chat(ctx, ollama.ChatRequest{Model: model, Messages: msgs, Options: opts},
			func(chunk string) { fmt.Print(chunk) })
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "chat error: %v\n", err)
			continue
		}
		if _, err := hist.Append(ctx, f.User, line, reply); err != nil {
			fmt.Fprintf(os.Stderr, "history not saved: %v\n", err)
		}
	}
}

// Serve runs the HTTP API in the foreground until interrupted.
func (c command) Serve(f ServeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := f.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	_ = llmstack.RegisterMetricsDefault()

	srv, err := llmstack.NewHTTPServer(addr, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("llmstack API listening on %s%s\n", addr, cfg.Server.BasePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// History prints persisted launch reports, newest first.
func (c command) History(f HistoryFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Report.SQLitePath == "" {
		return fmt.Errorf("no report store configured; set [report].sqlite_path in the config")
	}
	db, err := sqlite.New(cfg.Report.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	recs, err := db.Recent(ctx, f.Limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no launch reports recorded yet")
		return nil
	}
	lastRun := ""
	for _, r := range recs {
		if r.RunID != lastRun {
			fmt.Printf("run %s (%s)\n", r.RunID, r.CreatedAt.Local().Format(time.RFC3339))
			lastRun = r.RunID
		}
		fmt.Printf("  %-12s %-16s attempts=%-3d elapsed=%s\n",
			r.Service, r.Outcome, r.Attempts, r.Elapsed.Round(time.Millisecond))
	}
	return nil
}
