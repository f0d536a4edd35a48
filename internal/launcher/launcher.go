package launcher

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/llmstack/llmstack/internal/logger"
)

// Starter is an idempotent action that attempts to bring a service up.
// Start is fire-and-forget: it returns once the launch has been issued,
// it never waits for the service to become ready.
type Starter interface {
	Start() error
	Describe() string
}

// Noop is a Starter for services that are expected to be externally managed.
type Noop struct{}

func (Noop) Start() error     { return nil }
func (Noop) Describe() string { return "noop" }

// Command launches an external executable as a detached background process.
// Stdout/stderr are appended to the files Log points at when configured,
// otherwise they go to the null device. The child is placed in its own
// session so it survives the launcher exiting.
type Command struct {
	Name    string
	Command string
	WorkDir string
	Env     []string
	Log     logger.Config
}

func (c Command) Start() error {
	cmd := buildStartCommand(c.Command)
	if c.WorkDir != "" {
		cmd.Dir = c.WorkDir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	configureSysProcAttr(cmd)

	// The child must own its output descriptors. Anything pipe-backed
	// (os/exec wraps non-*os.File writers in pipes read by this process)
	// dies with the launcher, so only real files are handed over.
	var files []*os.File
	closeFiles := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	stdoutPath, stderrPath := c.Log.Paths(c.Name)
	if stdoutPath != "" || stderrPath != "" {
		if c.Log.Dir != "" {
			_ = os.MkdirAll(c.Log.Dir, 0o750)
		}
		if stdoutPath != "" {
			f, err := os.OpenFile(stdoutPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
			if err != nil {
				return err
			}
			files = append(files, f)
			cmd.Stdout = f
		}
		if stderrPath != "" {
			if stderrPath == stdoutPath && cmd.Stdout != nil {
				cmd.Stderr = cmd.Stdout
			} else {
				f, err := os.OpenFile(stderrPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
				if err != nil {
					closeFiles()
					return err
				}
				files = append(files, f)
				cmd.Stderr = f
			}
		}
	}
	if cmd.Stdout == nil {
		if null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0); err == nil {
			files = append(files, null)
			cmd.Stdout = null
			if cmd.Stderr == nil {
				cmd.Stderr = null
			}
		}
	}

	if err := cmd.Start(); err != nil {
		closeFiles()
		slog.Debug("service launch failed", "name", c.Name, "command", c.Command, "error", err)
		return err
	}
	// The child holds its own duplicates of the descriptors now.
	closeFiles()
	slog.Debug("service launched", "name", c.Name, "pid", cmd.Process.Pid)
	// The child runs independently; drop our handle so it is never reaped here.
	return cmd.Process.Release()
}

func (c Command) Describe() string { return "exec:" + c.Command }

// buildStartCommand constructs an *exec.Cmd for the given command string.
// It avoids invoking a shell when not necessary, and it also respects
// an explicit shell invocation already present in the command string
// (e.g., "sh -c 'echo hi'"), avoiding double-wrapping with another shell.
func buildStartCommand(cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return getTrueCommand()
	}
	if _, afterC, ok := parseExplicitShell(cmdStr); ok {
		return getShellCommand(afterC)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return getShellCommand(cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or "/bin/sh -c <ARG>" at the
// beginning of cmdStr. It returns (shellPath, afterCArg, true) when matched.
// It preserves the substring after "-c " verbatim to avoid breaking quoting.
func parseExplicitShell(cmdStr string) (string, string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return strings.Fields(p)[0], after, true
		}
	}
	return "", "", false
}
