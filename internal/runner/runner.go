package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// CommandResult holds the output of a command execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined merges stdout and stderr into the single blob the filter engine
// consumes: stdout first, stderr appended, trailing whitespace trimmed.
func (r *CommandResult) Combined() string {
	out := strings.TrimRight(r.Stdout, " \t\n\r")
	if r.Stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += r.Stderr
	}
	return strings.TrimRight(out, " \t\n\r")
}

// Execute runs a command, capturing stdout and stderr concurrently via goroutines.
func Execute(command string, args []string) (*CommandResult, error) {
	cmd := exec.Command(command, args...)
	// Stdin stays disconnected for captured commands so nothing blocks
	// waiting for input. Passthrough commands still inherit stdin.
	return capture(cmd)
}

// ExecuteShell runs a `run` override through the shell. `{args}` expands to
// the trailing arguments, individually quoted.
func ExecuteShell(script string, args []string) (*CommandResult, error) {
	expanded := strings.ReplaceAll(script, "{args}", quoteArgs(args))
	cmd := exec.Command("sh", "-c", expanded)
	return capture(cmd)
}

func capture(cmd *exec.Cmd) (*CommandResult, error) {
	start := time.Now()

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = stdoutBuf.ReadFrom(stdoutPipe)
	}()
	go func() {
		defer wg.Done()
		_, _ = stderrBuf.ReadFrom(stderrPipe)
	}()

	wg.Wait()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("wait command: %w", err)
		}
		exitCode = exitStatus(exitErr)
	}

	return &CommandResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

// exitStatus maps a signal death to the conventional 128+signal code.
func exitStatus(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}

// Passthrough runs a command with inherited stdio (no capture).
func Passthrough(command string, args []string) (int, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitStatus(exitErr), nil
		}
		return 1, fmt.Errorf("passthrough: %w", err)
	}
	return 0, nil
}

// ShellEscape wraps s in single quotes so the shell treats it as one word.
func ShellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteArgs renders args as a shell-safe word list using single quotes.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = ShellEscape(arg)
	}
	return strings.Join(quoted, " ")
}
