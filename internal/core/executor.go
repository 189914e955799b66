package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultShell is used when $SHELL is unset.
const DefaultShell = "/bin/sh"

// Executor runs pass-through lines through the user's shell.
type Executor struct {
	timeout time.Duration
	shell   string
}

// NewExecutor creates a new executor. A zero timeout means no limit.
func NewExecutor(timeout time.Duration) *Executor {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = DefaultShell
	}
	return &Executor{
		timeout: timeout,
		shell:   shell,
	}
}

// Result represents command execution result
type Result struct {
	Output   string
	ExitCode int
	Error    error
}

// Execute runs line with `$SHELL -c` in dir. Failures of the command itself
// are reported in Result; the returned error is reserved for a cancelled
// context.
func (e *Executor) Execute(ctx context.Context, dir, line string) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, e.shell, "-c", line)
	execCmd.Dir = dir
	// background children may hold the pipes open after the shell is killed
	execCmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	output := strings.TrimRight(stdout.String(), "\n")
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += "STDERR:\n" + strings.TrimRight(stderr.String(), "\n")
	}

	result := &Result{
		Output: output,
	}

	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			result.ExitCode = exitError.ExitCode()
		} else {
			result.ExitCode = -1
		}
		result.Error = err
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return result, ctxErr
	}
	return result, nil
}
