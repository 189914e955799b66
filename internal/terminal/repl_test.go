package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
)

// scriptedInput replays lines and errors, then reports io.EOF.
type scriptedInput struct {
	steps   []scriptedStep
	prompts []string
}

type scriptedStep struct {
	line string
	err  error
}

func (in *scriptedInput) ReadLine(prompt string) (string, error) {
	in.prompts = append(in.prompts, prompt)
	if len(in.steps) == 0 {
		return "", io.EOF
	}
	step := in.steps[0]
	in.steps = in.steps[1:]
	return step.line, step.err
}

func lines(ls ...string) []scriptedStep {
	steps := make([]scriptedStep, 0, len(ls))
	for _, l := range ls {
		steps = append(steps, scriptedStep{line: l})
	}
	return steps
}

func newTestREPL(t *testing.T, s *testSession, steps []scriptedStep) (*REPL, *bytes.Buffer, *[]time.Duration) {
	t.Helper()
	var out bytes.Buffer
	renderer, err := NewRenderer(&out, false, 80)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	r := NewREPL(s.Session, &scriptedInput{steps: steps}, renderer, "gsh")
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &out, &slept
}

func TestREPL_Exit(t *testing.T) {
	s := newTestSession(t, false, false)
	r, out, slept := newTestREPL(t, s, lines("ls", "::exit", "never read"))

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if status != ExitOK {
		t.Errorf("Expected status 0, got %d", status)
	}
	if !strings.Contains(out.String(), "ran: ls") || !strings.Contains(out.String(), "SECURE SHUTDOWN") {
		t.Errorf("Unexpected output %q", out.String())
	}
	if len(s.executor.lines) != 1 {
		t.Errorf("Expected loop to stop at ::exit, executor saw %v", s.executor.lines)
	}
	if len(*slept) != 0 {
		t.Error("Expected no delay on ::exit")
	}
}

func TestREPL_EOFExits(t *testing.T) {
	s := newTestSession(t, false, false)
	r, out, _ := newTestREPL(t, s, lines("pwd"))

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if status != ExitOK || s.State() != StateTerminated {
		t.Errorf("Expected graceful exit, got %d in %s", status, s.State())
	}
	if !strings.Contains(out.String(), "SECURE SHUTDOWN") {
		t.Errorf("Expected shutdown banner, got %q", out.String())
	}
}

func TestREPL_InterruptKeepsRunning(t *testing.T) {
	s := newTestSession(t, false, false)
	steps := []scriptedStep{
		{line: "half typ", err: readline.ErrInterrupt},
		{line: "ls"},
		{line: "::exit"},
	}
	r, _, _ := newTestREPL(t, s, steps)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(s.executor.lines) != 1 || s.executor.lines[0] != "ls" {
		t.Errorf("Expected the interrupted line dropped, executor saw %v", s.executor.lines)
	}
}

func TestREPL_ReadErrorClosesSession(t *testing.T) {
	s := newTestSession(t, false, false)
	boom := errors.New("terminal gone")
	r, _, _ := newTestREPL(t, s, []scriptedStep{{err: boom}})

	_, err := r.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Expected read error, got %v", err)
	}
	if s.State() != StateTerminated {
		t.Errorf("Expected session closed, got %s", s.State())
	}
}

func TestREPL_Panic(t *testing.T) {
	s := newTestSession(t, false, false)
	r, out, slept := newTestREPL(t, s, lines("::panic"))

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if status != ExitPanic {
		t.Errorf("Expected status %d, got %d", ExitPanic, status)
	}
	if !strings.Contains(out.String(), "KERNEL PANIC") {
		t.Errorf("Expected panic screen, got %q", out.String())
	}
	if len(*slept) != 1 || (*slept)[0] != DefaultPanicDelay {
		t.Errorf("Expected one panic delay, got %v", *slept)
	}
}

func TestREPL_EmergencyReturnsImmediately(t *testing.T) {
	s := newTestSession(t, true, true)
	r, out, slept := newTestREPL(t, s, lines("a", "b", "c", "d", "e", "f"))

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if status != ExitEmergency {
		t.Errorf("Expected status %d, got %d", ExitEmergency, status)
	}
	if len(*slept) != 0 {
		t.Error("Expected no delay on emergency termination")
	}
	if !strings.Contains(out.String(), "PERIODIC CHECK: DEBUGGER DETECTED") {
		t.Errorf("Expected emergency notice, got %q", out.String())
	}
	if len(s.executor.lines) != 4 {
		t.Errorf("Expected 4 lines run before termination, got %v", s.executor.lines)
	}
}

func TestREPL_PromptFollowsDirectory(t *testing.T) {
	s := newTestSession(t, false, false)
	in := &scriptedInput{steps: lines("cd /", "::exit")}
	var out bytes.Buffer
	renderer, _ := NewRenderer(&out, false, 80)
	r := NewREPL(s.Session, in, renderer, "gsh")

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(in.prompts) != 2 || !strings.HasSuffix(in.prompts[1], " />> ") {
		t.Errorf("Expected the second prompt to show /, got %q", in.prompts)
	}
}
