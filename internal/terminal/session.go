// Package terminal implements the interactive ghost shell: the session state
// machine, the ghost command router, line input and rendering.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lin-Jiong-HDU/gsh/internal/core"
	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
	"github.com/Lin-Jiong-HDU/gsh/internal/secure"
)

// DefaultCheckInterval is how many commands pass between paranoid checks.
const DefaultCheckInterval = 5

// ErrSessionClosed is returned when a line is submitted after the session
// has left the running state.
var ErrSessionClosed = errors.New("session closed")

// State is a session lifecycle state.
type State int

const (
	StateRunning State = iota
	StateShuttingDown
	StateTerminated
	StateEmergencyTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	case StateEmergencyTerminated:
		return "emergency-terminated"
	default:
		return "unknown"
	}
}

// CanTransitionTo checks if a state transition is valid. Terminated states
// have no way out.
func (s State) CanTransitionTo(next State) bool {
	validTransitions := map[State][]State{
		StateRunning:      {StateShuttingDown, StateEmergencyTerminated},
		StateShuttingDown: {StateTerminated},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SecretStore is the ephemeral secret store used by ::cp and ::decrypt.
type SecretStore interface {
	Store(plaintext []byte) (*secure.Buffer, error)
	Recall(encodedKey []byte) (*secure.Buffer, error)
	Clear()
	Live() bool
	Timeout() time.Duration
}

// Executor runs pass-through lines.
type Executor interface {
	Execute(ctx context.Context, dir, line string) (*core.Result, error)
}

// Options configures a Session. Detector, Vault and Executor are required.
type Options struct {
	ID       string
	Detector security.Detector
	Vault    SecretStore
	Executor Executor
	Router   *Router
	Posture  security.Posture
	Paranoid bool
	// CheckInterval defaults to DefaultCheckInterval.
	CheckInterval int
	// Dir defaults to the process working directory.
	Dir string
	// Home is the target of a bare `cd`; defaults to the user's home.
	Home string
	// OnPurge runs after history has been purged, e.g. to reset the line
	// editor's recall buffer.
	OnPurge func()
	Logger  *slog.Logger
}

// Session owns the in-memory history, the command counter and the paranoid
// flag. It is driven by a single goroutine.
type Session struct {
	id            string
	detector      security.Detector
	vault         SecretStore
	executor      Executor
	router        *Router
	posture       security.Posture
	checkInterval uint64
	home          string
	onPurge       func()
	logger        *slog.Logger

	history  history
	counter  uint64
	paranoid bool
	dir      string
	state    State
	status   int
}

// NewSession creates a running session.
func NewSession(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Router == nil {
		opts.Router = NewRouter()
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.Dir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Dir = wd
		} else {
			opts.Dir = "/"
		}
	}
	if opts.Home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.Home = home
		} else {
			opts.Home = "/"
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Session{
		id:            opts.ID,
		detector:      opts.Detector,
		vault:         opts.Vault,
		executor:      opts.Executor,
		router:        opts.Router,
		posture:       opts.Posture,
		checkInterval: uint64(opts.CheckInterval),
		home:          opts.Home,
		onPurge:       opts.OnPurge,
		logger:        opts.Logger.With("session", opts.ID),
		paranoid:      opts.Paranoid,
		dir:           opts.Dir,
		state:         StateRunning,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// ExitStatus is the process exit status once the session has terminated.
func (s *Session) ExitStatus() int { return s.status }

// Counter returns the number of accepted lines.
func (s *Session) Counter() uint64 { return s.counter }

// Paranoid reports whether paranoid mode is on.
func (s *Session) Paranoid() bool { return s.paranoid }

// Dir returns the working directory for pass-through commands.
func (s *Session) Dir() string { return s.dir }

// Router returns the ghost command router.
func (s *Session) Router() *Router { return s.router }

// HistoryLen returns the number of history entries.
func (s *Session) HistoryLen() int { return s.history.Len() }

// Process handles one input line. Whitespace-only lines are not accepted
// and change nothing.
func (s *Session) Process(ctx context.Context, line string) (Result, error) {
	if s.state != StateRunning {
		return Result{}, ErrSessionClosed
	}
	if strings.TrimSpace(line) == "" {
		return Result{Kind: KindNone}, nil
	}

	s.history.add(line)
	s.counter++

	if s.paranoid && s.counter%s.checkInterval == 0 {
		tracer := s.detector.TracerAttached()
		s.logger.Debug("periodic security check", "command", s.counter, "tracer", tracer)
		if tracer {
			return s.emergency("⚠ PERIODIC CHECK: DEBUGGER DETECTED"), nil
		}
	}

	cmd := Parse(line)
	res := s.router.Dispatch(ctx, s, cmd)

	if res.TracerDetected && s.paranoid {
		res.Release()
		return s.emergency("⚠ DEBUGGER DETECTED - PARANOID MODE ACTIVE"), nil
	}

	switch res.Kind {
	case KindExit, KindTerminate:
		s.shutdown(res.Status)
	}
	return res, nil
}

// PurgeHistory zeroizes and removes every history entry and returns how
// many were removed.
func (s *Session) PurgeHistory() int {
	count := s.history.purge()

	if s.onPurge != nil {
		s.onPurge()
	}
	s.logger.Debug("history purged", "entries", count)
	return count
}

// Close shuts a running session down gracefully with ExitOK. It is a no-op
// once the session has terminated.
func (s *Session) Close() {
	if s.state == StateRunning {
		s.shutdown(ExitOK)
	}
}

func (s *Session) transition(next State) {
	if !s.state.CanTransitionTo(next) {
		panic(fmt.Sprintf("terminal: invalid session transition %s -> %s", s.state, next))
	}
	s.logger.Debug("session transition", "from", s.state, "to", next)
	s.state = next
}

// teardown zeroizes every secret-bearing structure the session owns.
func (s *Session) teardown() {
	s.PurgeHistory()
	s.vault.Clear()
	s.paranoid = false
}

func (s *Session) shutdown(status int) {
	s.transition(StateShuttingDown)
	s.teardown()
	s.status = status
	s.transition(StateTerminated)
}

// emergency zeroizes and enters EmergencyTerminated. The caller must exit
// the process with the returned status without further cleanup.
func (s *Session) emergency(reason string) Result {
	s.teardown()
	s.status = ExitEmergency
	s.transition(StateEmergencyTerminated)
	s.logger.Warn("paranoid enforcement", "reason", reason)

	return Result{
		Kind:   KindTerminate,
		Status: ExitEmergency,
		Text:   reason + "\nPARANOID MODE - INITIATING EMERGENCY SHUTDOWN...",
	}
}

// passThrough handles lines without the ghost prefix.
func (s *Session) passThrough(ctx context.Context, line string) Result {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "cd":
		return s.changeDir(strings.TrimSpace(arg))
	case "clear":
		return Result{Kind: KindClear}
	}

	res, err := s.executor.Execute(ctx, s.dir, line)
	if err != nil {
		return output(fmt.Sprintf("Failed to execute process: %v", err))
	}
	if res.Output == "" {
		if res.Error != nil && res.ExitCode < 0 {
			return output(fmt.Sprintf("Failed to execute process: %v", res.Error))
		}
		return Result{Kind: KindNone}
	}
	return output(res.Output)
}

func (s *Session) changeDir(target string) Result {
	switch {
	case target == "" || target == "~":
		target = s.home
	case strings.HasPrefix(target, "~/"):
		target = filepath.Join(s.home, target[2:])
	case !filepath.IsAbs(target):
		target = filepath.Join(s.dir, target)
	}

	info, err := os.Stat(target)
	if err != nil {
		return output(fmt.Sprintf("cd: %v", err))
	}
	if !info.IsDir() {
		return output(fmt.Sprintf("cd: not a directory: %s", target))
	}

	s.dir = filepath.Clean(target)
	return Result{Kind: KindNone}
}
