package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"
)

// DefaultPanicDelay is how long the ::panic screen stays up before exit.
const DefaultPanicDelay = 1500 * time.Millisecond

// LineSource supplies input lines. It returns readline.ErrInterrupt when the
// user cancels the line and io.EOF at end of input.
type LineSource interface {
	ReadLine(prompt string) (string, error)
}

// REPL drives a Session from a LineSource until the session terminates.
type REPL struct {
	session    *Session
	input      LineSource
	renderer   *Renderer
	prefix     string
	panicDelay time.Duration
	sleep      func(time.Duration)
}

// NewREPL creates the interactive loop. prefix is the prompt prefix.
func NewREPL(session *Session, input LineSource, renderer *Renderer, prefix string) *REPL {
	return &REPL{
		session:    session,
		input:      input,
		renderer:   renderer,
		prefix:     prefix,
		panicDelay: DefaultPanicDelay,
		sleep:      time.Sleep,
	}
}

// SetPanicDelay changes how long ::panic output is shown before Run returns.
func (r *REPL) SetPanicDelay(d time.Duration) {
	r.panicDelay = d
}

// Run reads and processes lines until the session terminates and returns
// the process exit status. Emergency termination returns at once.
func (r *REPL) Run(ctx context.Context) (int, error) {
	for {
		prompt := Prompt(r.prefix, r.session.Dir(), r.session.Paranoid())
		line, err := r.input.ReadLine(prompt)
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// Ctrl-C only drops the current line
			continue
		case errors.Is(err, io.EOF):
			r.session.Close()
			return r.session.ExitStatus(), r.renderer.Render(Result{Kind: KindExit})
		case err != nil:
			r.session.Close()
			return r.session.ExitStatus(), fmt.Errorf("failed to read input: %w", err)
		}

		res, err := r.session.Process(ctx, line)
		if err != nil {
			return r.session.ExitStatus(), err
		}
		kind := res.Kind

		if err := r.renderer.Render(res); err != nil && kind != KindTerminate {
			r.session.logger.Warn("render failed", "error", err)
		}

		switch r.session.State() {
		case StateEmergencyTerminated:
			return r.session.ExitStatus(), nil
		case StateTerminated:
			if kind == KindTerminate {
				r.sleep(r.panicDelay)
			}
			return r.session.ExitStatus(), nil
		}
	}
}
