package terminal

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// GhostPrefix marks a line as a ghost command.
const GhostPrefix = "::"

// Command is a classified input line.
type Command struct {
	Raw   string
	Ghost bool
	Name  string
	// Arg is everything after the first space following the name, verbatim.
	Arg string
}

// Parse classifies line. Surrounding whitespace is ignored.
func Parse(line string) Command {
	raw := strings.TrimSpace(line)
	cmd := Command{Raw: raw}

	rest, ok := strings.CutPrefix(raw, GhostPrefix)
	if !ok {
		return cmd
	}
	cmd.Ghost = true
	cmd.Name, cmd.Arg, _ = strings.Cut(rest, " ")
	return cmd
}

// Handler runs one ghost command.
type Handler func(ctx context.Context, s *Session, arg string) Result

// Router dispatches ghost commands to handlers and everything else to the
// session's pass-through path.
type Router struct {
	handlers map[string]Handler
	help     map[string]string
}

// NewRouter creates a router with the built-in ghost commands registered.
func NewRouter() *Router {
	r := &Router{
		handlers: make(map[string]Handler),
		help:     make(map[string]string),
	}
	registerBuiltins(r)
	return r
}

// Handle registers h under name, replacing any existing handler.
func (r *Router) Handle(name, usage string, h Handler) {
	r.handlers[name] = h
	r.help[name] = usage
}

// Names returns the registered ghost command names, sorted.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Usage returns the one-line description of a command.
func (r *Router) Usage(name string) string {
	return r.help[name]
}

// Dispatch runs cmd against s.
func (r *Router) Dispatch(ctx context.Context, s *Session, cmd Command) Result {
	if !cmd.Ghost {
		return s.passThrough(ctx, cmd.Raw)
	}

	h, ok := r.handlers[cmd.Name]
	if !ok {
		return output(fmt.Sprintf("Unknown GHOST command: '%s'", cmd.Name))
	}
	return h(ctx, s, cmd.Arg)
}
