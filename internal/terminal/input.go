package terminal

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader is the line editor used by the interactive loop. Its recall
// history lives in RAM only.
type LineReader struct {
	rl *readline.Instance
}

// NewLineReader creates a line editor with tab completion from c.
func NewLineReader(c *Completer) (*LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "gsh>> ",
		// no history file: recall history must never reach disk
		HistoryFile:       "",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		AutoComplete:      c,
		// lines are added by ReadLine so secret arguments can be skipped
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return nil, err
	}
	return &LineReader{rl: rl}, nil
}

// ReadLine reads one line. It returns readline.ErrInterrupt on Ctrl-C and
// io.EOF on Ctrl-D. Lines carrying secret arguments are kept out of recall.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == nil && recallable(line) {
		_ = r.rl.SaveHistory(line)
	}
	return line, err
}

// secretCommands take a secret or a key as their argument.
var secretCommands = map[string]bool{
	"cp":      true,
	"decrypt": true,
}

// recallable reports whether line may enter the editor's recall history.
func recallable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	cmd := Parse(line)
	return !(cmd.Ghost && secretCommands[cmd.Name])
}

// ResetHistory drops the editor's recall history.
func (r *LineReader) ResetHistory() {
	r.rl.ResetHistory()
}

// Close restores the terminal.
func (r *LineReader) Close() error {
	r.ResetHistory()
	return r.rl.Close()
}

// Completer implements readline.AutoCompleter. It completes ghost command
// names after the prefix, the paranoid argument, and otherwise file names
// relative to the session directory.
type Completer struct {
	names []string
	dir   func() string
}

// NewCompleter creates a completer for the router's commands. dir reports
// the current session directory.
func NewCompleter(r *Router, dir func() string) *Completer {
	return &Completer{names: r.Names(), dir: dir}
}

// Do implements readline.AutoCompleter.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	typed := string(line[:pos])

	var word string
	var candidates []string

	switch {
	case strings.HasPrefix(typed, GhostPrefix+"paranoid "):
		word = strings.TrimPrefix(typed, GhostPrefix+"paranoid ")
		candidates = []string{"on", "off"}
	case strings.HasPrefix(typed, GhostPrefix) && !strings.Contains(typed, " "):
		word = strings.TrimPrefix(typed, GhostPrefix)
		candidates = c.names
	case strings.HasPrefix(typed, GhostPrefix):
		return nil, 0
	default:
		if i := strings.LastIndexAny(typed, " \t"); i >= 0 {
			word = typed[i+1:]
		} else {
			word = typed
		}
		candidates = c.files(word)
	}

	var suffixes []string
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) && cand != word {
			suffixes = append(suffixes, cand[len(word):])
		}
	}
	sort.Strings(suffixes)

	for _, s := range suffixes {
		newLine = append(newLine, []rune(s))
	}
	return newLine, len([]rune(word))
}

// files lists entries matching the directory part of word. Directories get
// a trailing slash.
func (c *Completer) files(word string) []string {
	dirPart, _ := filepath.Split(word)

	base := c.dir()
	lookup := dirPart
	switch {
	case lookup == "":
		lookup = base
	case strings.HasPrefix(lookup, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			lookup = filepath.Join(home, lookup[2:])
		}
	case !filepath.IsAbs(lookup):
		lookup = filepath.Join(base, lookup)
	}

	entries, err := os.ReadDir(lookup)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := dirPart + e.Name()
		if e.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	return out
}
