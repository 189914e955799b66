package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const clearScreen = "\033[H\033[2J"

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	shutdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Renderer writes Results to the terminal.
type Renderer struct {
	out io.Writer
	md  *glamour.TermRenderer
}

// NewRenderer creates a renderer. With markdown false, markdown text is
// written as is.
func NewRenderer(out io.Writer, markdown bool, width int) (*Renderer, error) {
	r := &Renderer{out: out}
	if !markdown {
		return r, nil
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.md = md
	return r, nil
}

// Render writes res and destroys its secret output, whatever happens.
func (r *Renderer) Render(res Result) error {
	defer res.Release()

	switch res.Kind {
	case KindNone:
		return nil
	case KindOutput:
		return r.writeOutput(res)
	case KindWarning:
		_, err := fmt.Fprintln(r.out, warningStyle.Render(res.Text))
		return err
	case KindClear:
		_, err := io.WriteString(r.out, clearScreen)
		return err
	case KindExit:
		lines := []string{
			"[!] INITIATING SECURE SHUTDOWN...",
			"[*] Overwriting memory buffers... DONE.",
			"[*] All systems clear. Ghost Shell terminated.",
		}
		_, err := fmt.Fprintln(r.out, shutdownStyle.Render(strings.Join(lines, "\n")))
		return err
	case KindTerminate:
		_, err := fmt.Fprint(r.out, clearScreen, alertStyle.Render(res.Text), "\n")
		return err
	default:
		return fmt.Errorf("unknown result kind: %s", res.Kind)
	}
}

func (r *Renderer) writeOutput(res Result) error {
	text := res.Text
	if res.Markdown && r.md != nil {
		if out, err := r.md.Render(text); err == nil {
			text = out
		}
	}

	if text != "" {
		if _, err := io.WriteString(r.out, text); err != nil {
			return err
		}
		if !strings.HasSuffix(text, "\n") {
			if _, err := io.WriteString(r.out, "\n"); err != nil {
				return err
			}
		}
	}

	if res.Secret == nil || res.Secret.Len() == 0 {
		return nil
	}
	// written straight from the buffer so no string copy is made
	if _, err := res.Secret.WriteTo(r.out); err != nil {
		return err
	}
	_, err := io.WriteString(r.out, "\n")
	return err
}
