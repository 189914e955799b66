package terminal

import "github.com/Lin-Jiong-HDU/gsh/internal/secure"

// Process exit statuses.
const (
	ExitOK = 0
	// ExitPanic is used by ::panic to look like a killed process.
	ExitPanic = 137
	// ExitEmergency is used when paranoid enforcement finds a tracer.
	ExitEmergency = 137
)

// Kind tags a Result. Callers act on the Kind, never on the text.
type Kind int

const (
	KindNone Kind = iota
	KindOutput
	KindWarning
	KindClear
	KindExit
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOutput:
		return "output"
	case KindWarning:
		return "warning"
	case KindClear:
		return "clear"
	case KindExit:
		return "exit"
	case KindTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Result is what processing one line produced.
type Result struct {
	Kind Kind
	Text string
	// Secret is secret-bearing output shown after Text. Whoever renders the
	// Result owns it and must Destroy it.
	Secret *secure.Buffer
	// Markdown marks Text as markdown.
	Markdown bool
	// Status is the process exit status for KindExit and KindTerminate.
	Status int
	// TracerDetected is set by ::anti-debug when a tracer is attached.
	TracerDetected bool
}

// Release destroys any secret output held by r.
func (r Result) Release() {
	r.Secret.Destroy()
}

func output(text string) Result {
	return Result{Kind: KindOutput, Text: text}
}

func warning(text string) Result {
	return Result{Kind: KindWarning, Text: text}
}
