package bindings

import (
	"strings"

	"lyxs/internal/errors"
)

// Directive is the keyword that starts a binding declaration in a LyX
// bind file.
const Directive = `\bind`

// ErrMalformedLine is returned by ParseLine for lines that do not carry a
// quoted shortcut and a quoted action.
var ErrMalformedLine = errors.NewInvalidInputError("malformed binding line", nil)

// Binding is one parsed declaration.
type Binding struct {
	Shortcut string // key chord, e.g. "M-m e"
	Action   string // full action, e.g. "math-insert \epsilon"
	Name     string // last word of the action, e.g. "\epsilon"
}

// ParseLine splits `\bind "<shortcut>" "<action> [args...]"` into its parts.
// The name is the last whitespace-delimited word of the action.
func ParseLine(line string) (Binding, error) {
	segments := strings.Split(line, `"`)
	if len(segments) < 4 {
		return Binding{}, malformed(line)
	}

	action := strings.TrimSpace(segments[3])
	fields := strings.Fields(action)
	if len(fields) == 0 {
		return Binding{}, malformed(line)
	}

	return Binding{
		Shortcut: segments[1],
		Action:   action,
		Name:     fields[len(fields)-1],
	}, nil
}

func malformed(line string) error {
	return errors.NewInvalidInputError("malformed binding line", ErrMalformedLine).
		WithContext("line", line)
}

// isDeclaration reports whether line starts with the \bind directive.
// \bind_file and \unbind lines are not declarations.
func isDeclaration(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == Directive
}

// actionVerb returns the first word of the action segment, or "".
func actionVerb(line string) string {
	segments := strings.Split(line, `"`)
	if len(segments) < 4 {
		return ""
	}
	fields := strings.Fields(segments[3])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// expandTabs replaces tabs with spaces up to the next multiple of 8 columns.
func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	col := 0
	for _, r := range line {
		switch r {
		case '\t':
			n := 8 - col%8
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
