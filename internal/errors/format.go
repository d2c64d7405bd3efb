package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format and Fprint output.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error for a terminal: headline, wrapped detail, cause,
// hint and documentation link, each only when present.
func (e *PulseError) Format() string {
	var b strings.Builder

	headline := "ERROR: "
	if e.Code != "" {
		headline = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(&b, "\n%s%s\n\n", paint(headline, ansiBold, ansiRed), paint(e.Message, ansiBold))

	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	labelled := []struct {
		label, value, code string
	}{
		{"Cause: ", causeText(e.Wrapped), ansiGray},
		{"Hint: ", e.Suggestion, ansiCyan},
		{"Learn more: ", e.DocURL, ansiGray},
	}
	for _, l := range labelled {
		if l.value == "" {
			continue
		}
		value := l.value
		if l.label == "Learn more: " {
			value = paint(value, ansiBlue)
		}
		fmt.Fprintf(&b, "  %s%s\n\n", paint(l.label, l.code), value)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FormatCompact renders "CODE: message" on one line.
func (e *PulseError) FormatCompact() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w. PulseErrors get the full Format layout.
func Fprint(w io.Writer, err error) {
	var pe *PulseError
	if stderrors.As(err, &pe) {
		fmt.Fprint(w, pe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiBold, ansiRed), err)
}
