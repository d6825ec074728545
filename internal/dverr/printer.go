package dverr

import "strings"

// Locate maps a 1-based character offset in src to a 1-based (line, col)
// pair, by scanning from the start of the text: newlines increment the
// line counter and reset the column, every other character increments
// the column.
func Locate(src string, offset int) (line, col int) {
	line, col = 1, 0
	count := 0
	for _, ch := range src {
		count++
		if ch == '\n' {
			line++
			col = 0
		} else {
			col++
		}
		if count == offset {
			break
		}
	}
	if col == 0 {
		col = 1
	}
	return line, col
}

// lineAt returns the 1-based line's text (without its trailing newline).
func lineAt(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Render produces a human-readable rendering of err against src: the
// offending source line with a caret under the exact column when err
// carries a position, or a plain one-line message otherwise.
func Render(src string, err *Error) string {
	if err == nil {
		return ""
	}
	if !err.HasPos {
		return "error: " + err.Message
	}

	line, col := Locate(src, err.Pos)
	text := lineAt(src, line)

	var sb strings.Builder
	sb.WriteString(err.Message)
	sb.WriteString("\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	if col > 1 {
		sb.WriteString(strings.Repeat(" ", col-1))
	}
	sb.WriteString("^")
	return sb.String()
}
