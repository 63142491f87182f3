package deb

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// rawField is one "Key: value" pair as it appears in the source, with
// continuation lines folded into value.
type rawField struct {
	name  string
	value string
	line  int
}

// stanzaLexer splits control file text into paragraphs of raw fields. It is
// line oriented: indentation at the start of a line is significant, so the
// input is never whitespace-collapsed as a whole.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#syntax-of-control-files
type stanzaLexer struct {
	r    *bufio.Reader
	line int
	eof  bool
}

func newStanzaLexer(r io.Reader) *stanzaLexer {
	return &stanzaLexer{r: bufio.NewReader(r)}
}

// readLine returns the next line without its terminator. ok is false once
// the input is exhausted.
func (l *stanzaLexer) readLine() (line string, ok bool, err error) {
	if l.eof {
		return "", false, nil
	}
	s, err := l.r.ReadString('\n')
	if err == io.EOF {
		l.eof = true
		if s == "" {
			return "", false, nil
		}
	} else if err != nil {
		return "", false, err
	}
	l.line++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, true, nil
}

// next returns the fields of the next paragraph, or io.EOF when there are no
// more paragraphs.
func (l *stanzaLexer) next() ([]rawField, error) {
	var (
		fields  []rawField
		current *strings.Builder
	)
	flush := func() {
		if current != nil {
			fields[len(fields)-1].value = strings.TrimSpace(current.String())
			current = nil
		}
	}

	for {
		line, ok, err := l.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if strings.TrimSpace(line) == "" {
			if len(line) > 0 && current != nil {
				// Whitespace-only line inside a value.
				current.WriteString("\n")
				continue
			}
			if len(fields) > 0 {
				break
			}
			continue
		}

		switch line[0] {
		case ' ', '\t':
			if current == nil {
				return nil, &SyntaxError{Line: l.line, Msg: "continuation line without a preceding field"}
			}
			current.WriteString("\n")
			current.WriteString(line[1:])
			continue
		case '#':
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, &SyntaxError{Line: l.line, Msg: "expected \"Key: value\", missing ':'"}
		}
		name := line[:idx]
		if name == "" {
			return nil, &SyntaxError{Line: l.line, Msg: "empty field name"}
		}
		if strings.ContainsAny(name, " \t") {
			return nil, &SyntaxError{Line: l.line, Msg: "field name " + strconv.Quote(name) + " contains whitespace"}
		}

		flush()
		fields = append(fields, rawField{name: name, line: l.line})
		current = &strings.Builder{}
		current.WriteString(line[idx+1:])
	}

	flush()
	if len(fields) == 0 {
		return nil, io.EOF
	}
	return fields, nil
}
