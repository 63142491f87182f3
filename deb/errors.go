package deb

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a single control stanza is expected but the
// input contains none.
var ErrEmpty = errors.New("control file is empty")

// MissingPartError reports a required piece of a package that was not found:
// one of the three ar members, or the control file inside control.tar.
type MissingPartError struct {
	Part string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("package is missing %s", e.Part)
}

// InvalidCompressionError is returned when no compression scheme matches a
// member name or a user supplied scheme name.
type InvalidCompressionError struct {
	Name string
}

func (e *InvalidCompressionError) Error() string {
	return fmt.Sprintf("compression algorithm could not be detected in %q", e.Name)
}

// CompressionError wraps a failure of a codec that is not a plain write
// error, such as a corrupt stream header.
type CompressionError struct {
	Compression Compression
	Err         error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("%s compression: %v", e.Compression.String(), e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// SyntaxError describes a control file grammar violation.
type SyntaxError struct {
	// Line is the 1-based line number where the problem was found.
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("control file syntax error on line %d: %s", e.Line, e.Msg)
}

// IsMissingPart reports whether err is a MissingPartError for part.
// An empty part matches any missing part.
func IsMissingPart(err error, part string) bool {
	var mp *MissingPartError
	if !errors.As(err, &mp) {
		return false
	}
	return part == "" || mp.Part == part
}
