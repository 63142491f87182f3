package deb

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tells which variant a Value holds.
type ValueKind int

const (
	KindText ValueKind = iota
	KindList
	KindNumber
	KindFlag
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindNumber:
		return "number"
	case KindFlag:
		return "flag"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is the typed value of a control field. The zero Value is an empty
// text value.
type Value struct {
	kind ValueKind
	text string
	list []string
	num  uint64
	flag bool
}

// TextValue returns a free-form single value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// ListValue returns an ordered list value.
func ListValue(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// NumberValue returns an unsigned numeric value.
func NumberValue(n uint64) Value {
	return Value{kind: KindNumber, num: n}
}

// FlagValue returns a boolean value.
func FlagValue(b bool) Value {
	return Value{kind: KindFlag, flag: b}
}

// ValueFromYesNo returns a flag that is true only when s is exactly "yes".
// Other spellings such as "YES" or "true" yield false.
func ValueFromYesNo(s string) Value {
	return FlagValue(s == "yes")
}

// ValueFromCommaList splits s on commas and trims each element. Empty
// elements produced by stray commas are kept.
func ValueFromCommaList(s string) Value {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return Value{kind: KindList, list: parts}
}

// ValueFromNumber parses s as a decimal unsigned integer, optionally signed
// with a single "+". Text that does not parse yields 0 rather than an error.
func ValueFromNumber(s string) Value {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "+"), 10, 64)
	if err != nil {
		n = 0
	}
	return NumberValue(n)
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the raw text of a text value, or the rendered form of any
// other kind.
func (v Value) Text() string {
	if v.kind == KindText {
		return v.text
	}
	return v.String()
}

// List returns a copy of the elements of a list value, nil otherwise.
func (v Value) List() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Number returns the value of a number, 0 otherwise.
func (v Value) Number() uint64 { return v.num }

// Flag returns the value of a flag, false otherwise.
func (v Value) Flag() bool { return v.flag }

// String renders v as it appears after "Key: " in a control file, before
// continuation lines are indented.
func (v Value) String() string {
	switch v.kind {
	case KindList:
		return strings.Join(v.list, ", ")
	case KindNumber:
		return strconv.FormatUint(v.num, 10)
	case KindFlag:
		if v.flag {
			return "Yes"
		}
		return "No"
	}
	return v.text
}

// Equal reports whether v and o hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindNumber:
		return v.num == o.num
	case KindFlag:
		return v.flag == o.flag
	}
	return v.text == o.text
}

// Field typing is decided on the lowercased key.
var (
	numberFields = map[string]bool{
		"installed-size": true,
	}
	flagFields = map[string]bool{
		"essential":       true,
		"build-essential": true,
	}
	listFields = map[string]bool{
		"tag":           true,
		"depends":       true,
		"pre-depends":   true,
		"recommends":    true,
		"suggests":      true,
		"enhances":      true,
		"build-depends": true,
		"breaks":        true,
		"conflicts":     true,
		"provides":      true,
		"replaces":      true,
		"built-using":   true,
	}
)

// KindOf returns the kind of value a field named key holds.
func KindOf(key string) ValueKind {
	k := strings.ToLower(key)
	switch {
	case numberFields[k]:
		return KindNumber
	case flagFields[k]:
		return KindFlag
	case listFields[k]:
		return KindList
	}
	return KindText
}

// ParseValue converts the raw text of field key into its typed Value.
func ParseValue(key, raw string) Value {
	switch KindOf(key) {
	case KindNumber:
		return ValueFromNumber(raw)
	case KindFlag:
		return ValueFromYesNo(raw)
	case KindList:
		return ValueFromCommaList(raw)
	}
	return TextValue(raw)
}

// fieldPriority lists the identity fields emitted first, in this order,
// because package index consumers look for them at the top of a stanza.
var fieldPriority = map[string]int{
	string(FieldPackage):    0,
	string(FieldVersion):    1,
	string(FieldName):       2,
	string(FieldAuthor):     3,
	string(FieldMaintainer): 4,
	string(FieldMD5sum):     5,
	string(FieldSHA1):       6,
	string(FieldSHA256):     7,
}

// lessField orders keys canonically: priority fields first, then the rest
// by byte-wise key order.
func lessField(a, b string) bool {
	pa, okA := fieldPriority[a]
	pb, okB := fieldPriority[b]
	switch {
	case okA && okB:
		return pa < pb
	case okA:
		return true
	case okB:
		return false
	}
	return a < b
}

// Control is one stanza of a Debian control file: a mapping from field name,
// case preserved, to a typed Value. Storage order is irrelevant; the
// canonical order is applied when the stanza is serialized.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html
type Control struct {
	fields map[string]Value
}

// NewControl returns an empty stanza.
func NewControl() *Control {
	return &Control{fields: make(map[string]Value)}
}

// Get returns the value of the field named exactly key.
func (c *Control) Get(key string) (Value, bool) {
	v, ok := c.fields[key]
	return v, ok
}

// Text returns the rendered value of key, or "" if it is not set.
func (c *Control) Text(key string) string {
	v, ok := c.fields[key]
	if !ok {
		return ""
	}
	return v.Text()
}

// Set parses raw according to the type of key and stores it, replacing any
// previous value.
func (c *Control) Set(key, raw string) {
	c.SetValue(key, ParseValue(key, raw))
}

// SetValue stores v under key as is.
func (c *Control) SetValue(key string, v Value) {
	if c.fields == nil {
		c.fields = make(map[string]Value)
	}
	c.fields[key] = v
}

// Delete removes key.
func (c *Control) Delete(key string) {
	delete(c.fields, key)
}

// Has reports whether key is set.
func (c *Control) Has(key string) bool {
	_, ok := c.fields[key]
	return ok
}

// Len returns the number of fields.
func (c *Control) Len() int { return len(c.fields) }

// Keys returns the field names in canonical order.
func (c *Control) Keys() []string {
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessField(keys[i], keys[j]) })
	return keys
}

// Clone returns a deep copy of c.
func (c *Control) Clone() *Control {
	out := NewControl()
	for k, v := range c.fields {
		if v.kind == KindList {
			v.list = append([]string(nil), v.list...)
		}
		out.fields[k] = v
	}
	return out
}

// Equal reports whether c and o hold the same fields and values.
func (c *Control) Equal(o *Control) bool {
	if c.Len() != o.Len() {
		return false
	}
	for k, v := range c.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// WriteTo writes the stanza in canonical order, one "Key: value" line per
// field. Embedded newlines are re-indented with a leading space so the output
// parses back to the same values.
func (c *Control) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, k := range c.Keys() {
		value := strings.ReplaceAll(c.fields[k].String(), "\n", "\n ")
		if _, err := fmt.Fprintf(cw, "%s: %s\n", k, value); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// String returns the canonical serialization of c.
func (c *Control) String() string {
	var b bytes.Buffer
	c.WriteTo(&b)
	return b.String()
}

// ControlReader reads successive stanzas from a control file or a package
// index.
type ControlReader struct {
	lex *stanzaLexer
}

// NewControlReader returns a reader of the stanzas in r.
func NewControlReader(r io.Reader) *ControlReader {
	return &ControlReader{lex: newStanzaLexer(r)}
}

// Next returns the next stanza, or io.EOF when the input is exhausted.
// Grammar violations are returned as *SyntaxError.
func (cr *ControlReader) Next() (*Control, error) {
	fields, err := cr.lex.next()
	if err != nil {
		return nil, err
	}
	c := NewControl()
	for _, f := range fields {
		c.Set(f.name, f.value)
	}
	return c, nil
}

// ParseControls parses every stanza of r, in source order.
func ParseControls(r io.Reader) ([]*Control, error) {
	cr := NewControlReader(r)
	var out []*Control
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}

// ParseControl parses r and returns its first stanza. It fails with ErrEmpty
// when r holds no stanza at all.
func ParseControl(r io.Reader) (*Control, error) {
	all, err := ParseControls(r)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrEmpty
	}
	return all[0], nil
}

// ParseControlString is ParseControl over a string.
func ParseControlString(s string) (*Control, error) {
	return ParseControl(strings.NewReader(s))
}

// FormatControls serializes stanzas separated by blank lines, the layout of a
// Packages index.
func FormatControls(w io.Writer, stanzas []*Control) error {
	for i, c := range stanzas {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := c.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
