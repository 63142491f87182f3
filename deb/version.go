package deb

import (
	"strconv"
	"strings"
)

// SplitRevision splits a Debian version into its upstream part and its
// revision, the text after the last hyphen. The revision is "" when the
// version has no hyphen.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#version
func SplitRevision(v string) (upstream, revision string) {
	idx := strings.LastIndex(v, "-")
	if idx == -1 {
		return v, ""
	}
	return v[:idx], v[idx+1:]
}

// BumpRevision returns a version that sorts after v by changing only its
// revision:
//
//   - no revision: "-1" is appended ("1.0" -> "1.0-1");
//   - numeric revision: it is incremented ("1.0-9" -> "1.0-10");
//   - otherwise the last alphanumeric character is advanced through 0-9 then
//     a-z ("1.0-1ubuntu9" -> "1.0-1ubuntua"), and a '0' is inserted after a
//     trailing 'z' ("1.0-z" -> "1.0-z0").
func BumpRevision(v string) string {
	upstream, rev := SplitRevision(v)
	if !strings.Contains(v, "-") {
		return v + "-1"
	}
	prefix := upstream + "-"
	if rev == "" {
		return prefix + "1"
	}
	if i, err := strconv.Atoi(rev); err == nil {
		return prefix + strconv.Itoa(i+1)
	}

	runes := []rune(rev)
	for i := len(runes) - 1; i >= 0; i-- {
		switch c := runes[i]; {
		case c >= '0' && c < '9', c >= 'a' && c < 'z':
			runes[i]++
			return prefix + string(runes)
		case c == '9':
			runes[i] = 'a'
			return prefix + string(runes)
		case c == 'z':
			return prefix + string(runes[:i+1]) + "0" + string(runes[i+1:])
		}
	}
	return v + "1"
}
