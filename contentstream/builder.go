package contentstream

import (
	"bytes"
	"errors"
	"sort"
	"strconv"
)

// ErrNilOperations is returned by Build for a nil operation list. An empty
// list is valid and produces empty bytes.
var ErrNilOperations = errors.New("contentstream: nil operation list")

// Build serializes the operation list back to content-stream bytes in
// stream-position order. Inline images are written byte-exact; generic
// operations without an operator token are dropped silently.
func Build(ops []Operation) ([]byte, error) {
	if ops == nil {
		return nil, ErrNilOperations
	}
	ordered := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if op == nil {
			continue
		}
		ordered = append(ordered, op)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Pos() < ordered[j].Pos() })

	var buf bytes.Buffer
	for _, op := range ordered {
		if g, ok := op.(*GenericOperation); ok && g.Operator == "" {
			continue
		}
		b := op.Bytes()
		if len(b) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// FormatNumber renders a coordinate the way the writer does: plain decimal
// notation, no exponent, trailing zeros trimmed.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimZeros(s)
	if s == "-0" {
		return "0"
	}
	return s
}

func trimZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

// EscapeString backslash-quotes parens and backslashes and renders control
// characters in octal, so the result is a safe PDF literal string body.
func EscapeString(s []byte) []byte {
	var out bytes.Buffer
	for _, c := range s {
		switch {
		case c == '(' || c == ')' || c == '\\':
			out.WriteByte('\\')
			out.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			out.WriteByte('\\')
			out.WriteString(pad3(strconv.FormatUint(uint64(c), 8)))
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

func pad3(s string) string {
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
