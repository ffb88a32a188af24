package contentstream

import (
	"io"
	"strconv"
)

// TokenKind identifies a lexical token of a content stream or an object
// body.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenName
	TokenString      // literal ( ) string, decoded
	TokenHexString   // < > string, decoded
	TokenArrayOpen   // [
	TokenArrayClose  // ]
	TokenDictOpen    // <<
	TokenDictClose   // >>
	TokenKeyword     // operators, true/false/null, obj/endobj, ...
	TokenInlineImage // whole BI ... ID ... EI block
)

// Token is one lexical unit. Raw always covers the exact source bytes so
// callers can reproduce input verbatim.
type Token struct {
	Kind TokenKind
	Raw  []byte
	Pos  int
	Num  float64
	Str  []byte // decoded payload for string kinds
	Name string // decoded name without the slash
}

// End returns the byte offset just past the token.
func (t Token) End() int { return t.Pos + len(t.Raw) }

// Lexer walks content-stream bytes. It is total: malformed input degrades
// to keyword tokens instead of errors, so a caller can always preserve the
// source verbatim.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer returns a lexer over data.
func NewLexer(data []byte) *Lexer { return &Lexer{data: data} }

// Offset returns the current byte offset.
func (l *Lexer) Offset() int { return l.pos }

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// Next returns the next token, or io.EOF when the input is exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.data) {
		return Token{}, io.EOF
	}
	start := l.pos
	c := l.data[l.pos]

	switch {
	case c == '(':
		return l.literalString(start), nil
	case c == '<':
		if l.peek(1) == '<' {
			l.pos += 2
			return Token{Kind: TokenDictOpen, Raw: l.data[start:l.pos], Pos: start}, nil
		}
		return l.hexString(start), nil
	case c == '>':
		if l.peek(1) == '>' {
			l.pos += 2
			return Token{Kind: TokenDictClose, Raw: l.data[start:l.pos], Pos: start}, nil
		}
		// stray '>' becomes a keyword
		l.pos++
		return Token{Kind: TokenKeyword, Raw: l.data[start:l.pos], Pos: start}, nil
	case c == '[':
		l.pos++
		return Token{Kind: TokenArrayOpen, Raw: l.data[start:l.pos], Pos: start}, nil
	case c == ']':
		l.pos++
		return Token{Kind: TokenArrayClose, Raw: l.data[start:l.pos], Pos: start}, nil
	case c == '/':
		return l.name(start), nil
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return l.number(start), nil
	}

	// keyword: run of regular characters, or a single delimiter byte
	l.pos++
	if !isDelimiter(c) {
		for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
			l.pos++
		}
	}
	tok := Token{Kind: TokenKeyword, Raw: l.data[start:l.pos], Pos: start}
	if string(tok.Raw) == "BI" {
		return l.inlineImage(start), nil
	}
	return tok, nil
}

func (l *Lexer) peek(ahead int) byte {
	if l.pos+ahead < len(l.data) {
		return l.data[l.pos+ahead]
	}
	return 0
}

func (l *Lexer) number(start int) Token {
	l.pos++
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' {
			l.pos++
			continue
		}
		break
	}
	raw := l.data[start:l.pos]
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return Token{Kind: TokenKeyword, Raw: raw, Pos: start}
	}
	return Token{Kind: TokenNumber, Raw: raw, Pos: start, Num: n}
}

func (l *Lexer) name(start int) Token {
	l.pos++ // slash
	nameStart := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	raw := l.data[start:l.pos]
	decoded := decodeName(l.data[nameStart:l.pos])
	return Token{Kind: TokenName, Raw: raw, Pos: start, Name: decoded}
}

func decodeName(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '#' && i+2 < len(b) {
			hi, ok1 := hexVal(b[i+1])
			lo, ok2 := hexVal(b[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, b[i])
	}
	return string(out)
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// literalString scans a ( ) string with nested parens and escapes. An
// unterminated string runs to EOF rather than failing.
func (l *Lexer) literalString(start int) Token {
	l.pos++ // opening paren
	depth := 1
	var out []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.data) {
				break
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				// line continuation; swallow optional \n
				if l.peek(1) == '\n' {
					l.pos++
				}
			case '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && l.pos+1 < len(l.data); k++ {
						nx := l.data[l.pos+1]
						if nx < '0' || nx > '7' {
							break
						}
						v = v*8 + int(nx-'0')
						l.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
			l.pos++
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				l.pos++
				return Token{Kind: TokenString, Raw: l.data[start:l.pos], Pos: start, Str: out}
			}
		}
		out = append(out, c)
		l.pos++
	}
	return Token{Kind: TokenString, Raw: l.data[start:l.pos], Pos: start, Str: out}
}

func (l *Lexer) hexString(start int) Token {
	l.pos++ // '<'
	var out []byte
	var hi byte
	have := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '>' {
			l.pos++
			break
		}
		if v, ok := hexVal(c); ok {
			if have {
				out = append(out, hi<<4|v)
				have = false
			} else {
				hi = v
				have = true
			}
		}
		l.pos++
	}
	if have {
		out = append(out, hi<<4) // odd digit count pads with zero
	}
	return Token{Kind: TokenHexString, Raw: l.data[start:l.pos], Pos: start, Str: out}
}

// inlineImage consumes from BI through the terminating EI and returns the
// whole block as one token. The binary payload after ID is never
// interpreted; EI is only recognized when bracketed by whitespace (or
// EOF), since the data may contain the letters EI.
func (l *Lexer) inlineImage(start int) Token {
	// scan dict tokens until the ID keyword
	for {
		before := l.pos
		tok, err := l.Next()
		if err != nil {
			l.pos = len(l.data)
			return Token{Kind: TokenInlineImage, Raw: l.data[start:], Pos: start}
		}
		if tok.Kind == TokenKeyword && string(tok.Raw) == "ID" {
			break
		}
		if tok.Kind == TokenInlineImage {
			// nested BI is malformed; treat the rest as payload
			l.pos = before
			break
		}
	}
	// one whitespace byte separates ID from the data
	if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	for l.pos < len(l.data) {
		if l.data[l.pos] == 'E' && l.pos+1 < len(l.data) && l.data[l.pos+1] == 'I' {
			prevWS := l.pos == 0 || isWhitespace(l.data[l.pos-1])
			nextWS := l.pos+2 >= len(l.data) || isWhitespace(l.data[l.pos+2])
			if prevWS && nextWS {
				l.pos += 2
				return Token{Kind: TokenInlineImage, Raw: l.data[start:l.pos], Pos: start}
			}
		}
		l.pos++
	}
	return Token{Kind: TokenInlineImage, Raw: l.data[start:], Pos: start}
}
