package contentstream

import (
	"io"
	"testing"
)

func allTokens(t *testing.T, data string) []Token {
	t.Helper()
	lex := NewLexer([]byte(data))
	var out []Token
	for {
		tok, err := lex.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, tok)
	}
}

func TestLexer_LiteralStringEscapes(t *testing.T) {
	toks := allTokens(t, `(a\(b\) \\ \101 line)`)
	if len(toks) != 1 || toks[0].Kind != TokenString {
		t.Fatalf("tokens: %+v", toks)
	}
	if got := string(toks[0].Str); got != `a(b) \ A line` {
		t.Fatalf("decoded: %q", got)
	}
}

func TestLexer_NestedParens(t *testing.T) {
	toks := allTokens(t, "(a(b)c)")
	if len(toks) != 1 || string(toks[0].Str) != "a(b)c" {
		t.Fatalf("tokens: %+v", toks)
	}
}

func TestLexer_HexString(t *testing.T) {
	toks := allTokens(t, "<48656C6C6F>")
	if len(toks) != 1 || toks[0].Kind != TokenHexString {
		t.Fatalf("tokens: %+v", toks)
	}
	if string(toks[0].Str) != "Hello" {
		t.Fatalf("decoded: %q", toks[0].Str)
	}
	// odd digit count pads with zero
	toks = allTokens(t, "<48656C6C6F7>")
	if string(toks[0].Str) != "Hellop" {
		t.Fatalf("odd-length decoded: %q", toks[0].Str)
	}
}

func TestLexer_NameDecoding(t *testing.T) {
	toks := allTokens(t, "/Na#6De")
	if len(toks) != 1 || toks[0].Kind != TokenName || toks[0].Name != "Name" {
		t.Fatalf("tokens: %+v", toks)
	}
}

func TestLexer_NumbersAndKeywords(t *testing.T) {
	toks := allTokens(t, "-1.5 +2 .25 Tj")
	if len(toks) != 4 {
		t.Fatalf("token count: %d", len(toks))
	}
	for i, want := range []float64{-1.5, 2, 0.25} {
		if toks[i].Kind != TokenNumber || toks[i].Num != want {
			t.Fatalf("token %d: %+v", i, toks[i])
		}
	}
	if toks[3].Kind != TokenKeyword || string(toks[3].Raw) != "Tj" {
		t.Fatalf("keyword: %+v", toks[3])
	}
}

func TestLexer_CommentsSkipped(t *testing.T) {
	toks := allTokens(t, "42 % a comment\n7")
	if len(toks) != 2 || toks[0].Num != 42 || toks[1].Num != 7 {
		t.Fatalf("tokens: %+v", toks)
	}
}

func TestLexer_RawSpansCoverSource(t *testing.T) {
	src := "[(AB) 120 (C)] TJ"
	toks := allTokens(t, src)
	for _, tok := range toks {
		if string(tok.Raw) != src[tok.Pos:tok.End()] {
			t.Fatalf("raw span mismatch at %d: %q", tok.Pos, tok.Raw)
		}
	}
}

func TestLexer_InlineImageEIInPayload(t *testing.T) {
	// the payload contains "EI" without whitespace brackets; it must not
	// terminate the image
	src := "BI /W 1 ID xEIx EI"
	toks := allTokens(t, src)
	if len(toks) != 1 || toks[0].Kind != TokenInlineImage {
		t.Fatalf("tokens: %+v", toks)
	}
	if string(toks[0].Raw) != src {
		t.Fatalf("image span: %q", toks[0].Raw)
	}
}

func TestLexer_UnterminatedStringRunsToEOF(t *testing.T) {
	toks := allTokens(t, "(never closed")
	if len(toks) != 1 || toks[0].Kind != TokenString {
		t.Fatalf("tokens: %+v", toks)
	}
	if string(toks[0].Str) != "never closed" {
		t.Fatalf("decoded: %q", toks[0].Str)
	}
}
