package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex_Punctuation(t *testing.T) {
	toks, err := Lex("-> => == != <= >= && || << >> :: + - ; : . ( ) { } [ ] , # @")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, KEOF, toks[len(toks)-1].Kind)

	var texts []string
	for _, tok := range toks {
		if tok.Kind == KPunct {
			texts = append(texts, tok.Text)
		}
	}
	assert.Equal(t, []string{
		"->", "=>", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "::",
		"+", "-", ";", ":", ".", "(", ")", "{", "}", "[", "]", ",", "#", "@",
	}, texts)
}

func TestLex_KeywordsAndIdents(t *testing.T) {
	toks, err := Lex("fn foo let x")
	require.NoError(t, err)
	require.Len(t, toks, 5) // 4 tokens + EOF

	assert.Equal(t, KKeyword, toks[0].Kind)
	assert.Equal(t, "fn", toks[0].Text)
	assert.Equal(t, KIdent, toks[1].Kind)
	assert.Equal(t, "foo", toks[1].Text)
	assert.Equal(t, KKeyword, toks[2].Kind)
	assert.Equal(t, "let", toks[2].Text)
	assert.Equal(t, KIdent, toks[3].Kind)
	assert.Equal(t, "x", toks[3].Text)
}

func TestLex_IntAndFloatLiterals(t *testing.T) {
	toks, err := Lex("17u5 3.14f64 42")
	require.NoError(t, err)
	require.Len(t, toks, 4)

	assert.Equal(t, KIntLit, toks[0].Kind)
	assert.Equal(t, "17", toks[0].Text)
	assert.Equal(t, "u5", toks[0].Suffix)

	assert.Equal(t, KFloatLit, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Text)
	assert.Equal(t, "f64", toks[1].Suffix)

	assert.Equal(t, KIntLit, toks[2].Kind)
	assert.Equal(t, "42", toks[2].Text)
	assert.Equal(t, "", toks[2].Suffix)
}

func TestLex_StringAndCharLiterals(t *testing.T) {
	toks, err := Lex(`"hi\n" 'a' '\0'`)
	require.NoError(t, err)
	require.Len(t, toks, 4)

	assert.Equal(t, KStringLit, toks[0].Kind)
	assert.Equal(t, "hi\n", toks[0].Text)

	assert.Equal(t, KCharLit, toks[1].Kind)
	assert.Equal(t, "a", toks[1].Text)

	assert.Equal(t, KCharLit, toks[2].Kind)
	assert.Equal(t, string(byte(0)), toks[2].Text)
}

func TestLex_CommentsAreTrivia(t *testing.T) {
	toks, err := Lex("// comment\nfn /* block\ncomment */ foo")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "fn", toks[0].Text)
	assert.Equal(t, "foo", toks[1].Text)
}

func TestLex_LineColTracking(t *testing.T) {
	toks, err := Lex("fn\nfoo")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Col)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 1, toks[1].Col)
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"unterminated string", `"abc`, "unterminated string literal"},
		{"unterminated char", `'a`, "unterminated char literal"},
		{"bad escape", `"\q"`, "invalid escape sequence"},
		{"unrecognized char", "$", "unrecognized character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	l := New("fn foo")
	p1, err := l.Peek()
	require.NoError(t, err)
	p2, err := l.Peek()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	n, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, p1, n)

	n2, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "foo", n2.Text)
}
