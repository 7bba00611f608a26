package clove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(t []Token) []TokenType {
	out := make([]TokenType, len(t))
	for i, tok := range t {
		out[i] = tok.Type
	}
	return out
}

func TestLexBasicPipeline(t *testing.T) {
	toks, err := Lex(`$[items].filter(x => x[p] > 100).count()`)
	require.NoError(t, err)
	assert.Equal(t, Eof, toks[len(toks)-1].Type)
	assert.Equal(t, Dollar, toks[0].Type)
}

func TestLexNumberIntVsDec(t *testing.T) {
	toks, err := Lex("3 3.5 3e2 3.5e-2")
	require.NoError(t, err)
	assert.Equal(t, IntLit, toks[0].Type)
	assert.Equal(t, DecLit, toks[1].Type)
	assert.Equal(t, DecLit, toks[2].Type)
	assert.Equal(t, DecLit, toks[3].Type)
}

func TestLexLeadingMinusNotFoldedIntoNumber(t *testing.T) {
	toks, err := Lex("3-4")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{IntLit, Minus, IntLit, Eof}, tokenTypes(toks))
	assert.Equal(t, "3", toks[0].Value)
	assert.Equal(t, "4", toks[2].Value)
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`"a\nb\tc\"dA"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "a\nb\tc\"dA", toks[0].Value)
}

func TestLexSingleQuotedString(t *testing.T) {
	toks, err := Lex(`'hi'`)
	require.NoError(t, err)
	assert.Equal(t, "hi", toks[0].Value)
}

func TestLexUnterminatedStringErrors(t *testing.T) {
	_, err := Lex(`"unterminated`)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeLexError))
}

func TestLexKeywordsVsIdentifiers(t *testing.T) {
	toks, err := Lex("and or true false null notakeyword")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{AndKw, OrKw, True, False, NullKw, Ident, Eof}, tokenTypes(toks))
}

func TestLexComment(t *testing.T) {
	toks, err := Lex("$ # a comment\n| !($)")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{Dollar, Pipe, Bang, LParen, Dollar, RParen, Eof}, tokenTypes(toks))
}

func TestLexAdjacency(t *testing.T) {
	toks, err := Lex("$NAME")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.True(t, adjacentTo(toks[0], toks[1]))
}

func TestLexTwoCharOperators(t *testing.T) {
	toks, err := Lex(":= => ?? == != <= >= && ||")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{ColonEq, Arrow, Coalesce, Eq, NotEq, LtEq, GtEq, AndSym, OrSym, Eof}, tokenTypes(toks))
}

func TestLexUnknownCharacter(t *testing.T) {
	_, err := Lex("$a ^ $b")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeLexError))
}
