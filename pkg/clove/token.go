package clove

import "fmt"

// Position is a byte offset into the source query string, plus the
// derived line/column used in error messages.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// TokenType enumerates the lexical token categories of the query language.
type TokenType int

const (
	Eof TokenType = iota

	// Markers
	Dollar // $
	At     // @
	Amp    // &
	Pipe   // |

	// Stage / unary punctuation
	Bang     // !
	Question // ?
	Tilde    // ~

	// Arithmetic operators
	Minus
	Plus
	Star
	Slash
	Percent

	// Grouping / structural punctuation
	LBracket
	RBracket
	LParen
	RParen
	LBrace
	RBrace
	Dot
	Comma
	Colon

	// Comparisons
	Eq
	NotEq
	Lt
	Gt
	LtEq
	GtEq

	// Boolean operators
	AndKw // and
	OrKw  // or
	AndSym
	OrSym

	Coalesce // ??
	ColonEq  // :=
	Arrow    // =>

	// Literals / identifiers
	Ident
	IntLit
	DecLit
	StrLit
	True
	False
	NullKw
)

var tokenNames = map[TokenType]string{
	Eof: "EOF", Dollar: "$", At: "@", Amp: "&", Pipe: "|",
	Bang: "!", Question: "?", Tilde: "~",
	Minus: "-", Plus: "+", Star: "*", Slash: "/", Percent: "%",
	LBracket: "[", RBracket: "]", LParen: "(", RParen: ")",
	LBrace: "{", RBrace: "}", Dot: ".", Comma: ",", Colon: ":",
	Eq: "==", NotEq: "!=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	AndKw: "and", OrKw: "or", AndSym: "&&", OrSym: "||",
	Coalesce: "??", ColonEq: ":=", Arrow: "=>",
	Ident: "identifier", IntLit: "integer", DecLit: "decimal", StrLit: "string",
	True: "true", False: "false", NullKw: "null",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token is one lexical unit with its source position.
//
// Pos is the start offset of the token. End is the offset immediately
// following the token's last byte. The parser uses End/Pos adjacency
// (no gap) to distinguish e.g. "$NAME" (an EnvVar, no whitespace between
// '$' and the identifier) from "$ [NAME]" forms, and "@1" (CtxArg) from a
// bare "@" followed by an unrelated number.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
	End   int
}

// adjacentTo reports whether b begins exactly where a ends, i.e. there is
// no whitespace or comment between the two tokens in the source text.
func adjacentTo(a, b Token) bool {
	return a.End == b.Pos.Offset
}
