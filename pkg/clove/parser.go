package clove

import (
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Parser is a Pratt-style recursive-descent parser over a Token stream,
// producing a Query AST. Precedence climbs through parseExpr's minPrec
// argument; see the precedence table in peekBinOp.
type Parser struct {
	tokens []Token
	pos    int

	// lambdaParams is the stack of currently-active lambda parameter
	// names, innermost last. A bare Ident primary that matches any entry
	// desugars to Ctx; nested lambdas may reuse or shadow names freely
	// since only Ctx (not the name) is ever evaluated.
	lambdaParams []string
}

// Parse parses a token stream (as produced by Lex) into a Query.
func Parse(tokens []Token) (*Query, error) {
	p := &Parser{tokens: tokens}
	return p.parseQuery()
}

// ParseString lexes and parses src in one call.
func ParseString(src string) (*Query, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

func (p *Parser) cur() Token  { return p.tokens[p.pos] }
func (p *Parser) atEnd() bool { return p.cur().Type == Eof }

func (p *Parser) peek(offset int) Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) check(t TokenType) bool     { return p.cur().Type == t }
func (p *Parser) peekIs(off int, t TokenType) bool { return p.peek(off).Type == t }

func (p *Parser) advance() Token {
	tok := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if !p.check(t) {
		return Token{}, parseErrorf(p.cur().Pos, "expected %s, found %s", t, describeToken(p.cur()))
	}
	return p.advance(), nil
}

func describeToken(t Token) string {
	if t.Type == Ident || t.Type == IntLit || t.Type == DecLit || t.Type == StrLit {
		return t.Type.String() + " " + strconv.Quote(t.Value)
	}
	return t.Type.String()
}

func (p *Parser) pushLambdaParam(name string) {
	p.lambdaParams = append(p.lambdaParams, name)
}

func (p *Parser) popLambdaParam() {
	p.lambdaParams = p.lambdaParams[:len(p.lambdaParams)-1]
}

func (p *Parser) isLambdaParam(name string) bool {
	for _, n := range p.lambdaParams {
		if n == name {
			return true
		}
	}
	return false
}

// --- Query / stages ---

func (p *Parser) parseQuery() (*Query, error) {
	q := &Query{}
	sawStage := false

	for {
		if p.check(Amp) && p.peekIs(1, Ident) && p.peekIs(2, Comma) {
			udf, err := p.parseUdfDef()
			if err != nil {
				return nil, err
			}
			if sawStage {
				return nil, parseErrorf(udf.Pos, "UDF definitions must precede pipeline stages")
			}
			q.Udfs = append(q.Udfs, udf)
		} else {
			stage, err := p.parseStage(len(q.Stages) == 0)
			if err != nil {
				return nil, err
			}
			q.Stages = append(q.Stages, stage)
			sawStage = true
		}

		if p.check(Pipe) {
			p.advance()
			continue
		}
		break
	}

	if !p.atEnd() {
		return nil, parseErrorf(p.cur().Pos, "unexpected token %s after query", describeToken(p.cur()))
	}

	for i, s := range q.Stages {
		if _, ok := s.(*Output); ok && i != len(q.Stages)-1 {
			return nil, parseErrorf(p.cur().Pos, "output stage '!(...)' must be the last stage in the pipeline")
		}
	}

	if err := validateUdfNames(q.Udfs); err != nil {
		return nil, err
	}

	return q, nil
}

func validateUdfNames(udfs []*UdfDef) error {
	seen := make(map[string]bool, len(udfs))
	for _, u := range udfs {
		if seen[u.Name] {
			return parseErrorf(u.Pos, "duplicate UDF definition: &%s", u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

func (p *Parser) parseUdfDef() (*UdfDef, error) {
	pos := p.cur().Pos
	if _, err := p.expect(Amp); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Comma); err != nil {
		return nil, err
	}
	arityTok, err := p.expect(IntLit)
	if err != nil {
		return nil, err
	}
	arity, convErr := strconv.Atoi(arityTok.Value)
	if convErr != nil || arity < 0 || arity > 9 {
		return nil, arityErrorf(arityTok.Pos, "UDF arity must be an integer in 0..9, got %q", arityTok.Value)
	}
	if _, err := p.expect(ColonEq); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	return &UdfDef{Name: nameTok.Value, Arity: arity, Body: body, Pos: pos}, nil
}

func (p *Parser) parseStage(isFirst bool) (Stage, error) {
	if isFirst && p.check(Dollar) && (p.peekIs(1, Pipe) || p.peekIs(1, Eof)) {
		p.advance()
		return RootStart{}, nil
	}

	switch {
	case p.check(Bang):
		return p.parseOutput()
	case p.check(Tilde):
		return p.parseTransform()
	case p.check(Minus) && p.peekIs(1, LParen):
		return p.parseDelete()
	case p.check(Question):
		return p.parseFilter()
	case p.check(At) && p.peekIs(1, Ident) && p.peekIs(2, ColonEq) && adjacentTo(p.cur(), p.peek(1)):
		return p.parseBind()
	default:
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		return &BareExpr{Value: e}, nil
	}
}

func (p *Parser) parseBind() (Stage, error) {
	pos := p.cur().Pos
	p.advance() // @
	nameTok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ColonEq); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	return &Bind{Name: nameTok.Value, Value: val, Pos: pos}, nil
}

func (p *Parser) parseFilter() (Stage, error) {
	pos := p.cur().Pos
	p.advance() // ?
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &Filter{Cond: cond, Pos: pos}, nil
}

func (p *Parser) parseOutput() (Stage, error) {
	pos := p.cur().Pos
	p.advance() // !
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &Output{Value: val, Pos: pos}, nil
}

func (p *Parser) parseDelete() (Stage, error) {
	pos := p.cur().Pos
	p.advance() // -
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	path, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &Delete{Path: path, Pos: pos}, nil
}

func (p *Parser) parseTransform() (Stage, error) {
	pos := p.cur().Pos
	p.advance() // ~
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	path, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ColonEq); err != nil {
		return nil, err
	}

	e, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	var rhs Rhs
	switch n := e.(type) {
	case *PredicateExpr:
		rhs = AssignFilter{Expr: n.Inner}
	default:
		if exprHasFreeCtx(e) {
			rhs = AssignMap{Expr: e}
		} else {
			rhs = AssignValue{Expr: e}
		}
	}

	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return &Transform{Path: path, Rhs: rhs, Pos: pos}, nil
}

// --- Path expressions (transform/delete targets) ---

func (p *Parser) parsePathExpr() (*PathExpr, error) {
	pos := p.cur().Pos
	if _, err := p.expect(Dollar); err != nil {
		return nil, parseErrorf(pos, "transform/delete target must be rooted at $")
	}

	var segs []AccessorOp
	for {
		switch {
		case p.check(Dot):
			p.advance()
			nameTok, err := p.expect(Ident)
			if err != nil {
				return nil, err
			}
			segs = append(segs, FieldOp{Name: nameTok.Value})
		case p.check(LBracket):
			p.advance()
			op, err := p.parsePathBracketKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBracket); err != nil {
				return nil, err
			}
			segs = append(segs, op)
		default:
			return &PathExpr{Segments: segs, Pos: pos}, nil
		}
	}
}

func (p *Parser) parsePathBracketKey() (AccessorOp, error) {
	tok := p.cur()
	switch tok.Type {
	case IntLit:
		p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, parseErrorf(tok.Pos, "integer literal out of range: %s", tok.Value)
		}
		return IndexIntOp{I: n}, nil
	case DecLit:
		p.advance()
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, parseErrorf(tok.Pos, "invalid decimal literal: %s", tok.Value)
		}
		return IndexFloatOp{D: d}, nil
	case StrLit:
		p.advance()
		return FieldOp{Name: tok.Value}, nil
	case Ident:
		p.advance()
		return FieldOp{Name: tok.Value}, nil
	default:
		return nil, parseErrorf(tok.Pos, "transform/delete target keys must be a literal field name or index, found %s", describeToken(tok))
	}
}

// --- Expressions: Pratt precedence climbing ---

const (
	precLowest = iota
	precCoalesce
	precOr
	precAnd
	precComparison
	precAdditive
	precMultiplicative
)

type binOpInfo struct {
	op   string
	prec int
}

func (p *Parser) peekBinOp() (binOpInfo, bool) {
	switch p.cur().Type {
	case Coalesce:
		return binOpInfo{"??", precCoalesce}, true
	case OrKw, OrSym:
		return binOpInfo{"or", precOr}, true
	case AndKw, AndSym:
		return binOpInfo{"and", precAnd}, true
	case Eq:
		return binOpInfo{"==", precComparison}, true
	case NotEq:
		return binOpInfo{"!=", precComparison}, true
	case Lt:
		return binOpInfo{"<", precComparison}, true
	case Gt:
		return binOpInfo{">", precComparison}, true
	case LtEq:
		return binOpInfo{"<=", precComparison}, true
	case GtEq:
		return binOpInfo{">=", precComparison}, true
	case Plus:
		return binOpInfo{"+", precAdditive}, true
	case Minus:
		return binOpInfo{"-", precAdditive}, true
	case Star:
		return binOpInfo{"*", precMultiplicative}, true
	case Slash:
		return binOpInfo{"/", precMultiplicative}, true
	case Percent:
		return binOpInfo{"%", precMultiplicative}, true
	default:
		return binOpInfo{}, false
	}
}

func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		info, ok := p.peekBinOp()
		if !ok || info.prec < minPrec {
			return left, nil
		}
		pos := p.cur().Pos
		p.advance()
		right, err := p.parseExpr(info.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binop{Op: info.op, Left: left, Right: right, Pos: pos}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.check(Minus) || p.check(Bang) {
		tok := p.advance()
		op := "-"
		if tok.Type == Bang {
			op = "!"
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unop{Op: op, Operand: operand, Pos: tok.Pos}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.check(Dot):
			pos := p.cur().Pos
			p.advance()
			nameTok, err := p.expect(Ident)
			if err != nil {
				return nil, err
			}
			if p.check(LParen) {
				p.advance()
				args, err := p.parseArgList(RParen)
				if err != nil {
					return nil, err
				}
				left = &MethodCall{Target: left, Name: nameTok.Value, Args: args, Pos: pos}
			} else {
				left = &Accessor{Target: left, Op: FieldOp{Name: nameTok.Value}, Pos: pos}
			}

		case p.check(LBracket):
			pos := p.cur().Pos
			p.advance()
			op, err := p.parseBracketKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBracket); err != nil {
				return nil, err
			}
			left = &Accessor{Target: left, Op: op, Pos: pos}

		case p.check(Question):
			pos := p.cur().Pos
			p.advance()
			left = &Accessor{Target: left, Op: ExistenceOp{}, Pos: pos}

		default:
			return left, nil
		}
	}
}

func (p *Parser) parseBracketKey() (AccessorOp, error) {
	switch {
	case p.check(Question):
		p.advance()
		return ExistenceOp{}, nil
	case p.check(Star) && p.peekIs(1, RBracket):
		tok := p.advance()
		return nil, parseErrorf(tok.Pos, "splat accessor '[*]' is reserved and not implemented")
	case p.check(IntLit) && p.peekIs(1, RBracket):
		tok := p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, parseErrorf(tok.Pos, "integer literal out of range: %s", tok.Value)
		}
		return IndexIntOp{I: n}, nil
	case p.check(DecLit) && p.peekIs(1, RBracket):
		tok := p.advance()
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, parseErrorf(tok.Pos, "invalid decimal literal: %s", tok.Value)
		}
		return IndexFloatOp{D: d}, nil
	case p.check(StrLit) && p.peekIs(1, RBracket):
		tok := p.advance()
		return FieldOp{Name: tok.Value}, nil
	case p.check(Ident) && p.peekIs(1, RBracket):
		tok := p.advance()
		return FieldOp{Name: tok.Value}, nil
	default:
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		return ComputedKeyOp{Key: e}, nil
	}
}

func (p *Parser) parseArgList(closer TokenType) ([]Expr, error) {
	var args []Expr
	if p.check(closer) {
		p.advance()
		return args, nil
	}
	for {
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.check(Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(closer); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()

	switch tok.Type {
	case IntLit:
		p.advance()
		bi, ok := new(big.Int).SetString(tok.Value, 10)
		if !ok {
			return nil, parseErrorf(tok.Pos, "invalid integer literal: %s", tok.Value)
		}
		return &Literal{Value: Int(bi), Pos: tok.Pos}, nil

	case DecLit:
		p.advance()
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, parseErrorf(tok.Pos, "invalid decimal literal: %s", tok.Value)
		}
		return &Literal{Value: Dec(d), Pos: tok.Pos}, nil

	case StrLit:
		p.advance()
		return &Literal{Value: Str(tok.Value), Pos: tok.Pos}, nil

	case True:
		p.advance()
		return &Literal{Value: Bool(true), Pos: tok.Pos}, nil

	case False:
		p.advance()
		return &Literal{Value: Bool(false), Pos: tok.Pos}, nil

	case NullKw:
		p.advance()
		return &Literal{Value: Null, Pos: tok.Pos}, nil

	case Dollar:
		p.advance()
		if p.check(Ident) && adjacentTo(tok, p.cur()) {
			nameTok := p.advance()
			return &EnvVar{Name: nameTok.Value, Pos: tok.Pos}, nil
		}
		return &Root{Pos: tok.Pos}, nil

	case At:
		p.advance()
		if p.check(IntLit) && adjacentTo(tok, p.cur()) {
			nTok := p.advance()
			n, err := strconv.Atoi(nTok.Value)
			if err != nil || n < 1 || n > 9 {
				return nil, parseErrorf(nTok.Pos, "UDF argument reference must be @1..@9, got @%s", nTok.Value)
			}
			return &CtxArgNode{N: n, Pos: tok.Pos}, nil
		}
		if p.check(Ident) && adjacentTo(tok, p.cur()) {
			nameTok := p.advance()
			return &ScopeRef{Name: nameTok.Value, Pos: tok.Pos}, nil
		}
		return &Ctx{Pos: tok.Pos}, nil

	case Amp:
		p.advance()
		nameTok, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LBracket); err != nil {
			return nil, err
		}
		args, err := p.parseArgList(RBracket)
		if err != nil {
			return nil, err
		}
		return &UdfCall{Name: nameTok.Value, Args: args, Pos: tok.Pos}, nil

	case Ident:
		if p.peekIs(1, Arrow) {
			p.advance() // param
			p.advance() // =>
			p.pushLambdaParam(tok.Value)
			body, err := p.parseExpr(precLowest)
			p.popLambdaParam()
			if err != nil {
				return nil, err
			}
			return &Lambda{Param: tok.Value, Body: body, Pos: tok.Pos}, nil
		}
		if p.isLambdaParam(tok.Value) {
			p.advance()
			return &Ctx{Pos: tok.Pos}, nil
		}
		return nil, parseErrorf(tok.Pos, "unexpected identifier %q: bare identifiers are only valid as a lambda parameter", tok.Value)

	case LParen:
		p.advance()
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return e, nil

	case LBracket:
		p.advance()
		elems, err := p.parseArgList(RBracket)
		if err != nil {
			return nil, err
		}
		return &ArrayLit{Elems: elems, Pos: tok.Pos}, nil

	case LBrace:
		return p.parseObjectLit()

	case Question:
		p.advance()
		if _, err := p.expect(LParen); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return &PredicateExpr{Inner: inner, Pos: tok.Pos}, nil

	default:
		return nil, parseErrorf(tok.Pos, "unexpected token %s", describeToken(tok))
	}
}

func (p *Parser) parseObjectLit() (Expr, error) {
	pos := p.cur().Pos
	p.advance() // {
	var keys []string
	var values []Expr

	if p.check(RBrace) {
		p.advance()
		return &ObjectLit{Pos: pos}, nil
	}

	for {
		var key string
		switch {
		case p.check(Ident), p.check(StrLit):
			key = p.advance().Value
		default:
			return nil, parseErrorf(p.cur().Pos, "expected object key, found %s", describeToken(p.cur()))
		}
		if _, err := p.expect(Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, val)

		if p.check(Comma) {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return &ObjectLit{Keys: keys, Values: values, Pos: pos}, nil
}

// exprHasFreeCtx reports whether e references Ctx ("@") in a position that
// would be bound by the Transform stage's own implicit per-element
// binding, as opposed to one already bound by a nested Lambda or by a
// built-in method's own lambda argument slot. Used only to classify a
// Transform RHS as AssignMap vs AssignValue (spec.md §4.2).
func exprHasFreeCtx(e Expr) bool {
	switch n := e.(type) {
	case nil:
		return false
	case *Ctx:
		return true
	case *CtxArgNode, *ScopeRef, *EnvVar, *Root, *Literal:
		return false
	case *Accessor:
		if exprHasFreeCtx(n.Target) {
			return true
		}
		if ck, ok := n.Op.(ComputedKeyOp); ok {
			return exprHasFreeCtx(ck.Key)
		}
		return false
	case *MethodCall:
		if exprHasFreeCtx(n.Target) {
			return true
		}
		lambdaIdx := -1
		if methodTakesLambda(n.Name) && len(n.Args) > 0 {
			lambdaIdx = len(n.Args) - 1
		}
		for i, a := range n.Args {
			if i == lambdaIdx {
				continue
			}
			if exprHasFreeCtx(a) {
				return true
			}
		}
		return false
	case *Binop:
		return exprHasFreeCtx(n.Left) || exprHasFreeCtx(n.Right)
	case *Unop:
		return exprHasFreeCtx(n.Operand)
	case *UdfCall:
		for _, a := range n.Args {
			if exprHasFreeCtx(a) {
				return true
			}
		}
		return false
	case *Lambda:
		return false
	case *PredicateExpr:
		return exprHasFreeCtx(n.Inner)
	case *ObjectLit:
		for _, v := range n.Values {
			if exprHasFreeCtx(v) {
				return true
			}
		}
		return false
	case *ArrayLit:
		for _, v := range n.Elems {
			if exprHasFreeCtx(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
