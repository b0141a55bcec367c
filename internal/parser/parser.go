// Package parser is a recursive-descent parser, with a precedence-climbing
// expression parser, building the typed AST of the data model directly —
// no separate concrete syntax tree — grounded on the corpus's descent-
// parser idiom.
package parser

import (
	"fmt"
	"strconv"

	"github.com/gmofishsauce/aura/internal/ast"
	"github.com/gmofishsauce/aura/internal/lexer"
)

// Error is a syntax diagnostic.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

type parser struct {
	toks []lexer.Token
	pos  int
	file string
}

// Parse builds a Program from a token stream produced by the lexer,
// reporting the first syntax error with a location and halting (no error
// recovery), matching the type checker's and code generator's first-error-
// halts discipline.
func Parse(toks []lexer.Token, file string) (prog *ast.Program, err error) {
	p := &parser{toks: toks, file: file}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*Error); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	return p.parseProgram(), nil
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *parser) atPunct(s string) bool {
	return p.cur().Kind == lexer.KPunct && p.cur().Text == s
}

func (p *parser) atKeyword(s string) bool {
	return p.cur().Kind == lexer.KKeyword && p.cur().Text == s
}

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) fail(format string, args ...interface{}) {
	t := p.cur()
	panic(&Error{Message: fmt.Sprintf(format, args...), Line: t.Line, Col: t.Col})
}

func (p *parser) expectPunct(s string) lexer.Token {
	if !p.atPunct(s) {
		p.fail("expected %q, got %q", s, p.cur().Text)
	}
	return p.advance()
}

func (p *parser) expectKeyword(s string) lexer.Token {
	if !p.atKeyword(s) {
		p.fail("expected keyword %q, got %q", s, p.cur().Text)
	}
	return p.advance()
}

func (p *parser) expectIdent() lexer.Token {
	if !p.at(lexer.KIdent) {
		p.fail("expected identifier, got %q", p.cur().Text)
	}
	return p.advance()
}

func (p *parser) loc() ast.Location {
	t := p.cur()
	return ast.Location{File: p.file, Line: t.Line, Col: t.Col}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(lexer.KEOF) {
		prog.Items = append(prog.Items, p.parseItem())
	}
	return prog
}

func (p *parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.atPunct("#") {
		p.advance()
		p.expectPunct("[")
		// attribute names (entry, noreturn, ...) are lexed as keywords.
		if !p.at(lexer.KIdent) && !p.at(lexer.KKeyword) {
			p.fail("expected attribute name, got %q", p.cur().Text)
		}
		name := p.advance().Text
		arg := ""
		if p.atPunct("(") {
			p.advance()
			arg = p.expectIdent().Text
			p.expectPunct(")")
		}
		p.expectPunct("]")
		attrs = append(attrs, ast.Attribute{Name: name, Arg: arg})
	}
	return attrs
}

func (p *parser) parseItem() ast.Item {
	attrs := p.parseAttributes()
	loc := p.loc()
	switch {
	case p.atKeyword("fn"):
		return p.parseFunction(loc, attrs)
	case p.atKeyword("struct"):
		return p.parseStruct(loc)
	case p.atKeyword("union"):
		return p.parseUnion(loc)
	case p.atKeyword("enum"):
		return p.parseEnum(loc)
	case p.atKeyword("const"):
		return p.parseConstItem(loc)
	case p.atKeyword("let"):
		return p.parseVarItem(loc)
	}
	p.fail("expected item, got %q", p.cur().Text)
	return nil
}

func (p *parser) parseFunction(loc ast.Location, attrs []ast.Attribute) *ast.Function {
	p.expectKeyword("fn")
	name := p.expectIdent().Text
	p.expectPunct("(")
	var params []ast.Param
	for !p.atPunct(")") {
		pname := p.expectIdent().Text
		p.expectPunct(":")
		ptype := p.parseType()
		params = append(params, ast.Param{Name: pname, Type: ptype})
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.expectPunct(")")
	ret := ast.Void()
	if p.atPunct("->") {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.Function{Location: loc, Name: name, Params: params, Ret: ret, Attributes: attrs, Body: body}
}

func (p *parser) parseStruct(loc ast.Location) *ast.Struct {
	p.expectKeyword("struct")
	name := p.expectIdent().Text
	p.expectPunct("{")
	var fields []ast.StructField
	for !p.atPunct("}") {
		fname := p.expectIdent().Text
		p.expectPunct(":")
		ftype := p.parseType()
		fields = append(fields, ast.StructField{Name: fname, Type: ftype})
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.expectPunct("}")
	return &ast.Struct{Location: loc, Name: name, Fields: fields}
}

func (p *parser) parseUnion(loc ast.Location) *ast.Union {
	p.expectKeyword("union")
	name := p.expectIdent().Text
	p.expectPunct("{")
	var variants []ast.UnionVariant
	for !p.atPunct("}") {
		vname := p.expectIdent().Text
		p.expectPunct(":")
		vtype := p.parseType()
		variants = append(variants, ast.UnionVariant{Name: vname, Type: vtype})
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.expectPunct("}")
	return &ast.Union{Location: loc, Name: name, Variants: variants}
}

func (p *parser) parseEnum(loc ast.Location) *ast.Enum {
	p.expectKeyword("enum")
	name := p.expectIdent().Text
	p.expectPunct("{")
	var variants []ast.EnumVariant
	for !p.atPunct("}") {
		vname := p.expectIdent().Text
		var val *int64
		if p.atPunct("=") {
			p.advance()
			n := p.expectIntLiteralValue()
			val = &n
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Value: val})
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.expectPunct("}")
	return &ast.Enum{Location: loc, Name: name, Variants: variants}
}

func (p *parser) expectIntLiteralValue() int64 {
	if !p.at(lexer.KIntLit) {
		p.fail("expected integer literal, got %q", p.cur().Text)
	}
	t := p.advance()
	n, err := strconv.ParseInt(t.Text, 10, 64)
	if err != nil {
		p.fail("invalid integer literal %q", t.Text)
	}
	return n
}

func (p *parser) parseConstItem(loc ast.Location) *ast.ConstDecl {
	p.expectKeyword("const")
	name := p.expectIdent().Text
	var typ *ast.Type
	if p.atPunct(":") {
		p.advance()
		typ = p.parseType()
	}
	p.expectPunct("=")
	value := p.parseExpr()
	p.expectPunct(";")
	return &ast.ConstDecl{Location: loc, Name: name, Type: typ, Value: value}
}

func (p *parser) parseVarItem(loc ast.Location) *ast.VarDecl {
	p.expectKeyword("let")
	name := p.expectIdent().Text
	var typ *ast.Type
	if p.atPunct(":") {
		p.advance()
		typ = p.parseType()
	}
	p.expectPunct("=")
	value := p.parseExpr()
	p.expectPunct(";")
	return &ast.VarDecl{Location: loc, Name: name, Type: typ, Value: value}
}

// parseType parses a type expression: primitives, bit-precise i<N>/u<N>
// names, pointer forms, arrays, and named references.
func (p *parser) parseType() *ast.Type {
	if p.atPunct("*") {
		p.advance()
		if p.atKeyword("const") {
			p.advance()
			return ast.NewConstPtr(p.parseType())
		}
		isMut := false
		if p.at(lexer.KIdent) && p.cur().Text == "mut" {
			p.advance()
			isMut = true
		}
		elem := p.parseType()
		if isMut {
			return ast.NewMutPtr(elem)
		}
		return ast.NewPtr(elem)
	}
	if p.atPunct("[") {
		p.advance()
		n := p.expectIntLiteralValue()
		p.expectPunct("]")
		elem := p.parseType()
		return ast.NewArray(int(n), elem)
	}
	if p.atKeyword("fn_ptr") || (p.at(lexer.KIdent) && p.cur().Text == "fn") {
		p.advance()
		p.expectPunct("(")
		var params []*ast.Type
		for !p.atPunct(")") {
			params = append(params, p.parseType())
			if p.atPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
		ret := ast.Void()
		if p.atPunct("->") {
			p.advance()
			ret = p.parseType()
		}
		return ast.NewFunc(params, ret)
	}

	name := p.expectIdent().Text
	return parseTypeName(name, p)
}

func parseTypeName(name string, p *parser) *ast.Type {
	switch name {
	case "void":
		return ast.Void()
	case "bool":
		return ast.Bool()
	case "i8":
		return ast.I8()
	case "i16":
		return ast.I16()
	case "i32":
		return ast.I32()
	case "i64":
		return ast.I64()
	case "u8":
		return ast.U8()
	case "u16":
		return ast.U16()
	case "u32":
		return ast.U32()
	case "u64":
		return ast.U64()
	case "usize":
		return ast.Usize()
	case "isize":
		return ast.Isize()
	case "f32":
		return ast.F32()
	case "f64":
		return ast.F64()
	}
	if len(name) >= 2 && (name[0] == 'i' || name[0] == 'u') {
		if n, err := strconv.Atoi(name[1:]); err == nil && n > 0 {
			return ast.NewBitInt(n, name[0] == 'i')
		}
	}
	return ast.NewNamed(name)
}

func (p *parser) parseBlock() []ast.Stmt {
	p.expectPunct("{")
	var stmts []ast.Stmt
	for !p.atPunct("}") {
		stmts = append(stmts, p.parseStmt())
	}
	p.expectPunct("}")
	return stmts
}

func (p *parser) parseStmt() ast.Stmt {
	loc := p.loc()
	switch {
	case p.atKeyword("let"):
		p.advance()
		name := p.expectIdent().Text
		var typ *ast.Type
		if p.atPunct(":") {
			p.advance()
			typ = p.parseType()
		}
		p.expectPunct("=")
		value := p.parseExpr()
		p.expectPunct(";")
		return &ast.LetStmt{Location: loc, Name: name, Type: typ, Value: value}
	case p.atKeyword("const"):
		p.advance()
		name := p.expectIdent().Text
		var typ *ast.Type
		if p.atPunct(":") {
			p.advance()
			typ = p.parseType()
		}
		p.expectPunct("=")
		value := p.parseExpr()
		p.expectPunct(";")
		return &ast.ConstStmt{Location: loc, Name: name, Type: typ, Value: value}
	case p.atKeyword("return"):
		p.advance()
		if p.atPunct(";") {
			p.advance()
			return &ast.ReturnStmt{Location: loc}
		}
		v := p.parseExpr()
		p.expectPunct(";")
		return &ast.ReturnStmt{Location: loc, Value: v}
	case p.atKeyword("break"):
		p.advance()
		p.expectPunct(";")
		return &ast.BreakStmt{Location: loc}
	case p.atKeyword("continue"):
		p.advance()
		p.expectPunct(";")
		return &ast.ContinueStmt{Location: loc}
	case p.atPunct("{"):
		return &ast.BlockStmt{Location: loc, Stmts: p.parseBlock()}
	case p.atKeyword("if"):
		return p.parseIfStmt(loc)
	case p.atKeyword("while"):
		p.advance()
		cond := p.parseExpr()
		body := p.parseBlock()
		return &ast.WhileStmt{Location: loc, Cond: cond, Body: body}
	case p.atKeyword("for"):
		return p.parseForStmt(loc)
	case p.atKeyword("defer"):
		p.advance()
		inner := p.parseStmt()
		return &ast.DeferStmt{Location: loc, Stmt: inner}
	case p.atKeyword("asm"):
		return p.parseAsmStmt(loc)
	default:
		e := p.parseExpr()
		p.expectPunct(";")
		return &ast.ExprStmt{Location: loc, X: e}
	}
}

func (p *parser) parseIfStmt(loc ast.Location) *ast.IfStmt {
	p.expectKeyword("if")
	cond := p.parseExpr()
	then := p.parseBlock()
	var els []ast.Stmt
	if p.atKeyword("else") {
		p.advance()
		if p.atKeyword("if") {
			els = []ast.Stmt{p.parseIfStmt(p.loc())}
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfStmt{Location: loc, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseForStmt(loc ast.Location) *ast.ForStmt {
	p.expectKeyword("for")
	p.expectPunct("(")
	var init ast.Stmt
	if !p.atPunct(";") {
		init = p.parseStmt()
	} else {
		p.advance()
	}
	var cond ast.Expr
	if !p.atPunct(";") {
		cond = p.parseExpr()
	}
	p.expectPunct(";")
	var update ast.Stmt
	if !p.atPunct(")") {
		updLoc := p.loc()
		update = &ast.ExprStmt{Location: updLoc, X: p.parseExpr()}
	}
	p.expectPunct(")")
	body := p.parseBlock()
	return &ast.ForStmt{Location: loc, Init: init, Cond: cond, Update: update, Body: body}
}

func (p *parser) parseAsmStmt(loc ast.Location) *ast.AsmStmt {
	p.expectKeyword("asm")
	p.expectPunct("(")
	tmpl := ""
	if p.at(lexer.KStringLit) {
		tmpl = p.advance().Text
	}
	for !p.atPunct(")") {
		p.advance()
	}
	p.expectPunct(")")
	p.expectPunct(";")
	return &ast.AsmStmt{Location: loc, Template: tmpl}
}

// --- Expressions: precedence-climbing, lowest to highest -----------------
//
// assignment (right-assoc)
// logical-or, logical-and
// equality, relational
// bitwise-or, bitwise-xor, bitwise-and
// shift
// additive
// multiplicative
// unary
// postfix (call, index, field, ptr-field, cast)
// primary

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *parser) parseAssign() ast.Expr {
	loc := p.loc()
	lhs := p.parseLogicalOr()
	if p.atPunct("=") {
		p.advance()
		rhs := p.parseAssign()
		return ast.NewAssignExpr(loc, lhs, rhs)
	}
	return lhs
}

func (p *parser) parseLogicalOr() ast.Expr {
	loc := p.loc()
	left := p.parseLogicalAnd()
	for p.atPunct("||") {
		p.advance()
		right := p.parseLogicalAnd()
		left = newBinary(loc, ast.OpLogOr, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseLogicalAnd() ast.Expr {
	loc := p.loc()
	left := p.parseEquality()
	for p.atPunct("&&") {
		p.advance()
		right := p.parseEquality()
		left = newBinary(loc, ast.OpLogAnd, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	loc := p.loc()
	left := p.parseRelational()
	for p.atPunct("==") || p.atPunct("!=") {
		op := ast.OpEq
		if p.cur().Text == "!=" {
			op = ast.OpNe
		}
		p.advance()
		right := p.parseRelational()
		left = newBinary(loc, op, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseRelational() ast.Expr {
	loc := p.loc()
	left := p.parseBitOr()
	for p.atPunct("<") || p.atPunct("<=") || p.atPunct(">") || p.atPunct(">=") {
		var op ast.BinaryOp
		switch p.cur().Text {
		case "<":
			op = ast.OpLt
		case "<=":
			op = ast.OpLe
		case ">":
			op = ast.OpGt
		case ">=":
			op = ast.OpGe
		}
		p.advance()
		right := p.parseBitOr()
		left = newBinary(loc, op, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseBitOr() ast.Expr {
	loc := p.loc()
	left := p.parseBitXor()
	for p.atPunct("|") {
		p.advance()
		right := p.parseBitXor()
		left = newBinary(loc, ast.OpBitOr, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseBitXor() ast.Expr {
	loc := p.loc()
	left := p.parseBitAnd()
	for p.atPunct("^") {
		p.advance()
		right := p.parseBitAnd()
		left = newBinary(loc, ast.OpBitXor, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseBitAnd() ast.Expr {
	loc := p.loc()
	left := p.parseShift()
	for p.atPunct("&") {
		p.advance()
		right := p.parseShift()
		left = newBinary(loc, ast.OpBitAnd, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseShift() ast.Expr {
	loc := p.loc()
	left := p.parseAdditive()
	for p.atPunct("<<") || p.atPunct(">>") {
		op := ast.OpShl
		if p.cur().Text == ">>" {
			op = ast.OpShr
		}
		p.advance()
		right := p.parseAdditive()
		left = newBinary(loc, op, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	loc := p.loc()
	left := p.parseMultiplicative()
	for p.atPunct("+") || p.atPunct("-") {
		op := ast.OpAdd
		if p.cur().Text == "-" {
			op = ast.OpSub
		}
		p.advance()
		right := p.parseMultiplicative()
		left = newBinary(loc, op, left, right)
		loc = p.loc()
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	loc := p.loc()
	left := p.parseUnary()
	for p.atPunct("*") || p.atPunct("/") || p.atPunct("%") {
		var op ast.BinaryOp
		switch p.cur().Text {
		case "*":
			op = ast.OpMul
		case "/":
			op = ast.OpDiv
		case "%":
			op = ast.OpMod
		}
		p.advance()
		right := p.parseUnary()
		left = newBinary(loc, op, left, right)
		loc = p.loc()
	}
	return left
}

func newBinary(loc ast.Location, op ast.BinaryOp, l, r ast.Expr) *ast.BinaryExpr {
	return ast.NewBinaryExpr(loc, op, l, r)
}

func (p *parser) parseUnary() ast.Expr {
	loc := p.loc()
	switch {
	case p.atPunct("-"):
		p.advance()
		return ast.NewUnaryExpr(loc, ast.OpNeg, p.parseUnary())
	case p.atPunct("!"):
		p.advance()
		return ast.NewUnaryExpr(loc, ast.OpNot, p.parseUnary())
	case p.atPunct("~"):
		p.advance()
		return ast.NewUnaryExpr(loc, ast.OpBitNot, p.parseUnary())
	case p.atPunct("*"):
		p.advance()
		return ast.NewUnaryExpr(loc, ast.OpDerefOp, p.parseUnary())
	case p.atPunct("&"):
		p.advance()
		return ast.NewUnaryExpr(loc, ast.OpAddrOf, p.parseUnary())
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	loc := p.loc()
	e := p.parsePrimary()
	for {
		switch {
		case p.atPunct("("):
			p.advance()
			var args []ast.Expr
			for !p.atPunct(")") {
				args = append(args, p.parseExpr())
				if p.atPunct(",") {
					p.advance()
				}
			}
			p.expectPunct(")")
			e = ast.NewCallExpr(loc, e, args)
		case p.atPunct("["):
			p.advance()
			idx := p.parseExpr()
			p.expectPunct("]")
			e = ast.NewIndexExpr(loc, e, idx)
		case p.atPunct("."):
			p.advance()
			field := p.expectIdent().Text
			e = ast.NewFieldExpr(loc, e, field)
		case p.atPunct("->"):
			p.advance()
			field := p.expectIdent().Text
			e = ast.NewPtrFieldExpr(loc, e, field)
		case p.atKeyword("as") || (p.at(lexer.KIdent) && p.cur().Text == "as"):
			p.advance()
			dest := p.parseType()
			e = ast.NewCastExpr(loc, e, dest)
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	loc := p.loc()
	t := p.cur()
	switch {
	case t.Kind == lexer.KIntLit:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			p.fail("invalid integer literal %q", t.Text)
		}
		return ast.NewIntLiteral(loc, n, suffixFromText(t.Suffix))
	case t.Kind == lexer.KFloatLit:
		p.advance()
		f, _ := strconv.ParseFloat(t.Text, 64)
		suf := ast.FSufNone
		if t.Suffix == "f32" {
			suf = ast.FSufF32
		} else if t.Suffix == "f64" {
			suf = ast.FSufF64
		}
		return ast.NewFloatLiteral(loc, f, suf)
	case t.Kind == lexer.KStringLit:
		p.advance()
		return ast.NewStringLiteral(loc, []byte(t.Text))
	case t.Kind == lexer.KCharLit:
		p.advance()
		return ast.NewCharLiteral(loc, t.Text[0])
	case t.Kind == lexer.KKeyword && t.Text == "true":
		p.advance()
		return ast.NewBoolLiteral(loc, true)
	case t.Kind == lexer.KKeyword && t.Text == "false":
		p.advance()
		return ast.NewBoolLiteral(loc, false)
	case t.Kind == lexer.KKeyword && t.Text == "if":
		return p.parseIfExpr(loc)
	case t.Kind == lexer.KKeyword && t.Text == "alloc":
		p.advance()
		p.expectPunct("(")
		elem := p.parseType()
		p.expectPunct(",")
		count := p.parseExpr()
		p.expectPunct(")")
		return ast.NewAllocExpr(loc, elem, count)
	case t.Kind == lexer.KKeyword && t.Text == "free":
		p.advance()
		p.expectPunct("(")
		ptr := p.parseExpr()
		var size ast.Expr
		if p.atPunct(",") {
			p.advance()
			size = p.parseExpr()
		}
		p.expectPunct(")")
		return ast.NewFreeExpr(loc, ptr, size)
	case t.Kind == lexer.KKeyword && t.Text == "sizeof":
		p.advance()
		p.expectPunct("(")
		target := p.parseType()
		p.expectPunct(")")
		return ast.NewSizeofExpr(loc, target)
	case t.Kind == lexer.KKeyword && t.Text == "alignof":
		p.advance()
		p.expectPunct("(")
		target := p.parseType()
		p.expectPunct(")")
		return ast.NewAlignofExpr(loc, target)
	case t.Kind == lexer.KKeyword && t.Text == "offsetof":
		p.advance()
		p.expectPunct("(")
		target := p.parseType()
		p.expectPunct(",")
		field := p.expectIdent().Text
		p.expectPunct(")")
		return ast.NewOffsetofExpr(loc, target, field)
	case t.Kind == lexer.KKeyword && t.Text == "syscall":
		p.advance()
		p.expectPunct(".")
		name := p.expectIdent().Text
		p.expectPunct("(")
		var args []ast.Expr
		for !p.atPunct(")") {
			args = append(args, p.parseExpr())
			if p.atPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
		return ast.NewSyscallExpr(loc, name, args)
	case t.Kind == lexer.KIdent:
		p.advance()
		return ast.NewIdent(loc, t.Text)
	case t.Kind == lexer.KPunct && t.Text == "(":
		p.advance()
		e := p.parseExpr()
		p.expectPunct(")")
		return e
	case t.Kind == lexer.KPunct && t.Text == "{":
		return p.parseBlockExpr(loc)
	}
	p.fail("unexpected token %q in expression", t.Text)
	return nil
}

func (p *parser) parseIfExpr(loc ast.Location) ast.Expr {
	p.expectKeyword("if")
	cond := p.parseExpr()
	then := p.parseBlockExpr(p.loc())
	p.expectKeyword("else")
	els := p.parseBlockExpr(p.loc())
	return ast.NewIfExpr(loc, cond, then, els)
}

func (p *parser) parseBlockExpr(loc ast.Location) *ast.BlockExpr {
	p.expectPunct("{")
	var stmts []ast.Stmt
	var tail ast.Expr
	for !p.atPunct("}") {
		if p.isExprStart() {
			start := p.pos
			e := p.parseExpr()
			if p.atPunct(";") {
				p.advance()
				stmts = append(stmts, &ast.ExprStmt{Location: exprLoc(e), X: e})
				continue
			}
			if p.atPunct("}") {
				tail = e
				break
			}
			// not a trailing expression after all; treat it as a statement
			// and let the caller's loop re-synchronize.
			p.pos = start
			stmts = append(stmts, p.parseStmt())
			continue
		}
		stmts = append(stmts, p.parseStmt())
	}
	p.expectPunct("}")
	return ast.NewBlockExpr(loc, stmts, tail)
}

func exprLoc(e ast.Expr) ast.Location { return e.Loc() }

// isExprStart is a light heuristic used only to decide whether the current
// block-body token begins a tail expression; statements with unambiguous
// leading keywords are parsed through parseStmt instead.
func (p *parser) isExprStart() bool {
	t := p.cur()
	if t.Kind == lexer.KKeyword {
		switch t.Text {
		case "let", "const", "return", "break", "continue", "while", "for", "defer", "asm", "if":
			return false
		}
	}
	return true
}

func suffixFromText(s string) ast.IntSuffix {
	switch s {
	case "i8":
		return ast.SufI8
	case "i16":
		return ast.SufI16
	case "i32":
		return ast.SufI32
	case "i64":
		return ast.SufI64
	case "u8":
		return ast.SufU8
	case "u16":
		return ast.SufU16
	case "u32":
		return ast.SufU32
	case "u64":
		return ast.SufU64
	case "usize":
		return ast.SufUsize
	case "isize":
		return ast.SufIsize
	default:
		return ast.SufNone
	}
}
