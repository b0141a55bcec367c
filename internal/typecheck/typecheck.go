// Package typecheck walks the AST built by the parser, resolves names
// against a stack of lexical scopes, and decides a type for every
// expression. It borrows the AST read-only and owns only its scope stack
// and type tables for the duration of one check, per the component's
// ownership rule.
package typecheck

import (
	"fmt"

	"github.com/gmofishsauce/aura/internal/ast"
)

// Error is a structured type-checking diagnostic.
type Error struct {
	Message  string
	Location ast.Location
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

func newErr(loc ast.Location, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Location: loc}
}

// Mutability replaces the distilled spec's bare is_const bool with a
// clearly named enum, per the resolved "let vs const" design note: Let
// bindings are Mutable, Const bindings are Immutable.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

type binding struct {
	typ  *ast.Type
	mut  Mutability
}

type scope map[string]binding

// Context owns the scope stack and the struct/union/enum tables accumulated
// while checking one program.
type Context struct {
	scopes []scope

	structs map[string][]ast.StructField
	unions  map[string][]ast.UnionVariant
	enums   map[string][]ast.EnumVariant

	functions map[string]*ast.Type // name -> Func type, for Call resolution
	consts    map[string]*ast.Type
	vars      map[string]*ast.Type

	currentFunction string
	currentReturn   *ast.Type
}

func NewContext() *Context {
	return &Context{
		structs:   make(map[string][]ast.StructField),
		unions:    make(map[string][]ast.UnionVariant),
		enums:     make(map[string][]ast.EnumVariant),
		functions: make(map[string]*ast.Type),
		consts:    make(map[string]*ast.Type),
		vars:      make(map[string]*ast.Type),
	}
}

func (c *Context) pushScope() { c.scopes = append(c.scopes, scope{}) }
func (c *Context) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Context) addVariable(name string, t *ast.Type, m Mutability) {
	c.scopes[len(c.scopes)-1][name] = binding{typ: t, mut: m}
}

// lookup walks scopes from innermost to outermost, then falls back to
// top-level consts/vars/functions.
func (c *Context) lookup(name string) (binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b, true
		}
	}
	if t, ok := c.functions[name]; ok {
		return binding{typ: t, mut: Immutable}, true
	}
	if t, ok := c.consts[name]; ok {
		return binding{typ: t, mut: Immutable}, true
	}
	if t, ok := c.vars[name]; ok {
		return binding{typ: t, mut: Mutable}, true
	}
	return binding{}, false
}

// Check type-checks an entire program, registering struct/union/enum/
// function/const/var tables on a first top-level pass (so forward
// references resolve independent of declaration order), then checking
// every item's body. It halts and returns the first error encountered.
func Check(prog *ast.Program) error {
	c := NewContext()
	if err := c.buildTables(prog); err != nil {
		return err
	}
	for _, item := range prog.Items {
		if err := c.checkItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) buildTables(prog *ast.Program) error {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.Struct:
			if _, dup := c.structs[it.Name]; dup {
				return newErr(it.Loc(), "duplicate struct declaration %q", it.Name)
			}
			c.structs[it.Name] = it.Fields
		case *ast.Union:
			if _, dup := c.unions[it.Name]; dup {
				return newErr(it.Loc(), "duplicate union declaration %q", it.Name)
			}
			c.unions[it.Name] = it.Variants
		case *ast.Enum:
			if _, dup := c.enums[it.Name]; dup {
				return newErr(it.Loc(), "duplicate enum declaration %q", it.Name)
			}
			c.enums[it.Name] = it.Variants
		case *ast.Function:
			params := make([]*ast.Type, len(it.Params))
			for i, p := range it.Params {
				params[i] = p.Type
			}
			c.functions[it.Name] = ast.NewFunc(params, it.Ret)
		case *ast.ConstDecl:
			// type filled in during checkItem; reserve the slot now so
			// mutually referencing consts at least resolve to *something*.
			c.consts[it.Name] = nil
		case *ast.VarDecl:
			c.vars[it.Name] = nil
		}
	}
	return nil
}

func (c *Context) checkItem(item ast.Item) error {
	switch it := item.(type) {
	case *ast.Struct, *ast.Union, *ast.Enum:
		return nil
	case *ast.ConstDecl:
		t, err := c.checkExpr(it.Value)
		if err != nil {
			return err
		}
		t, err = resolveDeclaredType(it.Loc(), it.Type, t, it.Value, "const", it.Name)
		if err != nil {
			return err
		}
		c.consts[it.Name] = t
		return nil
	case *ast.VarDecl:
		t, err := c.checkExpr(it.Value)
		if err != nil {
			return err
		}
		t, err = resolveDeclaredType(it.Loc(), it.Type, t, it.Value, "var", it.Name)
		if err != nil {
			return err
		}
		c.vars[it.Name] = t
		return nil
	case *ast.Function:
		return c.checkFunction(it)
	}
	return newErr(item.Loc(), "unhandled item kind %T", item)
}

func (c *Context) checkFunction(fn *ast.Function) error {
	prevFn, prevRet := c.currentFunction, c.currentReturn
	c.currentFunction = fn.Name
	c.currentReturn = fn.Ret
	defer func() {
		c.currentFunction, c.currentReturn = prevFn, prevRet
	}()

	c.pushScope()
	defer c.popScope()
	for _, p := range fn.Params {
		c.addVariable(p.Name, p.Type, Immutable)
	}
	for _, s := range fn.Body {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) checkStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		t, err := c.checkExpr(st.Value)
		if err != nil {
			return err
		}
		t, err = resolveDeclaredType(st.Loc(), st.Type, t, st.Value, "let", st.Name)
		if err != nil {
			return err
		}
		c.addVariable(st.Name, t, Mutable)
		return nil
	case *ast.ConstStmt:
		t, err := c.checkExpr(st.Value)
		if err != nil {
			return err
		}
		t, err = resolveDeclaredType(st.Loc(), st.Type, t, st.Value, "const", st.Name)
		if err != nil {
			return err
		}
		c.addVariable(st.Name, t, Immutable)
		return nil
	case *ast.ExprStmt:
		_, err := c.checkExpr(st.X)
		return err
	case *ast.ReturnStmt:
		if st.Value == nil {
			if c.currentReturn != nil && c.currentReturn.Kind != ast.TVoid {
				return newErr(st.Loc(), "return without a value in function %q with declared return type %s", c.currentFunction, c.currentReturn)
			}
			return nil
		}
		t, err := c.checkExpr(st.Value)
		if err != nil {
			return err
		}
		if c.currentReturn != nil && !c.currentReturn.Equal(t) {
			return newErr(st.Loc(), "return type %s does not match function %q's declared return type %s", t, c.currentFunction, c.currentReturn)
		}
		return nil
	case *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	case *ast.BlockStmt:
		for _, inner := range st.Stmts {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		return nil
	case *ast.IfStmt:
		t, err := c.checkExpr(st.Cond)
		if err != nil {
			return err
		}
		if t.Kind != ast.TBool {
			return newErr(st.Loc(), "If condition must be bool")
		}
		for _, inner := range st.Then {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		for _, inner := range st.Else {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		return nil
	case *ast.WhileStmt:
		t, err := c.checkExpr(st.Cond)
		if err != nil {
			return err
		}
		if t.Kind != ast.TBool {
			return newErr(st.Loc(), "While condition must be bool")
		}
		for _, inner := range st.Body {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		return nil
	case *ast.ForStmt:
		if st.Init != nil {
			if err := c.checkStmt(st.Init); err != nil {
				return err
			}
		}
		if st.Cond != nil {
			t, err := c.checkExpr(st.Cond)
			if err != nil {
				return err
			}
			if t.Kind != ast.TBool {
				return newErr(st.Loc(), "For condition must be bool")
			}
		}
		if st.Update != nil {
			if err := c.checkStmt(st.Update); err != nil {
				return err
			}
		}
		for _, inner := range st.Body {
			if err := c.checkStmt(inner); err != nil {
				return err
			}
		}
		return nil
	case *ast.AsmStmt:
		return nil
	case *ast.DeferStmt:
		return c.checkStmt(st.Stmt)
	}
	return newErr(s.Loc(), "unhandled statement kind %T", s)
}

func (c *Context) checkExpr(e ast.Expr) (*ast.Type, error) {
	t, err := c.inferExpr(e)
	if err != nil {
		return nil, err
	}
	e.SetType(t)
	return t, nil
}

func (c *Context) inferExpr(e ast.Expr) (*ast.Type, error) {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return intSuffixType(x.Suffix), nil
	case *ast.FloatLiteral:
		if x.Suffix == ast.FSufF32 {
			return ast.F32(), nil
		}
		return ast.F64(), nil
	case *ast.BoolLiteral:
		return ast.Bool(), nil
	case *ast.StringLiteral:
		return ast.NewMutPtr(ast.U8()), nil
	case *ast.CharLiteral:
		return ast.U8(), nil
	case *ast.Ident:
		b, ok := c.lookup(x.Name)
		if !ok {
			return nil, newErr(x.Loc(), "undefined name %q", x.Name)
		}
		return b.typ, nil
	case *ast.UnaryExpr:
		return c.checkUnary(x)
	case *ast.BinaryExpr:
		return c.checkBinary(x)
	case *ast.AssignExpr:
		return c.checkAssign(x)
	case *ast.CastExpr:
		if _, err := c.checkExpr(x.X); err != nil {
			return nil, err
		}
		return x.Dest, nil
	case *ast.CallExpr:
		return c.checkCall(x)
	case *ast.SyscallExpr:
		for _, a := range x.Args {
			if _, err := c.checkExpr(a); err != nil {
				return nil, err
			}
		}
		return ast.Isize(), nil
	case *ast.IndexExpr:
		return c.checkIndex(x)
	case *ast.FieldExpr:
		return c.checkField(x)
	case *ast.PtrFieldExpr:
		return c.checkPtrField(x)
	case *ast.SizeofExpr, *ast.AlignofExpr, *ast.OffsetofExpr:
		return ast.Usize(), nil
	case *ast.BlockExpr:
		for _, inner := range x.Stmts {
			if err := c.checkStmt(inner); err != nil {
				return nil, err
			}
		}
		if x.Tail != nil {
			return c.checkExpr(x.Tail)
		}
		return ast.Void(), nil
	case *ast.IfExpr:
		ct, err := c.checkExpr(x.Cond)
		if err != nil {
			return nil, err
		}
		if ct.Kind != ast.TBool {
			return nil, newErr(x.Loc(), "If condition must be bool")
		}
		tt, err := c.checkExpr(x.Then)
		if err != nil {
			return nil, err
		}
		et, err := c.checkExpr(x.Else)
		if err != nil {
			return nil, err
		}
		if !tt.Equal(et) {
			return nil, newErr(x.Loc(), "if-expression branches have mismatched types %s and %s", tt, et)
		}
		return tt, nil
	case *ast.AllocExpr:
		if _, err := c.checkExpr(x.Count); err != nil {
			return nil, err
		}
		return ast.NewMutPtr(x.Elem), nil
	case *ast.FreeExpr:
		if _, err := c.checkExpr(x.Ptr); err != nil {
			return nil, err
		}
		if x.Size != nil {
			if _, err := c.checkExpr(x.Size); err != nil {
				return nil, err
			}
		}
		return ast.Void(), nil
	}
	return nil, newErr(e.Loc(), "unhandled expression kind %T", e)
}

// resolveDeclaredType reconciles a declared type against an initializer's
// inferred type for Let/Const/Var bindings. Exact equality is accepted
// outright. A suffixless integer literal initializer is additionally
// allowed to adopt an integer-kind declared type directly — including a
// BitInt declared width the defaulted i32 literal type could never equal —
// since the literal has no suffix pinning it to i32 in the first place; the
// suffix defaulting in checkExpr is only a fallback for when no declared
// type is in scope. Whether the literal's value actually fits the declared
// width is deliberately left to the code generator's own `IntType.Fits`
// check (codegen.go), not re-verified here: `let x: u5 = 17;` type-checks
// and reaches codegen, while `let x: u5 = 32;` also type-checks but fails
// during code generation with "does not fit in type".
func resolveDeclaredType(loc ast.Location, declared, inferred *ast.Type, value ast.Expr, kind, name string) (*ast.Type, error) {
	if declared == nil {
		return inferred, nil
	}
	if declared.Equal(inferred) {
		return declared, nil
	}
	if lit, ok := value.(*ast.IntLiteral); ok && lit.Suffix == ast.SufNone && declared.IsInteger() {
		// the literal itself (not just the binding) now carries the
		// declared width, so codegen's own fit/mask logic (which reads
		// the literal expression's resolved Type) sees u5 rather than
		// the suffixless default of i32.
		value.SetType(declared)
		return declared, nil
	}
	return nil, newErr(loc, "%s %q: declared type %s does not match initializer type %s", kind, name, declared, inferred)
}

func intSuffixType(s ast.IntSuffix) *ast.Type {
	switch s {
	case ast.SufI8:
		return ast.I8()
	case ast.SufI16:
		return ast.I16()
	case ast.SufI32:
		return ast.I32()
	case ast.SufI64:
		return ast.I64()
	case ast.SufU8:
		return ast.U8()
	case ast.SufU16:
		return ast.U16()
	case ast.SufU32:
		return ast.U32()
	case ast.SufU64:
		return ast.U64()
	case ast.SufUsize:
		return ast.Usize()
	case ast.SufIsize:
		return ast.Isize()
	default:
		return ast.I32()
	}
}

func (c *Context) checkUnary(x *ast.UnaryExpr) (*ast.Type, error) {
	t, err := c.checkExpr(x.X)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.OpNeg:
		if !t.IsInteger() && !t.IsFloat() {
			return nil, newErr(x.Loc(), "unary - requires an integer or float operand, got %s", t)
		}
		return t, nil
	case ast.OpNot:
		if t.Kind != ast.TBool {
			return nil, newErr(x.Loc(), "unary ! requires a bool operand, got %s", t)
		}
		return ast.Bool(), nil
	case ast.OpBitNot:
		if !t.IsInteger() {
			return nil, newErr(x.Loc(), "unary ~ requires an integer operand, got %s", t)
		}
		return t, nil
	case ast.OpDerefOp:
		if !t.IsPointer() {
			return nil, newErr(x.Loc(), "unary * requires a pointer operand, got %s", t)
		}
		return t.Elem, nil
	case ast.OpAddrOf:
		return ast.NewMutPtr(t), nil
	}
	return nil, newErr(x.Loc(), "unhandled unary operator")
}

func (c *Context) checkBinary(x *ast.BinaryExpr) (*ast.Type, error) {
	lt, err := c.checkExpr(x.Left)
	if err != nil {
		return nil, err
	}
	rt, err := c.checkExpr(x.Right)
	if err != nil {
		return nil, err
	}
	if x.Op.IsLogical() {
		if lt.Kind != ast.TBool || rt.Kind != ast.TBool {
			return nil, newErr(x.Loc(), "operator %s requires bool operands, got %s and %s", x.Op, lt, rt)
		}
		return ast.Bool(), nil
	}
	if x.Op.IsComparison() {
		bothInt := lt.IsInteger() && rt.IsInteger()
		bothFloat := lt.IsFloat() && rt.IsFloat()
		if !bothInt && !bothFloat {
			return nil, newErr(x.Loc(), "operator %s requires matching-kind operands, got %s and %s", x.Op, lt, rt)
		}
		return ast.Bool(), nil
	}
	// arithmetic / shift / bitwise
	bothInt := lt.IsInteger() && rt.IsInteger()
	bothFloat := lt.IsFloat() && rt.IsFloat()
	arithOnly := x.Op == ast.OpAdd || x.Op == ast.OpSub || x.Op == ast.OpMul || x.Op == ast.OpDiv || x.Op == ast.OpMod
	if bothInt || (arithOnly && bothFloat) {
		return lt, nil
	}
	return nil, newErr(x.Loc(), "operator %s requires compatible operand kinds, got %s and %s", x.Op, lt, rt)
}

func (c *Context) checkAssign(x *ast.AssignExpr) (*ast.Type, error) {
	rt, err := c.checkExpr(x.Rhs)
	if err != nil {
		return nil, err
	}
	lt, err := c.checkExpr(x.Lhs)
	if err != nil {
		return nil, err
	}
	if !lt.Equal(rt) {
		return nil, newErr(x.Loc(), "cannot assign value of type %s to binding of type %s", rt, lt)
	}
	switch lhs := x.Lhs.(type) {
	case *ast.Ident:
		b, _ := c.lookup(lhs.Name)
		if b.mut != Mutable {
			return nil, newErr(x.Loc(), "cannot assign to immutable binding %q", lhs.Name)
		}
	case *ast.FieldExpr, *ast.PtrFieldExpr, *ast.IndexExpr, *ast.UnaryExpr:
		// field/ptr-field/index/dereference targets are always assignable
		// once they type-check; a UnaryExpr here must be a dereference.
		if u, ok := x.Lhs.(*ast.UnaryExpr); ok && u.Op != ast.OpDerefOp {
			return nil, newErr(x.Loc(), "invalid assignment target")
		}
	default:
		return nil, newErr(x.Loc(), "invalid assignment target")
	}
	return lt, nil
}

func (c *Context) checkCall(x *ast.CallExpr) (*ast.Type, error) {
	ft, err := c.checkExpr(x.Callee)
	if err != nil {
		return nil, err
	}
	if ft.Kind != ast.TFunc {
		return nil, newErr(x.Loc(), "cannot call non-function type %s", ft)
	}
	if len(ft.Params) != len(x.Args) {
		return nil, newErr(x.Loc(), "call expects %d arguments, got %d", len(ft.Params), len(x.Args))
	}
	for i, a := range x.Args {
		at, err := c.checkExpr(a)
		if err != nil {
			return nil, err
		}
		if !at.Equal(ft.Params[i]) {
			return nil, newErr(a.Loc(), "argument %d: expected type %s, got %s", i, ft.Params[i], at)
		}
	}
	return ft.Ret, nil
}

func (c *Context) checkIndex(x *ast.IndexExpr) (*ast.Type, error) {
	t, err := c.checkExpr(x.X)
	if err != nil {
		return nil, err
	}
	it, err := c.checkExpr(x.Index)
	if err != nil {
		return nil, err
	}
	if !it.IsInteger() {
		return nil, newErr(x.Loc(), "index must be an integer, got %s", it)
	}
	switch t.Kind {
	case ast.TArray:
		return t.Elem, nil
	case ast.TPtr, ast.TMutPtr, ast.TConstPtr:
		return t.Elem, nil
	}
	return nil, newErr(x.Loc(), "cannot index non-array, non-pointer type %s", t)
}

func (c *Context) checkField(x *ast.FieldExpr) (*ast.Type, error) {
	t, err := c.checkExpr(x.X)
	if err != nil {
		return nil, err
	}
	if t.Kind != ast.TNamed {
		return nil, newErr(x.Loc(), "field access requires a struct type, got %s", t)
	}
	fields, ok := c.structs[t.Name]
	if !ok {
		return nil, newErr(x.Loc(), "unknown struct %q", t.Name)
	}
	for _, f := range fields {
		if f.Name == x.Field {
			return f.Type, nil
		}
	}
	return nil, newErr(x.Loc(), "unknown field %q on struct %q", x.Field, t.Name)
}

func (c *Context) checkPtrField(x *ast.PtrFieldExpr) (*ast.Type, error) {
	t, err := c.checkExpr(x.X)
	if err != nil {
		return nil, err
	}
	if !t.IsPointer() || t.Elem.Kind != ast.TNamed {
		return nil, newErr(x.Loc(), "-> requires a pointer to struct, got %s", t)
	}
	fields, ok := c.structs[t.Elem.Name]
	if !ok {
		return nil, newErr(x.Loc(), "unknown struct %q", t.Elem.Name)
	}
	for _, f := range fields {
		if f.Name == x.Field {
			return f.Type, nil
		}
	}
	return nil, newErr(x.Loc(), "unknown field %q on struct %q", x.Field, t.Elem.Name)
}
