// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

// True and False are the boolean literals.
var (
	True  = NewLiteral(DBoolTrue)
	False = NewLiteral(DBoolFalse)
)

// NewIntLiteral returns an integer literal.
func NewIntLiteral(i int64) *Literal {
	return NewLiteral(DInt(i))
}

// NewStringLiteral returns a string literal.
func NewStringLiteral(s string) *Literal {
	return NewLiteral(DString(s))
}

// NewEq returns eq(left, right).
func NewEq(left, right ScalarExpr) ScalarExpr {
	return NewBinary(Eq, left, right)
}

// NewNot returns not(e).
func NewNot(e ScalarExpr) ScalarExpr {
	return NewUnary(Not, e)
}

// NewIsNull returns isnull(e).
func NewIsNull(e ScalarExpr) ScalarExpr {
	return NewUnary(IsNullFunc, e)
}

// NewIsNotNull returns not(isnull(e)).
func NewIsNotNull(e ScalarExpr) ScalarExpr {
	return NewNot(NewIsNull(e))
}

// NewAnd returns the conjunction of exprs. Nested conjunctions are flattened,
// true arms are dropped, and a single remaining arm is returned as is.
func NewAnd(exprs ...ScalarExpr) ScalarExpr {
	return newJunction(AndFunc, exprs)
}

// NewOr returns the disjunction of exprs, simplified like NewAnd.
func NewOr(exprs ...ScalarExpr) ScalarExpr {
	return newJunction(OrFunc, exprs)
}

func newJunction(f VariadicFunc, exprs []ScalarExpr) ScalarExpr {
	identity, absorbing := True, False
	if f == OrFunc {
		identity, absorbing = False, True
	}
	var arms []ScalarExpr
	for _, e := range exprs {
		if v, ok := e.(*CallVariadic); ok && v.Func == f {
			arms = append(arms, v.Exprs...)
			continue
		}
		arms = append(arms, e)
	}
	out := arms[:0]
	for _, e := range arms {
		switch {
		case Equal(e, identity):
			continue
		case Equal(e, absorbing):
			return absorbing
		}
		if !Contains(out, e) {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return identity
	case 1:
		return out[0]
	}
	return NewVariadic(f, out...)
}

// AsColumn returns the column index if e is a column reference.
func AsColumn(e ScalarExpr) (int, bool) {
	if c, ok := e.(*Column); ok {
		return c.Idx, true
	}
	return 0, false
}

// IsLiteral returns true if e is a literal.
func IsLiteral(e ScalarExpr) bool {
	_, ok := e.(*Literal)
	return ok
}

// IsLiteralNull returns true if e is a NULL literal.
func IsLiteralNull(e ScalarExpr) bool {
	l, ok := e.(*Literal)
	return ok && l.Datum == DNull
}

// IsLiteralTrue returns true if e is the literal true.
func IsLiteralTrue(e ScalarExpr) bool {
	l, ok := e.(*Literal)
	return ok && l.Datum == DBoolTrue
}

// IsLiteralFalse returns true if e is the literal false.
func IsLiteralFalse(e ScalarExpr) bool {
	l, ok := e.(*Literal)
	return ok && l.Datum == DBoolFalse
}

// AsIsNotNullColumn returns the column c if e is not(isnull(#c)).
func AsIsNotNullColumn(e ScalarExpr) (int, bool) {
	n, ok := e.(*CallUnary)
	if !ok || n.Func != Not {
		return 0, false
	}
	in, ok := n.Expr.(*CallUnary)
	if !ok || in.Func != IsNullFunc {
		return 0, false
	}
	return AsColumn(in.Expr)
}

// Conjuncts returns the arms of e if it is a conjunction, or e itself.
func Conjuncts(e ScalarExpr) []ScalarExpr {
	if v, ok := e.(*CallVariadic); ok && v.Func == AndFunc {
		return v.Exprs
	}
	return []ScalarExpr{e}
}

// Simplify applies a few local simplifications: it flattens conjunctions and
// disjunctions, drops double negation and folds negated or null-tested
// literals.
func Simplify(e ScalarExpr) ScalarExpr {
	return ReplacePostOrder(e, func(e ScalarExpr) ScalarExpr {
		switch t := e.(type) {
		case *CallUnary:
			if t.Func == Not {
				if in, ok := t.Expr.(*CallUnary); ok && in.Func == Not {
					return in.Expr
				}
				switch {
				case IsLiteralTrue(t.Expr):
					return False
				case IsLiteralFalse(t.Expr):
					return True
				}
			}
			if t.Func == IsNullFunc {
				if l, ok := t.Expr.(*Literal); ok {
					if l.Datum == DNull {
						return True
					}
					return False
				}
			}
		case *CallVariadic:
			if t.Func == AndFunc || t.Func == OrFunc {
				return newJunction(t.Func, append([]ScalarExpr(nil), t.Exprs...))
			}
		}
		return e
	})
}
