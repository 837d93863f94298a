package dbstore

import "fmt"

// Op is a comparison operator in the internal filter sum type. The
// decorated-string sugar from the original design (col, !col, col<, col?,
// col~, col[], ...) is parsed into this sum type at the boundary and never
// carried past it, except inside the restapi adapter, which must speak the
// decorated form over the wire to its BaaS backend.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
	OpIs
	OpNotIs
	OpLike
	OpILike
	OpIn
)

// Filter is one clause: Column Op Value. Value is ignored for OpIs/OpNotIs
// when representing NULL checks driven by a nil Value, and is a slice for
// OpIn.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds a "col = value" filter. A nil value automatically switches to
// IS NULL, per the rule that NULL operands flip = to IS NULL.
func Eq(col string, value any) Filter {
	if value == nil {
		return Filter{Column: col, Op: OpIs, Value: nil}
	}
	return Filter{Column: col, Op: OpEq, Value: value}
}

// Neq builds a "col <> value" filter. A nil value flips to IS NOT NULL.
func Neq(col string, value any) Filter {
	if value == nil {
		return Filter{Column: col, Op: OpNotIs, Value: nil}
	}
	return Filter{Column: col, Op: OpNeq, Value: value}
}

func Lt(col string, value any) Filter  { return Filter{Column: col, Op: OpLt, Value: value} }
func Gt(col string, value any) Filter  { return Filter{Column: col, Op: OpGt, Value: value} }
func Lte(col string, value any) Filter { return Filter{Column: col, Op: OpLte, Value: value} }
func Gte(col string, value any) Filter { return Filter{Column: col, Op: OpGte, Value: value} }

// Is builds a "col IS value" filter (value is typically nil for NULL checks).
func Is(col string, value any) Filter { return Filter{Column: col, Op: OpIs, Value: value} }

// NotIs builds a "NOT (col IS value)" filter.
func NotIs(col string, value any) Filter { return Filter{Column: col, Op: OpNotIs, Value: value} }

// Like builds a "col LIKE value" filter.
func Like(col, value string) Filter { return Filter{Column: col, Op: OpLike, Value: value} }

// ILike builds a case-insensitive "col ILIKE value" filter.
func ILike(col, value string) Filter { return Filter{Column: col, Op: OpILike, Value: value} }

// In builds a "col IN (values...)" filter. An empty values slice compiles
// to a clause that matches nothing (FALSE), never to a missing WHERE term.
func In(col string, values []any) Filter { return Filter{Column: col, Op: OpIn, Value: values} }

// Order is one ORDER BY term, applied in the sequence given.
type Order struct {
	Column    string
	Direction Direction
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// decoratedKey renders the decorated-string form of a filter's column+op,
// used only by the restapi adapter's query-parameter encoding (Design
// Notes §9: the decorated-string form survives only at the adapter
// boundary).
func decoratedKey(f Filter) (string, error) {
	switch f.Op {
	case OpEq:
		return f.Column, nil
	case OpNeq:
		return "!" + f.Column, nil
	case OpLt:
		return f.Column + "<", nil
	case OpGt:
		return f.Column + ">", nil
	case OpLte:
		return f.Column + "<=", nil
	case OpGte:
		return f.Column + ">=", nil
	case OpIs:
		return f.Column + "?", nil
	case OpNotIs:
		return "!" + f.Column + ":is", nil
	case OpLike:
		return f.Column + "~", nil
	case OpILike:
		return f.Column + "~~", nil
	case OpIn:
		return f.Column + "[]", nil
	default:
		return "", fmt.Errorf("dbstore: unknown op %d for column %s", f.Op, f.Column)
	}
}
