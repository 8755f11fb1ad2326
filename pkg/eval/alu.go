package eval

import (
	"fmt"
	"math"
	"strconv"

	"lark/pkg/ast"
)

// Arithmetic, comparison and conversion semantics are centralized here.
// Operands never mix tags: i64 with f64 is an error the user resolves
// with an explicit cast. All i64 arithmetic is checked; f64 arithmetic
// follows IEEE-754 and lets NaN and infinities propagate.

func typeMismatch(op string, a, b Value) error {
	return fmt.Errorf("Cannot perform %s between values of type '%s' and '%s'.", op, a.Kind(), b.Kind())
}

func overflow(op string) error {
	return fmt.Errorf("Overflow occurred when performing %s on i64s.", op)
}

func add(a, b Value) (Value, error) {
	switch x := a.(type) {
	case *Integer:
		if y, ok := b.(*Integer); ok {
			if (y.Value > 0 && x.Value > math.MaxInt64-y.Value) ||
				(y.Value < 0 && x.Value < math.MinInt64-y.Value) {
				return nil, overflow("addition")
			}
			return &Integer{Value: x.Value + y.Value}, nil
		}
	case *Float:
		if y, ok := b.(*Float); ok {
			return &Float{Value: x.Value + y.Value}, nil
		}
	case *String:
		if y, ok := b.(*String); ok {
			return &String{Value: x.Value + y.Value}, nil
		}
	}
	return nil, typeMismatch("addition", a, b)
}

func subtract(a, b Value) (Value, error) {
	switch x := a.(type) {
	case *Integer:
		if y, ok := b.(*Integer); ok {
			if (y.Value < 0 && x.Value > math.MaxInt64+y.Value) ||
				(y.Value > 0 && x.Value < math.MinInt64+y.Value) {
				return nil, overflow("subtraction")
			}
			return &Integer{Value: x.Value - y.Value}, nil
		}
	case *Float:
		if y, ok := b.(*Float); ok {
			return &Float{Value: x.Value - y.Value}, nil
		}
	}
	return nil, typeMismatch("subtraction", a, b)
}

func multiply(a, b Value) (Value, error) {
	switch x := a.(type) {
	case *Integer:
		if y, ok := b.(*Integer); ok {
			if x.Value != 0 && y.Value != 0 {
				if (x.Value == math.MinInt64 && y.Value == -1) || (y.Value == math.MinInt64 && x.Value == -1) {
					return nil, overflow("multiplication")
				}
				result := x.Value * y.Value
				if result/y.Value != x.Value {
					return nil, overflow("multiplication")
				}
				return &Integer{Value: result}, nil
			}
			return &Integer{}, nil
		}
	case *Float:
		if y, ok := b.(*Float); ok {
			return &Float{Value: x.Value * y.Value}, nil
		}
	}
	return nil, typeMismatch("multiplication", a, b)
}

func divide(a, b Value) (Value, error) {
	switch x := a.(type) {
	case *Integer:
		if y, ok := b.(*Integer); ok {
			if y.Value == 0 {
				return nil, fmt.Errorf("Division by zero.")
			}
			if x.Value == math.MinInt64 && y.Value == -1 {
				return nil, overflow("division")
			}
			return &Integer{Value: x.Value / y.Value}, nil
		}
	case *Float:
		if y, ok := b.(*Float); ok {
			return &Float{Value: x.Value / y.Value}, nil
		}
	}
	return nil, typeMismatch("division", a, b)
}

func arithmeticNegate(v Value) (Value, error) {
	switch x := v.(type) {
	case *Integer:
		if x.Value == math.MinInt64 {
			return nil, overflow("arithmetic negation")
		}
		return &Integer{Value: -x.Value}, nil
	case *Float:
		return &Float{Value: -x.Value}, nil
	}
	return nil, fmt.Errorf("Cannot perform arithmetic negation on type '%s'.", v.Kind())
}

func booleanNegate(v Value) (Value, error) {
	if x, ok := v.(*Boolean); ok {
		return &Boolean{Value: !x.Value}, nil
	}
	return nil, fmt.Errorf("Cannot perform boolean negation on type '%s'.", v.Kind())
}

// concatenation is the non-short-circuit half of '&&'; the interpreter
// only reaches it after the left operand came out true.
func concatenation(a, b Value) (Value, error) {
	x, ok1 := a.(*Boolean)
	y, ok2 := b.(*Boolean)
	if !ok1 || !ok2 {
		return nil, typeMismatch("concatenation", a, b)
	}
	return &Boolean{Value: x.Value && y.Value}, nil
}

// alternative is the non-short-circuit half of '||'.
func alternative(a, b Value) (Value, error) {
	x, ok1 := a.(*Boolean)
	y, ok2 := b.(*Boolean)
	if !ok1 || !ok2 {
		return nil, typeMismatch("alternative", a, b)
	}
	return &Boolean{Value: x.Value || y.Value}, nil
}

// compare handles the relational layer. Ordering is defined for i64, f64
// and str (lexicographic by code units); equality additionally for bool.
func compare(op string, a, b Value) (Value, error) {
	opName := map[string]string{
		"<":  "less",
		"<=": "less or equal",
		">":  "greater",
		">=": "greater or equal",
		"==": "equal",
		"!=": "not equal",
	}[op]

	if a.Kind() != b.Kind() {
		return nil, typeMismatch(opName, a, b)
	}

	var less, equal bool
	switch x := a.(type) {
	case *Integer:
		y := b.(*Integer)
		less, equal = x.Value < y.Value, x.Value == y.Value
	case *Float:
		y := b.(*Float)
		less, equal = x.Value < y.Value, x.Value == y.Value
	case *String:
		y := b.(*String)
		less, equal = x.Value < y.Value, x.Value == y.Value
	case *Boolean:
		if op != "==" && op != "!=" {
			return nil, typeMismatch(opName, a, b)
		}
		equal = x.Value == b.(*Boolean).Value
	}

	var result bool
	switch op {
	case "<":
		result = less
	case "<=":
		result = less || equal
	case ">":
		result = !less && !equal
	case ">=":
		result = !less
	case "==":
		result = equal
	case "!=":
		result = !equal
	}
	return &Boolean{Value: result}, nil
}

// castToType implements 'as'. A cast to the value's own type is a no-op.
func castToType(v Value, to ast.Type) (Value, error) {
	if matches(to, v) {
		return v, nil
	}

	switch x := v.(type) {
	case *Integer:
		switch to {
		case ast.F64:
			return &Float{Value: float64(x.Value)}, nil
		case ast.Str:
			return &String{Value: strconv.FormatInt(x.Value, 10)}, nil
		case ast.Bool:
			return &Boolean{Value: x.Value > 0}, nil
		}
	case *Float:
		switch to {
		case ast.I64:
			trunc := math.Trunc(x.Value)
			if math.IsNaN(trunc) || trunc < math.MinInt64 || trunc >= math.MaxInt64 {
				return nil, fmt.Errorf("Cannot cast f64 '%s' to 'i64'.", x.Inspect())
			}
			return &Integer{Value: int64(trunc)}, nil
		case ast.Str:
			return &String{Value: x.Inspect()}, nil
		case ast.Bool:
			return &Boolean{Value: x.Value > 0}, nil
		}
	case *String:
		switch to {
		case ast.I64:
			n, err := strconv.ParseInt(x.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("Cannot cast String '%s' to 'i64'.", x.Value)
			}
			return &Integer{Value: n}, nil
		case ast.F64:
			f, err := strconv.ParseFloat(x.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("Cannot cast String '%s' to 'f64'.", x.Value)
			}
			return &Float{Value: f}, nil
		case ast.Bool:
			return &Boolean{Value: x.Value != ""}, nil
		}
	case *Boolean:
		if to == ast.Str {
			return &String{Value: x.Inspect()}, nil
		}
	}
	return nil, fmt.Errorf("Cannot cast '%s' to '%s'.", v.Kind(), to)
}
