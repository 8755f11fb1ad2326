package eval

import (
	"math"
	"testing"

	"lark/pkg/ast"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected Value
	}{
		{&Integer{Value: 1}, &Integer{Value: 2}, &Integer{Value: 3}},
		{&Float{Value: 1.5}, &Float{Value: 2.5}, &Float{Value: 4.0}},
		{&String{Value: "foo"}, &String{Value: "bar"}, &String{Value: "foobar"}},
	}

	for i, tt := range tests {
		got, err := add(tt.a, tt.b)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if got.Inspect() != tt.expected.Inspect() || got.Kind() != tt.expected.Kind() {
			t.Fatalf("tests[%d] - wrong result. expected=%s, got=%s", i, tt.expected.Inspect(), got.Inspect())
		}
	}
}

func TestAddFail(t *testing.T) {
	_, err := add(&Integer{Value: 6532475327647647762}, &Integer{Value: 6532475327647647762})
	if err == nil || err.Error() != "Overflow occurred when performing addition on i64s." {
		t.Fatalf("wrong overflow error: %v", err)
	}

	_, err = add(&Integer{Value: 1}, &Float{Value: 2.0})
	if err == nil || err.Error() != "Cannot perform addition between values of type 'i64' and 'f64'." {
		t.Fatalf("wrong mismatch error: %v", err)
	}
}

func TestSubtract(t *testing.T) {
	got, err := subtract(&Integer{Value: 1}, &Integer{Value: 2})
	if err != nil || got.(*Integer).Value != -1 {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	_, err = subtract(&Integer{Value: -6532475327647647762}, &Integer{Value: 6532475327647647762})
	if err == nil || err.Error() != "Overflow occurred when performing subtraction on i64s." {
		t.Fatalf("wrong overflow error: %v", err)
	}

	_, err = subtract(&String{Value: "a"}, &String{Value: "a"})
	if err == nil || err.Error() != "Cannot perform subtraction between values of type 'str' and 'str'." {
		t.Fatalf("wrong mismatch error: %v", err)
	}
}

func TestMultiply(t *testing.T) {
	got, err := multiply(&Integer{Value: 3}, &Integer{Value: 4})
	if err != nil || got.(*Integer).Value != 12 {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	got, err = multiply(&Integer{Value: 5}, &Integer{Value: 0})
	if err != nil || got.(*Integer).Value != 0 {
		t.Fatalf("wrong zero result: %v, %v", got, err)
	}

	_, err = multiply(&Integer{Value: 6532475327647647762}, &Integer{Value: 6532475327647647762})
	if err == nil || err.Error() != "Overflow occurred when performing multiplication on i64s." {
		t.Fatalf("wrong overflow error: %v", err)
	}

	_, err = multiply(&Integer{Value: math.MinInt64}, &Integer{Value: -1})
	if err == nil {
		t.Fatalf("expected overflow for MinInt64 * -1")
	}
}

func TestDivide(t *testing.T) {
	got, err := divide(&Integer{Value: 7}, &Integer{Value: 2})
	if err != nil || got.(*Integer).Value != 3 {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	_, err = divide(&Integer{Value: 1}, &Integer{Value: 0})
	if err == nil || err.Error() != "Division by zero." {
		t.Fatalf("wrong zero-division error: %v", err)
	}

	_, err = divide(&Integer{Value: math.MinInt64}, &Integer{Value: -1})
	if err == nil || err.Error() != "Overflow occurred when performing division on i64s." {
		t.Fatalf("wrong overflow error: %v", err)
	}

	// f64 division follows IEEE-754; dividing by zero is not an error.
	got, err = divide(&Float{Value: 1.0}, &Float{Value: 0.0})
	if err != nil || !math.IsInf(got.(*Float).Value, 1) {
		t.Fatalf("expected +Inf, got %v, %v", got, err)
	}
}

func TestNegation(t *testing.T) {
	got, err := arithmeticNegate(&Integer{Value: 5})
	if err != nil || got.(*Integer).Value != -5 {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	got, err = arithmeticNegate(&Float{Value: -2.5})
	if err != nil || got.(*Float).Value != 2.5 {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	_, err = arithmeticNegate(&Integer{Value: math.MinInt64})
	if err == nil {
		t.Fatalf("expected overflow negating MinInt64")
	}

	_, err = arithmeticNegate(&String{Value: "abc"})
	if err == nil || err.Error() != "Cannot perform arithmetic negation on type 'str'." {
		t.Fatalf("wrong error: %v", err)
	}

	got, err = booleanNegate(&Boolean{Value: true})
	if err != nil || got.(*Boolean).Value {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	_, err = booleanNegate(&Integer{Value: 1})
	if err == nil || err.Error() != "Cannot perform boolean negation on type 'i64'." {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestLogical(t *testing.T) {
	got, err := concatenation(&Boolean{Value: true}, &Boolean{Value: false})
	if err != nil || got.(*Boolean).Value {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	got, err = alternative(&Boolean{Value: false}, &Boolean{Value: true})
	if err != nil || !got.(*Boolean).Value {
		t.Fatalf("wrong result: %v, %v", got, err)
	}

	_, err = concatenation(&Boolean{Value: true}, &Integer{Value: 1})
	if err == nil || err.Error() != "Cannot perform concatenation between values of type 'bool' and 'i64'." {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op       string
		a, b     Value
		expected bool
	}{
		{"<", &Integer{Value: 1}, &Integer{Value: 2}, true},
		{"<=", &Integer{Value: 2}, &Integer{Value: 2}, true},
		{">", &Integer{Value: 2}, &Integer{Value: 2}, false},
		{">=", &Integer{Value: 3}, &Integer{Value: 2}, true},
		{"==", &Integer{Value: 2}, &Integer{Value: 2}, true},
		{"!=", &Integer{Value: 2}, &Integer{Value: 2}, false},
		{"<", &Float{Value: 1.5}, &Float{Value: 2.5}, true},
		{">=", &Float{Value: 2.5}, &Float{Value: 2.5}, true},
		{"<", &String{Value: "abc"}, &String{Value: "abd"}, true},
		{">", &String{Value: "b"}, &String{Value: "ab"}, true},
		{"==", &String{Value: "a"}, &String{Value: "a"}, true},
		{"==", &Boolean{Value: true}, &Boolean{Value: true}, true},
		{"!=", &Boolean{Value: true}, &Boolean{Value: false}, true},
	}

	for i, tt := range tests {
		got, err := compare(tt.op, tt.a, tt.b)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if got.(*Boolean).Value != tt.expected {
			t.Fatalf("tests[%d] - wrong result for %s %s %s. expected=%t",
				i, tt.a.Inspect(), tt.op, tt.b.Inspect(), tt.expected)
		}
	}
}

func TestCompareFail(t *testing.T) {
	_, err := compare("<", &Integer{Value: 1}, &Float{Value: 2.0})
	if err == nil || err.Error() != "Cannot perform less between values of type 'i64' and 'f64'." {
		t.Fatalf("wrong error: %v", err)
	}

	_, err = compare("<", &Boolean{Value: true}, &Boolean{Value: false})
	if err == nil {
		t.Fatalf("expected error ordering booleans")
	}
}

func TestCast(t *testing.T) {
	tests := []struct {
		value    Value
		to       ast.Type
		expected string
		kind     Kind
	}{
		{&Integer{Value: 1}, ast.Str, "1", KindString},
		{&Float{Value: 1.5}, ast.Str, "1.5", KindString},
		{&Integer{Value: 1}, ast.F64, "1", KindFloat},
		{&Float{Value: 1.5}, ast.I64, "1", KindInt},
		{&Float{Value: -1.5}, ast.I64, "-1", KindInt},
		{&Integer{Value: 1}, ast.Bool, "true", KindBool},
		{&Integer{Value: 0}, ast.Bool, "false", KindBool},
		{&Integer{Value: -3}, ast.Bool, "false", KindBool},
		{&Float{Value: 1.5}, ast.Bool, "true", KindBool},
		{&Float{Value: 0.0}, ast.Bool, "false", KindBool},
		{&String{Value: "12"}, ast.I64, "12", KindInt},
		{&String{Value: "1.5"}, ast.F64, "1.5", KindFloat},
		{&String{Value: "some string"}, ast.Bool, "true", KindBool},
		{&String{Value: ""}, ast.Bool, "false", KindBool},
		// Same-type casts are no-ops.
		{&Integer{Value: 7}, ast.I64, "7", KindInt},
		{&String{Value: "s"}, ast.Str, "s", KindString},
		{&Boolean{Value: true}, ast.Bool, "true", KindBool},
	}

	for i, tt := range tests {
		got, err := castToType(tt.value, tt.to)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if got.Inspect() != tt.expected || got.Kind() != tt.kind {
			t.Fatalf("tests[%d] - wrong result. expected=%s (%s), got=%s (%s)",
				i, tt.expected, tt.kind, got.Inspect(), got.Kind())
		}
	}
}

func TestCastFail(t *testing.T) {
	_, err := castToType(&String{Value: "abc"}, ast.I64)
	if err == nil || err.Error() != "Cannot cast String 'abc' to 'i64'." {
		t.Fatalf("wrong error: %v", err)
	}

	_, err = castToType(&String{Value: "abc"}, ast.F64)
	if err == nil || err.Error() != "Cannot cast String 'abc' to 'f64'." {
		t.Fatalf("wrong error: %v", err)
	}

	_, err = castToType(&Float{Value: 1e19}, ast.I64)
	if err == nil {
		t.Fatalf("expected range error casting 1e19 to i64")
	}

	_, err = castToType(&Float{Value: math.NaN()}, ast.I64)
	if err == nil {
		t.Fatalf("expected error casting NaN to i64")
	}
}

func TestFloatInspectRoundTrips(t *testing.T) {
	values := []float64{0, 1.5, -2.25, 0.1, 1e21, 1.0 / 3.0}
	for i, v := range values {
		f := &Float{Value: v}
		back, err := castToType(&String{Value: f.Inspect()}, ast.F64)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if back.(*Float).Value != v {
			t.Fatalf("tests[%d] - round trip failed for %g: got %g", i, v, back.(*Float).Value)
		}
	}
}
