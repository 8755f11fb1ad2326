package ast

import (
	"testing"

	"lark/pkg/token"
)

func TestString(t *testing.T) {
	program := &Program{
		Statements: []Statement{
			&DeclareStatement{
				Type: I64,
				Name: "x",
				Value: &InfixExpression{
					Operator: "+",
					Left:     &IntLiteral{Token: token.Token{Literal: "1"}, Value: 1},
					Right:    &IntLiteral{Token: token.Token{Literal: "2"}, Value: 2},
				},
			},
			&IfStatement{
				Condition: &InfixExpression{
					Operator: "<",
					Left:     &Identifier{Name: "x"},
					Right:    &IntLiteral{Token: token.Token{Literal: "5"}, Value: 5},
				},
				Then: &Block{
					Statements: []Statement{
						&CallStatement{
							Call: &CallExpression{
								Name: "print",
								Arguments: []*Argument{
									{Value: &CastExpression{
										Value: &Identifier{Name: "x"},
										To:    Str,
									}},
								},
							},
						},
					},
				},
			},
		},
	}

	want := "i64 x = (1 + 2);\nif ((x < 5)) { print((x as str)); }\n"
	if program.String() != want {
		t.Errorf("program.String() wrong.\nexpected=%q\ngot=%q", want, program.String())
	}
}

func TestParamAndArgumentString(t *testing.T) {
	param := &Param{ByRef: true, Type: I64, Name: "c"}
	if param.String() != "&i64 c" {
		t.Errorf("param.String() wrong. expected=%q, got=%q", "&i64 c", param.String())
	}

	arg := &Argument{ByRef: true, Value: &Identifier{Name: "c"}}
	if arg.String() != "&c" {
		t.Errorf("arg.String() wrong. expected=%q, got=%q", "&c", arg.String())
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		ty   Type
		want string
	}{
		{I64, "i64"},
		{F64, "f64"},
		{Str, "str"},
		{Bool, "bool"},
		{Void, "void"},
	}
	for i, tt := range tests {
		if tt.ty.String() != tt.want {
			t.Errorf("tests[%d] - type string wrong. expected=%q, got=%q", i, tt.want, tt.ty.String())
		}
	}
}
