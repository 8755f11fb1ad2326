// Package semantic validates call sites: callee existence, arity, and
// by-reference argument shape. The analyzer never stops at the first
// problem; it accumulates every diagnostic and reports them together.
package semantic

import (
	"lark/pkg/ast"
	"lark/pkg/diag"
)

type stdSignature struct {
	params   int
	variadic bool
}

// The three built-ins. None takes a reference parameter.
var stdFunctions = map[string]stdSignature{
	"print": {variadic: true},
	"input": {params: 1},
	"mod":   {params: 2},
}

type Analyzer struct {
	program *ast.Program
	diags   []*diag.Diagnostic
}

func New(program *ast.Program) *Analyzer {
	return &Analyzer{program: program}
}

// Check walks the whole program, including every function body, and
// returns all diagnostics found.
func (a *Analyzer) Check() []*diag.Diagnostic {
	for _, stmt := range a.program.Statements {
		a.checkStatement(stmt)
	}
	return a.diags
}

func (a *Analyzer) report(node ast.Node, format string, args ...interface{}) {
	a.diags = append(a.diags, diag.New(diag.Semantic, node.Pos(), format, args...))
}

func (a *Analyzer) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		a.checkBlock(s.Body)
	case *ast.Block:
		a.checkBlock(s)
	case *ast.DeclareStatement:
		if s.Value != nil {
			a.checkExpression(s.Value)
		}
	case *ast.AssignStatement:
		a.checkExpression(s.Value)
	case *ast.CallStatement:
		a.checkCall(s.Call)
	case *ast.IfStatement:
		a.checkExpression(s.Condition)
		a.checkBlock(s.Then)
		if s.Else != nil {
			a.checkBlock(s.Else)
		}
	case *ast.ForStatement:
		if s.Init != nil {
			a.checkStatement(s.Init)
		}
		a.checkExpression(s.Condition)
		if s.Post != nil {
			a.checkStatement(s.Post)
		}
		a.checkBlock(s.Body)
	case *ast.SwitchStatement:
		for _, binding := range s.Bindings {
			a.checkExpression(binding.Value)
		}
		for _, c := range s.Cases {
			a.checkExpression(c.Condition)
			a.checkBlock(c.Body)
		}
	case *ast.ReturnStatement:
		if s.Value != nil {
			a.checkExpression(s.Value)
		}
	}
}

func (a *Analyzer) checkBlock(block *ast.Block) {
	for _, stmt := range block.Statements {
		a.checkStatement(stmt)
	}
}

func (a *Analyzer) checkExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.CallExpression:
		a.checkCall(e)
	case *ast.PrefixExpression:
		a.checkExpression(e.Right)
	case *ast.InfixExpression:
		a.checkExpression(e.Left)
		a.checkExpression(e.Right)
	case *ast.CastExpression:
		a.checkExpression(e.Value)
	}
}

func (a *Analyzer) checkCall(call *ast.CallExpression) {
	for _, arg := range call.Arguments {
		a.checkExpression(arg.Value)
	}

	if std, ok := stdFunctions[call.Name]; ok {
		a.checkStdCall(call, std)
		return
	}

	decl, ok := a.program.Functions[call.Name]
	if !ok {
		a.report(call, "Use of undeclared function '%s'.", call.Name)
		return
	}

	if len(call.Arguments) != len(decl.Parameters) {
		a.report(call, "Invalid number of arguments for function '%s'. Expected %d, given %d.",
			call.Name, len(decl.Parameters), len(call.Arguments))
	}

	for idx, param := range decl.Parameters {
		if idx >= len(call.Arguments) {
			break
		}
		arg := call.Arguments[idx]
		if arg.ByRef != param.ByRef {
			a.report(arg, "Parameter '%s' in function '%s' passed by %s - should be passed by %s.",
				param.Name, call.Name, passedBy(arg.ByRef), passedBy(param.ByRef))
			continue
		}
		if arg.ByRef {
			if _, ok := arg.Value.(*ast.Identifier); !ok {
				a.report(arg, "Argument passed by reference to function '%s' must be a variable.", call.Name)
			}
		}
	}
}

func (a *Analyzer) checkStdCall(call *ast.CallExpression, std stdSignature) {
	if !std.variadic && len(call.Arguments) != std.params {
		a.report(call, "Invalid number of arguments for function '%s'. Expected %d, given %d.",
			call.Name, std.params, len(call.Arguments))
	}
	for _, arg := range call.Arguments {
		if arg.ByRef {
			a.report(arg, "Function '%s' takes no reference parameters.", call.Name)
		}
	}
}

func passedBy(byRef bool) string {
	if byRef {
		return "Reference"
	}
	return "Value"
}
