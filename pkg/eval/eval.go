// Package eval executes a checked program by walking its AST. The
// interpreter keeps a call stack of frames, each with its own scope
// stack; expression results travel through a lastResult slot consumed by
// the parent visit, and break/return are polled flags, not unwinding.
package eval

import (
	"bufio"
	"io"
	"os"

	"lark/pkg/ast"
	"lark/pkg/diag"
	"lark/pkg/token"
)

// DefaultMaxDepth caps the call stack; recursion beyond it is a runtime
// error at the call site.
const DefaultMaxDepth = 200

// evaluatedArg is one just-evaluated call argument: its value, the
// source identifier when the argument was a bare variable, and whether
// the caller marked it '&'.
type evaluatedArg struct {
	value Value
	name  string
	byRef bool
}

type Interpreter struct {
	program *ast.Program
	stack   *CallStack

	lastResult        Value
	lastArguments     []evaluatedArg
	returnedArguments []Value

	isBreaking  bool
	isReturning bool

	maxDepth int
	stdout   io.Writer
	stdin    *bufio.Reader
}

func New(program *ast.Program) *Interpreter {
	return &Interpreter{
		program:  program,
		maxDepth: DefaultMaxDepth,
		stdout:   os.Stdout,
		stdin:    bufio.NewReader(os.Stdin),
	}
}

func (i *Interpreter) SetOutput(w io.Writer) { i.stdout = w }

func (i *Interpreter) SetInput(r io.Reader) { i.stdin = bufio.NewReader(r) }

func (i *Interpreter) SetMaxDepth(depth int) { i.maxDepth = depth }

// Run executes the program's top-level statements in order against a
// fresh global frame. Function declarations were registered at parse
// time and are skipped here.
func (i *Interpreter) Run() error {
	i.stack = NewCallStack(i.maxDepth)

	for _, stmt := range i.program.Statements {
		if _, ok := stmt.(*ast.FunctionDecl); ok {
			continue
		}
		if err := i.execStatement(stmt); err != nil {
			return err
		}
		if i.isBreaking {
			return diag.New(diag.Runtime, stmt.Pos(), "Break called outside 'for' or 'switch'.")
		}
		if i.isReturning {
			return diag.New(diag.Runtime, stmt.Pos(), "Return called outside a function.")
		}
	}
	return nil
}

// readLastResult consumes the value the last expression visit produced.
func (i *Interpreter) readLastResult(pos token.Position) (Value, error) {
	if i.lastResult == nil {
		return nil, diag.New(diag.Runtime, pos, "No value produced where it is needed.")
	}
	v := i.lastResult
	i.lastResult = nil
	return v, nil
}

func (i *Interpreter) wrap(err error, pos token.Position) error {
	if d, ok := err.(*diag.Diagnostic); ok {
		return d
	}
	return diag.New(diag.Runtime, pos, "%s", err)
}

func (i *Interpreter) execStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return i.execBlock(s)
	case *ast.DeclareStatement:
		return i.execDeclare(s)
	case *ast.AssignStatement:
		return i.execAssign(s)
	case *ast.CallStatement:
		if err := i.callFunction(s.Call); err != nil {
			return err
		}
		// A value returned in statement position is discarded.
		i.lastResult = nil
		return nil
	case *ast.IfStatement:
		return i.execIf(s)
	case *ast.ForStatement:
		return i.execFor(s)
	case *ast.SwitchStatement:
		return i.execSwitch(s)
	case *ast.ReturnStatement:
		return i.execReturn(s)
	case *ast.BreakStatement:
		i.isBreaking = true
		return nil
	}
	return diag.New(diag.Runtime, stmt.Pos(), "Cannot execute statement %T.", stmt)
}

// execBlock runs statements in a fresh scope, stopping early when a
// break or return signal is raised.
func (i *Interpreter) execBlock(block *ast.Block) error {
	i.stack.PushScope()
	defer i.stack.PopScope()

	for _, stmt := range block.Statements {
		if err := i.execStatement(stmt); err != nil {
			return err
		}
		if i.isBreaking || i.isReturning {
			return nil
		}
	}
	return nil
}

func (i *Interpreter) execDeclare(s *ast.DeclareStatement) error {
	var value Value
	if s.Value != nil {
		if err := i.evalExpression(s.Value); err != nil {
			return err
		}
		v, err := i.readLastResult(s.Value.Pos())
		if err != nil {
			return err
		}
		if !matches(s.Type, v) {
			return diag.New(diag.Runtime, s.Pos(),
				"Cannot assign value of type '%s' to variable '%s' of type '%s'.", v.Kind(), s.Name, s.Type)
		}
		value = v
	} else {
		value = defaultValue(s.Type)
	}

	if err := i.stack.Declare(s.Name, value); err != nil {
		return i.wrap(err, s.Pos())
	}
	return nil
}

func (i *Interpreter) execAssign(s *ast.AssignStatement) error {
	if err := i.evalExpression(s.Value); err != nil {
		return err
	}
	v, err := i.readLastResult(s.Value.Pos())
	if err != nil {
		return err
	}
	if err := i.stack.Assign(s.Name, v); err != nil {
		return i.wrap(err, s.Pos())
	}
	return nil
}

func (i *Interpreter) evalCondition(expr ast.Expression, context string) (bool, error) {
	if err := i.evalExpression(expr); err != nil {
		return false, err
	}
	v, err := i.readLastResult(expr.Pos())
	if err != nil {
		return false, err
	}
	b, ok := v.(*Boolean)
	if !ok {
		return false, diag.New(diag.Runtime, expr.Pos(),
			"Condition in %s must evaluate to 'bool' - got '%s'.", context, v.Kind())
	}
	return b.Value, nil
}

func (i *Interpreter) execIf(s *ast.IfStatement) error {
	cond, err := i.evalCondition(s.Condition, "'if' statement")
	if err != nil {
		return err
	}
	if cond {
		return i.execBlock(s.Then)
	}
	if s.Else != nil {
		return i.execBlock(s.Else)
	}
	return nil
}

// execFor runs the loop inside its own scope so the iterator is gone
// after the statement; each body iteration gets a nested scope of its
// own.
func (i *Interpreter) execFor(s *ast.ForStatement) error {
	i.stack.PushScope()
	defer i.stack.PopScope()

	if s.Init != nil {
		if err := i.execDeclare(s.Init); err != nil {
			return err
		}
	}

	for {
		cond, err := i.evalCondition(s.Condition, "'for' statement")
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}

		if err := i.execBlock(s.Body); err != nil {
			return err
		}
		if i.isReturning {
			return nil
		}
		if i.isBreaking {
			i.isBreaking = false
			return nil
		}

		if s.Post != nil {
			if err := i.execAssign(s.Post); err != nil {
				return err
			}
		}
	}
}

// execSwitch evaluates the head bindings once, then runs every case
// whose condition holds, in textual order, until a break is seen.
func (i *Interpreter) execSwitch(s *ast.SwitchStatement) error {
	i.stack.PushScope()
	defer i.stack.PopScope()

	for _, binding := range s.Bindings {
		if err := i.evalExpression(binding.Value); err != nil {
			return err
		}
		v, err := i.readLastResult(binding.Pos())
		if err != nil {
			return err
		}
		if binding.Alias != "" {
			if err := i.stack.Declare(binding.Alias, v); err != nil {
				return i.wrap(err, binding.Pos())
			}
		}
	}

	for _, c := range s.Cases {
		cond, err := i.evalCondition(c.Condition, "'switch' case")
		if err != nil {
			return err
		}
		if !cond {
			continue
		}

		if err := i.execBlock(c.Body); err != nil {
			return err
		}
		if i.isReturning {
			return nil
		}
		if i.isBreaking {
			i.isBreaking = false
			return nil
		}
	}
	return nil
}

func (i *Interpreter) execReturn(s *ast.ReturnStatement) error {
	i.lastResult = nil
	if s.Value != nil {
		if err := i.evalExpression(s.Value); err != nil {
			return err
		}
	}
	i.isReturning = true
	return nil
}

func (i *Interpreter) evalExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		i.lastResult = &Integer{Value: e.Value}
		return nil
	case *ast.FloatLiteral:
		i.lastResult = &Float{Value: e.Value}
		return nil
	case *ast.StringLiteral:
		i.lastResult = &String{Value: e.Value}
		return nil
	case *ast.BoolLiteral:
		i.lastResult = &Boolean{Value: e.Value}
		return nil
	case *ast.Identifier:
		v, err := i.stack.Get(e.Name)
		if err != nil {
			return i.wrap(err, e.Pos())
		}
		i.lastResult = v
		return nil
	case *ast.PrefixExpression:
		return i.evalPrefix(e)
	case *ast.InfixExpression:
		return i.evalInfix(e)
	case *ast.CastExpression:
		return i.evalCast(e)
	case *ast.CallExpression:
		return i.callFunction(e)
	}
	return diag.New(diag.Runtime, expr.Pos(), "Cannot evaluate expression %T.", expr)
}

func (i *Interpreter) evalPrefix(e *ast.PrefixExpression) error {
	if err := i.evalExpression(e.Right); err != nil {
		return err
	}
	v, err := i.readLastResult(e.Pos())
	if err != nil {
		return err
	}

	var result Value
	switch e.Operator {
	case "-":
		result, err = arithmeticNegate(v)
	case "!":
		result, err = booleanNegate(v)
	}
	if err != nil {
		return i.wrap(err, e.Pos())
	}
	i.lastResult = result
	return nil
}

func (i *Interpreter) evalInfix(e *ast.InfixExpression) error {
	if e.Operator == "&&" || e.Operator == "||" {
		return i.evalLogical(e)
	}

	if err := i.evalExpression(e.Left); err != nil {
		return err
	}
	left, err := i.readLastResult(e.Left.Pos())
	if err != nil {
		return err
	}
	if err := i.evalExpression(e.Right); err != nil {
		return err
	}
	right, err := i.readLastResult(e.Right.Pos())
	if err != nil {
		return err
	}

	var result Value
	switch e.Operator {
	case "+":
		result, err = add(left, right)
	case "-":
		result, err = subtract(left, right)
	case "*":
		result, err = multiply(left, right)
	case "/":
		result, err = divide(left, right)
	default:
		result, err = compare(e.Operator, left, right)
	}
	if err != nil {
		return i.wrap(err, e.Pos())
	}
	i.lastResult = result
	return nil
}

// evalLogical short-circuits: the right operand is evaluated only when
// the left one cannot determine the result.
func (i *Interpreter) evalLogical(e *ast.InfixExpression) error {
	opName := "concatenation"
	if e.Operator == "||" {
		opName = "alternative"
	}

	if err := i.evalExpression(e.Left); err != nil {
		return err
	}
	left, err := i.readLastResult(e.Left.Pos())
	if err != nil {
		return err
	}
	lb, ok := left.(*Boolean)
	if !ok {
		return diag.New(diag.Runtime, e.Pos(), "Cannot perform %s on value of type '%s'.", opName, left.Kind())
	}

	if e.Operator == "&&" && !lb.Value {
		i.lastResult = &Boolean{Value: false}
		return nil
	}
	if e.Operator == "||" && lb.Value {
		i.lastResult = &Boolean{Value: true}
		return nil
	}

	if err := i.evalExpression(e.Right); err != nil {
		return err
	}
	right, err := i.readLastResult(e.Right.Pos())
	if err != nil {
		return err
	}

	var result Value
	if e.Operator == "&&" {
		result, err = concatenation(lb, right)
	} else {
		result, err = alternative(lb, right)
	}
	if err != nil {
		return i.wrap(err, e.Pos())
	}
	i.lastResult = result
	return nil
}

func (i *Interpreter) evalCast(e *ast.CastExpression) error {
	if err := i.evalExpression(e.Value); err != nil {
		return err
	}
	v, err := i.readLastResult(e.Value.Pos())
	if err != nil {
		return err
	}
	result, err := castToType(v, e.To)
	if err != nil {
		return i.wrap(err, e.Pos())
	}
	i.lastResult = result
	return nil
}

// callFunction implements the call protocol: evaluate arguments left to
// right, dispatch to a built-in or a user function, then write the final
// values of reference parameters back into the caller's bindings.
func (i *Interpreter) callFunction(call *ast.CallExpression) error {
	args := make([]evaluatedArg, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		if err := i.evalExpression(arg.Value); err != nil {
			return err
		}
		v, err := i.readLastResult(arg.Pos())
		if err != nil {
			return err
		}
		ea := evaluatedArg{value: v, byRef: arg.ByRef}
		if ident, ok := arg.Value.(*ast.Identifier); ok {
			ea.name = ident.Name
		}
		args = append(args, ea)
	}
	i.lastArguments = args

	if isStdFunction(call.Name) {
		err := i.callStd(call)
		i.lastArguments = nil
		return err
	}

	decl, ok := i.program.Functions[call.Name]
	if !ok {
		return diag.New(diag.Runtime, call.Pos(), "Use of undeclared function '%s'.", call.Name)
	}

	// The analyzer checked shape statically; re-verify before touching
	// the stack.
	if len(args) != len(decl.Parameters) {
		return diag.New(diag.Runtime, call.Pos(),
			"Invalid number of arguments for function '%s'. Expected %d, given %d.",
			call.Name, len(decl.Parameters), len(args))
	}
	for idx, param := range decl.Parameters {
		if args[idx].byRef != param.ByRef {
			return diag.New(diag.Runtime, call.Pos(),
				"Parameter '%s' in function '%s' passed by %s - should be passed by %s.",
				param.Name, call.Name, passedBy(args[idx].byRef), passedBy(param.ByRef))
		}
		if param.ByRef && args[idx].name == "" {
			return diag.New(diag.Runtime, call.Pos(),
				"Argument passed by reference to function '%s' must be a variable.", call.Name)
		}
	}

	if err := i.executeFunction(decl, call.Pos()); err != nil {
		return err
	}

	for idx, arg := range args {
		if !arg.byRef {
			continue
		}
		if err := i.stack.Assign(arg.name, i.returnedArguments[idx]); err != nil {
			return i.wrap(err, call.Pos())
		}
	}

	i.isReturning = false
	i.lastArguments = nil
	i.returnedArguments = nil
	return nil
}

// executeFunction pushes a frame, binds parameters, runs the body, and
// validates the return value against the declared type. The final values
// of all parameters are captured for the caller's reference write-back
// before the frame pops.
func (i *Interpreter) executeFunction(decl *ast.FunctionDecl, pos token.Position) error {
	frame := newStackFrame(decl.ReturnType)
	if err := i.stack.Push(frame); err != nil {
		return i.wrap(err, pos)
	}

	for idx, param := range decl.Parameters {
		value := i.lastArguments[idx].value
		if !matches(param.Type, value) {
			return diag.New(diag.Runtime, pos,
				"Function '%s' expected '%s', but got '%s'.", decl.Name, param.Type, value.Kind())
		}
		if err := i.stack.Declare(param.Name, value); err != nil {
			return i.wrap(err, pos)
		}
	}

	i.lastResult = nil
	for _, stmt := range decl.Body.Statements {
		if i.isReturning {
			break
		}
		if err := i.execStatement(stmt); err != nil {
			return err
		}
		if i.isBreaking {
			return diag.New(diag.Runtime, stmt.Pos(), "Break called outside 'for' or 'switch'.")
		}
	}

	switch {
	case i.lastResult == nil && decl.ReturnType == ast.Void:
	case i.lastResult != nil && matches(decl.ReturnType, i.lastResult):
	default:
		got := "void"
		if i.lastResult != nil {
			got = i.lastResult.Kind().String()
		}
		return diag.New(diag.Runtime, pos,
			"Bad return type from function '%s'. Expected '%s', but got '%s'.", decl.Name, decl.ReturnType, got)
	}

	returned := make([]Value, len(decl.Parameters))
	for idx, param := range decl.Parameters {
		v, err := i.stack.Get(param.Name)
		if err != nil {
			return i.wrap(err, pos)
		}
		returned[idx] = v
	}
	i.returnedArguments = returned

	i.stack.Pop()
	return nil
}

func passedBy(byRef bool) string {
	if byRef {
		return "Reference"
	}
	return "Value"
}
