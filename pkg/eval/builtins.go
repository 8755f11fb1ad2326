package eval

import (
	"fmt"
	"io"
	"strings"

	"lark/pkg/ast"
	"lark/pkg/diag"
)

func isStdFunction(name string) bool {
	switch name {
	case "print", "input", "mod":
		return true
	}
	return false
}

// callStd dispatches a built-in over the just-evaluated argument list.
// I/O goes through the interpreter's injected reader and writer; the
// driver decides what those are.
func (i *Interpreter) callStd(call *ast.CallExpression) error {
	switch call.Name {
	case "print":
		return i.stdPrint()
	case "input":
		return i.stdInput(call)
	case "mod":
		return i.stdMod(call)
	}
	return diag.New(diag.Runtime, call.Pos(), "Use of undeclared function '%s'.", call.Name)
}

// stdPrint writes its arguments joined by a single space and terminated
// by a newline. Every value renders through its canonical string form;
// strings pass through verbatim.
func (i *Interpreter) stdPrint() error {
	parts := make([]string, 0, len(i.lastArguments))
	for _, arg := range i.lastArguments {
		parts = append(parts, arg.value.Inspect())
	}
	fmt.Fprintln(i.stdout, strings.Join(parts, " "))
	i.lastResult = nil
	return nil
}

// stdInput writes the prompt with no newline, reads one line from
// standard input, strips the line terminator and returns the rest.
func (i *Interpreter) stdInput(call *ast.CallExpression) error {
	if len(i.lastArguments) != 1 {
		return diag.New(diag.Runtime, call.Pos(),
			"Invalid number of arguments for function 'input'. Expected 1, given %d.", len(i.lastArguments))
	}
	prompt, ok := i.lastArguments[0].value.(*String)
	if !ok {
		return diag.New(diag.Runtime, call.Pos(),
			"Std function 'input' expected 'str', but got '%s'.", i.lastArguments[0].value.Kind())
	}

	fmt.Fprint(i.stdout, prompt.Value)

	line, err := i.stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return diag.New(diag.Runtime, call.Pos(), "Cannot read from input: %s.", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	i.lastResult = &String{Value: line}
	return nil
}

// stdMod computes the truncated (dividend-signed) remainder.
func (i *Interpreter) stdMod(call *ast.CallExpression) error {
	if len(i.lastArguments) != 2 {
		return diag.New(diag.Runtime, call.Pos(),
			"Invalid number of arguments for function 'mod'. Expected 2, given %d.", len(i.lastArguments))
	}

	operands := make([]int64, 2)
	for idx, arg := range i.lastArguments {
		n, ok := arg.value.(*Integer)
		if !ok {
			return diag.New(diag.Runtime, call.Pos(),
				"Std function 'mod' expected 'i64', but got '%s'.", arg.value.Kind())
		}
		operands[idx] = n.Value
	}

	if operands[1] == 0 {
		return diag.New(diag.Runtime, call.Pos(), "Modulo by zero.")
	}

	i.lastResult = &Integer{Value: operands[0] % operands[1]}
	return nil
}
