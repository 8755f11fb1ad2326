// Package diag defines the positioned diagnostics shared by every
// pipeline stage. Fatal diagnostics travel as ordinary error returns;
// warnings are delivered through a caller-supplied Handler so the core
// never decides reporting policy.
package diag

import (
	"fmt"

	"lark/pkg/token"
)

type Stage string

const (
	Lexer    Stage = "lexer"
	Parser   Stage = "parser"
	Semantic Stage = "semantic"
	Runtime  Stage = "runtime"
)

type Diagnostic struct {
	Stage   Stage
	Pos     token.Position
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s\nAt %s.", d.Message, d.Pos)
}

func New(stage Stage, pos token.Position, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Stage:   stage,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// Handler receives non-fatal diagnostics as they are produced.
type Handler func(*Diagnostic)

// Discard is the default handler when the host installs none.
func Discard(*Diagnostic) {}
