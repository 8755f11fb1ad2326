package eval

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"lark/pkg/lexer"
	"lark/pkg/parser"
	"lark/pkg/reader"
	"lark/pkg/semantic"
)

type fixture struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Stdin  string `yaml:"stdin"`
	Output string `yaml:"output"`
	Error  string `yaml:"error"`
}

type fixtureFile struct {
	Cases []fixture `yaml:"cases"`
}

// runPipeline drives the whole pipeline the way the driver does: lex,
// parse, analyze, then interpret only when analysis came back clean.
func runPipeline(source, stdin string) (string, error) {
	src, err := reader.New(strings.NewReader(source))
	if err != nil {
		return "", err
	}
	p, err := parser.New(lexer.New(src, lexer.DefaultConfig(), nil))
	if err != nil {
		return "", err
	}
	program, err := p.ParseProgram()
	if err != nil {
		return "", err
	}

	if diags := semantic.New(program).Check(); len(diags) > 0 {
		return "", diags[0]
	}

	interp := New(program)
	var out bytes.Buffer
	interp.SetOutput(&out)
	interp.SetInput(strings.NewReader(stdin))
	err = interp.Run()
	return out.String(), err
}

func TestProgramFixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/programs.yaml")
	if err != nil {
		t.Fatalf("cannot read fixtures: %v", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("cannot decode fixtures: %v", err)
	}
	if len(file.Cases) == 0 {
		t.Fatalf("fixture file holds no cases")
	}

	for _, tc := range file.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			out, err := runPipeline(tc.Source, tc.Stdin)

			if tc.Error != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got output %q", tc.Error, out)
				}
				if !strings.Contains(err.Error(), tc.Error) {
					t.Fatalf("wrong error.\nexpected substring=%q\ngot=%q", tc.Error, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tc.Output {
				t.Fatalf("wrong output.\nexpected=%q\ngot=%q", tc.Output, out)
			}
		})
	}
}
