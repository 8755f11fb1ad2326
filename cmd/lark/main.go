package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lark/pkg/ast"
	"lark/pkg/diag"
	"lark/pkg/eval"
	"lark/pkg/lexer"
	"lark/pkg/parser"
	"lark/pkg/reader"
	"lark/pkg/semantic"
	"lark/pkg/token"
	"lark/pkg/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	command := os.Args[1]

	switch command {
	case "--version", "-v", "version":
		printVersion()
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	// A bare .lk argument is a file to run.
	if strings.HasSuffix(command, ".lk") {
		runFile(command)
		return
	}

	switch command {
	case "run":
		runFile(fileArg("run"))
	case "tokens":
		printTokens(fileArg("tokens"))
	case "ast":
		printAST(fileArg("ast"))
	case "check":
		checkFile(fileArg("check"))
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fileArg(command string) string {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: lark %s <file>\n", command)
		os.Exit(1)
	}
	return os.Args[2]
}

func printUsage() {
	fmt.Println("Lark v" + version.Version)
	fmt.Println("\nUsage:")
	fmt.Println("  lark <file.lk>      Run a Lark program")
	fmt.Println("  lark run <file>     Run a Lark program (explicit)")
	fmt.Println("  lark check <file>   Lex, parse and analyze without running")
	fmt.Println("  lark tokens <file>  Print the token stream")
	fmt.Println("  lark ast <file>     Print the parsed program")
	fmt.Println("  lark version        Show version information")
	fmt.Println("  lark help           Show this help message")
}

func printVersion() {
	fmt.Printf("Lark %s\n", version.Version)
	fmt.Printf("Build Date: %s\n", version.BuildDate)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
}

// loadConfig reads optional limit overrides from a .env file or the
// environment. The core packages never look at the environment
// themselves.
func loadConfig() (lexer.Config, int) {
	godotenv.Load()

	cfg := lexer.DefaultConfig()
	if n, ok := intEnv("LARK_MAX_COMMENT_LENGTH"); ok {
		cfg.MaxCommentLength = n
	}
	if n, ok := intEnv("LARK_MAX_IDENT_LENGTH"); ok {
		cfg.MaxIdentLength = n
	}

	maxDepth := eval.DefaultMaxDepth
	if n, ok := intEnv("LARK_MAX_STACK_DEPTH"); ok {
		maxDepth = n
	}
	return cfg, maxDepth
}

func intEnv(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "Ignoring %s=%q: not a positive integer\n", name, raw)
		return 0, false
	}
	return n, true
}

func warnToStderr(d *diag.Diagnostic) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", d.Error())
}

func newLexer(filename string, cfg lexer.Config) (*lexer.Lexer, *os.File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	src, err := reader.New(file)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return lexer.New(src, cfg, warnToStderr), file, nil
}

func parseFile(filename string, cfg lexer.Config) (*ast.Program, error) {
	l, file, err := newLexer(filename, cfg)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	p, err := parser.New(l)
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}

// analyze parses and semantically checks a file, printing every
// accumulated diagnostic before reporting failure.
func analyze(filename string, cfg lexer.Config) (*ast.Program, bool) {
	program, err := parseFile(filename, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return nil, false
	}

	diags := semantic.New(program).Check()
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s\n", d.Error())
	}
	return program, len(diags) == 0
}

func runFile(filename string) {
	cfg, maxDepth := loadConfig()

	program, ok := analyze(filename, cfg)
	if !ok {
		os.Exit(1)
	}

	interp := eval.New(program)
	interp.SetMaxDepth(maxDepth)
	if err := interp.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func checkFile(filename string) {
	cfg, _ := loadConfig()
	if _, ok := analyze(filename, cfg); !ok {
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printTokens(filename string) {
	cfg, _ := loadConfig()
	l, file, err := newLexer(filename, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	defer file.Close()

	for {
		tok, err := l.NextToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		if tok.Type == token.EOT {
			return
		}
	}
}

func printAST(filename string) {
	cfg, _ := loadConfig()
	program, err := parseFile(filename, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	fmt.Print(program.String())
}
