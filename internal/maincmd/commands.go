package maincmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/cllc/lang/compiler"
	"github.com/mna/cllc/lang/parser"
)

// resolveSource treats arg as a file path first, falling back to treating it
// as the literal source text if no such file exists (SPEC_FULL.md §6).
func resolveSource(arg string) (string, error) {
	b, err := os.ReadFile(arg)
	if err == nil {
		return string(b), nil
	}
	if os.IsNotExist(err) {
		return arg, nil
	}
	return "", err
}

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := resolveSource(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	root, err := parser.Parse(src)
	if err != nil {
		return printError(stdio, err)
	}
	stream, err := compiler.Compile(root, nil)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintln(stdio.Stdout, streamString(stream))
	return nil
}

func (c *Cmd) Tokens(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := resolveSource(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	root, err := parser.Parse(src)
	if err != nil {
		return printError(stdio, err)
	}
	stream, err := compiler.Tokens(root, nil)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintln(stdio.Stdout, streamString(stream))
	return nil
}

func (c *Cmd) Dump(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := resolveSource(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	root, err := parser.Parse(src)
	if err != nil {
		return printError(stdio, err)
	}
	stream, err := compiler.Compile(root, nil)
	if err != nil {
		return printError(stdio, err)
	}
	stdio.Stdout.Write(compiler.Disassemble(stream))
	return nil
}

func streamString(s compiler.Stream) string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
