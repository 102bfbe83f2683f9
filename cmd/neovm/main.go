package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/CityOfZion/neo-ruby-sdk/log"
)

// We collect log output in this buffer,
// and display it only when there's an error.
var logbuf bytes.Buffer

type command struct {
	f     func(ctx context.Context, args []string)
	usage string
}

// commands is filled in by init; the commands themselves call usage,
// which reads it.
var commands map[string]*command

func init() {
	commands = map[string]*command{
		"compile": {compileCmd, "compile [-o out.avm] [-dump] src.rb"},
		"run":     {runCmd, "run [-t] [-config file] [-db dsn] [-ret type] [-stats] file [args...]"},
		"disasm":  {disasmCmd, "disasm file.avm"},
		"asm":     {asmCmd, "asm <text"},
		"hash":    {hashCmd, "hash file.avm"},
	}
}

func main() {
	log.SetOutput(&logbuf)
	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(0)
	}
	cmd := commands[os.Args[1]]
	if cmd == nil {
		fmt.Fprintln(os.Stderr, "unknown command:", os.Args[1])
		help(os.Stderr)
		os.Exit(2)
	}
	cmd.f(context.Background(), os.Args[2:])
}

// fatal prints the collected log output and v, then exits with
// the given code.
func fatal(code int, v ...interface{}) {
	io.Copy(os.Stderr, &logbuf)
	fmt.Fprintln(os.Stderr, v...)
	os.Exit(code)
}

func usage(name string) {
	fatal(2, "usage: neovm", commands[name].usage)
}

func help(w io.Writer) {
	fmt.Fprintln(w, "usage: neovm [command] [arguments]")
	fmt.Fprint(w, "\nThe commands are:\n\n")
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, "\t", commands[name].usage)
	}
	fmt.Fprintln(w)
}
