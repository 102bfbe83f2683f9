package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/protocol/compiler"
)

func compileCmd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "", "output `file` (default: source name with .avm)")
	dump := fs.Bool("dump", false, "print the syntax tree")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage("compile")
	}
	src := fs.Arg(0)

	f, err := os.Open(src)
	if err != nil {
		fatal(2, err)
	}
	defer f.Close()
	c, err := compiler.Compile(ctx, filepath.Base(src), f)
	if err != nil {
		fatal(1, err)
	}
	if *dump {
		compiler.Dump(os.Stdout, c)
	}

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".avm"
	}
	if err := ioutil.WriteFile(dst, c.Script, 0644); err != nil {
		fatal(2, err)
	}
	fmt.Println(c.Hash())
}
