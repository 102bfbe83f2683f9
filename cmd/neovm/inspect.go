package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

func readArg(name string, args []string) []byte {
	if len(args) != 1 {
		usage(name)
	}
	prog, err := ioutil.ReadFile(args[0])
	if err != nil {
		fatal(2, err)
	}
	return prog
}

func disasmCmd(ctx context.Context, args []string) {
	s, err := vm.Disassemble(readArg("disasm", args))
	if err != nil {
		fatal(1, err)
	}
	fmt.Println(s)
}

func hashCmd(ctx context.Context, args []string) {
	fmt.Println(vm.HashOf(readArg("hash", args)))
}

func asmCmd(ctx context.Context, args []string) {
	if len(args) != 0 {
		usage("asm")
	}
	src, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		fatal(2, err)
	}
	prog, err := vm.Assemble(string(src))
	if err != nil {
		fatal(1, err)
	}
	fmt.Println(hex.EncodeToString(prog))
}
