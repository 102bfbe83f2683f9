/*
Package vm implements the contract virtual machine: the opcode
table, the script decoder, the stack item model and the execution
engine.

A Script is decoded eagerly by NewScript. Each Operation carries
its byte address; jump and call operands are signed 16-bit offsets
relative to the address of the jumping opcode. Running past the
last operation of a script is an implicit RET.

	s, err := vm.NewScript(prog)
	...
	e := vm.New(registry, interop, vm.WithRunLimit(10000))
	e.LoadScript(s, false)
	err = e.Execute(ctx)

Execution stops when the invocation stack empties (Halted) or an
operation fails (Faulted). Failures are reported as an Error whose
cause is one of the sentinel errors declared in this package, or the
error returned by an interop Service.
*/
package vm
