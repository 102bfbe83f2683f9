/*
Package compiler translates contract source into VM bytecode.

Source is a small Ruby-like language:

	# return: Integer
	# params: Integer

	def main(n)
	  sum = 0
	  while n > 0
	    sum += n
	    n -= 1
	  end
	  sum
	end

Parse produces a File of Nodes. CompileFile turns a File into a
script; it accepts trees built by other front ends too.

Each function keeps its locals in an array on the alt stack. The
prologue allocates the array and stores the arguments into the first
slots, the epilogue drops it. Every function leaves exactly one value
on the evaluation stack. Top-level statements form the entry block,
which ends by calling main if it is defined.

Code is emitted into an arena in which jumps and calls name their
targets by instruction ID. The linker lays out the entry block and
then the functions in definition order, and patches each jump with
the signed distance from the jump opcode to its target.

Interpret evaluates a File directly and is used to cross-check the
compiler against the engine.
*/
package compiler
