/*

Command neovm compiles, runs and inspects contracts.

Usage:

	neovm compile [-o out.avm] [-dump] src.rb
	neovm run [-t] [-config file] [-db dsn] [-ret type] [-stats] file.avm|src.rb [args...]
	neovm disasm file.avm
	neovm asm <text
	neovm hash file.avm

Compile writes the bytecode for a source file next to it, or to
the file named by -o, and prints its script hash. With -dump it
also prints the syntax tree.

Run deploys the contract into a fresh simulation and invokes it.
Arguments are converted using the parameter types in the source
header. For bytecode files, which carry no header, an argument
may be written Type:value (for example Integer:5 or ByteArray:00ff);
otherwise it is an Integer if it parses as one and a String if not.
Byte-valued arguments are hex. The result is cast to the declared
return type, or to -ret for bytecode files.

Settings come from the -config TOML file and the NEOVM_*
environment variables (see package config). Flag -db selects
persistent storage: a postgres:// URL uses Postgres, anything
else is a SQLite file.

Exit code 0 indicates success.
Exit code 1 indicates a fault or a compile error.
Exit code 2 indicates a usage or I/O error.

*/
package main
