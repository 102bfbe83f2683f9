package compiler

import "github.com/CityOfZion/neo-ruby-sdk/protocol/vm"

// builtin is a function that compiles to opcodes applied to its
// arguments, which are pushed left to right.
type builtin struct {
	name  string
	ops   []vm.Op
	arity int
}

var builtins = map[string]builtin{
	"sha1":             {"sha1", []vm.Op{vm.OP_SHA1}, 1},
	"sha256":           {"sha256", []vm.Op{vm.OP_SHA256}, 1},
	"hash160":          {"hash160", []vm.Op{vm.OP_HASH160}, 1},
	"hash256":          {"hash256", []vm.Op{vm.OP_HASH256}, 1},
	"verify_signature": {"verify_signature", []vm.Op{vm.OP_CHECKSIG}, 2},
	"abs":              {"abs", []vm.Op{vm.OP_ABS}, 1},
	"min":              {"min", []vm.Op{vm.OP_MIN}, 2},
	"max":              {"max", []vm.Op{vm.OP_MAX}, 2},
	"size":             {"size", []vm.Op{vm.OP_SIZE}, 1},
	"concat":           {"concat", []vm.Op{vm.OP_CAT}, 2},
	"within":           {"within", []vm.Op{vm.OP_WITHIN}, 3},
}

// hostCall is a SYSCALL reachable from source. Arguments are pushed
// in reverse so the first one is on top when the service runs.
type hostCall struct {
	service string
	arity   int
	value   bool // whether the service pushes a result
}

// hostCalls maps Namespace.method to its service.
var hostCalls = map[string]map[string]hostCall{
	"Runtime": {
		"log":           {"Neo.Runtime.Log", 1, false},
		"notify":        {"Neo.Runtime.Notify", 1, false},
		"check_witness": {"Neo.Runtime.CheckWitness", 1, true},
	},
	"Storage": {
		"get_context": {"Neo.Storage.GetContext", 0, true},
		"get":         {"Neo.Storage.Get", 2, true},
		"put":         {"Neo.Storage.Put", 3, false},
		"delete":      {"Neo.Storage.Delete", 2, false},
	},
	"Blockchain": {
		"get_height":   {"Neo.Blockchain.GetHeight", 0, true},
		"get_header":   {"Neo.Blockchain.GetHeader", 1, true},
		"get_contract": {"Neo.Blockchain.GetContract", 1, true},
	},
}

// properties maps a method called on a value, such as
// header.timestamp, to the service that reads it. The receiver is
// the only argument.
var properties = map[string]hostCall{
	"index":           {"Neo.Header.GetIndex", 1, true},
	"hash":            {"Neo.Header.GetHash", 1, true},
	"timestamp":       {"Neo.Header.GetTimestamp", 1, true},
	"storage_context": {"Neo.Contract.GetStorageContext", 1, true},
}

// valueMethods are methods on values that compile to opcodes.
var valueMethods = map[string]vm.Op{
	"size":   vm.OP_ARRAYSIZE,
	"length": vm.OP_ARRAYSIZE,
}

var binaryOps = map[string]vm.Op{
	"+":  vm.OP_ADD,
	"-":  vm.OP_SUB,
	"*":  vm.OP_MUL,
	"/":  vm.OP_DIV,
	"%":  vm.OP_MOD,
	"&":  vm.OP_AND,
	"|":  vm.OP_OR,
	"^":  vm.OP_XOR,
	"<<": vm.OP_SHL,
	">>": vm.OP_SHR,
	"<":  vm.OP_LT,
	"<=": vm.OP_LTE,
	">":  vm.OP_GT,
	">=": vm.OP_GTE,
	"&&": vm.OP_BOOLAND,
	"||": vm.OP_BOOLOR,
}

var unaryOps = map[string]vm.Op{
	"-": vm.OP_NEGATE,
	"!": vm.OP_NOT,
	"~": vm.OP_INVERT,
}
