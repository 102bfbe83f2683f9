package vm

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/CityOfZion/neo-ruby-sdk/encoding/bytearray"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// PushdataBytes returns the instruction pushing b. Empty input
// pushes PUSH0; inputs longer than 75 bytes use PUSHDATA1.
func PushdataBytes(b []byte) []byte {
	n := len(b)
	switch {
	case n == 0:
		return []byte{byte(OP_PUSH0)}
	case n <= 75:
		return append([]byte{byte(n)}, b...)
	case n <= 255:
		return append([]byte{byte(OP_PUSHDATA1), byte(n)}, b...)
	}
	panic(fmt.Sprintf("PushdataBytes: %d bytes", n))
}

// PushdataInt returns the shortest instruction pushing n.
func PushdataInt(n *big.Int) []byte {
	if n.IsInt64() {
		switch v := n.Int64(); {
		case v == -1:
			return []byte{byte(OP_PUSHM1)}
		case v == 0:
			return []byte{byte(OP_PUSH0)}
		case v >= 1 && v <= 16:
			return []byte{byte(OP_PUSH1) + byte(v-1)}
		}
	}
	return PushdataBytes(bytearray.FromInt(n))
}

// Assemble converts a textual program into bytecode. Tokens are
// separated by whitespace:
//
//	123, -5          push an integer
//	0x0a0b           push bytes
//	'text'           push bytes; \' escapes a quote
//	ADD              an opcode without operand
//	JMP:0x0300       an opcode with raw operand bytes
//	SYSCALL:'Neo.Runtime.Log'
//	$loop            define a label
//	JMPIF:$loop      a jump or call to a label
//
// Operands of SYSCALL and PUSHDATA1 are given without their length
// prefix; Assemble adds it.
func Assemble(s string) ([]byte, error) {
	var (
		res    []byte
		labels = make(map[string]int)
		fixups = make(map[int][2]interface{}) // operand offset -> {label, opcode addr}
	)
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		switch {
		case strings.HasPrefix(tok, "$"):
			labels[tok] = len(res)

		case strings.HasPrefix(tok, "0x"):
			b, err := hex.DecodeString(tok[2:])
			if err != nil {
				return nil, errors.Wrapf(err, "token %s", tok)
			}
			res = append(res, PushdataBytes(b)...)

		case strings.HasPrefix(tok, "'"):
			res = append(res, PushdataBytes([]byte(unquote(tok)))...)

		case tok[0] == '-' || unicode.IsDigit(rune(tok[0])):
			n, ok := new(big.Int).SetString(tok, 10)
			if !ok {
				return nil, errors.WithDetailf(ErrToken, "bad number %s", tok)
			}
			res = append(res, PushdataInt(n)...)

		default:
			name, operand := tok, ""
			if i := strings.IndexByte(tok, ':'); i >= 0 {
				name, operand = tok[:i], tok[i+1:]
			}
			op, ok := OpByName(name)
			if !ok && strings.HasPrefix(name, "UNKNOWN") {
				b, err := strconv.ParseUint(name[len("UNKNOWN"):], 16, 8)
				if err == nil && isUnknown[b] {
					op, ok = Op(b), true
				}
			}
			if !ok {
				return nil, errors.WithDetailf(ErrToken, "unknown opcode %s", name)
			}
			addr := len(res)
			res = append(res, byte(op))
			width, prefixed := operandWidth(op)
			if operand == "" {
				if width > 0 || prefixed {
					return nil, errors.WithDetailf(ErrToken, "%s needs an operand", name)
				}
				continue
			}
			if strings.HasPrefix(operand, "$") {
				if width != 2 {
					return nil, errors.WithDetailf(ErrToken, "%s cannot take a label", name)
				}
				fixups[len(res)] = [2]interface{}{operand, addr}
				res = append(res, 0, 0)
				continue
			}
			var data []byte
			if strings.HasPrefix(operand, "'") {
				data = []byte(unquote(operand))
			} else {
				data, err = hex.DecodeString(strings.TrimPrefix(operand, "0x"))
				if err != nil {
					return nil, errors.Wrapf(err, "token %s", tok)
				}
			}
			if prefixed {
				if len(data) > 255 {
					return nil, errors.WithDetailf(ErrToken, "%s operand of %d bytes", name, len(data))
				}
				res = append(res, byte(len(data)))
			} else if uint32(len(data)) != width {
				return nil, errors.WithDetailf(ErrToken, "%s wants %d operand bytes, got %d", name, width, len(data))
			}
			res = append(res, data...)
		}
	}
	for at, f := range fixups {
		label, addr := f[0].(string), f[1].(int)
		target, ok := labels[label]
		if !ok {
			return nil, errors.WithDetailf(ErrToken, "undefined label %s", label)
		}
		binary.LittleEndian.PutUint16(res[at:], uint16(int16(target-addr)))
	}
	return res, nil
}

func tokenize(s string) ([]string, error) {
	var toks []string
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Split(scanToken)
	for sc.Scan() {
		toks = append(toks, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Sub(ErrToken, err)
	}
	return toks, nil
}

// scanToken is a bufio.SplitFunc splitting on whitespace outside of
// single-quoted strings.
func scanToken(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && unicode.IsSpace(rune(data[start])) {
		start++
	}
	quoted := false
	for i := start; i < len(data); i++ {
		switch {
		case data[i] == '\\' && quoted:
			i++
		case data[i] == '\'':
			quoted = !quoted
		case !quoted && unicode.IsSpace(rune(data[i])):
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		if quoted {
			return 0, nil, fmt.Errorf("unterminated quote")
		}
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

func unquote(s string) string {
	s = strings.TrimPrefix(strings.TrimSuffix(s, "'"), "'")
	return strings.Replace(s, `\'`, "'", -1)
}

// Disassemble renders prog in the format accepted by Assemble.
func Disassemble(prog []byte) (string, error) {
	insts, err := ParseProgram(prog)
	if err != nil {
		return "", err
	}
	var words []string
	for _, inst := range insts {
		switch {
		case inst.Op >= OP_PUSHBYTES1 && inst.Op <= OP_PUSHBYTES75:
			words = append(words, "0x"+hex.EncodeToString(inst.Data))
		case inst.Op == OP_SYSCALL && isPrintable(inst.Data):
			words = append(words, fmt.Sprintf("SYSCALL:'%s'", inst.Data))
		case len(inst.Data) > 0 || inst.Op == OP_PUSHDATA1 || inst.Op == OP_SYSCALL:
			words = append(words, fmt.Sprintf("%s:0x%x", inst.Op, inst.Data))
		default:
			words = append(words, inst.Op.String())
		}
	}
	return strings.Join(words, " "), nil
}

func isPrintable(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c <= ' ' || c > '~' || c == '\'' || c == '\\' {
			return false
		}
	}
	return true
}

func wrapDecodeErr(err error, prog []byte, pc uint32) error {
	return errors.WithData(errors.WithDetailf(err, "operand at %d runs past %d bytes", pc, len(prog)), "pc", pc)
}
