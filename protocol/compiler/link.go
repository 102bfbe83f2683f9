package compiler

import (
	"encoding/binary"
	"math"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vmutil"
)

// link lays out the entry block at address 0 followed by the
// functions in definition order, then resolves every jump and call
// to the signed distance from its opcode to its target.
func (c *emitter) link() ([]byte, error) {
	addr := make([]int, len(c.arena))
	for i := range addr {
		addr[i] = -1
	}
	pc := 0
	for _, u := range c.units {
		for _, id := range u.ids {
			addr[id] = pc
			pc += c.arena[id].size()
		}
	}

	b := vmutil.NewBuilder()
	for _, u := range c.units {
		for _, id := range u.ids {
			in := c.arena[id]
			switch in.kind {
			case kindLabel:
				continue
			case kindCode:
				b.AddRawBytes(in.code)
				continue
			}

			target := in.label
			if in.kind == kindCall {
				l, ok := c.labels[in.fn]
				if !ok {
					return nil, nodeErr(in.node, ErrUndefined, "function %s", in.fn)
				}
				target = l
			}
			if addr[target] < 0 {
				return nil, nodeErr(in.node, vmutil.ErrUnresolvedJump, "label %d", target)
			}
			off := addr[target] - addr[id]
			if off < math.MinInt16 || off > math.MaxInt16 {
				return nil, nodeErr(in.node, vmutil.ErrJumpRange, "%s from %d to %d", in.op, addr[id], addr[target])
			}
			var operand [2]byte
			binary.LittleEndian.PutUint16(operand[:], uint16(int16(off)))
			b.Emit(in.op, operand[:])
		}
	}
	prog, err := b.Build()
	return prog, errors.Wrap(err, "linking")
}
