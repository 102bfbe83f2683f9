// Package blockchain encodes the primitives of NEO's binary
// serialization: little-endian fixed-width integers, variable-length
// integers and length-prefixed byte strings.
//
// A variable-length integer is a single byte for values below 0xfd,
// otherwise a marker byte (0xfd, 0xfe or 0xff) followed by the value
// as a little-endian uint16, uint32 or uint64.
package blockchain

import (
	"encoding/binary"
	"io"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var (
	ErrRange      = errors.New("value out of range")
	ErrNonMinimal = errors.New("non-minimal varint")
)

func WriteUint32(w io.Writer, v uint32) (int, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

func WriteUint64(w io.Writer, v uint64) (int, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return w.Write(buf[:])
}

func ReadUint32(r io.Reader) (uint32, int, error) {
	var buf [4]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, n, err
	}
	return binary.LittleEndian.Uint32(buf[:]), n, nil
}

// WriteVarint writes v in the variable-length form.
func WriteVarint(w io.Writer, v uint64) (int, error) {
	var buf [9]byte
	switch {
	case v < 0xfd:
		buf[0] = byte(v)
		return w.Write(buf[:1])
	case v <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		return w.Write(buf[:3])
	case v <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		return w.Write(buf[:5])
	}
	buf[0] = 0xff
	binary.LittleEndian.PutUint64(buf[1:], v)
	return w.Write(buf[:])
}

// ReadVarint reads a variable-length integer no larger than max.
// It returns the value and the number of bytes read.
func ReadVarint(r io.Reader, max uint64) (uint64, int, error) {
	var buf [9]byte
	n, err := io.ReadFull(r, buf[:1])
	if err != nil {
		return 0, n, err
	}
	var (
		v    uint64
		size int
		min  uint64
	)
	switch buf[0] {
	case 0xfd:
		size, min = 2, 0xfd
	case 0xfe:
		size, min = 4, 0x10000
	case 0xff:
		size, min = 8, 0x100000000
	default:
		v = uint64(buf[0])
	}
	if size > 0 {
		n2, err := io.ReadFull(r, buf[1:1+size])
		n += n2
		if err != nil {
			return 0, n, err
		}
		switch size {
		case 2:
			v = uint64(binary.LittleEndian.Uint16(buf[1:]))
		case 4:
			v = uint64(binary.LittleEndian.Uint32(buf[1:]))
		default:
			v = binary.LittleEndian.Uint64(buf[1:])
		}
		if v < min {
			return 0, n, errors.WithDetailf(ErrNonMinimal, "%d in %d bytes", v, size)
		}
	}
	if v > max {
		return 0, n, errors.WithDetailf(ErrRange, "%d exceeds %d", v, max)
	}
	return v, n, nil
}

// WriteVarbytes writes b prefixed with its length.
func WriteVarbytes(w io.Writer, b []byte) (int, error) {
	n, err := WriteVarint(w, uint64(len(b)))
	if err != nil {
		return n, err
	}
	n2, err := w.Write(b)
	return n + n2, err
}

// ReadVarbytes reads a length-prefixed byte string of at most max
// bytes.
func ReadVarbytes(r io.Reader, max int) ([]byte, int, error) {
	size, n, err := ReadVarint(r, uint64(max))
	if err != nil {
		return nil, n, err
	}
	if size == 0 {
		return nil, n, nil
	}
	buf := make([]byte, size)
	n2, err := io.ReadFull(r, buf)
	return buf, n + n2, err
}
