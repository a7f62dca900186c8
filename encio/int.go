package encio

import "io"

// Fixed-width integers are written most significant byte first, matching the binary archive format.

// NewInt32 returns a new Int32.
func NewInt32() Int32 {
	return Int32{
		buff: make([]byte, 4),
	}
}

// Int32 provides methods for encoding int32s.
type Int32 struct {
	buff []byte
}

// Encode writes the given int32 to w.
func (e *Int32) Encode(w io.Writer, n int32) error {
	EncodeUint32(e.buff, uint32(n))
	return Write(e.buff, w)
}

// Decode decodes a int32 from r.
func (e *Int32) Decode(r io.Reader) (int32, error) {
	err := Read(e.buff, r)
	return int32(DecodeUint32(e.buff)), err
}

// NewInt64 returns a new Int64.
func NewInt64() Int64 {
	return Int64{
		buff: make([]byte, 8),
	}
}

// Int64 provides methods for encoding int64s.
type Int64 struct {
	buff []byte
}

// Encode writes the given int64 to w.
func (e *Int64) Encode(w io.Writer, n int64) error {
	EncodeUint64(e.buff, uint64(n))
	return Write(e.buff, w)
}

// Decode decodes an int64 from r.
func (e *Int64) Decode(r io.Reader) (int64, error) {
	err := Read(e.buff, r)
	return int64(DecodeUint64(e.buff)), err
}

// EncodeUint16 writes a uint16 to buff.
func EncodeUint16(buff []byte, n uint16) {
	buff[0] = uint8(n >> 8)
	buff[1] = uint8(n)
}

// DecodeUint16 reads a uint16 from buff.
func DecodeUint16(buff []byte) uint16 {
	return uint16(buff[0])<<8 | uint16(buff[1])
}

// EncodeUint32 writes a uint32 to buff.
func EncodeUint32(buff []byte, n uint32) {
	buff[0] = uint8(n >> 24)
	buff[1] = uint8(n >> 16)
	buff[2] = uint8(n >> 8)
	buff[3] = uint8(n)
}

// DecodeUint32 reads a uint32 from buff.
func DecodeUint32(buff []byte) uint32 {
	n := uint32(buff[0]) << 24
	n |= uint32(buff[1]) << 16
	n |= uint32(buff[2]) << 8
	n |= uint32(buff[3])
	return n
}

// EncodeUint64 writes a uint64 to buff.
func EncodeUint64(buff []byte, n uint64) {
	EncodeUint32(buff, uint32(n>>32))
	EncodeUint32(buff[4:], uint32(n))
}

// DecodeUint64 reads a uint64 from buff.
func DecodeUint64(buff []byte) uint64 {
	return uint64(DecodeUint32(buff))<<32 | uint64(DecodeUint32(buff[4:]))
}

// EncodeSized writes the low size bytes of n to buff. size must be 1, 2, 4 or 8.
func EncodeSized(buff []byte, n uint64, size int) {
	switch size {
	case 1:
		buff[0] = uint8(n)
	case 2:
		EncodeUint16(buff, uint16(n))
	case 4:
		EncodeUint32(buff, uint32(n))
	case 8:
		EncodeUint64(buff, n)
	default:
		panic("impossible")
	}
}

// DecodeSized reads size bytes from buff, zero-extending them. size must be 1, 2, 4 or 8.
func DecodeSized(buff []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(buff[0])
	case 2:
		return uint64(DecodeUint16(buff))
	case 4:
		return uint64(DecodeUint32(buff))
	case 8:
		return DecodeUint64(buff)
	default:
		panic("impossible")
	}
}
