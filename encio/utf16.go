package encio

import (
	"io"
	"unicode/utf16"
)

// WriteUTF16 writes s as a length prefixed sequence of UTF-16 code units.
// The length is an int32 count of code units, not bytes.
func WriteUTF16(w io.Writer, s string) error {
	units := utf16.Encode([]rune(s))
	buff := make([]byte, 4+2*len(units))
	EncodeUint32(buff, uint32(len(units)))
	for i, u := range units {
		EncodeUint16(buff[4+2*i:], u)
	}
	return Write(buff, w)
}

// ReadUTF16 reads a string written by WriteUTF16.
func ReadUTF16(r io.Reader) (string, error) {
	var head [4]byte
	if err := Read(head[:], r); err != nil {
		return "", err
	}

	l := int(int32(DecodeUint32(head[:])))
	if err := CheckSize(l, "utf-16 string"); err != nil {
		return "", err
	}

	buff := make([]byte, 2*l)
	if err := Read(buff, r); err != nil {
		return "", err
	}

	units := make([]uint16, l)
	for i := range units {
		units[i] = DecodeUint16(buff[2*i:])
	}
	return string(utf16.Decode(units)), nil
}
