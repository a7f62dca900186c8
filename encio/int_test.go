package encio_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren/encio"
)

func TestInt32(t *testing.T) {
	testCases := []int32{
		0, 1, 2, 3, 4,
		246, 247, 248, 249, 250, 251, 252, 253, 254, 255, 256, 257,
		1 << 8, 1 << 16, 1 << 24, -1 << 31, -1,
	}

	enc := encio.NewInt32()

	for _, tC := range testCases {
		t.Run(fmt.Sprint(tC), func(t *testing.T) {
			buff := new(bytes.Buffer)

			if err := enc.Encode(buff, tC); err != nil {
				t.Fatal(err)
			}
			if buff.Len() != 4 {
				t.Fatalf("wrote %v bytes, want 4", buff.Len())
			}

			n, err := enc.Decode(buff)
			if err != nil {
				t.Fatal(err)
			}

			if n != tC {
				t.Fatalf("Wrong number, wanted: %v, got %v", tC, n)
			}
		})
	}
}

func TestInt64(t *testing.T) {
	testCases := []int64{0, 1, -1, 1 << 40, -1 << 63, 1<<63 - 1}

	enc := encio.NewInt64()
	buff := new(bytes.Buffer)
	for _, tC := range testCases {
		if err := enc.Encode(buff, tC); err != nil {
			t.Fatal(err)
		}
	}
	for _, tC := range testCases {
		n, err := enc.Decode(buff)
		if err != nil {
			t.Fatal(err)
		}
		td.Cmp(t, n, tC)
	}
	td.CmpZero(t, buff.Len(), "data remaining in buffer")
}

func TestBigEndian(t *testing.T) {
	buff := make([]byte, 8)

	encio.EncodeUint32(buff, 0x01020304)
	td.Cmp(t, buff[:4], []byte{1, 2, 3, 4})

	encio.EncodeUint64(buff, 0x0102030405060708)
	td.Cmp(t, buff, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	td.Cmp(t, encio.DecodeUint64(buff), uint64(0x0102030405060708))

	encio.EncodeUint16(buff, 0xabcd)
	td.Cmp(t, buff[:2], []byte{0xab, 0xcd})
}

func TestSized(t *testing.T) {
	buff := make([]byte, 8)
	for _, size := range []int{1, 2, 4, 8} {
		max := uint64(1)<<(8*uint(size)) - 1
		if size == 8 {
			max = ^uint64(0)
		}
		encio.EncodeSized(buff, max, size)
		td.Cmp(t, encio.DecodeSized(buff, size), max, "size %v", size)
	}
}

func TestShortRead(t *testing.T) {
	err := encio.Read(make([]byte, 4), bytes.NewReader([]byte{1, 2}))
	td.CmpError(t, err)

	var ioErr encio.IOError
	td.CmpTrue(t, errorsAs(err, &ioErr))
}
