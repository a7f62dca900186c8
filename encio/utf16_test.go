package encio_test

import (
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren/encio"
)

func TestUTF16(t *testing.T) {
	testCases := []string{
		"",
		"Hello World",
		"héllo wörld",
		"日本語",
		"emoji 😀 outside the BMP",
	}

	for _, tC := range testCases {
		t.Run(tC, func(t *testing.T) {
			buff := new(encio.Buffer)
			if err := encio.WriteUTF16(buff, tC); err != nil {
				t.Fatal(err)
			}

			s, err := encio.ReadUTF16(buff)
			td.CmpNoError(t, err)
			td.Cmp(t, s, tC)
			td.CmpZero(t, buff.Len(), "data remaining in buffer")
		})
	}
}

func TestUTF16Layout(t *testing.T) {
	buff := new(encio.Buffer)
	td.CmpNoError(t, encio.WriteUTF16(buff, "Hi"))
	td.Cmp(t, buff.Bytes(), []byte{0, 0, 0, 2, 0, 'H', 0, 'i'})
}

func TestUTF16BadLength(t *testing.T) {
	buff := encio.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff})
	_, err := encio.ReadUTF16(buff)
	td.CmpError(t, err)
}
