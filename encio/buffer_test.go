package encio_test

import (
	"io"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren/encio"
)

func TestBuffer(t *testing.T) {
	buff := new(encio.Buffer)

	for i := 0; i < 1000; i++ {
		td.CmpNoError(t, encio.Write([]byte{byte(i), byte(i >> 8)}, buff))
	}
	td.Cmp(t, buff.Len(), 2000)

	got := make([]byte, 2)
	for i := 0; i < 1000; i++ {
		td.CmpNoError(t, encio.Read(got, buff))
		td.Cmp(t, got, []byte{byte(i), byte(i >> 8)})
	}

	_, err := buff.ReadByte()
	td.Cmp(t, err, io.EOF)

	buff.Reset()
	td.CmpNoError(t, buff.WriteByte(7))
	td.Cmp(t, buff.Bytes(), []byte{7})
}
