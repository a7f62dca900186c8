// Package binstream implements a compact binary siren backend.
//
// Archives are big-endian and fixed width:
//
//	archive    = magic:int64 format:int32 object*
//	type       = id:int32 [name:utf16 version:int32]   name and version only on first use
//	string     = ref:int32 [utf16]                     payload only on first use; 0 is empty
//	blob       = ref:int32 [len:int32 bytes]           payload only on first use; 0 is empty
//	container  = count:int32 element*
//	reference  = ref:int32 [object]                    object only on first use; 0 is null
//	utf16      = units:int32 unit:uint16*
//
// Objects carry no field names or end markers; fields are read back in the order they were written.
// The id written for every repeated type doubles as a magic number, catching streams that have
// drifted out of step.
package binstream

import (
	"io"

	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
)

const (
	// Magic starts every binary archive. It is "SirenBin" in ASCII.
	Magic int64 = 0x536972656E42696E

	// FormatVersion is the version of the binary format written by this package.
	FormatVersion int32 = 1
)

// NewSaveStream writes the archive header to w and returns a Stream saving to it.
func NewSaveStream(w io.Writer, config *siren.Config) (*siren.Stream, error) {
	b := newBackend(w, nil)
	if err := b.writeHeader(); err != nil {
		return nil, err
	}
	return siren.NewStream(b, siren.Saving, config), nil
}

// NewLoadStream reads the archive header from r and returns a Stream loading from it.
func NewLoadStream(r io.Reader, config *siren.Config) (*siren.Stream, error) {
	b := newBackend(nil, r)
	if err := b.readHeader(); err != nil {
		return nil, err
	}
	return siren.NewStream(b, siren.Loading, config), nil
}

// Marshal returns the binary archive of o.
func Marshal(o siren.Object, config *siren.Config) ([]byte, error) {
	buff := encio.NewBuffer(nil)
	s, err := NewSaveStream(buff, config)
	if err != nil {
		return nil, err
	}
	if err := s.Save(o); err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Unmarshal reads the single object archived in data.
func Unmarshal(data []byte, config *siren.Config) (siren.Object, error) {
	buff := encio.NewBuffer(data)
	s, err := NewLoadStream(buff, config)
	if err != nil {
		return nil, err
	}
	o, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	if buff.Len() != 0 {
		return nil, encio.Errorf(encio.ErrCorruptedData, "%v bytes left after the archived object", buff.Len())
	}
	return o, nil
}
