// Package xmlstream implements a human readable XML siren backend.
//
// A document looks like
//
//	<sirenml version="1">
//	  <object type="sirentest.Point">
//	    <number name="x" type="double" value="1.5"/>
//	    <string name="label" id="1"/>
//	  </object>
//	  <classes><class type="sirentest.Point" id="1" version="1"/></classes>
//	  <strings><strdata id="1">origin</strdata></strings>
//	  <binaries/>
//	  <targets/>
//	</sirenml>
//
// Every value is tagged with its type, so documents can be read in any field order.
// Strings, blobs and shared objects are stored once in their own sections and referenced by id.
package xmlstream

import (
	"bytes"
	"io"

	"github.com/stewi1014/siren"
)

// FormatVersion is the version of the document format written by this package.
const FormatVersion = 1

// Options configures how documents are written.
type Options struct {
	// Compact disables indentation.
	Compact bool

	// Indent is the number of spaces per nesting level. If zero, 2 is used.
	Indent int
}

func (o *Options) copyAndFill() *Options {
	options := new(Options)
	if o != nil {
		*options = *o
	}
	if options.Indent <= 0 {
		options.Indent = 2
	}
	return options
}

// NewSaveStream returns a Stream saving to a document that is written to w on Close.
func NewSaveStream(w io.Writer, config *siren.Config, options *Options) *siren.Stream {
	return siren.NewStream(newSaver(w, options.copyAndFill()), siren.Saving, config)
}

// NewLoadStream parses the document in r and returns a Stream loading from it.
func NewLoadStream(r io.Reader, config *siren.Config) (*siren.Stream, error) {
	b, err := newLoader(r)
	if err != nil {
		return nil, err
	}
	return siren.NewStream(b, siren.Loading, config), nil
}

// Marshal returns the XML document of o.
func Marshal(o siren.Object, config *siren.Config, options *Options) ([]byte, error) {
	buff := new(bytes.Buffer)
	s := NewSaveStream(buff, config, options)
	if err := s.Save(o); err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Unmarshal reads the first object in the XML document data.
func Unmarshal(data []byte, config *siren.Config) (siren.Object, error) {
	s, err := NewLoadStream(bytes.NewReader(data), config)
	if err != nil {
		return nil, err
	}
	o, err := s.Load()
	if err != nil {
		return nil, err
	}
	return o, s.Close()
}
