package xmlstream_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
	"github.com/stewi1014/siren/internal/sirentest"
	"github.com/stewi1014/siren/xmlstream"
)

func roundTrip(t *testing.T, o siren.Object) siren.Object {
	t.Helper()
	data, err := xmlstream.Marshal(o, nil, nil)
	if !td.CmpNoError(t, err, "marshal %v", o.TypeName()) {
		t.FailNow()
	}
	got, err := xmlstream.Unmarshal(data, nil)
	if !td.CmpNoError(t, err, "unmarshal %v\n%s", o.TypeName(), data) {
		t.FailNow()
	}
	return got
}

func parse(t *testing.T, data []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if !td.CmpNoError(t, doc.ReadFromBytes(data)) {
		t.FailNow()
	}
	return doc
}

func testParticle() *sirentest.Particle {
	return &sirentest.Particle{
		Named:   sirentest.Named{Name: "tau <heavy> & \"short-lived\""},
		Mass:    1776.86,
		Charge:  -1,
		Spin:    1,
		Energy:  -9007199254740993,
		Levels:  []int32{-2147483648, 0, 2147483647},
		Tags:    []string{"fermion", "lepton"},
		Weights: map[string]float64{"x": 1e-300, "y": -0.5},
		Payload: []byte{0, 1, 2, 255},
	}
}

func TestRoundTrip(t *testing.T) {
	objects := []siren.Object{
		&sirentest.Point{X: 1.5, Y: -2, Label: "origin"},
		&sirentest.Point{},
		testParticle(),
		&sirentest.Particle{},
		&sirentest.Evolving{A: 1, B: 2},
		siren.Wrap(int8(-128)),
		siren.Wrap(int16(-1)),
		siren.Wrap(uint8(255)),
		siren.Wrap(uint64(1<<64 - 1)),
		siren.Wrap(float32(0.1)),
		siren.Wrap(3.141592653589793),
		siren.Wrap(false),
		siren.Wrap("   "),
		siren.Wrap("line\r\nbreak\x00"),
		siren.Wrap("  padded  "),
		&siren.Blob{Data: []byte("blob")},
	}

	for _, o := range objects {
		got := roundTrip(t, o)
		td.CmpTrue(t, o.Equals(got), "%v round trip; got %v", o.TypeName(), got)
	}
}

func TestNone(t *testing.T) {
	td.CmpTrue(t, siren.IsNone(roundTrip(t, siren.None)))
}

func TestDocument(t *testing.T) {
	data, err := xmlstream.Marshal(&sirentest.Point{X: 1.5, Label: "a<b"}, nil, nil)
	td.CmpNoError(t, err)

	doc := parse(t, data)
	root := doc.Root()
	td.Cmp(t, root.Tag, "sirenml")
	td.Cmp(t, root.SelectAttrValue("version", ""), "1")

	object := root.SelectElement("object")
	td.Cmp(t, object.SelectAttrValue("type", ""), "sirentest.Point")

	x := object.FindElement("number[@name='x']")
	td.Cmp(t, x.SelectAttrValue("type", ""), "double")
	td.Cmp(t, x.SelectAttrValue("value", ""), "1.5")

	class := root.FindElement("classes/class[@type='sirentest.Point']")
	td.Cmp(t, class.SelectAttrValue("version", ""), "1")
	td.Cmp(t, root.FindElement("strings/strdata").Text(), "a<b")
	td.Cmp(t, string(data), td.Contains("a&lt;b"))
}

func TestContainerDocument(t *testing.T) {
	data, err := xmlstream.Marshal(testParticle(), nil, nil)
	td.CmpNoError(t, err)

	root := parse(t, data).Root()
	levels := root.FindElement("object/array[@name='levels']")
	td.Cmp(t, levels.SelectAttrValue("type", ""), "siren.Int32")
	td.Cmp(t, levels.SelectAttrValue("size", ""), "3")
	td.Cmp(t, len(levels.SelectElements("entry")), 3)
	td.Cmp(t, levels.FindElement("entry[@index='2']/number").SelectAttrValue("value", ""), "2147483647")

	weights := root.FindElement("object/map[@name='weights']")
	td.Cmp(t, weights.SelectAttrValue("key_type", ""), "siren.String")
	td.Cmp(t, weights.SelectAttrValue("value_type", ""), "siren.Float64")
	td.Cmp(t, weights.SelectAttrValue("allow_duplicates", ""), "false")
	td.Cmp(t, len(weights.FindElements("entry/key/string")), 2)
	td.Cmp(t, len(weights.FindElements("entry/value/number")), 2)

	base := root.FindElement("object/object[@base='true']")
	td.Cmp(t, base.SelectAttrValue("type", ""), "sirentest.Named")

	td.Cmp(t, root.FindElement("binaries/bindata").SelectAttrValue("size", ""), "4")
}

func TestSharedTarget(t *testing.T) {
	x := siren.NewRef(&sirentest.Point{Label: "X"})
	data, err := xmlstream.Marshal(&sirentest.Molecule{Atoms: []siren.ObjRef{x, x}}, nil, nil)
	td.CmpNoError(t, err)

	root := parse(t, data).Root()
	targets := root.FindElements("targets/target")
	td.Cmp(t, len(targets), 1)
	id := targets[0].SelectAttrValue("id", "")

	refs := 0
	for _, ref := range root.FindElements("//reference") {
		if ref.SelectAttrValue("id", "") == id {
			refs++
		}
	}
	td.Cmp(t, refs, 2)

	got, err := xmlstream.Unmarshal(data, nil)
	td.CmpNoError(t, err)
	atoms := got.(*sirentest.Molecule).Atoms
	td.CmpTrue(t, atoms[0].SameResource(atoms[1]))
}

func TestCycle(t *testing.T) {
	a := &sirentest.Node{Value: 1}
	ra := siren.NewRef(a)
	a.Next = ra

	data, err := xmlstream.Marshal(&sirentest.Node{Next: ra}, nil, nil)
	td.CmpNoError(t, err)

	_, err = xmlstream.Unmarshal(data, nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData))
	td.Cmp(t, err.Error(), td.Contains("still under construction"))
}

func TestFieldOrder(t *testing.T) {
	doc := `<sirenml version="1">
  <object type="sirentest.Point">
    <string name="label" id="1"/>
    <number name="y" type="double" value="2"/>
    <number name="x" type="double" value="1"/>
  </object>
  <classes><class type="sirentest.Point" id="1" version="1"/></classes>
  <strings><strdata id="1">shuffled</strdata></strings>
</sirenml>`

	got, err := xmlstream.Unmarshal([]byte(doc), nil)
	td.CmpNoError(t, err)
	td.Cmp(t, got, &sirentest.Point{X: 1, Y: 2, Label: "shuffled"})
}

func TestVersionMismatch(t *testing.T) {
	data, err := xmlstream.Marshal(&sirentest.Versioned{Expect: 2, Value: 5}, nil, nil)
	td.CmpNoError(t, err)

	_, err = xmlstream.Unmarshal(data, nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrVersion))
	td.Cmp(t, err.Error(), td.Contains("version 2"))
	td.Cmp(t, err.Error(), td.Contains("version 1"))
}

func TestCorruptDocuments(t *testing.T) {
	valid, err := xmlstream.Marshal(&sirentest.Point{X: 1, Label: "l"}, nil, nil)
	td.CmpNoError(t, err)

	for name, doc := range map[string]string{
		"not xml":         "<sirenml",
		"wrong root":      `<other version="1"/>`,
		"wrong type":      strings.Replace(string(valid), `type="double"`, `type="float"`, 1),
		"bad number":      strings.Replace(string(valid), `value="1"`, `value="one"`, 1),
		"missing field":   strings.Replace(string(valid), `name="x"`, `name="z"`, 1),
		"missing string":  strings.Replace(string(valid), `<strdata id="1">`, `<strdata id="2">`, 1),
		"undeclared type": strings.Replace(string(valid), `<class type="sirentest.Point"`, `<class type="sirentest.Other"`, 1),
	} {
		_, err := xmlstream.Unmarshal([]byte(doc), nil)
		td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData), "%v: %v", name, err)
	}

	_, err = xmlstream.Unmarshal([]byte(`<sirenml version="9"/>`), nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrVersion))
}

func TestContainerHeaderMismatch(t *testing.T) {
	valid, err := xmlstream.Marshal(testParticle(), nil, nil)
	td.CmpNoError(t, err)

	doc := strings.Replace(string(valid), `type="siren.Int32" size="3"`, `type="siren.Int64" size="3"`, 1)
	_, err = xmlstream.Unmarshal([]byte(doc), nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData))
}

func TestMultipleObjects(t *testing.T) {
	buff := new(bytes.Buffer)
	s := xmlstream.NewSaveStream(buff, nil, &xmlstream.Options{Compact: true})
	td.CmpNoError(t, s.Save(&sirentest.Point{X: 1}))
	td.CmpNoError(t, s.Save(&sirentest.Point{X: 2}))
	td.CmpNoError(t, s.Save(siren.Wrap("three")))
	td.CmpNoError(t, s.Close())
	td.CmpFalse(t, bytes.Contains(buff.Bytes(), []byte("\n  <object")), "compact")

	l, err := xmlstream.NewLoadStream(buff, nil)
	td.CmpNoError(t, err)
	for _, want := range []siren.Object{&sirentest.Point{X: 1}, &sirentest.Point{X: 2}, siren.Wrap("three")} {
		got, err := l.Load()
		td.CmpNoError(t, err)
		td.CmpTrue(t, want.Equals(got))
	}
	_, err = l.Load()
	td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData), "no more objects")
}
