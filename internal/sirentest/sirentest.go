// Package sirentest provides object types for testing streams and backends.
// They cover inheritance, every container schema, shared references, cycles and versioning.
package sirentest

import (
	"bytes"
	"sort"

	"github.com/stewi1014/siren"
)

// Registered classes.
var (
	ShapeClass     = siren.MustRegisterAbstract("sirentest.Shape", nil, "sirentest.Drawable")
	PointClass     = siren.MustRegisterObject("sirentest.Point", ShapeClass, func() siren.Object { return new(Point) })
	NamedClass     = siren.MustRegisterObject("sirentest.Named", nil, func() siren.Object { return new(Named) })
	ParticleClass  = siren.MustRegisterObject("sirentest.Particle", NamedClass, func() siren.Object { return new(Particle) })
	MoleculeClass  = siren.MustRegisterObject("sirentest.Molecule", NamedClass, func() siren.Object { return new(Molecule) })
	NodeClass      = siren.MustRegisterObject("sirentest.Node", nil, func() siren.Object { return new(Node) })
	VersionedClass = siren.MustRegisterObject("sirentest.Versioned", nil, func() siren.Object { return &Versioned{Expect: 1} })
	EvolvingClass  = siren.MustRegisterObject("sirentest.Evolving", nil, func() siren.Object { return new(Evolving) })
)

// Point is a 2D point with a label.
type Point struct {
	X, Y  float64
	Label string
}

func (p *Point) TypeName() string { return "sirentest.Point" }

func (p *Point) Clone() siren.Object {
	c := *p
	return &c
}

func (p *Point) Equals(other siren.Object) bool {
	o, ok := other.(*Point)
	return ok && *o == *p
}

func (p *Point) HashCode() uint64 {
	return siren.NewHasher(p.TypeName()).Float64(p.X).Float64(p.Y).String(p.Label).Sum()
}

func (p *Point) Stream(s *siren.Stream) error {
	schema, err := s.Item(p.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("x").Float64(&p.X); err != nil {
		return err
	}
	if err := schema.Data("y").Float64(&p.Y); err != nil {
		return err
	}
	if err := schema.Data("label").String(&p.Label); err != nil {
		return err
	}
	return schema.End()
}

// Named is a base type for things with names.
type Named struct {
	Name string
}

func (n *Named) TypeName() string { return "sirentest.Named" }

func (n *Named) Clone() siren.Object {
	c := *n
	return &c
}

func (n *Named) Equals(other siren.Object) bool {
	o, ok := other.(*Named)
	return ok && o.Name == n.Name
}

func (n *Named) HashCode() uint64 {
	return siren.NewHasher(n.TypeName()).String(n.Name).Sum()
}

func (n *Named) Stream(s *siren.Stream) error {
	schema, err := s.Item(n.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("name").String(&n.Name); err != nil {
		return err
	}
	return schema.End()
}

// Particle has a field of most kinds, and a Named base.
type Particle struct {
	Named
	Mass    float32
	Charge  int8
	Spin    uint16
	Stable  bool
	Energy  int64
	Levels  []int32
	Tags    []string // sorted set
	Weights map[string]float64
	Payload []byte
}

func (p *Particle) TypeName() string { return "sirentest.Particle" }

func (p *Particle) Clone() siren.Object {
	c := *p
	c.Levels = append([]int32(nil), p.Levels...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Payload = append([]byte(nil), p.Payload...)
	if p.Weights != nil {
		c.Weights = make(map[string]float64, len(p.Weights))
		for k, v := range p.Weights {
			c.Weights[k] = v
		}
	}
	return &c
}

func (p *Particle) Equals(other siren.Object) bool {
	o, ok := other.(*Particle)
	if !ok || o.Named != p.Named || o.Mass != p.Mass || o.Charge != p.Charge ||
		o.Spin != p.Spin || o.Stable != p.Stable || o.Energy != p.Energy ||
		!bytes.Equal(o.Payload, p.Payload) ||
		len(o.Levels) != len(p.Levels) || len(o.Tags) != len(p.Tags) || len(o.Weights) != len(p.Weights) {
		return false
	}
	for i := range p.Levels {
		if o.Levels[i] != p.Levels[i] {
			return false
		}
	}
	for i := range p.Tags {
		if o.Tags[i] != p.Tags[i] {
			return false
		}
	}
	for k, v := range p.Weights {
		if w, ok := o.Weights[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func (p *Particle) HashCode() uint64 {
	return siren.NewHasher(p.TypeName()).String(p.Name).Float64(float64(p.Mass)).Int64(int64(p.Charge)).Bytes(p.Payload).Sum()
}

func (p *Particle) Stream(s *siren.Stream) error {
	schema, err := s.Item(p.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := p.Named.Stream(schema.Base()); err != nil {
		return err
	}
	if err := schema.Data("mass").Float32(&p.Mass); err != nil {
		return err
	}
	if err := schema.Data("charge").Int8(&p.Charge); err != nil {
		return err
	}
	if err := schema.Data("spin").Uint16(&p.Spin); err != nil {
		return err
	}
	if err := schema.Data("stable").Bool(&p.Stable); err != nil {
		return err
	}
	if err := schema.Data("energy").Int64(&p.Energy); err != nil {
		return err
	}
	if err := p.streamLevels(schema.Data("levels")); err != nil {
		return err
	}
	if err := p.streamTags(schema.Data("tags")); err != nil {
		return err
	}
	if err := p.streamWeights(schema.Data("weights")); err != nil {
		return err
	}
	if err := schema.Data("payload").Blob(&p.Payload); err != nil {
		return err
	}
	return schema.End()
}

func (p *Particle) streamLevels(s *siren.Stream) error {
	n := len(p.Levels)
	array, err := s.Array("siren.Int32", &n)
	if err != nil {
		return err
	}
	defer array.End()

	if s.IsLoading() {
		p.Levels = make([]int32, n)
	}
	for i := range p.Levels {
		elem, err := array.Index()
		if err != nil {
			return err
		}
		if err := elem.Int32(&p.Levels[i]); err != nil {
			return err
		}
	}
	return array.End()
}

func (p *Particle) streamTags(s *siren.Stream) error {
	n := len(p.Tags)
	set, err := s.Set("siren.String", &n)
	if err != nil {
		return err
	}
	defer set.End()

	if s.IsLoading() {
		p.Tags = make([]string, n)
	}
	for i := range p.Tags {
		elem, err := set.Entry()
		if err != nil {
			return err
		}
		if err := elem.String(&p.Tags[i]); err != nil {
			return err
		}
	}
	if s.IsLoading() {
		sort.Strings(p.Tags)
	}
	return set.End()
}

func (p *Particle) streamWeights(s *siren.Stream) error {
	n := len(p.Weights)
	m, err := s.Map("siren.String", "siren.Float64", false, &n)
	if err != nil {
		return err
	}
	defer m.End()

	if s.IsSaving() {
		keys := make([]string, 0, len(p.Weights))
		for k := range p.Weights {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := p.Weights[k]
			if err := streamEntry(m, &k, &v); err != nil {
				return err
			}
		}
		return m.End()
	}

	p.Weights = make(map[string]float64, n)
	for i := 0; i < n; i++ {
		var k string
		var v float64
		if err := streamEntry(m, &k, &v); err != nil {
			return err
		}
		p.Weights[k] = v
	}
	return m.End()
}

func streamEntry(m *siren.MapSchema, k *string, v *float64) error {
	key, err := m.Key()
	if err != nil {
		return err
	}
	if err := key.String(k); err != nil {
		return err
	}
	value, err := m.Value()
	if err != nil {
		return err
	}
	return value.Float64(v)
}

// Molecule shares its atoms through references, and holds a polymorphic extra field.
type Molecule struct {
	Named
	Atoms  []siren.ObjRef
	Centre siren.ObjRef
	Extra  siren.Object
}

func (m *Molecule) TypeName() string { return "sirentest.Molecule" }

// Clone shares the atoms with m.
func (m *Molecule) Clone() siren.Object {
	c := *m
	c.Atoms = append([]siren.ObjRef(nil), m.Atoms...)
	if m.Extra != nil {
		c.Extra = m.Extra.Clone()
	}
	return &c
}

func (m *Molecule) Equals(other siren.Object) bool {
	o, ok := other.(*Molecule)
	if !ok || o.Named != m.Named || len(o.Atoms) != len(m.Atoms) || !o.Centre.Equals(m.Centre) {
		return false
	}
	for i := range m.Atoms {
		if !o.Atoms[i].Equals(m.Atoms[i]) {
			return false
		}
	}
	if siren.IsNone(m.Extra) || siren.IsNone(o.Extra) {
		return siren.IsNone(m.Extra) == siren.IsNone(o.Extra)
	}
	return m.Extra.Equals(o.Extra)
}

func (m *Molecule) HashCode() uint64 {
	h := siren.NewHasher(m.TypeName()).String(m.Name)
	for _, a := range m.Atoms {
		h.Uint64(a.HashCode())
	}
	return h.Sum()
}

func (m *Molecule) Stream(s *siren.Stream) error {
	schema, err := s.Item(m.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := m.Named.Stream(schema.Base()); err != nil {
		return err
	}

	n := len(m.Atoms)
	atoms, err := schema.Data("atoms").Array("siren.Object", &n)
	if err != nil {
		return err
	}
	defer atoms.End()
	if s.IsLoading() {
		m.Atoms = make([]siren.ObjRef, n)
	}
	for i := range m.Atoms {
		elem, err := atoms.Index()
		if err != nil {
			return err
		}
		if err := m.Atoms[i].Stream(elem); err != nil {
			return err
		}
	}
	if err := atoms.End(); err != nil {
		return err
	}

	if err := schema.Data("centre").Ref(&m.Centre); err != nil {
		return err
	}
	if err := schema.Data("extra").Any(&m.Extra); err != nil {
		return err
	}
	return schema.End()
}

// Node is a linked list node; lists may be cyclic.
type Node struct {
	Value int32
	Next  siren.ObjRef
}

func (n *Node) TypeName() string { return "sirentest.Node" }

func (n *Node) Clone() siren.Object {
	c := *n
	return &c
}

// Equals compares values, and the identity of the next node.
func (n *Node) Equals(other siren.Object) bool {
	o, ok := other.(*Node)
	return ok && o.Value == n.Value && (o.Next.IsNull() && n.Next.IsNull() || o.Next.SameResource(n.Next))
}

func (n *Node) HashCode() uint64 {
	return siren.NewHasher(n.TypeName()).Int64(int64(n.Value)).Sum()
}

func (n *Node) Stream(s *siren.Stream) error {
	schema, err := s.Item(n.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("value").Int32(&n.Value); err != nil {
		return err
	}
	if err := schema.Data("next").Ref(&n.Next); err != nil {
		return err
	}
	return schema.End()
}

// Versioned is streamed at version Expect. It is loaded with version 1 by default.
type Versioned struct {
	Expect int
	Value  int32
}

func (v *Versioned) TypeName() string { return "sirentest.Versioned" }

func (v *Versioned) Clone() siren.Object {
	c := *v
	return &c
}

func (v *Versioned) Equals(other siren.Object) bool {
	o, ok := other.(*Versioned)
	return ok && o.Value == v.Value
}

func (v *Versioned) HashCode() uint64 {
	return siren.NewHasher(v.TypeName()).Int64(int64(v.Value)).Sum()
}

func (v *Versioned) Stream(s *siren.Stream) error {
	schema, err := s.Item(v.TypeName(), v.Expect)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("value").Int32(&v.Value); err != nil {
		return err
	}
	return schema.End()
}

// Evolving reads versions 1 and 2; version 2 added B.
// It is saved at SaveVersion, or 2 if unset.
type Evolving struct {
	SaveVersion int
	A, B        int32
}

func (e *Evolving) TypeName() string { return "sirentest.Evolving" }

func (e *Evolving) Clone() siren.Object {
	c := *e
	return &c
}

func (e *Evolving) Equals(other siren.Object) bool {
	o, ok := other.(*Evolving)
	return ok && o.A == e.A && o.B == e.B
}

func (e *Evolving) HashCode() uint64 {
	return siren.NewHasher(e.TypeName()).Int64(int64(e.A)).Int64(int64(e.B)).Sum()
}

func (e *Evolving) Stream(s *siren.Stream) error {
	version := e.SaveVersion
	if version == 0 {
		version = 2
	}

	version, err := s.CheckVersion(e.TypeName(), version)
	if err != nil {
		return err
	}
	schema, err := s.StartItem(e.TypeName())
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("a").Int32(&e.A); err != nil {
		return err
	}
	if version >= 2 {
		if err := schema.Data("b").Int32(&e.B); err != nil {
			return err
		}
	}
	return schema.End()
}
