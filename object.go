package siren

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

// Object is a streamable value with a runtime type identity.
type Object interface {
	// TypeName returns the name the type is registered under. It is constant per type.
	TypeName() string

	// Clone returns an independent copy; mutating it never affects the receiver.
	Clone() Object

	// Equals reports whether other is of the same type and holds the same value.
	Equals(other Object) bool

	HashCode() uint64

	// Stream saves or loads the object's fields with s.
	// It must begin with Item, or CheckVersion followed by StartItem.
	Stream(s *Stream) error
}

// ObjectClass is the root of the class hierarchy.
var ObjectClass = mustClass(class.Register(class.Spec{
	Name:     "siren.Object",
	Abstract: true,
}))

func mustClass(c *class.Class, err error) *class.Class {
	if err != nil {
		panic(err)
	}
	return c
}

// RegisterObject registers a concrete class in class.Default.
// If super is nil, the class derives from ObjectClass.
func RegisterObject(name string, super *class.Class, factory func() Object, interfaces ...string) (*class.Class, error) {
	return register(name, super, class.ValueObject, factory, interfaces)
}

// MustRegisterObject is RegisterObject, panicking on error.
func MustRegisterObject(name string, super *class.Class, factory func() Object, interfaces ...string) *class.Class {
	return mustClass(RegisterObject(name, super, factory, interfaces...))
}

// RegisterAbstract registers an abstract class in class.Default.
// If super is nil, the class derives from ObjectClass.
func RegisterAbstract(name string, super *class.Class, interfaces ...string) (*class.Class, error) {
	if super == nil {
		super = ObjectClass
	}
	return class.Register(class.Spec{
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
		Abstract:   true,
	})
}

// MustRegisterAbstract is RegisterAbstract, panicking on error.
func MustRegisterAbstract(name string, super *class.Class, interfaces ...string) *class.Class {
	return mustClass(RegisterAbstract(name, super, interfaces...))
}

func register(name string, super *class.Class, cat class.Category, factory func() Object, interfaces []string) (*class.Class, error) {
	if super == nil {
		super = ObjectClass
	}

	spec := class.Spec{
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
		Category:   cat,
	}
	if factory != nil {
		spec.New = func() interface{} { return factory() }
	}
	return class.Register(spec)
}

// ClassOf returns the registered class of o.
func ClassOf(o Object) (*class.Class, error) {
	if o == nil {
		return nil, encio.NewError(encio.ErrNullPtr, "nil object has no class", "")
	}
	return class.Lookup(o.TypeName())
}

// newObject instantiates the class registered as name in r.
func newObject(r *class.Registry, name string) (Object, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	v, err := c.New()
	if err != nil {
		return nil, err
	}

	obj, ok := v.(Object)
	if !ok || obj == nil {
		return nil, encio.NewError(encio.ErrProgramBug, fmt.Sprintf("factory of %v returned %T, which is not an Object", name, v), "")
	}
	if obj.TypeName() != name {
		return nil, encio.NewError(encio.ErrProgramBug, fmt.Sprintf("factory of %v returned a %v", name, obj.TypeName()), "")
	}
	return obj, nil
}

// NoneClass is the class of None.
var NoneClass = MustRegisterObject("siren.None", nil, func() Object { return None })

// None is the canonical empty object. Empty ObjRefs hold it.
var None Object = none{}

type none struct{}

func (none) TypeName() string { return "siren.None" }

func (none) Clone() Object { return None }

func (none) Equals(other Object) bool {
	_, ok := other.(none)
	return ok
}

func (none) HashCode() uint64 { return NewHasher("siren.None").Sum() }

func (none) Stream(s *Stream) error {
	schema, err := s.Item(NoneClass.Name(), 1)
	if err != nil {
		return err
	}
	return schema.End()
}

// IsNone reports whether o is nil or None.
func IsNone(o Object) bool {
	if o == nil {
		return true
	}
	_, ok := o.(none)
	return ok
}

// NewHasher returns a Hasher seeded with typeName, so equal fields of different types hash differently.
func NewHasher(typeName string) *Hasher {
	h := &Hasher{d: xxhash.New()}
	return h.String(typeName)
}

// Hasher accumulates fields into a 64 bit hash for HashCode implementations.
type Hasher struct {
	d    *xxhash.Digest
	buff [8]byte
}

// Uint64 adds n.
func (h *Hasher) Uint64(n uint64) *Hasher {
	encio.EncodeUint64(h.buff[:], n)
	_, _ = h.d.Write(h.buff[:])
	return h
}

// Int64 adds n.
func (h *Hasher) Int64(n int64) *Hasher { return h.Uint64(uint64(n)) }

// Float64 adds f. 0 and -0 hash the same.
func (h *Hasher) Float64(f float64) *Hasher {
	if f == 0 {
		f = 0
	}
	return h.Uint64(math.Float64bits(f))
}

// Bool adds b.
func (h *Hasher) Bool(b bool) *Hasher {
	if b {
		return h.Uint64(1)
	}
	return h.Uint64(0)
}

// String adds s, length prefixed.
func (h *Hasher) String(s string) *Hasher {
	h.Uint64(uint64(len(s)))
	_, _ = h.d.WriteString(s)
	return h
}

// Bytes adds b, length prefixed.
func (h *Hasher) Bytes(b []byte) *Hasher {
	h.Uint64(uint64(len(b)))
	_, _ = h.d.Write(b)
	return h
}

// Object adds the HashCode of o.
func (h *Hasher) Object(o Object) *Hasher {
	if o == nil {
		return h.Uint64(0)
	}
	return h.Uint64(o.HashCode())
}

// Sum returns the hash.
func (h *Hasher) Sum() uint64 {
	return h.d.Sum64()
}
