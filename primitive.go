package siren

import (
	"bytes"
	"fmt"

	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

// Scalar lists the value types Primitive can wrap.
type Scalar interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | bool | string
}

// Primitive adapts a scalar to Object, so scalars can sit in ObjRefs and polymorphic fields.
type Primitive[T Scalar] struct {
	V T
}

// Wrap returns v as an Object.
func Wrap[T Scalar](v T) *Primitive[T] {
	return &Primitive[T]{V: v}
}

// Unwrap returns the value of a Primitive[T], or ErrInvalidCast if o is something else.
func Unwrap[T Scalar](o Object) (T, error) {
	p, ok := o.(*Primitive[T])
	if !ok {
		var zero T
		return zero, encio.NewError(encio.ErrInvalidCast, fmt.Sprintf("%v is not a %v", typeNameOf(o), primitiveName[T]()), "")
	}
	return p.V, nil
}

func typeNameOf(o Object) string {
	if o == nil {
		return "<nil>"
	}
	return o.TypeName()
}

func primitiveName[T Scalar]() string {
	var v T
	switch any(v).(type) {
	case int8:
		return "siren.Int8"
	case int16:
		return "siren.Int16"
	case int32:
		return "siren.Int32"
	case int64:
		return "siren.Int64"
	case uint8:
		return "siren.Uint8"
	case uint16:
		return "siren.Uint16"
	case uint32:
		return "siren.Uint32"
	case uint64:
		return "siren.Uint64"
	case float32:
		return "siren.Float32"
	case float64:
		return "siren.Float64"
	case bool:
		return "siren.Bool"
	case string:
		return "siren.String"
	default:
		return fmt.Sprintf("siren.Primitive[%T]", v)
	}
}

func registerPrimitive[T Scalar]() *class.Class {
	name := primitiveName[T]()
	return mustClass(register(name, nil, class.Primitive, func() Object { return new(Primitive[T]) }, nil))
}

// Classes of the primitive adapters.
var (
	Int8Class    = registerPrimitive[int8]()
	Int16Class   = registerPrimitive[int16]()
	Int32Class   = registerPrimitive[int32]()
	Int64Class   = registerPrimitive[int64]()
	Uint8Class   = registerPrimitive[uint8]()
	Uint16Class  = registerPrimitive[uint16]()
	Uint32Class  = registerPrimitive[uint32]()
	Uint64Class  = registerPrimitive[uint64]()
	Float32Class = registerPrimitive[float32]()
	Float64Class = registerPrimitive[float64]()
	BoolClass    = registerPrimitive[bool]()
	StringClass  = registerPrimitive[string]()
)

func (p *Primitive[T]) TypeName() string { return primitiveName[T]() }

func (p *Primitive[T]) Clone() Object { return &Primitive[T]{V: p.V} }

func (p *Primitive[T]) Equals(other Object) bool {
	o, ok := other.(*Primitive[T])
	return ok && o.V == p.V
}

func (p *Primitive[T]) HashCode() uint64 {
	h := NewHasher(p.TypeName())
	switch v := any(p.V).(type) {
	case int8:
		h.Int64(int64(v))
	case int16:
		h.Int64(int64(v))
	case int32:
		h.Int64(int64(v))
	case int64:
		h.Int64(v)
	case uint8:
		h.Uint64(uint64(v))
	case uint16:
		h.Uint64(uint64(v))
	case uint32:
		h.Uint64(uint64(v))
	case uint64:
		h.Uint64(v)
	case float32:
		h.Float64(float64(v))
	case float64:
		h.Float64(v)
	case bool:
		h.Bool(v)
	case string:
		h.String(v)
	}
	return h.Sum()
}

func (p *Primitive[T]) String() string {
	return fmt.Sprint(p.V)
}

func (p *Primitive[T]) Stream(s *Stream) error {
	schema, err := s.Item(p.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := streamScalar(schema.Data("value"), &p.V); err != nil {
		return err
	}
	return schema.End()
}

// streamScalar dispatches *v to the typed Stream operation for its underlying type.
func streamScalar[T Scalar](s *Stream, v *T) error {
	switch p := any(v).(type) {
	case *int8:
		return s.Int8(p)
	case *int16:
		return s.Int16(p)
	case *int32:
		return s.Int32(p)
	case *int64:
		return s.Int64(p)
	case *uint8:
		return s.Uint8(p)
	case *uint16:
		return s.Uint16(p)
	case *uint32:
		return s.Uint32(p)
	case *uint64:
		return s.Uint64(p)
	case *float32:
		return s.Float32(p)
	case *float64:
		return s.Float64(p)
	case *bool:
		return s.Bool(p)
	case *string:
		return s.String(p)
	default:
		return encio.NewError(encio.ErrBadType, fmt.Sprintf("cannot stream %T", v), "")
	}
}

// BlobClass is the class of Blob.
var BlobClass = MustRegisterObject("siren.Blob", nil, func() Object { return new(Blob) })

// Blob is a byte sequence as an Object.
type Blob struct {
	Data []byte
}

func (b *Blob) TypeName() string { return "siren.Blob" }

func (b *Blob) Clone() Object {
	if b.Data == nil {
		return &Blob{}
	}
	return &Blob{Data: append([]byte(nil), b.Data...)}
}

func (b *Blob) Equals(other Object) bool {
	o, ok := other.(*Blob)
	return ok && bytes.Equal(o.Data, b.Data)
}

func (b *Blob) HashCode() uint64 {
	return NewHasher(b.TypeName()).Bytes(b.Data).Sum()
}

func (b *Blob) Stream(s *Stream) error {
	schema, err := s.Item(b.TypeName(), 1)
	if err != nil {
		return err
	}
	defer schema.End()

	if err := schema.Data("data").Blob(&b.Data); err != nil {
		return err
	}
	return schema.End()
}
