package siren_test

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

func TestPrimitiveClasses(t *testing.T) {
	for _, c := range []*class.Class{
		siren.Int8Class, siren.Int16Class, siren.Int32Class, siren.Int64Class,
		siren.Uint8Class, siren.Uint16Class, siren.Uint32Class, siren.Uint64Class,
		siren.Float32Class, siren.Float64Class, siren.BoolClass, siren.StringClass,
	} {
		td.Cmp(t, c.Category(), class.Primitive, c.Name())
		td.CmpTrue(t, c.CanCast("siren.Object"), c.Name())

		v, err := c.New()
		td.CmpNoError(t, err)
		td.Cmp(t, v.(siren.Object).TypeName(), c.Name())
	}

	td.Cmp(t, siren.Wrap(int16(1)).TypeName(), "siren.Int16")
	td.Cmp(t, siren.Wrap(2.5).TypeName(), "siren.Float64")
	td.Cmp(t, siren.Wrap("s").TypeName(), "siren.String")
}

func TestPrimitiveValue(t *testing.T) {
	a, b := siren.Wrap(int32(4)), siren.Wrap(int32(4))
	td.CmpTrue(t, a.Equals(b))
	td.Cmp(t, a.HashCode(), b.HashCode())
	td.CmpFalse(t, a.Equals(siren.Wrap(int64(4))), "different types are never equal")
	td.CmpFalse(t, a.HashCode() == siren.Wrap(int64(4)).HashCode())

	clone := a.Clone().(*siren.Primitive[int32])
	clone.V = 5
	td.Cmp(t, a.V, int32(4))

	v, err := siren.Unwrap[int32](a)
	td.CmpNoError(t, err)
	td.Cmp(t, v, int32(4))

	_, err = siren.Unwrap[string](a)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidCast))
	_, err = siren.Unwrap[string](nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidCast))

	td.Cmp(t, siren.Wrap(true).String(), "true")
}

func TestBlobObject(t *testing.T) {
	b := &siren.Blob{Data: []byte{1, 2}}
	c := b.Clone().(*siren.Blob)
	c.Data[0] = 9
	td.Cmp(t, b.Data, []byte{1, 2})
	td.CmpFalse(t, b.Equals(c))
	td.CmpTrue(t, b.Equals(&siren.Blob{Data: []byte{1, 2}}))
}

func TestNoneObject(t *testing.T) {
	td.CmpTrue(t, siren.IsNone(nil))
	td.CmpTrue(t, siren.IsNone(siren.None))
	td.CmpTrue(t, siren.None.Equals(siren.None.Clone()))
	td.CmpFalse(t, siren.None.Equals(siren.Wrap(int32(0))))

	c, err := siren.ClassOf(siren.None)
	td.CmpNoError(t, err)
	td.Cmp(t, c, siren.NoneClass)

	_, err = siren.ClassOf(nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrNullPtr))
}

func TestRegisterObject(t *testing.T) {
	base := siren.MustRegisterAbstract("siren_test.Base", nil, "siren_test.Iface")
	td.CmpTrue(t, base.CanCast("siren.Object"))

	_, err := class.Default.New("siren_test.Base")
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation))

	derived, err := siren.RegisterObject("siren_test.Derived", base, func() siren.Object { return new(siren.Blob) })
	td.CmpNoError(t, err)
	td.Cmp(t, derived.Super(), base)
	td.CmpTrue(t, derived.CanCast("siren_test.Iface"))

	_, err = siren.RegisterObject("siren_test.Derived", nil, nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation), "conflicting registration")
}
