package class_test

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

type shape struct{ sides int }

func newTestHierarchy(t *testing.T) (*class.Registry, *class.Class, *class.Class, *class.Class) {
	r := class.NewRegistry()

	base, err := r.Register(class.Spec{
		Name:       "test.Shape",
		Interfaces: []string{"test.Drawable"},
		Abstract:   true,
	})
	td.Require(t).CmpNoError(err)

	poly, err := r.Register(class.Spec{
		Name:       "test.Polygon",
		Super:      base,
		Interfaces: []string{"test.Measurable"},
		New:        func() interface{} { return &shape{} },
	})
	td.Require(t).CmpNoError(err)

	tri, err := r.Register(class.Spec{
		Name:  "test.Triangle",
		Super: poly,
		New:   func() interface{} { return &shape{sides: 3} },
	})
	td.Require(t).CmpNoError(err)

	return r, base, poly, tri
}

func TestAncestry(t *testing.T) {
	_, base, poly, tri := newTestHierarchy(t)

	td.Cmp(t, base.Ancestry(), []string{"test.Drawable", "test.Shape"})
	td.Cmp(t, tri.Ancestry(), []string{"test.Drawable", "test.Measurable", "test.Polygon", "test.Shape", "test.Triangle"})
	td.Cmp(t, tri.Super(), poly)
	td.Cmp(t, poly.Interfaces(), []string{"test.Measurable"})

	td.CmpTrue(t, tri.CanCast("test.Shape"))
	td.CmpTrue(t, tri.CanCast("test.Drawable"))
	td.CmpTrue(t, tri.CanCast("test.Triangle"))
	td.CmpFalse(t, poly.CanCast("test.Triangle"))
	td.CmpFalse(t, base.CanCast("test.Measurable"))

	err := poly.AssertCast("test.Triangle")
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidCast))
	td.CmpNoError(t, tri.AssertCast("test.Polygon"))
}

func TestNew(t *testing.T) {
	r, base, _, tri := newTestHierarchy(t)

	v, err := tri.New()
	td.CmpNoError(t, err)
	td.Cmp(t, v, &shape{sides: 3})

	_, err = base.New()
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation), "got %v", err)

	missing, err := r.Register(class.Spec{Name: "test.NoFactory"})
	td.Require(t).CmpNoError(err)
	_, err = missing.New()
	td.CmpTrue(t, errors.Is(err, encio.ErrProgramBug), "got %v", err)

	v, err = r.New("test.Polygon")
	td.CmpNoError(t, err)
	td.Cmp(t, v, &shape{})
}

func TestRegisterIdempotent(t *testing.T) {
	r, _, poly, tri := newTestHierarchy(t)

	again, err := r.Register(class.Spec{
		Name:  "test.Triangle",
		Super: poly,
		New:   func() interface{} { return nil },
	})
	td.CmpNoError(t, err)
	td.CmpShallow(t, again, tri)
	td.Cmp(t, r.Count(), 3)

	_, err = r.Register(class.Spec{Name: "test.Triangle"})
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation), "got %v", err)

	_, err = r.Register(class.Spec{})
	td.CmpError(t, err)
}

func TestLookup(t *testing.T) {
	r, _, poly, _ := newTestHierarchy(t)

	c, err := r.Lookup("test.Polygon")
	td.CmpNoError(t, err)
	td.CmpShallow(t, c, poly)

	_, err = r.Lookup("test.Missing")
	td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData))

	td.CmpTrue(t, r.Contains("test.Shape"))
	td.CmpTrue(t, r.CanCast("test.Triangle", "test.Drawable"))
	td.CmpFalse(t, r.CanCast("test.Missing", "test.Drawable"))
	td.Cmp(t, r.Names(), []string{"test.Polygon", "test.Shape", "test.Triangle"})
}

func TestLazy(t *testing.T) {
	r := class.NewRegistry()
	calls := 0
	lazy := class.NewLazy(r, func() class.Spec {
		calls++
		return class.Spec{Name: "test.Lazy", New: func() interface{} { return 1 }}
	})

	td.CmpFalse(t, r.Contains("test.Lazy"))
	c := lazy.MustGet()
	td.Cmp(t, c.Name(), "test.Lazy")
	td.CmpShallow(t, lazy.MustGet(), c)
	td.Cmp(t, calls, 1)
	td.CmpTrue(t, r.Contains("test.Lazy"))
}

func TestString(t *testing.T) {
	_, base, poly, _ := newTestHierarchy(t)
	td.Cmp(t, base.String(), "test.Shape (abstract)")
	td.Cmp(t, poly.String(), "test.Polygon : test.Shape")
	td.Cmp(t, class.Primitive.String(), "primitive")
}
