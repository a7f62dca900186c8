package siren_test

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
	"github.com/stewi1014/siren/internal/sirentest"
)

func TestObjRefNull(t *testing.T) {
	var r siren.ObjRef
	td.CmpTrue(t, r.IsNull())
	td.CmpTrue(t, siren.IsNone(r.Object()))
	td.Cmp(t, r.TypeName(), "siren.None")

	_, err := r.Deref()
	td.CmpTrue(t, errors.Is(err, encio.ErrNullPtr))

	_, err = r.Edit()
	td.CmpTrue(t, errors.Is(err, encio.ErrNullPtr))

	td.CmpTrue(t, siren.NewRef(nil).IsNull())
	td.CmpTrue(t, siren.NewRef(siren.None).IsNull())
	td.CmpTrue(t, r.Equals(siren.ObjRef{}))
	td.CmpFalse(t, r.SameResource(siren.ObjRef{}))
	td.Cmp(t, r.String(), "ObjRef(null)")
}

func TestObjRefSharing(t *testing.T) {
	p := &sirentest.Point{X: 1, Label: "p"}
	r := siren.NewRef(p)
	shared := r

	td.CmpTrue(t, r.SameResource(shared))
	td.CmpTrue(t, r.Equals(shared))

	obj, err := shared.Deref()
	td.CmpNoError(t, err)
	td.CmpTrue(t, obj == siren.Object(p), "NewRef takes ownership")

	copied := r.Copy()
	td.CmpFalse(t, r.SameResource(copied))
	td.CmpTrue(t, r.Equals(copied))
	td.Cmp(t, copied.HashCode(), r.HashCode())

	fromValue := siren.RefFromValue(p)
	p.X = 100
	td.CmpFalse(t, fromValue.Equals(r), "RefFromValue clones")
}

func TestObjRefEdit(t *testing.T) {
	r := siren.NewRef(&sirentest.Point{X: 1})
	other := r

	obj, err := r.Edit()
	td.CmpNoError(t, err)
	obj.(*sirentest.Point).X = 2

	td.CmpFalse(t, r.SameResource(other))
	td.Cmp(t, other.Object(), &sirentest.Point{X: 1})
	td.Cmp(t, r.Object(), &sirentest.Point{X: 2})
}

func TestObjRefSet(t *testing.T) {
	r := siren.NewRef(&sirentest.Point{X: 1})
	other := r
	r.Set(&sirentest.Point{X: 3})
	td.Cmp(t, other.Object(), &sirentest.Point{X: 3}, "Set is seen by every sharer")

	var null siren.ObjRef
	null.Set(&sirentest.Named{Name: "n"})
	td.CmpFalse(t, null.IsNull())
}

func TestObjRefCast(t *testing.T) {
	r := siren.NewRef(&sirentest.Point{Label: "c"})

	_, err := r.CastTo("sirentest.Shape")
	td.CmpNoError(t, err)
	_, err = r.CastTo("sirentest.Drawable")
	td.CmpNoError(t, err)
	_, err = r.CastTo("siren.Object")
	td.CmpNoError(t, err)
	_, err = r.CastTo("sirentest.Named")
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidCast))

	_, err = siren.ObjRef{}.CastTo("sirentest.Named")
	td.CmpNoError(t, err)

	p, err := siren.Cast[*sirentest.Point](r)
	td.CmpNoError(t, err)
	td.Cmp(t, p.Label, "c")

	_, err = siren.Cast[*sirentest.Named](r)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidCast))

	_, err = siren.Cast[*sirentest.Point](siren.ObjRef{})
	td.CmpTrue(t, errors.Is(err, encio.ErrNullPtr))

	c, err := r.Class()
	td.CmpNoError(t, err)
	td.Cmp(t, c, sirentest.PointClass)
}
