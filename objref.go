package siren

import (
	"fmt"

	"github.com/stewi1014/siren/class"
	"github.com/stewi1014/siren/encio"
)

// refCell is the shared, mutable storage behind ObjRefs.
type refCell struct {
	obj Object
}

var noneCell = &refCell{obj: None}

// ObjRef is a nullable, copy-on-write handle to a shared Object.
//
// Copying an ObjRef shares the object; Edit detaches it first.
// The zero value is a null reference, holding None.
// Streaming an ObjRef preserves sharing, so two ObjRefs to the same object save it once
// and load back as two ObjRefs sharing one object.
type ObjRef struct {
	cell *refCell
}

// NewRef returns a reference owning o. The caller must not keep using o directly.
// A nil or None o gives a null reference.
func NewRef(o Object) ObjRef {
	if IsNone(o) {
		return ObjRef{}
	}
	return ObjRef{cell: &refCell{obj: o}}
}

// RefFromValue returns a reference to a clone of o.
func RefFromValue(o Object) ObjRef {
	if IsNone(o) {
		return ObjRef{}
	}
	return NewRef(o.Clone())
}

func (r ObjRef) get() *refCell {
	if r.cell == nil {
		return noneCell
	}
	return r.cell
}

// IsNull reports whether r holds None.
func (r ObjRef) IsNull() bool {
	return r.cell == nil || r.cell == noneCell
}

// Object returns the referenced object, or None.
// The object is shared; it must not be modified without Edit.
func (r ObjRef) Object() Object {
	return r.get().obj
}

// Deref returns the referenced object, or ErrNullPtr if r is null.
func (r ObjRef) Deref() (Object, error) {
	if r.IsNull() {
		return nil, encio.NewError(encio.ErrNullPtr, "dereferenced a null ObjRef", "")
	}
	return r.cell.obj, nil
}

// Copy returns a reference to an independent clone of the object.
func (r ObjRef) Copy() ObjRef {
	if r.IsNull() {
		return ObjRef{}
	}
	return NewRef(r.cell.obj.Clone())
}

// Edit detaches r onto a private clone of its object and returns the clone for modification.
// Edits are never seen through other references. Handles are copied by value, so sharing cannot be
// counted; Edit always clones.
func (r *ObjRef) Edit() (Object, error) {
	if r.IsNull() {
		return nil, encio.NewError(encio.ErrNullPtr, "edited a null ObjRef", "")
	}
	*r = r.Copy()
	return r.cell.obj, nil
}

// Set replaces the referenced object for every reference sharing it.
// Setting nil or None on a null reference does nothing.
func (r *ObjRef) Set(o Object) {
	if r.IsNull() {
		*r = NewRef(o)
		return
	}
	if o == nil {
		o = None
	}
	r.cell.obj = o
}

// Equals reports whether the referenced objects are equal. Two null references are equal.
func (r ObjRef) Equals(other ObjRef) bool {
	if r.IsNull() || other.IsNull() {
		return r.IsNull() == other.IsNull()
	}
	if r.cell == other.cell {
		return true
	}
	return r.cell.obj.Equals(other.cell.obj)
}

// SameResource reports whether r and other share one object. Null references never share.
func (r ObjRef) SameResource(other ObjRef) bool {
	return !r.IsNull() && r.cell == other.cell
}

// HashCode returns the hash of the referenced object.
func (r ObjRef) HashCode() uint64 {
	return r.Object().HashCode()
}

// TypeName returns the type name of the referenced object.
func (r ObjRef) TypeName() string {
	return r.Object().TypeName()
}

// Class returns the class of the referenced object.
func (r ObjRef) Class() (*class.Class, error) {
	return ClassOf(r.Object())
}

// CastTo checks that the object can be used as typeName. Null references cast to anything.
func (r ObjRef) CastTo(typeName string) (ObjRef, error) {
	if r.IsNull() {
		return r, nil
	}
	c, err := r.Class()
	if err != nil {
		return ObjRef{}, err
	}
	if err := c.AssertCast(typeName); err != nil {
		return ObjRef{}, err
	}
	return r, nil
}

// Stream saves or loads r with s, preserving sharing.
func (r *ObjRef) Stream(s *Stream) error {
	return s.Ref(r)
}

func (r ObjRef) String() string {
	if r.IsNull() {
		return "ObjRef(null)"
	}
	return fmt.Sprintf("ObjRef(%v)", r.cell.obj.TypeName())
}

// Cast returns the referenced object as a T.
// Null references return the zero T and ErrNullPtr; objects of another type return ErrInvalidCast.
func Cast[T Object](r ObjRef) (T, error) {
	var zero T
	obj, err := r.Deref()
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, encio.NewError(encio.ErrInvalidCast, fmt.Sprintf("cannot cast %v to %T", obj.TypeName(), zero), "")
	}
	return t, nil
}
