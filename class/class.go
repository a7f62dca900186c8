// Package class is the runtime type table behind siren.
//
// Every streamable type is described by a Class: its name, its superclass, the interfaces it
// claims, whether it can be instantiated, and a factory. Archives refer to types by name only,
// so the registry is how a loader turns "the archive says this is a Foo" back into a value.
package class

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stewi1014/siren/encio"
)

// Category is the broad kind of value a class describes.
type Category int

const (
	// ValueObject is a full polymorphic object with value semantics.
	ValueObject Category = iota
	// Handle is a shared-ownership wrapper around another object.
	Handle
	// Primitive is a small value type adapted to behave like an object.
	Primitive
)

func (c Category) String() string {
	switch c {
	case ValueObject:
		return "object"
	case Handle:
		return "handle"
	case Primitive:
		return "primitive"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Spec holds the information needed to register a Class.
type Spec struct {
	// Name is the stable, process-wide name of the type. It is what archives record.
	Name string

	// Super is the superclass, or nil for a root class.
	Super *Class

	// Interfaces are the names of interfaces the type directly implements.
	Interfaces []string

	// Abstract classes cannot be instantiated.
	Abstract bool

	Category Category

	// New returns a new default value of the type.
	// It must be non-nil for concrete classes.
	New func() interface{}
}

// Class is the runtime descriptor of a registered type.
// Classes are created once by a Registry and are immutable thereafter.
type Class struct {
	name       string
	super      *Class
	interfaces []string
	ancestry   map[string]struct{}
	concrete   bool
	category   Category
	factory    func() interface{}
}

func newClass(spec Spec) *Class {
	c := &Class{
		name:       spec.Name,
		super:      spec.Super,
		interfaces: append([]string(nil), spec.Interfaces...),
		ancestry:   make(map[string]struct{}),
		concrete:   !spec.Abstract,
		category:   spec.Category,
		factory:    spec.New,
	}
	sort.Strings(c.interfaces)

	if c.super != nil {
		for name := range c.super.ancestry {
			c.ancestry[name] = struct{}{}
		}
	}
	for _, name := range c.interfaces {
		c.ancestry[name] = struct{}{}
	}
	c.ancestry[c.name] = struct{}{}
	return c
}

// Name returns the registered name of the class.
func (c *Class) Name() string { return c.name }

// Super returns the superclass, or nil.
func (c *Class) Super() *Class { return c.super }

// Interfaces returns the sorted names of the interfaces directly implemented by the class.
func (c *Class) Interfaces() []string { return append([]string(nil), c.interfaces...) }

// Concrete reports whether the class can be instantiated.
func (c *Class) Concrete() bool { return c.concrete }

// Category returns the class's category.
func (c *Class) Category() Category { return c.category }

// Ancestry returns the sorted names of the class, all its superclasses and all their interfaces.
func (c *Class) Ancestry() []string {
	names := make([]string, 0, len(c.ancestry))
	for name := range c.ancestry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanCast reports whether a value of this class can be used as target.
func (c *Class) CanCast(target string) bool {
	_, ok := c.ancestry[target]
	return ok
}

// AssertCast returns ErrInvalidCast if the class cannot be used as target.
func (c *Class) AssertCast(target string) error {
	if !c.CanCast(target) {
		return encio.NewError(encio.ErrInvalidCast, fmt.Sprintf("cannot cast %v to %v", c.name, target), "")
	}
	return nil
}

// New returns a new default value of the class.
// It returns ErrInvalidOperation for abstract classes, and ErrProgramBug if a concrete class was registered without a factory.
func (c *Class) New() (interface{}, error) {
	if !c.concrete {
		return nil, encio.NewError(encio.ErrInvalidOperation, fmt.Sprintf("cannot instantiate abstract class %v", c.name), "")
	}
	if c.factory == nil {
		return nil, encio.NewError(encio.ErrProgramBug, fmt.Sprintf("concrete class %v has no registered factory", c.name), "")
	}
	return c.factory(), nil
}

// String implements fmt.Stringer.
func (c *Class) String() string {
	var sb strings.Builder
	sb.WriteString(c.name)
	if c.super != nil {
		sb.WriteString(" : ")
		sb.WriteString(c.super.name)
	}
	if !c.concrete {
		sb.WriteString(" (abstract)")
	}
	return sb.String()
}

func (c *Class) sameShape(spec Spec) bool {
	if c.super != spec.Super || c.concrete == spec.Abstract || c.category != spec.Category {
		return false
	}
	interfaces := append([]string(nil), spec.Interfaces...)
	sort.Strings(interfaces)
	if len(interfaces) != len(c.interfaces) {
		return false
	}
	for i := range interfaces {
		if interfaces[i] != c.interfaces[i] {
			return false
		}
	}
	return true
}
