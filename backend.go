package siren

import "fmt"

// Mode is the direction of a Stream. A Stream never changes mode.
type Mode int

const (
	// Saving streams write objects to a backend.
	Saving Mode = iota
	// Loading streams read objects from a backend.
	Loading
)

func (m Mode) String() string {
	if m == Saving {
		return "saving"
	}
	return "loading"
}

// PositionKind says where the next value sits inside the enclosing schema.
type PositionKind int

const (
	// PosNone is the next unaddressed value; top-level objects and target bodies.
	PosNone PositionKind = iota
	// PosData is a named field of an item.
	PosData
	// PosBase is the base class part of an item.
	PosBase
	// PosIndex is an array element.
	PosIndex
	// PosEntry is a set element.
	PosEntry
	// PosKey is a map key. It opens a new map entry.
	PosKey
	// PosValue is the value of the last opened map entry.
	PosValue
)

var positionNames = [...]string{"none", "data", "base", "index", "entry", "key", "value"}

func (k PositionKind) String() string {
	if int(k) < len(positionNames) {
		return positionNames[k]
	}
	return fmt.Sprintf("PositionKind(%d)", int(k))
}

// Position addresses the next value written or read.
// Backends that stream positionally ignore it; backends with named lookup use it to find the value.
type Position struct {
	Kind PositionKind
	// Name is set for PosData.
	Name string
	// Index is set for PosIndex.
	Index int
}

func (p Position) String() string {
	switch p.Kind {
	case PosData:
		return fmt.Sprintf("data(%v)", p.Name)
	case PosIndex:
		return fmt.Sprintf("index(%v)", p.Index)
	default:
		return p.Kind.String()
	}
}

// Kind is the wire type of a number.
type Kind int

// Number kinds.
const (
	Int8 Kind = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var kindNames = [...]string{"int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64", "float", "double"}
var kindSizes = [...]int{1, 2, 4, 8, 1, 2, 4, 8, 4, 8}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Size returns the number of bytes in the fixed-width representation of k.
func (k Kind) Size() int {
	return kindSizes[k]
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	return k >= Int8 && k <= Int64
}

// Float reports whether k is a floating point kind.
func (k Kind) Float() bool {
	return k == Float32 || k == Float64
}

// KindByName returns the Kind whose String is name.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// ContainerKind distinguishes the container schemas.
type ContainerKind int

const (
	ArrayContainer ContainerKind = iota
	SetContainer
	MapContainer
)

func (k ContainerKind) String() string {
	switch k {
	case ArrayContainer:
		return "array"
	case SetContainer:
		return "set"
	case MapContainer:
		return "map"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// Container is the header of an array, set or map.
type Container struct {
	Kind ContainerKind
	// Type is the element type of arrays and sets.
	Type string
	// KeyType and ValueType describe maps.
	KeyType, ValueType string
	// AllowDuplicates is only meaningful for maps.
	AllowDuplicates bool
	// Size is the number of elements, or map entries.
	Size int
}

// Name returns the schema name of the container; array{T}, set{T} or map{K,V}.
func (c *Container) Name() string {
	if c.Kind == MapContainer {
		return fmt.Sprintf("map{%v,%v}", c.KeyType, c.ValueType)
	}
	return fmt.Sprintf("%v{%v}", c.Kind, c.Type)
}

// Backend is the format-specific half of a Stream.
// A Stream drives a single backend from a single goroutine; backends need no locking.
//
// Methods taking a Position write or read the value at that position.
// On loading streams StartContainer fills c from the archive, checking it against the caller's expectations.
type Backend interface {
	// Decorated reports whether every object is fully tagged with its type.
	// Undecorated backends write a magic number for repeated types instead, and it is checked on load.
	Decorated() bool

	StartItem(pos Position, typeName string) error
	EndItem(typeName string) error
	StartContainer(pos Position, c *Container) error
	EndContainer(c *Container) error

	WriteClassID(typeName string, id int32, version int) error
	ReadClassID(typeName string) (id int32, version int, err error)
	WriteMagic(id int32) error
	ReadMagic() (int32, error)

	// PeekNextType returns the type of the object at pos without consuming it.
	// known resolves class ids already seen by the Stream.
	PeekNextType(pos Position, known func(id int32) (string, bool)) (string, error)

	// Numbers are passed as their bits, zero-extended to 64 bits; floats as IEEE 754 bits.
	WriteNumber(pos Position, k Kind, bits uint64) error
	ReadNumber(pos Position, k Kind) (uint64, error)
	WriteBool(pos Position, v bool) error
	ReadBool(pos Position) (bool, error)

	WriteStringRef(pos Position, id int32) error
	ReadStringRef(pos Position) (int32, error)
	WriteString(id int32, s string) error
	ReadString(id int32) (string, error)

	WriteBlobRef(pos Position, id int32) error
	ReadBlobRef(pos Position) (int32, error)
	WriteBlob(id int32, b []byte) error
	ReadBlob(id int32) ([]byte, error)

	WriteTargetRef(pos Position, id int32) error
	ReadTargetRef(pos Position) (int32, error)
	StartTarget(id int32) error
	EndTarget(id int32) error

	// Close flushes a saving backend. It does not close the underlying reader or writer.
	Close() error
}
