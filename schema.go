package siren

import "github.com/stewi1014/siren/encio"

// cursor is the part of a schema on the Stream's schema stack.
type cursor struct {
	s      *Stream
	name   string
	closed bool
}

// position sets the position of the next value if c is the innermost open schema.
// Otherwise the misuse is recorded and returned by the next stream operation.
func (c *cursor) position(pos Position) *Stream {
	if err := c.check(); err != nil {
		c.s.fault = err
		return c.s
	}
	c.s.pos = pos
	return c.s
}

func (c *cursor) check() error {
	if c.closed {
		return encio.Errorf(encio.ErrProgramBug, "schema %v is already closed", c.name)
	}
	if top := c.s.top(); top != c {
		name := "<none>"
		if top != nil {
			name = top.name
		}
		return encio.Errorf(encio.ErrProgramBug, "schema %v used while %v is open", c.name, name)
	}
	return nil
}

// end pops c, then calls finish. Ending a closed schema does nothing.
func (c *cursor) end(finish func() error) error {
	if c.closed {
		return nil
	}
	if err := c.check(); err != nil {
		return err
	}

	c.closed = true
	c.s.schemas = c.s.schemas[:len(c.s.schemas)-1]
	c.s.pos = Position{}
	return finish()
}

// Schema streams the fields of an item.
//
// The base class part, if any, is streamed first with Base, then fields in a fixed order with Data.
// End must be called once all fields are streamed; it is safe to defer it as well.
type Schema struct {
	cursor
	version int
}

// Name returns the type name of the item.
func (sc *Schema) Name() string { return sc.name }

// Version returns the version of the item in the archive.
func (sc *Schema) Version() int { return sc.version }

// Data positions the stream at the field called name.
func (sc *Schema) Data(name string) *Stream {
	return sc.position(Position{Kind: PosData, Name: name})
}

// Base positions the stream at the base class part of the item.
// The embedded type's Stream method should be called with the returned Stream.
func (sc *Schema) Base() *Stream {
	return sc.position(Position{Kind: PosBase})
}

// End closes the item.
func (sc *Schema) End() error {
	return sc.end(func() error {
		return sc.s.backend.EndItem(sc.name)
	})
}

type containerSchema struct {
	*cursor
	header   Container
	streamed int
}

// Count returns the declared number of elements in the container.
func (c containerSchema) Count() int { return c.header.Size }

// Header returns the container's header.
func (c containerSchema) Header() Container { return c.header }

func (c *containerSchema) next() (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if c.streamed >= c.header.Size {
		return 0, encio.Errorf(encio.ErrCorruptedData, "%v is full; it was declared with %v elements", c.name, c.header.Size)
	}
	i := c.streamed
	c.streamed++
	return i, nil
}

// End closes the container. An under-filled container is logged to encio.Warnings.
func (c *containerSchema) End() error {
	return c.end(func() error {
		if c.streamed != c.header.Size {
			encio.Warnf("%v closed after %v of %v elements", c.name, c.streamed, c.header.Size)
		}
		return c.s.backend.EndContainer(&c.header)
	})
}

// ArraySchema streams the elements of an ordered container.
type ArraySchema struct {
	containerSchema
}

// Index positions the stream at the next element.
func (a *ArraySchema) Index() (*Stream, error) {
	i, err := a.next()
	if err != nil {
		return nil, err
	}
	a.s.pos = Position{Kind: PosIndex, Index: i}
	return a.s, nil
}

// SetSchema streams the elements of an unordered container.
type SetSchema struct {
	containerSchema
}

// Entry positions the stream at the next element.
func (sc *SetSchema) Entry() (*Stream, error) {
	if _, err := sc.next(); err != nil {
		return nil, err
	}
	sc.s.pos = Position{Kind: PosEntry}
	return sc.s, nil
}

// MapSchema streams the entries of a map. Each entry is a Key followed by its Value.
type MapSchema struct {
	containerSchema
	keyOpen bool
}

// Key starts the next entry and positions the stream at its key.
func (m *MapSchema) Key() (*Stream, error) {
	if m.keyOpen {
		return nil, encio.Errorf(encio.ErrProgramBug, "%v key streamed twice without a value", m.name)
	}
	if _, err := m.next(); err != nil {
		return nil, err
	}
	m.keyOpen = true
	m.s.pos = Position{Kind: PosKey}
	return m.s, nil
}

// Value positions the stream at the value of the entry started by Key.
func (m *MapSchema) Value() (*Stream, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if !m.keyOpen {
		return nil, encio.Errorf(encio.ErrProgramBug, "%v value streamed without a key", m.name)
	}
	m.keyOpen = false
	m.s.pos = Position{Kind: PosValue}
	return m.s, nil
}
