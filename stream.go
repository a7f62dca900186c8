package siren

import "github.com/stewi1014/siren/encio"

type typeEntry struct {
	id      int32
	version int
}

// target is a shared object read from the archive. cell is nil while the object is being read.
type target struct {
	cell *refCell
}

// NewStream returns a Stream driving b in the given mode.
// Backends provide their own constructors, which should be preferred.
func NewStream(b Backend, mode Mode, config *Config) *Stream {
	return &Stream{
		backend: b,
		mode:    mode,
		config:  config.copyAndFill(),

		types:     make(map[string]typeEntry),
		typeNames: make(map[int32]string),

		strings:     make(map[string]int32),
		stringsByID: make(map[int32]string),

		blobs:     make(map[string]int32),
		blobsByID: make(map[int32][]byte),

		targets:     make(map[*refCell]int32),
		targetsByID: make(map[int32]*target),
	}
}

// Stream runs one save or load pass over an object graph.
//
// It owns the tables that give every type, string, blob and shared object an id within the archive.
// Ids start at 1; 0 means empty. The tables only grow, and are never shared between Streams.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	backend Backend
	mode    Mode
	config  *Config

	types     map[string]typeEntry
	typeNames map[int32]string
	lastType  int32

	strings     map[string]int32
	stringsByID map[int32]string
	lastString  int32

	blobs     map[string]int32
	blobsByID map[int32][]byte
	lastBlob  int32

	targets     map[*refCell]int32
	targetsByID map[int32]*target
	lastTarget  int32
	// open holds targets that were started and not yet finalised.
	open []int32

	schemas []*cursor
	pos     Position
	// fault is a misuse recorded by a method that cannot return an error.
	// It is returned by the next operation.
	fault  error
	closed bool
}

// Mode returns the direction of the stream.
func (s *Stream) Mode() Mode { return s.mode }

// IsSaving reports whether the stream writes objects.
func (s *Stream) IsSaving() bool { return s.mode == Saving }

// IsLoading reports whether the stream reads objects.
func (s *Stream) IsLoading() bool { return s.mode == Loading }

// Stats counts the entries of the stream's tables.
type Stats struct {
	Types, Strings, Blobs, Targets int
}

// Stats returns the number of distinct types, strings, blobs and shared objects seen so far.
func (s *Stream) Stats() Stats {
	if s.mode == Saving {
		return Stats{len(s.types), len(s.strings), len(s.blobs), len(s.targets)}
	}
	return Stats{len(s.types), len(s.stringsByID), len(s.blobsByID), len(s.targetsByID)}
}

func (s *Stream) usable() error {
	if s.closed {
		return encio.NewError(encio.ErrInvalidOperation, "stream is closed", "")
	}
	if s.fault != nil {
		err := s.fault
		s.fault = nil
		return err
	}
	return nil
}

// take returns and clears the pending position.
func (s *Stream) take() (Position, error) {
	if err := s.usable(); err != nil {
		return Position{}, err
	}
	pos := s.pos
	s.pos = Position{}
	return pos, nil
}

func (s *Stream) knownType(id int32) (string, bool) {
	name, ok := s.typeNames[id]
	return name, ok
}

// CheckVersion records that typeName is streamed at version and returns the version found in the archive.
//
// The first time a type is seen its class id and version are written, or read.
// Later occurrences reuse them; undecorated backends write a magic number each time,
// and loading checks it against the recorded id to catch a desynchronised stream.
func (s *Stream) CheckVersion(typeName string, version int) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}

	entry, seen := s.types[typeName]
	switch {
	case s.mode == Loading && !seen:
		id, v, err := s.backend.ReadClassID(typeName)
		if err != nil {
			return 0, err
		}
		if id <= 0 {
			return 0, encio.Errorf(encio.ErrCorruptedData, "invalid class id %v for %v", id, typeName)
		}
		if other, ok := s.typeNames[id]; ok {
			return 0, encio.Errorf(encio.ErrCorruptedData, "class id %v of %v is already used by %v", id, typeName, other)
		}
		s.types[typeName] = typeEntry{id: id, version: v}
		s.typeNames[id] = typeName
		return v, nil

	case s.mode == Loading:
		if !s.backend.Decorated() {
			magic, err := s.backend.ReadMagic()
			if err != nil {
				return 0, err
			}
			if magic != entry.id {
				return 0, encio.Errorf(encio.ErrCorruptedData, "magic number mismatch for %v: expected id %v, got %v", typeName, entry.id, magic)
			}
		}
		return entry.version, nil

	case !seen:
		s.lastType++
		entry = typeEntry{id: s.lastType, version: version}
		if err := s.backend.WriteClassID(typeName, entry.id, version); err != nil {
			return 0, err
		}
		s.types[typeName] = entry
		s.typeNames[entry.id] = typeName
		return version, nil

	default:
		if !s.backend.Decorated() {
			if err := s.backend.WriteMagic(entry.id); err != nil {
				return 0, err
			}
		}
		return entry.version, nil
	}
}

// AssertVersion is CheckVersion, returning ErrVersion if the archive's version of typeName is not version.
func (s *Stream) AssertVersion(typeName string, version int) error {
	v, err := s.CheckVersion(typeName, version)
	if err != nil {
		return err
	}
	if v != version {
		return encio.Errorf(encio.ErrVersion, "%v is version %v in the archive, but version %v is expected", typeName, v, version)
	}
	return nil
}

// Item asserts the version of typeName and opens a schema for its fields.
func (s *Stream) Item(typeName string, version int) (*Schema, error) {
	if err := s.AssertVersion(typeName, version); err != nil {
		return nil, err
	}
	return s.StartItem(typeName)
}

// StartItem opens a schema for the fields of typeName.
// CheckVersion must have been called for this occurrence of the type; Item does both.
func (s *Stream) StartItem(typeName string) (*Schema, error) {
	pos, err := s.take()
	if err != nil {
		return nil, err
	}

	entry, ok := s.types[typeName]
	if !ok {
		return nil, encio.Errorf(encio.ErrProgramBug, "item %v started before its version was checked", typeName)
	}

	if err := s.backend.StartItem(pos, typeName); err != nil {
		return nil, err
	}

	schema := &Schema{
		cursor:  cursor{s: s, name: typeName},
		version: entry.version,
	}
	s.push(&schema.cursor)
	return schema, nil
}

// Array opens a schema for *n elements of elemType.
// Saving reads the count from *n; loading stores the archived count in *n.
func (s *Stream) Array(elemType string, n *int) (*ArraySchema, error) {
	c, err := s.startContainer(Container{Kind: ArrayContainer, Type: elemType}, n)
	if err != nil {
		return nil, err
	}
	return &ArraySchema{c}, nil
}

// Set opens a schema for *n unordered elements of elemType.
func (s *Stream) Set(elemType string, n *int) (*SetSchema, error) {
	c, err := s.startContainer(Container{Kind: SetContainer, Type: elemType}, n)
	if err != nil {
		return nil, err
	}
	return &SetSchema{c}, nil
}

// Map opens a schema for *n entries from keyType to valueType.
func (s *Stream) Map(keyType, valueType string, allowDuplicates bool, n *int) (*MapSchema, error) {
	c, err := s.startContainer(Container{
		Kind:            MapContainer,
		KeyType:         keyType,
		ValueType:       valueType,
		AllowDuplicates: allowDuplicates,
	}, n)
	if err != nil {
		return nil, err
	}
	return &MapSchema{containerSchema: c}, nil
}

func (s *Stream) startContainer(header Container, n *int) (containerSchema, error) {
	pos, err := s.take()
	if err != nil {
		return containerSchema{}, err
	}

	if s.mode == Saving {
		if *n < 0 {
			return containerSchema{}, encio.Errorf(encio.ErrProgramBug, "%v cannot have %v elements", header.Name(), *n)
		}
		header.Size = *n
	}

	if err := s.backend.StartContainer(pos, &header); err != nil {
		return containerSchema{}, err
	}

	if s.mode == Loading {
		if header.Size < 0 || header.Size > s.config.MaxCount {
			return containerSchema{}, encio.Errorf(encio.ErrCorruptedData, "%v has impossible size %v", header.Name(), header.Size)
		}
		*n = header.Size
	}

	c := containerSchema{
		cursor: &cursor{s: s, name: header.Name()},
		header: header,
	}
	s.push(c.cursor)
	return c, nil
}

func (s *Stream) push(c *cursor) {
	s.schemas = append(s.schemas, c)
}

func (s *Stream) top() *cursor {
	if len(s.schemas) == 0 {
		return nil
	}
	return s.schemas[len(s.schemas)-1]
}

// Object streams o by value, at the current position. It is never de-duplicated.
func (s *Stream) Object(o Object) error {
	if err := s.usable(); err != nil {
		return err
	}
	if o == nil {
		return encio.NewError(encio.ErrNullPtr, "cannot stream a nil Object", "")
	}
	return o.Stream(s)
}

// Any streams a polymorphic field.
// Saving writes *o by value, or None if *o is nil.
// Loading replaces *o with a new object of the type recorded in the archive.
func (s *Stream) Any(o *Object) error {
	if s.mode == Saving {
		obj := *o
		if obj == nil {
			obj = None
		}
		return s.Object(obj)
	}

	obj, err := s.loadNextObject()
	if err != nil {
		return err
	}
	*o = obj
	return nil
}

// loadNextObject peeks at the type of the next object, instantiates it from the registry and streams into it.
func (s *Stream) loadNextObject() (Object, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}

	name, err := s.backend.PeekNextType(s.pos, s.knownType)
	if err != nil {
		return nil, err
	}

	obj, err := newObject(s.config.Registry, name)
	if err != nil {
		return nil, err
	}

	if err := obj.Stream(s); err != nil {
		return nil, err
	}
	return obj, nil
}

// Ref streams a shared object.
//
// The first time an instance is saved it is written in full as a target; later references to the
// same instance write only the target's id. Loading rebuilds that sharing: every ObjRef read from
// the same target shares one instance. A target referenced while it is still being read is a cycle,
// and fails the load.
func (s *Stream) Ref(r *ObjRef) error {
	pos, err := s.take()
	if err != nil {
		return err
	}

	if s.mode == Saving {
		return s.saveRef(pos, *r)
	}

	ref, err := s.loadRef(pos)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

func (s *Stream) saveRef(pos Position, r ObjRef) error {
	if r.IsNull() {
		return s.backend.WriteTargetRef(pos, 0)
	}

	cell := r.cell
	if id, ok := s.targets[cell]; ok {
		return s.backend.WriteTargetRef(pos, id)
	}

	s.lastTarget++
	id := s.lastTarget
	s.targets[cell] = id

	if err := s.backend.WriteTargetRef(pos, id); err != nil {
		return err
	}
	return s.inTarget(id, func() error {
		return cell.obj.Stream(s)
	})
}

func (s *Stream) loadRef(pos Position) (ObjRef, error) {
	id, err := s.backend.ReadTargetRef(pos)
	if err != nil {
		return ObjRef{}, err
	}
	if id == 0 {
		return ObjRef{}, nil
	}

	if t, ok := s.targetsByID[id]; ok {
		if t.cell == nil {
			return ObjRef{}, encio.Errorf(encio.ErrCorruptedData, "target %v is still under construction; the archive holds a reference cycle", id)
		}
		return ObjRef{cell: t.cell}, nil
	}

	if err := s.checkNewID(id, s.lastTarget, "target"); err != nil {
		return ObjRef{}, err
	}
	t := new(target)
	s.targetsByID[id] = t
	if id > s.lastTarget {
		s.lastTarget = id
	}

	var obj Object
	err = s.inTarget(id, func() (err error) {
		obj, err = s.loadNextObject()
		return err
	})
	if err != nil {
		return ObjRef{}, err
	}

	ref := NewRef(obj)
	t.cell = ref.get()
	return ref, nil
}

func (s *Stream) inTarget(id int32, body func() error) error {
	if err := s.backend.StartTarget(id); err != nil {
		return err
	}
	s.open = append(s.open, id)
	s.pos = Position{}

	if err := body(); err != nil {
		return err
	}

	if err := s.backend.EndTarget(id); err != nil {
		return err
	}
	s.open = s.open[:len(s.open)-1]
	return nil
}

// checkNewID validates the id of a table entry read for the first time.
// Undecorated archives assign ids in the order they are read, so anything but the next id is corruption.
func (s *Stream) checkNewID(id, last int32, what string) error {
	if id < 0 || (!s.backend.Decorated() && id != last+1) {
		return encio.Errorf(encio.ErrCorruptedData, "unexpected %v id %v; last was %v", what, id, last)
	}
	return nil
}

// Save writes o as a top-level object.
func (s *Stream) Save(o Object) error {
	if err := s.topLevel(Saving); err != nil {
		return err
	}
	return s.Any(&o)
}

// Load reads the next top-level object, whatever its type.
func (s *Stream) Load() (Object, error) {
	if err := s.topLevel(Loading); err != nil {
		return nil, err
	}
	var o Object
	err := s.Any(&o)
	return o, err
}

// LoadInto reads the next top-level object into o, which must be of the archived type.
func (s *Stream) LoadInto(o Object) error {
	if err := s.topLevel(Loading); err != nil {
		return err
	}
	return s.Object(o)
}

func (s *Stream) topLevel(mode Mode) error {
	if s.mode != mode {
		return encio.Errorf(encio.ErrInvalidOperation, "stream is %v", s.mode)
	}
	if c := s.top(); c != nil {
		return encio.Errorf(encio.ErrProgramBug, "top-level object streamed while %v is open", c.name)
	}
	s.pos = Position{}
	return nil
}

// Close finishes the pass. Saving backends are flushed.
// Open schemas and unfinalised targets are reported as errors; the backend is then left unflushed.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if c := s.top(); c != nil {
		return encio.Errorf(encio.ErrProgramBug, "stream closed with %v schemas open; innermost is %v", len(s.schemas), c.name)
	}
	if len(s.open) > 0 {
		return encio.Errorf(encio.ErrCorruptedData, "target %v was never finalised", s.open[len(s.open)-1])
	}
	return s.backend.Close()
}
