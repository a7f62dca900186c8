// Package archive stores named object graphs in a bbolt database.
//
// Each entry holds the encoded archive of one object, in either format, and a msgpack encoded Meta
// describing it. Payloads are checksummed, and the checksum is verified whenever they are read.
package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/binstream"
	"github.com/stewi1014/siren/encio"
	"github.com/stewi1014/siren/xmlstream"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when no entry has the requested name.
var ErrNotFound = errors.New("not found")

var (
	payloadBucket = []byte("payloads")
	metaBucket    = []byte("meta")
)

// Format selects the backend an entry is encoded with.
type Format int8

const (
	Binary Format = iota
	XML
)

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case XML:
		return "xml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Meta describes a stored entry.
type Meta struct {
	Name     string    `msgpack:"name"`
	Format   Format    `msgpack:"format"`
	TypeName string    `msgpack:"type"`
	Size     int       `msgpack:"size"`
	Checksum uint64    `msgpack:"checksum"`
	Saved    time.Time `msgpack:"saved"`
}

// Options configures a Store.
type Options struct {
	// Timeout is how long Open waits for the database file lock. Zero waits forever.
	Timeout time.Duration

	// ReadOnly opens the database in read-only mode. The file must already exist.
	ReadOnly bool

	// NoSync skips fsync after every write. Only useful in tests.
	NoSync bool

	// Config is used for every Stream the Store opens.
	Config *siren.Config

	// XML configures entries written in the XML format.
	XML *xmlstream.Options
}

// Store is a database of named objects. It is safe for concurrent use.
type Store struct {
	bdb     *bbolt.DB
	options Options
}

// Open opens the database at path, creating it if needed.
func Open(path string, options *Options) (*Store, error) {
	s := &Store{}
	if options != nil {
		s.options = *options
	}

	bopt := new(bbolt.Options)
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = s.options.Timeout
	bopt.ReadOnly = s.options.ReadOnly
	bopt.NoSync = s.options.NoSync

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	s.bdb = bdb

	if !s.options.ReadOnly {
		err = bdb.Update(func(tx *bbolt.Tx) error {
			for _, name := range [][]byte{payloadBucket, metaBucket} {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			bdb.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
	}

	return s, nil
}

// Bolt returns the underlying database.
func (s *Store) Bolt() *bbolt.DB {
	return s.bdb
}

// Close closes the database.
func (s *Store) Close() error {
	return s.bdb.Close()
}

func checkName(name string) error {
	if name == "" {
		return encio.NewError(encio.ErrInvalidOperation, "entries must have a name", encio.GetCaller(1))
	}
	return nil
}

func notFound(name string) error {
	return encio.NewError(ErrNotFound, fmt.Sprintf("no entry %q", name), encio.GetCaller(1))
}

func (s *Store) encode(o siren.Object, f Format) ([]byte, error) {
	switch f {
	case Binary:
		return binstream.Marshal(o, s.options.Config)
	case XML:
		return xmlstream.Marshal(o, s.options.Config, s.options.XML)
	default:
		return nil, encio.Errorf(encio.ErrInvalidOperation, "unknown format %v", f)
	}
}

func (s *Store) decode(data []byte, f Format) (siren.Object, error) {
	switch f {
	case Binary:
		return binstream.Unmarshal(data, s.options.Config)
	case XML:
		return xmlstream.Unmarshal(data, s.options.Config)
	default:
		return nil, encio.Errorf(encio.ErrCorruptedData, "unknown format %v", f)
	}
}

// Put saves o under name in format f, replacing any existing entry.
func (s *Store) Put(name string, o siren.Object, f Format) (Meta, error) {
	if err := checkName(name); err != nil {
		return Meta{}, err
	}
	if o == nil {
		o = siren.None
	}

	data, err := s.encode(o, f)
	if err != nil {
		return Meta{}, err
	}

	meta := Meta{
		Name:     name,
		Format:   f,
		TypeName: o.TypeName(),
		Size:     len(data),
		Checksum: xxhash.Sum64(data),
		Saved:    time.Now().UTC(),
	}
	metaData, err := msgpack.Marshal(&meta)
	if err != nil {
		return Meta{}, fmt.Errorf("archive: encoding meta of %q: %w", name, err)
	}

	err = s.bdb.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(payloadBucket).Put([]byte(name), data); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte(name), metaData)
	})
	if err != nil {
		return Meta{}, fmt.Errorf("archive: %w", err)
	}
	return meta, nil
}

// Get loads the object stored under name.
func (s *Store) Get(name string) (siren.Object, error) {
	var meta Meta
	var data []byte

	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		if meta, err = readMeta(tx, name); err != nil {
			return err
		}
		payload := tx.Bucket(payloadBucket).Get([]byte(name))
		if payload == nil {
			return encio.Errorf(encio.ErrCorruptedData, "entry %q has metadata but no payload", name)
		}
		data = append([]byte(nil), payload...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sum := xxhash.Sum64(data); sum != meta.Checksum {
		return nil, encio.Errorf(encio.ErrCorruptedData, "entry %q has checksum %#x, expected %#x", name, sum, meta.Checksum)
	}
	return s.decode(data, meta.Format)
}

// Meta returns the description of the entry stored under name.
func (s *Store) Meta(name string) (meta Meta, err error) {
	err = s.view(func(tx *bbolt.Tx) error {
		meta, err = readMeta(tx, name)
		return err
	})
	return
}

// List returns the description of every entry, ordered by name.
func (s *Store) List() ([]Meta, error) {
	var metas []Meta
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).ForEach(func(k, v []byte) error {
			var meta Meta
			if err := msgpack.Unmarshal(v, &meta); err != nil {
				return encio.Errorf(encio.ErrCorruptedData, "metadata of %q: %v", k, err)
			}
			metas = append(metas, meta)
			return nil
		})
	})
	return metas, err
}

// Delete removes the entry stored under name.
func (s *Store) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		key := []byte(name)
		if tx.Bucket(metaBucket).Get(key) == nil {
			return notFound(name)
		}
		if err := tx.Bucket(payloadBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Delete(key)
	})
}

// view runs fn in a read transaction, failing cleanly on read-only databases that were never initialised.
func (s *Store) view(fn func(tx *bbolt.Tx) error) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(metaBucket) == nil || tx.Bucket(payloadBucket) == nil {
			return encio.Errorf(encio.ErrCorruptedData, "%v is not an archive store", s.bdb.Path())
		}
		return fn(tx)
	})
}

func readMeta(tx *bbolt.Tx, name string) (Meta, error) {
	if err := checkName(name); err != nil {
		return Meta{}, err
	}
	v := tx.Bucket(metaBucket).Get([]byte(name))
	if v == nil {
		return Meta{}, notFound(name)
	}

	var meta Meta
	if err := msgpack.Unmarshal(v, &meta); err != nil {
		return Meta{}, encio.Errorf(encio.ErrCorruptedData, "metadata of %q: %v", name, err)
	}
	return meta, nil
}
