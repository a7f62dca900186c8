package siren

import (
	"math"

	"github.com/stewi1014/siren/encio"
)

func (s *Stream) number(k Kind, bits *uint64) error {
	pos, err := s.take()
	if err != nil {
		return err
	}

	if s.mode == Saving {
		return s.backend.WriteNumber(pos, k, *bits)
	}

	v, err := s.backend.ReadNumber(pos, k)
	if err != nil {
		return err
	}
	*bits = v
	return nil
}

// Int8 streams *v.
func (s *Stream) Int8(v *int8) error {
	bits := uint64(uint8(*v))
	if err := s.number(Int8, &bits); err != nil {
		return err
	}
	*v = int8(bits)
	return nil
}

// Int16 streams *v.
func (s *Stream) Int16(v *int16) error {
	bits := uint64(uint16(*v))
	if err := s.number(Int16, &bits); err != nil {
		return err
	}
	*v = int16(bits)
	return nil
}

// Int32 streams *v.
func (s *Stream) Int32(v *int32) error {
	bits := uint64(uint32(*v))
	if err := s.number(Int32, &bits); err != nil {
		return err
	}
	*v = int32(bits)
	return nil
}

// Int64 streams *v.
func (s *Stream) Int64(v *int64) error {
	bits := uint64(*v)
	if err := s.number(Int64, &bits); err != nil {
		return err
	}
	*v = int64(bits)
	return nil
}

// Uint8 streams *v.
func (s *Stream) Uint8(v *uint8) error {
	bits := uint64(*v)
	if err := s.number(Uint8, &bits); err != nil {
		return err
	}
	*v = uint8(bits)
	return nil
}

// Uint16 streams *v.
func (s *Stream) Uint16(v *uint16) error {
	bits := uint64(*v)
	if err := s.number(Uint16, &bits); err != nil {
		return err
	}
	*v = uint16(bits)
	return nil
}

// Uint32 streams *v.
func (s *Stream) Uint32(v *uint32) error {
	bits := uint64(*v)
	if err := s.number(Uint32, &bits); err != nil {
		return err
	}
	*v = uint32(bits)
	return nil
}

// Uint64 streams *v.
func (s *Stream) Uint64(v *uint64) error {
	return s.number(Uint64, v)
}

// Int streams *v as a 64 bit integer.
func (s *Stream) Int(v *int) error {
	n := int64(*v)
	if err := s.Int64(&n); err != nil {
		return err
	}
	if int64(int(n)) != n {
		return encio.Errorf(encio.ErrCorruptedData, "%v overflows int", n)
	}
	*v = int(n)
	return nil
}

// Uint streams *v as a 64 bit unsigned integer.
func (s *Stream) Uint(v *uint) error {
	n := uint64(*v)
	if err := s.Uint64(&n); err != nil {
		return err
	}
	if uint64(uint(n)) != n {
		return encio.Errorf(encio.ErrCorruptedData, "%v overflows uint", n)
	}
	*v = uint(n)
	return nil
}

// Float32 streams *v.
func (s *Stream) Float32(v *float32) error {
	bits := uint64(math.Float32bits(*v))
	if err := s.number(Float32, &bits); err != nil {
		return err
	}
	*v = math.Float32frombits(uint32(bits))
	return nil
}

// Float64 streams *v.
func (s *Stream) Float64(v *float64) error {
	bits := math.Float64bits(*v)
	if err := s.number(Float64, &bits); err != nil {
		return err
	}
	*v = math.Float64frombits(bits)
	return nil
}

// Bool streams *v.
func (s *Stream) Bool(v *bool) error {
	pos, err := s.take()
	if err != nil {
		return err
	}

	if s.mode == Saving {
		return s.backend.WriteBool(pos, *v)
	}

	b, err := s.backend.ReadBool(pos)
	if err != nil {
		return err
	}
	*v = b
	return nil
}

// String streams *v. Each distinct string is stored once per archive and referenced by id.
func (s *Stream) String(v *string) error {
	pos, err := s.take()
	if err != nil {
		return err
	}

	if s.mode == Saving {
		if *v == "" {
			return s.backend.WriteStringRef(pos, 0)
		}
		if id, ok := s.strings[*v]; ok {
			return s.backend.WriteStringRef(pos, id)
		}

		s.lastString++
		id := s.lastString
		s.strings[*v] = id
		if err := s.backend.WriteStringRef(pos, id); err != nil {
			return err
		}
		return s.backend.WriteString(id, *v)
	}

	id, err := s.backend.ReadStringRef(pos)
	if err != nil {
		return err
	}
	if id == 0 {
		*v = ""
		return nil
	}
	if str, ok := s.stringsByID[id]; ok {
		*v = str
		return nil
	}

	if err := s.checkNewID(id, s.lastString, "string"); err != nil {
		return err
	}
	str, err := s.backend.ReadString(id)
	if err != nil {
		return err
	}
	s.stringsByID[id] = str
	if id > s.lastString {
		s.lastString = id
	}
	*v = str
	return nil
}

// Blob streams *v. Each distinct byte sequence is stored once per archive and referenced by id.
// Blobs loaded from the same archive entry share their backing array.
func (s *Stream) Blob(v *[]byte) error {
	pos, err := s.take()
	if err != nil {
		return err
	}

	if s.mode == Saving {
		if len(*v) == 0 {
			return s.backend.WriteBlobRef(pos, 0)
		}
		if id, ok := s.blobs[string(*v)]; ok {
			return s.backend.WriteBlobRef(pos, id)
		}

		s.lastBlob++
		id := s.lastBlob
		s.blobs[string(*v)] = id
		if err := s.backend.WriteBlobRef(pos, id); err != nil {
			return err
		}
		return s.backend.WriteBlob(id, *v)
	}

	id, err := s.backend.ReadBlobRef(pos)
	if err != nil {
		return err
	}
	if id == 0 {
		*v = nil
		return nil
	}
	if b, ok := s.blobsByID[id]; ok {
		*v = b
		return nil
	}

	if err := s.checkNewID(id, s.lastBlob, "blob"); err != nil {
		return err
	}
	b, err := s.backend.ReadBlob(id)
	if err != nil {
		return err
	}
	s.blobsByID[id] = b
	if id > s.lastBlob {
		s.lastBlob = id
	}
	*v = b
	return nil
}
