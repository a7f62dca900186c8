package binstream

import (
	"io"

	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
)

// typeHeader is a type header read ahead by PeekNextType.
type typeHeader struct {
	id int32
	// full headers introduce a type; name and version are only read for them.
	full    bool
	name    string
	version int
}

type backend struct {
	w    io.Writer
	r    io.Reader
	buff [8]byte
	i32  encio.Int32
	i64  encio.Int64

	peeked *typeHeader
}

func newBackend(w io.Writer, r io.Reader) *backend {
	return &backend{
		w:   w,
		r:   r,
		i32: encio.NewInt32(),
		i64: encio.NewInt64(),
	}
}

func (b *backend) writeHeader() error {
	if err := b.i64.Encode(b.w, Magic); err != nil {
		return err
	}
	return b.writeInt32(FormatVersion)
}

func (b *backend) readHeader() error {
	magic, err := b.i64.Decode(b.r)
	if err != nil {
		return err
	}
	if magic != Magic {
		return encio.Errorf(encio.ErrCorruptedData, "not a binary siren archive; got magic %#x", magic)
	}

	version, err := b.readInt32()
	if err != nil {
		return err
	}
	if version < 1 || version > FormatVersion {
		return encio.Errorf(encio.ErrVersion, "binary format version %v is not supported; the newest readable is %v", version, FormatVersion)
	}
	return nil
}

func (b *backend) writeInt32(n int32) error {
	return b.i32.Encode(b.w, n)
}

func (b *backend) read(buff []byte) error {
	if b.peeked != nil {
		return encio.Errorf(encio.ErrProgramBug, "value read while the peeked type %v is pending", b.peeked.id)
	}
	return encio.Read(buff, b.r)
}

func (b *backend) readInt32() (int32, error) {
	if b.peeked != nil {
		return 0, encio.Errorf(encio.ErrProgramBug, "value read while the peeked type %v is pending", b.peeked.id)
	}
	return b.i32.Decode(b.r)
}

func (b *backend) Decorated() bool { return false }

func (b *backend) StartItem(siren.Position, string) error { return nil }

func (b *backend) EndItem(string) error { return nil }

func (b *backend) StartContainer(_ siren.Position, c *siren.Container) error {
	if b.w != nil {
		return b.writeInt32(int32(c.Size))
	}
	n, err := b.readInt32()
	if err != nil {
		return err
	}
	c.Size = int(n)
	return nil
}

func (b *backend) EndContainer(*siren.Container) error { return nil }

func (b *backend) WriteClassID(typeName string, id int32, version int) error {
	if err := b.writeInt32(id); err != nil {
		return err
	}
	if err := encio.WriteUTF16(b.w, typeName); err != nil {
		return err
	}
	return b.writeInt32(int32(version))
}

func (b *backend) ReadClassID(typeName string) (int32, int, error) {
	header := b.peeked
	b.peeked = nil
	if header == nil {
		var err error
		if header, err = b.readTypeHeader(nil); err != nil {
			return 0, 0, err
		}
	}

	if !header.full {
		return 0, 0, encio.Errorf(encio.ErrCorruptedData, "expected the first occurrence of %v, got a repeat of class id %v", typeName, header.id)
	}
	if header.name != typeName {
		return 0, 0, encio.Errorf(encio.ErrCorruptedData, "expected type %v, archive has %v", typeName, header.name)
	}
	return header.id, header.version, nil
}

func (b *backend) WriteMagic(id int32) error {
	return b.writeInt32(id)
}

func (b *backend) ReadMagic() (int32, error) {
	if header := b.peeked; header != nil {
		b.peeked = nil
		return header.id, nil
	}
	return b.readInt32()
}

func (b *backend) PeekNextType(_ siren.Position, known func(int32) (string, bool)) (string, error) {
	if b.peeked == nil {
		header, err := b.readTypeHeader(known)
		if err != nil {
			return "", err
		}
		b.peeked = header
	}
	return b.peeked.name, nil
}

// readTypeHeader reads a class id, and the name and version following it if the id is not known.
func (b *backend) readTypeHeader(known func(int32) (string, bool)) (*typeHeader, error) {
	id, err := b.readInt32()
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, encio.Errorf(encio.ErrCorruptedData, "invalid class id %v", id)
	}

	if known != nil {
		if name, ok := known(id); ok {
			return &typeHeader{id: id, name: name}, nil
		}
	}

	name, err := encio.ReadUTF16(b.r)
	if err != nil {
		return nil, err
	}
	version, err := b.readInt32()
	if err != nil {
		return nil, err
	}
	return &typeHeader{id: id, full: true, name: name, version: int(version)}, nil
}

func (b *backend) WriteNumber(_ siren.Position, k siren.Kind, bits uint64) error {
	size := k.Size()
	encio.EncodeSized(b.buff[:], bits, size)
	return encio.Write(b.buff[:size], b.w)
}

func (b *backend) ReadNumber(_ siren.Position, k siren.Kind) (uint64, error) {
	size := k.Size()
	if err := b.read(b.buff[:size]); err != nil {
		return 0, err
	}
	return encio.DecodeSized(b.buff[:], size), nil
}

func (b *backend) WriteBool(_ siren.Position, v bool) error {
	b.buff[0] = 0
	if v {
		b.buff[0] = 1
	}
	return encio.Write(b.buff[:1], b.w)
}

func (b *backend) ReadBool(siren.Position) (bool, error) {
	if err := b.read(b.buff[:1]); err != nil {
		return false, err
	}
	switch b.buff[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, encio.Errorf(encio.ErrCorruptedData, "invalid bool %v", b.buff[0])
	}
}

func (b *backend) WriteStringRef(_ siren.Position, id int32) error { return b.writeInt32(id) }

func (b *backend) ReadStringRef(siren.Position) (int32, error) { return b.readInt32() }

func (b *backend) WriteString(_ int32, s string) error { return encio.WriteUTF16(b.w, s) }

func (b *backend) ReadString(int32) (string, error) {
	if b.peeked != nil {
		return "", encio.Errorf(encio.ErrProgramBug, "string read while the peeked type %v is pending", b.peeked.id)
	}
	return encio.ReadUTF16(b.r)
}

func (b *backend) WriteBlobRef(_ siren.Position, id int32) error { return b.writeInt32(id) }

func (b *backend) ReadBlobRef(siren.Position) (int32, error) { return b.readInt32() }

func (b *backend) WriteBlob(_ int32, data []byte) error {
	if err := b.writeInt32(int32(len(data))); err != nil {
		return err
	}
	return encio.Write(data, b.w)
}

func (b *backend) ReadBlob(int32) ([]byte, error) {
	l, err := b.readInt32()
	if err != nil {
		return nil, err
	}
	if err := encio.CheckSize(int(l), "blob"); err != nil {
		return nil, err
	}

	data := make([]byte, l)
	if err := b.read(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (b *backend) WriteTargetRef(_ siren.Position, id int32) error { return b.writeInt32(id) }

func (b *backend) ReadTargetRef(siren.Position) (int32, error) { return b.readInt32() }

// Targets are written inline, after the first reference to them.
func (b *backend) StartTarget(int32) error { return nil }

func (b *backend) EndTarget(int32) error { return nil }

func (b *backend) Close() error {
	if b.peeked != nil {
		return encio.Errorf(encio.ErrCorruptedData, "stream ended with the header of %v unread", b.peeked.name)
	}
	return nil
}
