package xmlstream

import (
	"encoding/base64"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
)

// saver builds a document in memory, writing it out on Close.
type saver struct {
	w       io.Writer
	options *Options

	doc  *etree.Document
	root *etree.Element

	classes, strings, binaries, targets *etree.Element

	frames []*frame
}

func newSaver(w io.Writer, options *Options) *saver {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(tagRoot)
	root.CreateAttr(attrVersion, strconv.Itoa(FormatVersion))

	return &saver{
		w:        w,
		options:  options,
		doc:      doc,
		root:     root,
		classes:  etree.NewElement(tagClasses),
		strings:  etree.NewElement(tagStrings),
		binaries: etree.NewElement(tagBinaries),
		targets:  etree.NewElement(tagTargets),
		frames:   []*frame{newFrame(root)},
	}
}

func (b *saver) top() *frame {
	return b.frames[len(b.frames)-1]
}

func (b *saver) push(el *etree.Element) {
	b.frames = append(b.frames, newFrame(el))
}

func (b *saver) pop(tag string) (*etree.Element, error) {
	if len(b.frames) == 1 {
		return nil, encio.Errorf(encio.ErrProgramBug, "<%v> closed at the document root", tag)
	}
	f := b.top()
	if f.el.Tag != tag {
		return nil, encio.Errorf(encio.ErrProgramBug, "<%v> closed while %v is open", tag, describe(f.el))
	}
	b.frames = b.frames[:len(b.frames)-1]
	return f.el, nil
}

// create adds the element for the value at pos, wrapping it in the entry elements containers use.
func (b *saver) create(pos siren.Position, tag string) (*etree.Element, error) {
	f := b.top()
	parent := f.el
	var locator *etree.Attr

	switch pos.Kind {
	case siren.PosNone:
	case siren.PosData:
		locator = &etree.Attr{Key: attrName, Value: pos.Name}
	case siren.PosBase:
		locator = &etree.Attr{Key: attrBase, Value: "true"}
	case siren.PosIndex:
		parent = parent.CreateElement(tagEntry)
		parent.CreateAttr(attrIndex, strconv.Itoa(pos.Index))
	case siren.PosEntry:
		parent = parent.CreateElement(tagEntry)
	case siren.PosKey:
		f.entry = parent.CreateElement(tagEntry)
		parent = f.entry.CreateElement(tagKey)
	case siren.PosValue:
		if f.entry == nil {
			return nil, encio.Errorf(encio.ErrProgramBug, "map value written before its key")
		}
		parent = f.entry.CreateElement(tagValue)
		f.entry = nil
	default:
		return nil, encio.Errorf(encio.ErrProgramBug, "unknown position %v", pos)
	}

	el := parent.CreateElement(tag)
	if locator != nil {
		el.CreateAttr(locator.Key, locator.Value)
	}
	return el, nil
}

func (b *saver) Decorated() bool { return true }

func (b *saver) StartItem(pos siren.Position, typeName string) error {
	el, err := b.create(pos, tagObject)
	if err != nil {
		return err
	}
	el.CreateAttr(attrType, typeName)
	b.push(el)
	return nil
}

func (b *saver) EndItem(typeName string) error {
	el, err := b.pop(tagObject)
	if err != nil {
		return err
	}
	if t := el.SelectAttrValue(attrType, ""); t != typeName {
		return encio.Errorf(encio.ErrProgramBug, "object %v closed as %v", t, typeName)
	}
	return nil
}

func (b *saver) StartContainer(pos siren.Position, c *siren.Container) error {
	el, err := b.create(pos, c.Kind.String())
	if err != nil {
		return err
	}
	if c.Kind == siren.MapContainer {
		el.CreateAttr(attrKeyType, c.KeyType)
		el.CreateAttr(attrValueType, c.ValueType)
		el.CreateAttr(attrSize, strconv.Itoa(c.Size))
		el.CreateAttr(attrAllowDuplicates, formatBool(c.AllowDuplicates))
	} else {
		el.CreateAttr(attrType, c.Type)
		el.CreateAttr(attrSize, strconv.Itoa(c.Size))
	}
	b.push(el)
	return nil
}

func (b *saver) EndContainer(c *siren.Container) error {
	_, err := b.pop(c.Kind.String())
	return err
}

func (b *saver) WriteClassID(typeName string, id int32, version int) error {
	el := b.classes.CreateElement(tagClass)
	el.CreateAttr(attrType, typeName)
	el.CreateAttr(attrID, strconv.Itoa(int(id)))
	el.CreateAttr(attrVersion, strconv.Itoa(version))
	return nil
}

func (b *saver) ReadClassID(string) (int32, int, error) {
	return 0, 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteMagic(int32) error {
	return encio.Errorf(encio.ErrProgramBug, "decorated documents have no magic numbers")
}

func (b *saver) ReadMagic() (int32, error) {
	return 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) PeekNextType(siren.Position, func(int32) (string, bool)) (string, error) {
	return "", encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteNumber(pos siren.Position, k siren.Kind, bits uint64) error {
	el, err := b.create(pos, tagNumber)
	if err != nil {
		return err
	}
	el.CreateAttr(attrType, k.String())
	el.CreateAttr(attrValue, formatNumber(k, bits))
	return nil
}

func (b *saver) ReadNumber(siren.Position, siren.Kind) (uint64, error) {
	return 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteBool(pos siren.Position, v bool) error {
	el, err := b.create(pos, tagFlag)
	if err != nil {
		return err
	}
	el.CreateAttr(attrValue, formatBool(v))
	return nil
}

func (b *saver) ReadBool(siren.Position) (bool, error) {
	return false, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) writeRef(pos siren.Position, tag string, id int32) error {
	el, err := b.create(pos, tag)
	if err != nil {
		return err
	}
	el.CreateAttr(attrID, strconv.Itoa(int(id)))
	return nil
}

func (b *saver) WriteStringRef(pos siren.Position, id int32) error {
	return b.writeRef(pos, tagString, id)
}

func (b *saver) ReadStringRef(siren.Position) (int32, error) {
	return 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteString(id int32, s string) error {
	el := b.strings.CreateElement(tagStrData)
	el.CreateAttr(attrID, strconv.Itoa(int(id)))
	if verbatim(s) {
		el.SetText(s)
	} else {
		el.CreateAttr(attrEncoding, encodingBase64)
		el.SetText(base64.StdEncoding.EncodeToString([]byte(s)))
	}
	return nil
}

func (b *saver) ReadString(int32) (string, error) {
	return "", encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteBlobRef(pos siren.Position, id int32) error {
	return b.writeRef(pos, tagBinary, id)
}

func (b *saver) ReadBlobRef(siren.Position) (int32, error) {
	return 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteBlob(id int32, data []byte) error {
	el := b.binaries.CreateElement(tagBinData)
	el.CreateAttr(attrID, strconv.Itoa(int(id)))
	el.CreateAttr(attrSize, strconv.Itoa(len(data)))
	el.SetText(base64.StdEncoding.EncodeToString(data))
	return nil
}

func (b *saver) ReadBlob(int32) ([]byte, error) {
	return nil, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) WriteTargetRef(pos siren.Position, id int32) error {
	return b.writeRef(pos, tagReference, id)
}

func (b *saver) ReadTargetRef(siren.Position) (int32, error) {
	return 0, encio.Errorf(encio.ErrInvalidOperation, "saving stream cannot read")
}

func (b *saver) StartTarget(id int32) error {
	el := b.targets.CreateElement(tagTarget)
	el.CreateAttr(attrID, strconv.Itoa(int(id)))
	b.push(el)
	return nil
}

func (b *saver) EndTarget(int32) error {
	_, err := b.pop(tagTarget)
	return err
}

// Close adds the sections to the document and writes it.
func (b *saver) Close() error {
	if len(b.frames) != 1 {
		return encio.Errorf(encio.ErrProgramBug, "document closed while %v is open", describe(b.top().el))
	}

	b.root.AddChild(b.classes)
	b.root.AddChild(b.strings)
	b.root.AddChild(b.binaries)
	b.root.AddChild(b.targets)

	if !b.options.Compact {
		b.doc.Indent(b.options.Indent)
	}
	if _, err := b.doc.WriteTo(b.w); err != nil {
		return encio.NewIOError(err, b.w, "", 0)
	}
	return nil
}
