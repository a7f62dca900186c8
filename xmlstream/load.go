package xmlstream

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
)

type classEntry struct {
	id      int32
	version int
}

// loader reads from a parsed document. Sections are indexed up front; values are found by position.
type loader struct {
	classes  map[string]classEntry
	strings  map[int32]*etree.Element
	binaries map[int32]*etree.Element
	targets  map[int32]*etree.Element

	frames []*frame
}

func newLoader(r io.Reader) (*loader, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, encio.NewError(encio.ErrCorruptedData, "malformed XML: "+err.Error(), "")
	}

	root := doc.Root()
	if root == nil || root.Tag != tagRoot {
		return nil, corrupt("document root is %v, not <%v>", describe(root), tagRoot)
	}
	version, err := intAttr(root, attrVersion)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > FormatVersion {
		return nil, encio.Errorf(encio.ErrVersion, "document format version %v is not supported; the newest readable is %v", version, FormatVersion)
	}

	b := &loader{
		classes:  make(map[string]classEntry),
		strings:  make(map[int32]*etree.Element),
		binaries: make(map[int32]*etree.Element),
		targets:  make(map[int32]*etree.Element),
		frames:   []*frame{newReadFrame(root)},
	}

	for _, el := range root.SelectElements(tagClasses) {
		for _, class := range el.SelectElements(tagClass) {
			if err := b.addClass(class); err != nil {
				return nil, err
			}
		}
	}
	for _, section := range []struct {
		tag, entry string
		table      map[int32]*etree.Element
	}{
		{tagStrings, tagStrData, b.strings},
		{tagBinaries, tagBinData, b.binaries},
		{tagTargets, tagTarget, b.targets},
	} {
		for _, el := range root.SelectElements(section.tag) {
			if err := index(el, section.entry, section.table); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

func (b *loader) addClass(el *etree.Element) error {
	name := el.SelectAttrValue(attrType, "")
	if name == "" {
		return corrupt("%v has no type", describe(el))
	}
	id, err := id32Attr(el)
	if err != nil {
		return err
	}
	version, err := intAttr(el, attrVersion)
	if err != nil {
		return err
	}
	if _, ok := b.classes[name]; ok {
		return corrupt("class %v is declared twice", name)
	}
	b.classes[name] = classEntry{id: id, version: version}
	return nil
}

func index(section *etree.Element, tag string, table map[int32]*etree.Element) error {
	for _, el := range section.SelectElements(tag) {
		id, err := id32Attr(el)
		if err != nil {
			return err
		}
		if _, ok := table[id]; ok {
			return corrupt("<%v id=\"%v\"> is declared twice", tag, id)
		}
		table[id] = el
	}
	return nil
}

func (b *loader) top() *frame {
	return b.frames[len(b.frames)-1]
}

func (b *loader) pop(tag string) (*etree.Element, error) {
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

// locate finds the element of the value at pos.
// Unless consume is set, the frame is left as it was, so the value can be located again.
func (b *loader) locate(pos siren.Position, consume bool) (*etree.Element, error) {
	f := b.top()
	var el *etree.Element

	switch pos.Kind {
	case siren.PosNone:
		el = f.next(unlocated, consume)
	case siren.PosData:
		el = f.find(func(c *etree.Element) bool {
			return c.SelectAttrValue(attrName, "") == pos.Name
		}, consume)
	case siren.PosBase:
		el = f.find(func(c *etree.Element) bool {
			return c.SelectAttrValue(attrBase, "") == "true"
		}, consume)
	case siren.PosIndex:
		want := strconv.Itoa(pos.Index)
		el = firstChild(f.find(func(c *etree.Element) bool {
			return c.Tag == tagEntry && c.SelectAttrValue(attrIndex, "") == want
		}, consume))
	case siren.PosEntry:
		el = firstChild(f.next(isEntry, consume))
	case siren.PosKey:
		entry := f.next(isEntry, consume)
		if entry != nil && consume {
			f.entry = entry
		}
		el = firstChild(selectElement(entry, tagKey))
	case siren.PosValue:
		if f.entry == nil {
			return nil, encio.Errorf(encio.ErrProgramBug, "map value read before its key")
		}
		el = firstChild(f.entry.SelectElement(tagValue))
		if consume {
			f.entry = nil
		}
	default:
		return nil, encio.Errorf(encio.ErrProgramBug, "unknown position %v", pos)
	}

	if el == nil {
		return nil, corrupt("%v has no value at %v", describe(f.el), pos)
	}
	return el, nil
}

func isEntry(el *etree.Element) bool {
	return el.Tag == tagEntry
}

func selectElement(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.SelectElement(tag)
}

// value consumes the element at pos, which must be a tag element.
func (b *loader) value(pos siren.Position, tag string) (*etree.Element, error) {
	el, err := b.locate(pos, true)
	if err != nil {
		return nil, err
	}
	if el.Tag != tag {
		return nil, corrupt("expected <%v> at %v, found %v", tag, pos, describe(el))
	}
	return el, nil
}

func (b *loader) Decorated() bool { return true }

func (b *loader) StartItem(pos siren.Position, typeName string) error {
	el, err := b.value(pos, tagObject)
	if err != nil {
		return err
	}
	if t := el.SelectAttrValue(attrType, ""); t != typeName {
		return corrupt("expected object of type %v at %v, found %v", typeName, pos, t)
	}
	b.frames = append(b.frames, newReadFrame(el))
	return nil
}

func (b *loader) EndItem(typeName string) error {
	el, err := b.pop(tagObject)
	if err != nil {
		return err
	}
	if t := el.SelectAttrValue(attrType, ""); t != typeName {
		return encio.Errorf(encio.ErrProgramBug, "object %v closed as %v", t, typeName)
	}
	return nil
}

func (b *loader) StartContainer(pos siren.Position, c *siren.Container) error {
	el, err := b.value(pos, c.Kind.String())
	if err != nil {
		return err
	}
	if err := matchHeader(el, c); err != nil {
		return err
	}
	if c.Size, err = intAttr(el, attrSize); err != nil {
		return err
	}
	b.frames = append(b.frames, newReadFrame(el))
	return nil
}

// matchHeader checks the types of a container element against the expected header.
func matchHeader(el *etree.Element, c *siren.Container) error {
	attrs := map[string]string{attrType: c.Type}
	if c.Kind == siren.MapContainer {
		attrs = map[string]string{
			attrKeyType:         c.KeyType,
			attrValueType:       c.ValueType,
			attrAllowDuplicates: formatBool(c.AllowDuplicates),
		}
	}
	for key, want := range attrs {
		if got := el.SelectAttrValue(key, ""); got != want {
			return corrupt("%v has %v %q, expected %q", describe(el), key, got, want)
		}
	}
	return nil
}

func (b *loader) EndContainer(c *siren.Container) error {
	el, err := b.pop(c.Kind.String())
	if err != nil {
		return err
	}
	if err := matchHeader(el, c); err != nil {
		return err
	}
	size, err := intAttr(el, attrSize)
	if err != nil {
		return err
	}
	if size != c.Size {
		return corrupt("%v closed with size %v, opened with %v", describe(el), c.Size, size)
	}
	return nil
}

func (b *loader) WriteClassID(string, int32, int) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadClassID(typeName string) (int32, int, error) {
	entry, ok := b.classes[typeName]
	if !ok {
		return 0, 0, corrupt("class %v is not declared in the document", typeName)
	}
	return entry.id, entry.version, nil
}

func (b *loader) WriteMagic(int32) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadMagic() (int32, error) {
	return 0, encio.Errorf(encio.ErrProgramBug, "decorated documents have no magic numbers")
}

func (b *loader) PeekNextType(pos siren.Position, _ func(int32) (string, bool)) (string, error) {
	el, err := b.locate(pos, false)
	if err != nil {
		return "", err
	}
	if el.Tag != tagObject {
		return "", corrupt("expected <%v> at %v, found %v", tagObject, pos, describe(el))
	}
	t := el.SelectAttrValue(attrType, "")
	if t == "" {
		return "", corrupt("object at %v has no type", pos)
	}
	return t, nil
}

func (b *loader) WriteNumber(siren.Position, siren.Kind, uint64) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadNumber(pos siren.Position, k siren.Kind) (uint64, error) {
	el, err := b.value(pos, tagNumber)
	if err != nil {
		return 0, err
	}
	if t := el.SelectAttrValue(attrType, ""); t != k.String() {
		return 0, corrupt("expected %v at %v, found %v", k, pos, t)
	}
	text := el.SelectAttrValue(attrValue, "")
	bits, err := parseNumber(k, text)
	if err != nil {
		return 0, corrupt("invalid %v %q at %v", k, text, pos)
	}
	return bits, nil
}

func (b *loader) WriteBool(siren.Position, bool) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadBool(pos siren.Position) (bool, error) {
	el, err := b.value(pos, tagFlag)
	if err != nil {
		return false, err
	}
	return boolAttr(el, attrValue)
}

func (b *loader) readRef(pos siren.Position, tag string) (int32, error) {
	el, err := b.value(pos, tag)
	if err != nil {
		return 0, err
	}
	return id32Attr(el)
}

func (b *loader) WriteStringRef(siren.Position, int32) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadStringRef(pos siren.Position) (int32, error) {
	return b.readRef(pos, tagString)
}

func (b *loader) WriteString(int32, string) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadString(id int32) (string, error) {
	el, ok := b.strings[id]
	if !ok {
		return "", corrupt("string %v is not in the document", id)
	}

	switch encoding := el.SelectAttrValue(attrEncoding, ""); encoding {
	case "":
		return el.Text(), nil
	case encodingBase64:
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(el.Text()))
		if err != nil {
			return "", corrupt("string %v is not valid base64: %v", id, err)
		}
		return string(data), nil
	default:
		return "", corrupt("string %v has unknown encoding %q", id, encoding)
	}
}

func (b *loader) WriteBlobRef(siren.Position, int32) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadBlobRef(pos siren.Position) (int32, error) {
	return b.readRef(pos, tagBinary)
}

func (b *loader) WriteBlob(int32, []byte) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadBlob(id int32) ([]byte, error) {
	el, ok := b.binaries[id]
	if !ok {
		return nil, corrupt("binary %v is not in the document", id)
	}
	size, err := intAttr(el, attrSize)
	if err != nil {
		return nil, err
	}
	if err := encio.CheckSize(size, "binary"); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(el.Text()))
	if err != nil {
		return nil, corrupt("binary %v is not valid base64: %v", id, err)
	}
	if len(data) != size {
		return nil, corrupt("binary %v has %v bytes, but its size is %v", id, len(data), size)
	}
	return data, nil
}

func (b *loader) WriteTargetRef(siren.Position, int32) error {
	return encio.Errorf(encio.ErrInvalidOperation, "loading stream cannot write")
}

func (b *loader) ReadTargetRef(pos siren.Position) (int32, error) {
	return b.readRef(pos, tagReference)
}

func (b *loader) StartTarget(id int32) error {
	el, ok := b.targets[id]
	if !ok {
		return corrupt("target %v is not in the document", id)
	}
	b.frames = append(b.frames, newReadFrame(el))
	return nil
}

func (b *loader) EndTarget(int32) error {
	_, err := b.pop(tagTarget)
	return err
}

func (b *loader) Close() error {
	if len(b.frames) != 1 {
		return encio.Errorf(encio.ErrProgramBug, "document closed while %v is open", describe(b.top().el))
	}
	return nil
}
