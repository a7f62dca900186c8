package xmlstream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/encio"
)

// Element and attribute names.
const (
	tagRoot      = "sirenml"
	tagObject    = "object"
	tagNumber    = "number"
	tagFlag      = "flag"
	tagString    = "string"
	tagBinary    = "binary"
	tagReference = "reference"
	tagEntry     = "entry"
	tagKey       = "key"
	tagValue     = "value"

	tagClasses  = "classes"
	tagClass    = "class"
	tagStrings  = "strings"
	tagStrData  = "strdata"
	tagBinaries = "binaries"
	tagBinData  = "bindata"
	tagTargets  = "targets"
	tagTarget   = "target"

	attrVersion         = "version"
	attrType            = "type"
	attrID              = "id"
	attrName            = "name"
	attrBase            = "base"
	attrIndex           = "index"
	attrValue           = "value"
	attrSize            = "size"
	attrKeyType         = "key_type"
	attrValueType       = "value_type"
	attrAllowDuplicates = "allow_duplicates"
	attrEncoding        = "encoding"

	encodingBase64 = "base64"
)

func isSection(tag string) bool {
	switch tag {
	case tagClasses, tagStrings, tagBinaries, tagTargets:
		return true
	}
	return false
}

// verbatim reports whether s survives as element text.
// Whitespace-only text is taken for indentation, and XML cannot carry some characters at all.
func verbatim(s string) bool {
	blank := true
	for i, r := range s {
		switch {
		case r == utf8.RuneError && !strings.HasPrefix(s[i:], "\uFFFD"):
			return false
		case r == '\r':
			return false
		case r < 0x20 && r != '\t' && r != '\n':
			return false
		case r == 0xFFFE || r == 0xFFFF:
			return false
		}
		if !unicode.IsSpace(r) {
			blank = false
		}
	}
	return !blank
}

func corrupt(format string, args ...interface{}) error {
	return encio.NewError(encio.ErrCorruptedData, fmt.Sprintf(format, args...), encio.GetCaller(1))
}

func describe(el *etree.Element) string {
	if el == nil {
		return "<nil>"
	}
	return "<" + el.Tag + ">"
}

// frame is an element whose children are being written or read.
type frame struct {
	el *etree.Element

	// children and cursor are only used when loading.
	// cursor is the index after the last child read.
	children []*etree.Element
	cursor   int

	// entry is the last map entry started in this frame.
	entry *etree.Element
}

func newFrame(el *etree.Element) *frame {
	return &frame{el: el}
}

func newReadFrame(el *etree.Element) *frame {
	return &frame{el: el, children: el.ChildElements()}
}

// find returns the first child matching match, scanning from the cursor to the end and then from the start.
func (f *frame) find(match func(*etree.Element) bool, consume bool) *etree.Element {
	n := len(f.children)
	for i := 0; i < n; i++ {
		j := (f.cursor + i) % n
		if match(f.children[j]) {
			if consume {
				f.cursor = j + 1
			}
			return f.children[j]
		}
	}
	return nil
}

// next returns the next child after the cursor that matches match.
func (f *frame) next(match func(*etree.Element) bool, consume bool) *etree.Element {
	for j := f.cursor; j < len(f.children); j++ {
		if match(f.children[j]) {
			if consume {
				f.cursor = j + 1
			}
			return f.children[j]
		}
	}
	return nil
}

func firstChild(el *etree.Element) *etree.Element {
	if el == nil {
		return nil
	}
	for _, t := range el.Child {
		if c, ok := t.(*etree.Element); ok {
			return c
		}
	}
	return nil
}

func unlocated(el *etree.Element) bool {
	return el.SelectAttr(attrName) == nil && el.SelectAttr(attrBase) == nil && !isSection(el.Tag)
}

func intAttr(el *etree.Element, key string) (int, error) {
	attr := el.SelectAttr(key)
	if attr == nil {
		return 0, corrupt("%v has no %v attribute", describe(el), key)
	}
	n, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, corrupt("%v has invalid %v %q", describe(el), key, attr.Value)
	}
	return n, nil
}

func id32Attr(el *etree.Element) (int32, error) {
	n, err := intAttr(el, attrID)
	if err != nil {
		return 0, err
	}
	if n < 0 || int(int32(n)) != n {
		return 0, corrupt("%v has invalid id %v", describe(el), n)
	}
	return int32(n), nil
}

func boolAttr(el *etree.Element, key string) (bool, error) {
	switch v := el.SelectAttrValue(key, ""); v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, corrupt("%v has invalid %v %q", describe(el), key, v)
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatNumber returns the decimal text of a number passed as zero-extended bits.
func formatNumber(k siren.Kind, bits uint64) string {
	switch {
	case k == siren.Float32:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(bits))), 'g', -1, 32)
	case k == siren.Float64:
		return strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64)
	case k.Signed():
		shift := 64 - 8*uint(k.Size())
		return strconv.FormatInt(int64(bits<<shift)>>shift, 10)
	default:
		return strconv.FormatUint(bits, 10)
	}
}

// parseNumber returns the zero-extended bits of text as a number of kind k.
func parseNumber(k siren.Kind, text string) (uint64, error) {
	bitSize := 8 * k.Size()
	switch {
	case k == siren.Float32:
		f, err := strconv.ParseFloat(text, 32)
		return uint64(math.Float32bits(float32(f))), err
	case k == siren.Float64:
		f, err := strconv.ParseFloat(text, 64)
		return math.Float64bits(f), err
	case k.Signed():
		n, err := strconv.ParseInt(text, 10, bitSize)
		mask := ^uint64(0) >> (64 - uint(bitSize))
		return uint64(n) & mask, err
	default:
		return strconv.ParseUint(text, 10, bitSize)
	}
}
