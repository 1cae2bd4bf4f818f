package value

import (
	"fmt"
	"strings"

	"github.com/dcmkit/pacs/dicom/vr"
)

// Item is one entry of a Sequence of Items (SQ) value: an ordered,
// nested dataset of its own. Item does not import the dicom/element
// package to avoid a cycle (element holds Values, and SQ values hold
// Items that are themselves trees of elements); ItemElement is the
// minimal per-element shape an Item needs.
type ItemElement struct {
	Tag   uint32 // (group<<16)|element, mirrors tag.Tag.Uint32()
	VR    vr.VR
	Value Value
}

// Item is a single dataset nested inside a sequence, preserving the
// encoding order of its elements.
type Item struct {
	Elements []ItemElement

	// UndefinedLength records whether this item was encoded with
	// length 0xFFFFFFFF (terminated by an Item Delimitation Item)
	// rather than an explicit byte count, so the writer can reproduce
	// the same encoding style on round-trip.
	UndefinedLength bool
}

// Get returns the first element in the item matching the given tag.
func (it *Item) Get(tagValue uint32) (ItemElement, bool) {
	for _, e := range it.Elements {
		if e.Tag == tagValue {
			return e, true
		}
	}
	return ItemElement{}, false
}

// SequenceValue represents a DICOM Sequence of Items (SQ) value: an
// ordered list of nested Items.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
type SequenceValue struct {
	items           []*Item
	undefinedLength bool
}

// NewSequenceValue creates a SequenceValue from a list of items.
// undefinedLength records whether the sequence itself (not the items)
// was encoded with length 0xFFFFFFFF.
func NewSequenceValue(items []*Item, undefinedLength bool) *SequenceValue {
	if items == nil {
		items = []*Item{}
	}
	return &SequenceValue{items: items, undefinedLength: undefinedLength}
}

// VR always returns SequenceOfItems.
func (s *SequenceValue) VR() vr.VR {
	return vr.SequenceOfItems
}

// Items returns the nested items in encoding order.
func (s *SequenceValue) Items() []*Item {
	return s.items
}

// UndefinedLength reports whether the sequence was parsed with an
// undefined (0xFFFFFFFF) length.
func (s *SequenceValue) UndefinedLength() bool {
	return s.undefinedLength
}

// Bytes is not meaningful for sequences; writing a sequence requires
// walking its items and re-encoding each nested element under the
// transfer syntax in force, which the element-parser/writer pair does
// directly rather than through a flat byte encoding. Bytes returns an
// empty slice so SequenceValue still satisfies Value.
func (s *SequenceValue) Bytes() []byte {
	return []byte{}
}

// String returns a human-readable summary.
func (s *SequenceValue) String() string {
	return fmt.Sprintf("Sequence with %d item(s)", len(s.items))
}

// Equals compares sequences item-by-item and element-by-element.
func (s *SequenceValue) Equals(other Value) bool {
	o, ok := other.(*SequenceValue)
	if !ok || len(s.items) != len(o.items) {
		return false
	}
	for i, item := range s.items {
		oi := o.items[i]
		if len(item.Elements) != len(oi.Elements) {
			return false
		}
		for j, e := range item.Elements {
			oe := oi.Elements[j]
			if e.Tag != oe.Tag || e.VR != oe.VR || !e.Value.Equals(oe.Value) {
				return false
			}
		}
	}
	return true
}

var _ Value = (*SequenceValue)(nil)

// itemString renders an Item for debugging/display purposes.
func itemString(it *Item) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, e := range it.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("(%04X,%04X)=%s", e.Tag>>16, e.Tag&0xFFFF, e.Value.String()))
	}
	sb.WriteString("}")
	return sb.String()
}
