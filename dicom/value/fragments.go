package value

import (
	"encoding/binary"
	"fmt"

	"github.com/dcmkit/pacs/dicom/vr"
)

// FragmentsValue represents encapsulated Pixel Data (7FE0,0010) under a
// compressed transfer syntax: a Basic Offset Table followed by one or
// more compressed fragments, each carried as its own Item (FFFE,E000).
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
type FragmentsValue struct {
	v              vr.VR
	offsetTable    []uint32
	fragments      [][]byte
}

// NewFragmentsValue creates a FragmentsValue. offsetTable may be empty
// (it commonly is for single-frame images); fragments holds the raw
// compressed bytes of each Item after the offset table, in order.
func NewFragmentsValue(v vr.VR, offsetTable []uint32, fragments [][]byte) (*FragmentsValue, error) {
	if v != vr.OtherByte && v != vr.OtherWord {
		return nil, fmt.Errorf("VR %s cannot hold encapsulated pixel fragments", v.String())
	}
	if fragments == nil {
		fragments = [][]byte{}
	}
	if offsetTable == nil {
		offsetTable = []uint32{}
	}
	return &FragmentsValue{v: v, offsetTable: offsetTable, fragments: fragments}, nil
}

// VR returns the VR the pixel data element was declared with (OB or OW).
func (f *FragmentsValue) VR() vr.VR {
	return f.v
}

// OffsetTable returns the Basic Offset Table's per-frame byte offsets.
// Empty means each fragment is one complete frame.
func (f *FragmentsValue) OffsetTable() []uint32 {
	return f.offsetTable
}

// Fragments returns the raw compressed bytes of each fragment, in
// encoding order, excluding the offset table item and the item/
// sequence delimiters.
func (f *FragmentsValue) Fragments() [][]byte {
	return f.fragments
}

// NumFrames returns the number of frames, using the offset table when
// present and otherwise assuming one fragment per frame.
func (f *FragmentsValue) NumFrames() int {
	if len(f.offsetTable) > 0 {
		return len(f.offsetTable)
	}
	return len(f.fragments)
}

// Bytes concatenates all fragments (without the offset table or item
// headers), matching the behavior expected when a caller just wants
// the compressed bitstream for a single-fragment-per-frame image.
func (f *FragmentsValue) Bytes() []byte {
	total := 0
	for _, frag := range f.fragments {
		total += len(frag)
	}
	out := make([]byte, 0, total)
	for _, frag := range f.fragments {
		out = append(out, frag...)
	}
	return out
}

// String returns a human-readable summary.
func (f *FragmentsValue) String() string {
	return fmt.Sprintf("Encapsulated Pixel Data: %d fragment(s), %d frame offset(s)", len(f.fragments), len(f.offsetTable))
}

// Equals compares offset tables and fragment bytes.
func (f *FragmentsValue) Equals(other Value) bool {
	o, ok := other.(*FragmentsValue)
	if !ok || f.v != o.v {
		return false
	}
	if len(f.offsetTable) != len(o.offsetTable) || len(f.fragments) != len(o.fragments) {
		return false
	}
	for i := range f.offsetTable {
		if f.offsetTable[i] != o.offsetTable[i] {
			return false
		}
	}
	for i := range f.fragments {
		if len(f.fragments[i]) != len(o.fragments[i]) {
			return false
		}
		for j := range f.fragments[i] {
			if f.fragments[i][j] != o.fragments[i][j] {
				return false
			}
		}
	}
	return true
}

var _ Value = (*FragmentsValue)(nil)

// EncodeOffsetTable encodes the Basic Offset Table item payload
// (always little-endian per Part 5 Annex A.4, regardless of transfer
// syntax byte order, since encapsulated transfer syntaxes are always
// little-endian in practice).
func EncodeOffsetTable(offsets []uint32) []byte {
	out := make([]byte, len(offsets)*4)
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(out[i*4:], off)
	}
	return out
}
