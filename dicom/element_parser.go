// Package dicom provides DICOM file parsing and manipulation.
package dicom

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dcmkit/pacs/dicom/element"
	"github.com/dcmkit/pacs/dicom/tag"
	"github.com/dcmkit/pacs/dicom/value"
	"github.com/dcmkit/pacs/dicom/vr"
)

// Item/sequence delimiter tags (FFFE group), shared by the sequence
// and encapsulated-pixel-data parsers below.
const (
	itemTag                 = uint32(0xFFFEE000)
	itemDelimitationTag     = uint32(0xFFFEE00D)
	sequenceDelimitationTag = uint32(0xFFFEE0DD)
)

// ElementParser reads individual DICOM data elements from a binary stream.
//
// It handles both Explicit VR and Implicit VR encoding based on the Transfer Syntax.
// Element structure varies by VR:
//   - Explicit VR (most VRs): Tag(4) + VR(2) + Length(2) + Value(n)
//   - Explicit VR (OB/OW/SQ/etc): Tag(4) + VR(2) + Reserved(2) + Length(4) + Value(n)
//   - Implicit VR: Tag(4) + Length(4) + Value(n), VR looked up in dictionary
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
type ElementParser struct {
	reader *Reader
	ts     *TransferSyntax
}

// NewElementParser creates a new element parser with the specified reader and transfer syntax.
func NewElementParser(reader *Reader, ts *TransferSyntax) *ElementParser {
	return &ElementParser{
		reader: reader,
		ts:     ts,
	}
}

// ReadElement reads the next data element from the stream.
//
// Returns an error if the element cannot be parsed or if the stream ends unexpectedly.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
func (p *ElementParser) ReadElement() (*element.Element, error) {
	// Read tag (4 bytes: group + element)
	t, err := p.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read tag: %w", err)
	}

	// Read VR based on transfer syntax
	var v vr.VR
	var length uint32

	if p.ts.ExplicitVR {
		// Explicit VR: VR is in the file
		v, err = p.readVRExplicit()
		if err != nil {
			return nil, fmt.Errorf("failed to read VR for tag %s: %w", t, err)
		}

		// Read length (2 or 4 bytes depending on VR)
		length, err = p.readLength(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	} else {
		// Implicit VR: VR must be looked up from tag dictionary
		v, err = p.readVRImplicit(t)
		if err != nil {
			return nil, fmt.Errorf("failed to look up VR for tag %s: %w", t, err)
		}

		// For Implicit VR, length is always 4 bytes
		length, err = p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	}

	// Read value based on VR type
	val, err := p.readValue(t, v, length)
	if err != nil {
		return nil, fmt.Errorf("failed to read value for tag %s: %w", t, err)
	}

	// Create and return element
	elem, err := element.NewElement(t, v, val)
	if err != nil {
		return nil, fmt.Errorf("failed to create element for tag %s: %w", t, err)
	}

	return elem, nil
}

// readTag reads a DICOM tag (group and element).
func (p *ElementParser) readTag() (tag.Tag, error) {
	// Read group (2 bytes)
	group, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag group: %w", err)
	}

	// Read element (2 bytes)
	elem, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag element: %w", err)
	}

	return tag.New(group, elem), nil
}

// readVRExplicit reads a 2-byte VR in Explicit VR encoding.
func (p *ElementParser) readVRExplicit() (vr.VR, error) {
	// Read 2-byte VR string
	vrStr, err := p.reader.ReadString(2)
	if err != nil {
		return 0, fmt.Errorf("failed to read VR: %w", err)
	}

	// Parse VR string
	v, err := vr.Parse(vrStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVR, vrStr)
	}

	return v, nil
}

// readVRImplicit looks up the VR for a tag from the DICOM data dictionary.
// This is used for Implicit VR transfer syntaxes where VR is not encoded in the file.
//
// For tags with multiple possible VRs (e.g., PixelData can be "OB or OW"),
// this returns the first VR in the list as the default.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readVRImplicit(t tag.Tag) (vr.VR, error) {
	// Look up tag in dictionary
	info, err := tag.Find(t)
	if err != nil {
		// Tag not in dictionary - use UN (Unknown) as fallback
		return vr.Unknown, nil
	}

	// Return first VR (for tags with multiple VRs like "OB or OW", use the first one)
	if len(info.VRs) == 0 {
		return vr.Unknown, nil
	}

	return info.VRs[0], nil
}

// readLength reads the value length field.
//
// Length encoding depends on VR:
//   - Most VRs: 2-byte uint16
//   - OB, OD, OF, OL, OV, OW, SQ, UC, UN, UR, UT: 2-byte reserved (0x0000) + 4-byte uint32
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readLength(v vr.VR) (uint32, error) {
	// Check if this VR uses 32-bit length field
	if v.UsesExplicitLength32() {
		// Read 2-byte reserved field (should be 0x0000 per standard, but
		// some writers don't zero it; not treated as an error).
		if _, err := p.reader.ReadUint16(); err != nil {
			return 0, fmt.Errorf("failed to read reserved field: %w", err)
		}

		// Read 4-byte length
		length, err := p.reader.ReadUint32()
		if err != nil {
			return 0, fmt.Errorf("failed to read 32-bit length: %w", err)
		}

		return length, nil
	}

	// Read 2-byte length for standard VRs
	length16, err := p.reader.ReadUint16()
	if err != nil {
		return 0, fmt.Errorf("failed to read 16-bit length: %w", err)
	}

	return uint32(length16), nil
}

// readValue reads and parses the value field based on VR type.
func (p *ElementParser) readValue(t tag.Tag, v vr.VR, length uint32) (value.Value, error) {
	// Handle empty values
	if length == 0 {
		return p.createEmptyValue(v)
	}

	// Handle undefined length (0xFFFFFFFF)
	if length == 0xFFFFFFFF {
		// Sequences with undefined length are terminated by a Sequence
		// Delimitation Item (FFFE,E0DD).
		if v == vr.SequenceOfItems {
			return p.parseUndefinedLengthSequence()
		}

		// Handle encapsulated pixel data (OB/OW with undefined length)
		// This is used for compressed transfer syntaxes (JPEG, JPEG 2000, RLE, etc.)
		// Per DICOM Part 5, Section A.4: encapsulated data uses undefined length
		// with fragments: Item (FFFE,E000) + data, terminated by Sequence Delimitation (FFFE,E0DD)
		//
		// DICOM Standard Reference:
		// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
		if (v == vr.OtherByte || v == vr.OtherWord) && t.Group == 0x7FE0 && t.Element == 0x0010 {
			return p.parseEncapsulatedPixelData(v)
		}

		return nil, fmt.Errorf("%w: undefined length for non-sequence VR %s", ErrUndefinedLength, v.String())
	}

	// Dispatch to VR-specific reader
	// Check sequences first, then float types before numeric types (floats are also numeric)
	switch {
	case v == vr.SequenceOfItems:
		return p.parseDefinedLengthSequence(length)
	case v.IsStringType():
		return p.readStringValue(v, length)
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return p.readFloatValue(v, length)
	case v.IsNumericType() || v == vr.AttributeTag:
		return p.readIntValue(v, length)
	case v.IsBinaryType():
		return p.readBytesValue(v, length)
	default:
		// Unknown VR, read as bytes
		return p.readBytesValue(vr.Unknown, length)
	}
}

// createEmptyValue creates an empty value for the given VR.
func (p *ElementParser) createEmptyValue(v vr.VR) (value.Value, error) {
	switch {
	case v == vr.SequenceOfItems:
		return value.NewSequenceValue(nil, false), nil
	case v.IsStringType():
		return value.NewStringValue(v, []string{})
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return value.NewFloatValue(v, []float64{})
	case v.IsNumericType() || v == vr.AttributeTag:
		return value.NewIntValue(v, []int64{})
	case v.IsBinaryType():
		return value.NewBytesValue(v, []byte{})
	default:
		return value.NewBytesValue(vr.Unknown, []byte{})
	}
}

// readStringValue reads a string-based VR value.
//
// DICOM strings may contain multiple values separated by backslash (\).
// String values are space-padded for even length and may have trailing nulls for UI.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readStringValue(v vr.VR, length uint32) (*value.StringValue, error) {
	// Read raw bytes
	data, err := p.reader.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read string data: %w", err)
	}

	// Convert to string
	str := string(data)

	// Trim trailing null and space padding
	str = strings.TrimRight(str, "\x00 ")

	// Split by backslash for multi-valued elements
	var values []string
	if str == "" {
		values = []string{}
	} else {
		values = strings.Split(str, "\\")
	}

	// Create string value
	val, err := value.NewStringValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create string value: %w", err)
	}

	return val, nil
}

// readIntValue reads an integer VR value.
//
// Handles: SS (int16), US (uint16), SL (int32), UL (uint32), SV (int64), UV (uint64), AT (tag)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readIntValue(v vr.VR, length uint32) (*value.IntValue, error) {
	var values []int64

	// Determine bytes per value
	var bytesPerValue int
	switch v {
	case vr.SignedShort, vr.UnsignedShort:
		bytesPerValue = 2
	case vr.SignedLong, vr.UnsignedLong, vr.AttributeTag:
		bytesPerValue = 4
	case vr.SignedVeryLong, vr.UnsignedVeryLong:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported integer VR: %s", v.String())
	}

	// Calculate number of values
	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	// Read each value
	for i := 0; i < numValues; i++ {
		var val int64

		switch v {
		case vr.SignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(int16(u16))

		case vr.UnsignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(u16)

		case vr.SignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(int32(u32))

		case vr.UnsignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(u32)

		case vr.AttributeTag:
			// AT is two uint16s (group, element); the value is group<<16 | element
			group, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			elem, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(group)<<16 | int64(elem)

		case vr.SignedVeryLong:
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			val = int64(p.ts.ByteOrder.Uint64(data))

		case vr.UnsignedVeryLong:
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			val = int64(p.ts.ByteOrder.Uint64(data))
		}

		values = append(values, val)
	}

	// Create int value
	intVal, err := value.NewIntValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create int value: %w", err)
	}

	return intVal, nil
}

// readFloatValue reads a floating-point VR value.
//
// Handles: FL (float32), FD (float64)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readFloatValue(v vr.VR, length uint32) (*value.FloatValue, error) {
	var values []float64

	// Determine bytes per value
	var bytesPerValue int
	switch v {
	case vr.FloatingPointSingle:
		bytesPerValue = 4
	case vr.FloatingPointDouble:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported float VR: %s", v.String())
	}

	// Calculate number of values
	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	// Read each value
	for i := 0; i < numValues; i++ {
		if v == vr.FloatingPointSingle {
			// Read float32
			data, err := p.reader.ReadBytes(4)
			if err != nil {
				return nil, err
			}
			bits := p.ts.ByteOrder.Uint32(data)
			f32 := math.Float32frombits(bits)
			values = append(values, float64(f32))
		} else {
			// Read float64
			data, err := p.reader.ReadBytes(8)
			if err != nil {
				return nil, err
			}
			bits := p.ts.ByteOrder.Uint64(data)
			f64 := math.Float64frombits(bits)
			values = append(values, f64)
		}
	}

	// Create float value
	floatVal, err := value.NewFloatValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create float value: %w", err)
	}

	return floatVal, nil
}

// readBytesValue reads a binary VR value.
//
// Handles: OB, OD, OF, OL, OV, OW, UN
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readBytesValue(v vr.VR, length uint32) (*value.BytesValue, error) {
	// Read raw bytes
	data, err := p.reader.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read binary data: %w", err)
	}

	// Create bytes value
	bytesVal, err := value.NewBytesValue(v, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create bytes value: %w", err)
	}

	return bytesVal, nil
}

// parseDefinedLengthSequence parses a sequence (SQ) whose own length is
// known: it contains zero or more Items back to back filling exactly
// `length` bytes, each possibly itself defined- or undefined-length.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
func (p *ElementParser) parseDefinedLengthSequence(length uint32) (*value.SequenceValue, error) {
	end := p.reader.Position() + int64(length)

	var items []*value.Item
	for p.reader.Position() < end {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("read item tag in sequence: %w", err)
		}
		if t.Uint32() != itemTag {
			return nil, fmt.Errorf("expected Item tag (FFFE,E000) in sequence, got %s", t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("read item length in sequence: %w", err)
		}

		item, err := p.parseItem(itemLength)
		if err != nil {
			return nil, fmt.Errorf("parse sequence item: %w", err)
		}
		items = append(items, item)
	}

	return value.NewSequenceValue(items, false), nil
}

// parseUndefinedLengthSequence parses a sequence terminated by a
// Sequence Delimitation Item (FFFE,E0DD) rather than a known length.
func (p *ElementParser) parseUndefinedLengthSequence() (*value.SequenceValue, error) {
	var items []*value.Item
	for {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("read tag in undefined-length sequence: %w", err)
		}
		tagValue := t.Uint32()

		if tagValue == sequenceDelimitationTag {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("read sequence delimitation length: %w", err)
			}
			return value.NewSequenceValue(items, true), nil
		}

		if tagValue != itemTag {
			return nil, fmt.Errorf("expected Item or Sequence Delimitation tag, got %s", t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("read item length: %w", err)
		}

		item, err := p.parseItem(itemLength)
		if err != nil {
			return nil, fmt.Errorf("parse sequence item: %w", err)
		}
		items = append(items, item)
	}
}

// parseItem parses the content of one Item (FFFE,E000), either of
// known length or terminated by an Item Delimitation Item (FFFE,E00D),
// into an ordered tree of ItemElements. An item's content is itself a
// dataset encoded under the same transfer syntax as its parent.
func (p *ElementParser) parseItem(itemLength uint32) (*value.Item, error) {
	item := &value.Item{}

	if itemLength != 0xFFFFFFFF {
		end := p.reader.Position() + int64(itemLength)
		for p.reader.Position() < end {
			elem, err := p.ReadElement()
			if err != nil {
				return nil, fmt.Errorf("read element in item: %w", err)
			}
			item.Elements = append(item.Elements, value.ItemElement{
				Tag:   elem.Tag().Uint32(),
				VR:    elem.VR(),
				Value: elem.Value(),
			})
		}
		return item, nil
	}

	item.UndefinedLength = true
	for {
		// Peek the next tag without consuming a full element read, since
		// an Item Delimitation Item has no VR/length-pair shape at all.
		t, err := p.readTag()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read tag in item: %w", err)
		}
		if t.Uint32() == itemDelimitationTag {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("read item delimitation length: %w", err)
			}
			return item, nil
		}

		elem, err := p.readElementAfterTag(t)
		if err != nil {
			return nil, fmt.Errorf("read element in item: %w", err)
		}
		item.Elements = append(item.Elements, value.ItemElement{
			Tag:   elem.Tag().Uint32(),
			VR:    elem.VR(),
			Value: elem.Value(),
		})
	}
}

// readElementAfterTag continues an element read once its tag has
// already been consumed from the stream, used by parseItem's
// undefined-length loop which must inspect the tag before deciding
// whether it is a delimiter or a real element.
func (p *ElementParser) readElementAfterTag(t tag.Tag) (*element.Element, error) {
	var v vr.VR
	var length uint32
	var err error

	if p.ts.ExplicitVR {
		v, err = p.readVRExplicit()
		if err != nil {
			return nil, fmt.Errorf("failed to read VR for tag %s: %w", t, err)
		}
		length, err = p.readLength(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	} else {
		v, err = p.readVRImplicit(t)
		if err != nil {
			return nil, fmt.Errorf("failed to look up VR for tag %s: %w", t, err)
		}
		length, err = p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	}

	val, err := p.readValue(t, v, length)
	if err != nil {
		return nil, fmt.Errorf("failed to read value for tag %s: %w", t, err)
	}

	return element.NewElement(t, v, val)
}

// parseEncapsulatedPixelData parses encapsulated Pixel Data (7FE0,0010)
// with undefined length under a compressed transfer syntax: a Basic
// Offset Table item followed by one or more compressed fragment items,
// terminated by a Sequence Delimitation Item.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func (p *ElementParser) parseEncapsulatedPixelData(pixelVR vr.VR) (*value.FragmentsValue, error) {
	var offsetTable []uint32
	var fragments [][]byte
	first := true

	for {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF while reading encapsulated pixel data: %w", err)
		}
		tagValue := t.Uint32()

		if tagValue == sequenceDelimitationTag {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("read sequence delimitation length: %w", err)
			}
			return value.NewFragmentsValue(pixelVR, offsetTable, fragments)
		}

		if tagValue != itemTag {
			return nil, fmt.Errorf("unexpected tag %s while reading encapsulated pixel data (expected Item or Sequence Delimitation)", t)
		}

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read item length: %w", err)
		}

		var data []byte
		if itemLength > 0 {
			data, err = p.reader.ReadBytes(int(itemLength))
			if err != nil {
				return nil, fmt.Errorf("failed to read item data (%d bytes): %w", itemLength, err)
			}
		}

		if first {
			first = false
			if len(data)%4 != 0 {
				return nil, fmt.Errorf("basic offset table length %d is not a multiple of 4", len(data))
			}
			offsetTable = make([]uint32, len(data)/4)
			for i := range offsetTable {
				offsetTable[i] = p.ts.ByteOrder.Uint32(data[i*4:])
			}
			continue
		}

		fragments = append(fragments, data)
	}
}
