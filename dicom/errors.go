// Package dicom provides DICOM file parsing and manipulation.
package dicom

import "errors"

// ErrInvalidPreamble indicates the file doesn't have a valid DICOM preamble.
// A valid DICOM file must have 128 bytes followed by "DICM" (ASCII).
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
var ErrInvalidPreamble = errors.New("invalid DICOM preamble: missing or invalid DICM prefix")

// ErrInvalidVR indicates an invalid or unknown VR was encountered.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var ErrInvalidVR = errors.New("invalid or unknown VR")

// ErrInvalidTag indicates a malformed tag was encountered.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
var ErrInvalidTag = errors.New("invalid or malformed tag")

// ErrInvalidTransferSyntax indicates an unsupported or invalid transfer syntax.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_10
var ErrInvalidTransferSyntax = errors.New("invalid or unsupported transfer syntax")

// ErrMissingTransferSyntax indicates the Transfer Syntax UID was not found in File Meta Information.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
var ErrMissingTransferSyntax = errors.New("missing Transfer Syntax UID in File Meta Information")

// ErrInvalidLength indicates an invalid value length was encountered.
var ErrInvalidLength = errors.New("invalid value length")

// ErrUndefinedLength indicates an undefined length (0xFFFFFFFF) was encountered.
// This is valid for sequences but requires special handling.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
var ErrUndefinedLength = errors.New("undefined length encountered")

// Parse errors for a truncated stream and a length that runs past its
// container. The parser in this package reports truncation as io.EOF or
// io.ErrUnexpectedEOF and does not return these two sentinels itself;
// ErrInvalidTag/ErrInvalidVR/ErrInvalidLength/ErrInvalidTransferSyntax/
// ErrUndefinedLength above cover the other parse failures.
var (
	// ErrTruncated indicates the stream ended before a complete element could be read.
	ErrTruncated = errors.New("truncated stream: unexpected end of data")

	// ErrLengthOverrun indicates an element or item's declared length extends past its container.
	ErrLengthOverrun = errors.New("value length overruns enclosing container")
)

// Encode errors, raised while writing a dataset back out.
var (
	// ErrValueTooLongForVR indicates a value exceeds the maximum length permitted for its VR.
	ErrValueTooLongForVR = errors.New("value exceeds maximum length for VR")

	// ErrInvalidUID indicates a UID value is malformed (non-digit/dot characters, leading/trailing dot, or too long).
	ErrInvalidUID = errors.New("invalid UID value")

	// ErrOddLengthWithoutPadding indicates a value has odd byte length and no padding byte was applied.
	// DICOM values must have even length; VRs pad with space or NUL depending on VR.
	ErrOddLengthWithoutPadding = errors.New("odd-length value without padding")
)
