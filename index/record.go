// Package index implements the in-memory hierarchical Patient/Study/
// Series/Instance metadata catalog: insert, query (for C-FIND),
// retrieve (for C-MOVE/C-GET), and delete, all serialized through a
// single owner.
package index

import (
	"github.com/dcmkit/pacs/dicom"
	"github.com/dcmkit/pacs/dicom/tag"
	"github.com/dcmkit/pacs/dicom/value"
	"github.com/dcmkit/pacs/dicom/vr"
)

// Record is the minimal metadata an instance is indexed under. It is
// derived from a dataset's identifying elements rather than storing
// the dataset itself, keeping the index small relative to the files
// it describes.
type Record struct {
	PatientID      string
	PatientName    string
	StudyUID       string
	SeriesUID      string
	SOPInstanceUID string
	SOPClassUID    string
	Modality       string
	Path           string // absolute filesystem path written by the storage manager

	// StudyDate, StudyTime, AcquisitionDateTime are the DA/TM/DT
	// attributes range matching can be requested against.
	StudyDate           string
	StudyTime           string
	AcquisitionDateTime string

	// Sequences holds, per top-level Sequence of Items attribute
	// present in the source dataset (keyed by keyword), one flattened
	// keyword->value map per item. Only string-valued sub-attributes
	// are captured; this is enough to support the single-item
	// recursive sequence matching C-FIND requires without storing the
	// dataset itself.
	Sequences map[string][]map[string]string
}

// RecordFromDataSet extracts the fields Record needs from a parsed dataset.
func RecordFromDataSet(ds *dicom.DataSet, path string) Record {
	return Record{
		PatientID:           stringOf(ds, "PatientID"),
		PatientName:         stringOf(ds, "PatientName"),
		StudyUID:            stringOf(ds, "StudyInstanceUID"),
		SeriesUID:           stringOf(ds, "SeriesInstanceUID"),
		SOPInstanceUID:      stringOf(ds, "SOPInstanceUID"),
		SOPClassUID:         stringOf(ds, "SOPClassUID"),
		Modality:            stringOf(ds, "Modality"),
		Path:                path,
		StudyDate:           stringOf(ds, "StudyDate"),
		StudyTime:           stringOf(ds, "StudyTime"),
		AcquisitionDateTime: stringOf(ds, "AcquisitionDateTime"),
		Sequences:           ExtractSequences(ds),
	}
}

func stringOf(ds *dicom.DataSet, keyword string) string {
	elem, err := ds.GetByKeyword(keyword)
	if err != nil {
		return ""
	}
	return elem.Value().String()
}

// ExtractSequences walks a dataset's top-level elements and flattens
// every Sequence of Items attribute into keyword->value maps, one per
// item, keyed by the sequence's own keyword. Nested sequences within
// an item are not recursed into: sequence matching only ever looks
// one level deep (a single query item whose sub-attributes are
// themselves simple values), so a deeper projection would never be
// exercised.
func ExtractSequences(ds *dicom.DataSet) map[string][]map[string]string {
	out := make(map[string][]map[string]string)
	for _, elem := range ds.Elements() {
		if elem.VR() != vr.SequenceOfItems || elem.Keyword() == "" {
			continue
		}
		seqVal, ok := elem.Value().(*value.SequenceValue)
		if !ok {
			continue
		}
		var items []map[string]string
		for _, it := range seqVal.Items() {
			items = append(items, flattenItem(it))
		}
		if len(items) > 0 {
			out[elem.Keyword()] = items
		}
	}
	return out
}

func flattenItem(it *value.Item) map[string]string {
	m := make(map[string]string)
	for _, e := range it.Elements {
		info, err := tag.Find(tag.New(uint16(e.Tag>>16), uint16(e.Tag&0xFFFF)))
		if err != nil {
			continue
		}
		m[info.Keyword] = e.Value.String()
	}
	return m
}
