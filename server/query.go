package server

import (
	"github.com/dcmkit/pacs/dicom"
	"github.com/dcmkit/pacs/dicom/element"
	"github.com/dcmkit/pacs/dicom/tag"
	"github.com/dcmkit/pacs/dicom/value"
	"github.com/dcmkit/pacs/index"
)

func keywordValue(ds *dicom.DataSet, keyword string) string {
	if ds == nil {
		return ""
	}
	elem, err := ds.GetByKeyword(keyword)
	if err != nil {
		return ""
	}
	return elem.Value().String()
}

// queryFromDataSet converts an incoming C-FIND/C-GET/C-MOVE identifier
// dataset into an index.Query, reading the Query/Retrieve Level and the
// handful of identifying attributes the index matches against.
func queryFromDataSet(ds *dicom.DataSet) index.Query {
	sequences := make(map[string]map[string]string)
	for keyword, items := range index.ExtractSequences(ds) {
		sequences[keyword] = items[0] // query sequences carry exactly one item
	}

	return index.Query{
		Level:               index.Level(keywordValue(ds, "QueryRetrieveLevel")),
		PatientID:           keywordValue(ds, "PatientID"),
		PatientName:         keywordValue(ds, "PatientName"),
		StudyUID:            keywordValue(ds, "StudyInstanceUID"),
		SeriesUID:           keywordValue(ds, "SeriesInstanceUID"),
		SOPInstanceUID:      keywordValue(ds, "SOPInstanceUID"),
		StudyDate:           keywordValue(ds, "StudyDate"),
		StudyTime:           keywordValue(ds, "StudyTime"),
		AcquisitionDateTime: keywordValue(ds, "AcquisitionDateTime"),
		Sequences:           sequences,
	}
}

// requestedKeywords returns, in encoding order, the keyword of every
// element present in a query identifier — including universally
// matched ones carrying an empty value, which must still be echoed
// back in the C-FIND result per spec §4.4.
func requestedKeywords(ds *dicom.DataSet) []string {
	keywords := make([]string, 0, ds.Len())
	for _, elem := range ds.Elements() {
		if kw := elem.Keyword(); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// hierarchicalKeywords returns the identifying UIDs at and above the
// given query/retrieve level, which spec §4.4 requires a C-FIND result
// to carry regardless of whether the request explicitly named them.
func hierarchicalKeywords(level index.Level) []string {
	switch level {
	case index.LevelPatient:
		return []string{"PatientID"}
	case index.LevelStudy:
		return []string{"PatientID", "StudyInstanceUID"}
	case index.LevelSeries:
		return []string{"PatientID", "StudyInstanceUID", "SeriesInstanceUID"}
	case index.LevelImage:
		return []string{"PatientID", "StudyInstanceUID", "SeriesInstanceUID", "SOPInstanceUID"}
	default:
		return nil
	}
}

// mergeKeywords concatenates keyword lists, keeping first occurrence
// order and dropping duplicates.
func mergeKeywords(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, kw := range list {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

// recordFieldValue returns the value of rec's field identified by
// keyword, or "" if the record carries no such attribute.
func recordFieldValue(rec index.Record, keyword string) string {
	switch keyword {
	case "PatientID":
		return rec.PatientID
	case "PatientName":
		return rec.PatientName
	case "StudyInstanceUID":
		return rec.StudyUID
	case "SeriesInstanceUID":
		return rec.SeriesUID
	case "SOPInstanceUID":
		return rec.SOPInstanceUID
	case "SOPClassUID":
		return rec.SOPClassUID
	case "Modality":
		return rec.Modality
	case "StudyDate":
		return rec.StudyDate
	case "StudyTime":
		return rec.StudyTime
	case "AcquisitionDateTime":
		return rec.AcquisitionDateTime
	default:
		return ""
	}
}

// recordToResultDataSet builds the C-FIND result dataset for a matched
// record from the requested key set — the attributes named in the
// query identifier (even if universally matched with an empty value)
// plus the hierarchical identifying UIDs at and above the query
// level — rather than from whichever record fields happen to be
// non-empty, so a universally-matched attribute is still echoed back
// with an empty value as spec §4.4 requires.
func recordToResultDataSet(rec index.Record, keys []string) (*dicom.DataSet, error) {
	ds := dicom.NewDataSet()
	for _, keyword := range keys {
		if err := setStringByKeyword(ds, keyword, recordFieldValue(rec, keyword)); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func setStringByKeyword(ds *dicom.DataSet, keyword, s string) error {
	info, err := tag.FindByKeyword(keyword)
	if err != nil {
		return err
	}
	v, err := value.NewStringValue(info.VRs[0], []string{s})
	if err != nil {
		return err
	}
	elem, err := element.NewElement(info.Tag, info.VRs[0], v)
	if err != nil {
		return err
	}
	return ds.Add(elem)
}
