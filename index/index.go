package index

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Level identifies a query/retrieve hierarchy level, mirroring the
// DICOM Query/Retrieve Level values (PATIENT, STUDY, SERIES, IMAGE).
type Level string

const (
	LevelPatient Level = "PATIENT"
	LevelStudy   Level = "STUDY"
	LevelSeries  Level = "SERIES"
	LevelImage   Level = "IMAGE"
)

// Query describes a C-FIND/C-GET/C-MOVE match request: zero or more
// per-field patterns, each matched as a DICOM wildcard pattern if it
// contains '*' or '?', an exact (case-insensitive for PatientName)
// match otherwise, or a UID list when it contains '\'. StudyDate,
// StudyTime, and AcquisitionDateTime additionally accept a
// `from-to` range, open-ended on either side.
type Query struct {
	Level          Level
	PatientID      string
	PatientName    string
	StudyUID       string
	SeriesUID      string
	SOPInstanceUID string

	StudyDate           string
	StudyTime           string
	AcquisitionDateTime string

	// Sequences holds, per sequence keyword, the sub-attribute
	// keyword->pattern map of the query's single sequence item (DICOM
	// sequence matching requires the query sequence contain exactly
	// one item). A record matches if it has at least one item, for
	// that keyword, whose sub-attributes all match the given patterns.
	Sequences map[string]map[string]string
}

// Index is the sole owner of the metadata catalog: every mutation and
// query passes through its mutex, so callers never observe a
// partially-applied insert/delete.
type Index struct {
	mu sync.Mutex

	// byInstance is authoritative; the others are parent-keyed views
	// rebuilt incrementally as records are inserted/deleted.
	byInstance map[string]Record
	byPatient  map[string][]string // PatientID -> SOP Instance UIDs
	byStudy    map[string][]string // StudyUID -> SOP Instance UIDs
	bySeries   map[string][]string // SeriesUID -> SOP Instance UIDs
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byInstance: make(map[string]Record),
		byPatient:  make(map[string][]string),
		byStudy:    make(map[string][]string),
		bySeries:   make(map[string][]string),
	}
}

// Insert adds or replaces a record. A duplicate SOP Instance UID
// overwrites the prior entry; file placement under the new record's
// path is the caller's (storage manager's) responsibility and is
// idempotent from the index's point of view. Insert rejects a record
// whose Series UID is already indexed under a different Study UID,
// since that would corrupt the parent-keyed views.
func (idx *Index) Insert(rec Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if rec.SeriesUID != "" {
		if parentStudy, ok := idx.seriesParentStudy()[rec.SeriesUID]; ok && parentStudy != rec.StudyUID {
			return ErrInvalidHierarchy
		}
	}

	if _, exists := idx.byInstance[rec.SOPInstanceUID]; exists {
		idx.removeLocked(rec.SOPInstanceUID)
	}

	idx.byInstance[rec.SOPInstanceUID] = rec
	idx.byPatient[rec.PatientID] = append(idx.byPatient[rec.PatientID], rec.SOPInstanceUID)
	idx.byStudy[rec.StudyUID] = append(idx.byStudy[rec.StudyUID], rec.SOPInstanceUID)
	idx.bySeries[rec.SeriesUID] = append(idx.bySeries[rec.SeriesUID], rec.SOPInstanceUID)
	return nil
}

// Delete removes the record for the given SOP Instance UID, if present.
func (idx *Index) Delete(sopInstanceUID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(sopInstanceUID)
}

func (idx *Index) removeLocked(sopInstanceUID string) {
	rec, ok := idx.byInstance[sopInstanceUID]
	if !ok {
		return
	}
	delete(idx.byInstance, sopInstanceUID)
	idx.byPatient[rec.PatientID] = removeUID(idx.byPatient[rec.PatientID], sopInstanceUID)
	idx.byStudy[rec.StudyUID] = removeUID(idx.byStudy[rec.StudyUID], sopInstanceUID)
	idx.bySeries[rec.SeriesUID] = removeUID(idx.bySeries[rec.SeriesUID], sopInstanceUID)
}

func removeUID(uids []string, target string) []string {
	out := uids[:0]
	for _, u := range uids {
		if u != target {
			out = append(out, u)
		}
	}
	return out
}

// Query returns a snapshot of records matching q, captured entirely
// within the index's critical section so the result set cannot
// observe a concurrent mutation partway through.
func (idx *Index) Query(q Query) ([]Record, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	matchers, err := buildMatchers(q)
	if err != nil {
		return nil, err
	}

	var results []Record
	for _, rec := range idx.byInstance {
		if matchers.matches(rec) {
			results = append(results, rec)
		}
	}
	return results, nil
}

// Retrieve is the C-MOVE/C-GET counterpart of Query: same matching
// semantics, named distinctly because it is the entry point that
// feeds actual file transfer rather than a metadata listing.
func (idx *Index) Retrieve(q Query) ([]Record, error) {
	return idx.Query(q)
}

type fieldMatcher struct {
	value string
	kind  matchKind
	re    *regexp.Regexp
	list  []string

	rangeFrom string
	rangeTo   string
}

type matchKind int

const (
	matchAny matchKind = iota
	matchExact
	matchCaseInsensitive
	matchWildcard
	matchUIDList
	matchRange
)

type matcherSet struct {
	patientID      *fieldMatcher
	patientName    *fieldMatcher
	studyUID       *fieldMatcher
	seriesUID      *fieldMatcher
	sopInstanceUID *fieldMatcher

	studyDate           *fieldMatcher
	studyTime           *fieldMatcher
	acquisitionDateTime *fieldMatcher

	sequences map[string]map[string]string
}

func buildMatchers(q Query) (*matcherSet, error) {
	patientID, err := newFieldMatcher(q.PatientID, false)
	if err != nil {
		return nil, fmt.Errorf("invalid PatientID pattern: %w", err)
	}
	patientName, err := newFieldMatcher(q.PatientName, true)
	if err != nil {
		return nil, fmt.Errorf("invalid PatientName pattern: %w", err)
	}
	studyUID, err := newFieldMatcher(q.StudyUID, false)
	if err != nil {
		return nil, fmt.Errorf("invalid StudyUID pattern: %w", err)
	}
	seriesUID, err := newFieldMatcher(q.SeriesUID, false)
	if err != nil {
		return nil, fmt.Errorf("invalid SeriesUID pattern: %w", err)
	}
	sopInstanceUID, err := newFieldMatcher(q.SOPInstanceUID, false)
	if err != nil {
		return nil, fmt.Errorf("invalid SOPInstanceUID pattern: %w", err)
	}
	studyDate, err := newRangeFieldMatcher(q.StudyDate)
	if err != nil {
		return nil, fmt.Errorf("invalid StudyDate pattern: %w", err)
	}
	studyTime, err := newRangeFieldMatcher(q.StudyTime)
	if err != nil {
		return nil, fmt.Errorf("invalid StudyTime pattern: %w", err)
	}
	acquisitionDateTime, err := newRangeFieldMatcher(q.AcquisitionDateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid AcquisitionDateTime pattern: %w", err)
	}

	return &matcherSet{
		patientID:           patientID,
		patientName:         patientName,
		studyUID:            studyUID,
		seriesUID:           seriesUID,
		sopInstanceUID:      sopInstanceUID,
		studyDate:           studyDate,
		studyTime:           studyTime,
		acquisitionDateTime: acquisitionDateTime,
		sequences:           q.Sequences,
	}, nil
}

func newFieldMatcher(pattern string, caseInsensitivePN bool) (*fieldMatcher, error) {
	if pattern == "" {
		return &fieldMatcher{kind: matchAny}, nil
	}

	if strings.Contains(pattern, "\\") {
		return &fieldMatcher{kind: matchUIDList, list: strings.Split(pattern, "\\")}, nil
	}

	if strings.ContainsAny(pattern, "*?") {
		reSrc := "^" + wildcardToRegex(pattern) + "$"
		if caseInsensitivePN {
			reSrc = "(?i)" + reSrc
		}
		re, err := regexp.Compile(reSrc)
		if err != nil {
			return nil, err
		}
		return &fieldMatcher{kind: matchWildcard, re: re}, nil
	}

	if caseInsensitivePN {
		return &fieldMatcher{kind: matchCaseInsensitive, value: strings.ToLower(pattern)}, nil
	}

	return &fieldMatcher{kind: matchExact, value: pattern}, nil
}

// newRangeFieldMatcher builds a matcher for a DA/TM/DT attribute:
// `from-to`, `from-` (open end), `-to` (open start), or a plain
// wildcard/exact/UID-list pattern if it contains no hyphen. Range
// bounds are compared lexicographically on the zero-padded DICOM
// DA/TM/DT form, which is fixed-width and so already orders correctly
// as a plain string comparison.
func newRangeFieldMatcher(pattern string) (*fieldMatcher, error) {
	if pattern == "" {
		return &fieldMatcher{kind: matchAny}, nil
	}
	if i := strings.Index(pattern, "-"); i >= 0 {
		return &fieldMatcher{kind: matchRange, rangeFrom: pattern[:i], rangeTo: pattern[i+1:]}, nil
	}
	return newFieldMatcher(pattern, false)
}

// wildcardToRegex converts a DICOM matching pattern to an anchored
// regex fragment: '*' becomes '.*', '?' becomes '.', every other
// regex metacharacter is escaped so it matches itself literally.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part04.html#sect_C.2.2.2.4
func wildcardToRegex(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String()
}

func (m *fieldMatcher) match(value string) bool {
	switch m.kind {
	case matchAny:
		return true
	case matchExact:
		return value == m.value
	case matchCaseInsensitive:
		return strings.ToLower(value) == m.value
	case matchWildcard:
		return m.re.MatchString(value)
	case matchUIDList:
		for _, uid := range m.list {
			if uid == value {
				return true
			}
		}
		return false
	case matchRange:
		if m.rangeFrom != "" && value < m.rangeFrom {
			return false
		}
		if m.rangeTo != "" && value > m.rangeTo {
			return false
		}
		return true
	default:
		return false
	}
}

func (ms *matcherSet) matches(rec Record) bool {
	return ms.patientID.match(rec.PatientID) &&
		ms.patientName.match(rec.PatientName) &&
		ms.studyUID.match(rec.StudyUID) &&
		ms.seriesUID.match(rec.SeriesUID) &&
		ms.sopInstanceUID.match(rec.SOPInstanceUID) &&
		ms.studyDate.match(rec.StudyDate) &&
		ms.studyTime.match(rec.StudyTime) &&
		ms.acquisitionDateTime.match(rec.AcquisitionDateTime) &&
		ms.matchesSequences(rec)
}

// matchesSequences implements DICOM sequence matching: the query
// sequence contains exactly one item, so each requested sequence
// keyword needs only one item in the record, of any, whose
// sub-attributes all match.
func (ms *matcherSet) matchesSequences(rec Record) bool {
	for keyword, subQuery := range ms.sequences {
		if !anyItemMatches(rec.Sequences[keyword], subQuery) {
			return false
		}
	}
	return true
}

func anyItemMatches(items []map[string]string, subQuery map[string]string) bool {
	for _, item := range items {
		if itemMatches(item, subQuery) {
			return true
		}
	}
	return false
}

// itemMatches applies the same matching rules (universal, wildcard,
// case-insensitive, UID list, exact) to each requested sub-attribute
// recursively, against one sequence item's flattened values.
func itemMatches(item map[string]string, subQuery map[string]string) bool {
	for keyword, pattern := range subQuery {
		m, err := newFieldMatcher(pattern, keyword == "PatientName")
		if err != nil {
			return false
		}
		if !m.match(item[keyword]) {
			return false
		}
	}
	return true
}
