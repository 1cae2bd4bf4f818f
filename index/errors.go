package index

import "errors"

// ErrInvalidHierarchy indicates a record's parent keys conflict with
// an existing series already indexed under a different study.
var ErrInvalidHierarchy = errors.New("series already indexed under a different study")

// seriesParentStudy tracks which study each series UID was first seen under.
func (idx *Index) seriesParentStudy() map[string]string {
	parents := make(map[string]string, len(idx.bySeries))
	for _, rec := range idx.byInstance {
		if rec.SeriesUID == "" {
			continue
		}
		parents[rec.SeriesUID] = rec.StudyUID
	}
	return parents
}
