package commands

import (
	"context"
	"fmt"

	"github.com/dcmkit/pacs/dicom"
)

// FindCmd queries a remote AE's Study Root Query/Retrieve model (C-FIND).
type FindCmd struct {
	ConnectionFlags

	Level       string `default:"STUDY" enum:"PATIENT,STUDY,SERIES,IMAGE" help:"query/retrieve level"`
	PatientID   string `name:"patient-id" help:"match on Patient ID"`
	PatientName string `name:"patient-name" help:"match on Patient Name"`
	StudyUID    string `name:"study-uid" help:"match on Study Instance UID"`
	SeriesUID   string `name:"series-uid" help:"match on Series Instance UID"`
}

func (c *FindCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	query, err := c.buildQuery()
	if err != nil {
		return err
	}

	sess, err := c.dial(ctx, []string{studyRootFindSOPClass}, 0, 0)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	count := 0
	err = sess.Find(ctx, studyRootFindSOPClass, query, func(result *dicom.DataSet) error {
		count++
		fmt.Printf("--- match %d ---\n", count)
		printField(result, "PatientID")
		printField(result, "PatientName")
		printField(result, "StudyInstanceUID")
		printField(result, "SeriesInstanceUID")
		printField(result, "SOPInstanceUID")
		return nil
	})
	if err != nil {
		return fmt.Errorf("C-FIND failed: %w", err)
	}

	fmt.Printf("%d match(es)\n", count)
	return nil
}

func (c *FindCmd) buildQuery() (*dicom.DataSet, error) {
	ds := dicom.NewDataSet()
	fields := []struct{ keyword, value string }{
		{"QueryRetrieveLevel", c.Level},
		{"PatientID", c.PatientID},
		{"PatientName", c.PatientName},
		{"StudyInstanceUID", c.StudyUID},
		{"SeriesInstanceUID", c.SeriesUID},
	}
	for _, f := range fields {
		if err := setString(ds, f.keyword, f.value); err != nil {
			return nil, fmt.Errorf("build query: %w", err)
		}
	}
	return ds, nil
}

func printField(ds *dicom.DataSet, keyword string) {
	v := stringValue(ds, keyword)
	if v == "" {
		return
	}
	fmt.Printf("  %s: %s\n", keyword, v)
}
