package commands

import (
	"context"
	"fmt"

	"github.com/dcmkit/pacs/dicom"
)

// MoveCmd requests that a remote AE retrieve matching instances and send
// them to a third AE (C-MOVE).
type MoveCmd struct {
	ConnectionFlags

	Destination string `required:"" help:"AE Title the remote server should move instances to"`
	Level       string `default:"STUDY" enum:"PATIENT,STUDY,SERIES,IMAGE" help:"query/retrieve level"`
	PatientID   string `name:"patient-id" help:"match on Patient ID"`
	StudyUID    string `name:"study-uid" help:"match on Study Instance UID"`
	SeriesUID   string `name:"series-uid" help:"match on Series Instance UID"`
}

func (c *MoveCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	query := dicom.NewDataSet()
	fields := []struct{ keyword, value string }{
		{"QueryRetrieveLevel", c.Level},
		{"PatientID", c.PatientID},
		{"StudyInstanceUID", c.StudyUID},
		{"SeriesInstanceUID", c.SeriesUID},
	}
	for _, f := range fields {
		if err := setString(query, f.keyword, f.value); err != nil {
			return fmt.Errorf("build query: %w", err)
		}
	}

	sess, err := c.dial(ctx, []string{studyRootMoveSOPClass}, 0, 0)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	if err := sess.Move(ctx, studyRootMoveSOPClass, c.Destination, query); err != nil {
		return fmt.Errorf("C-MOVE failed: %w", err)
	}

	fmt.Printf("C-MOVE to %s requested successfully\n", c.Destination)
	return nil
}
