// Package commands implements pacsctl's subcommands.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dcmkit/pacs/client"
	"github.com/dcmkit/pacs/dicom"
	"github.com/dcmkit/pacs/dicom/element"
	"github.com/dcmkit/pacs/dicom/tag"
	"github.com/dcmkit/pacs/dicom/value"
)

const (
	verificationSOPClass  = "1.2.840.10008.1.1"
	studyRootFindSOPClass = "1.2.840.10008.5.1.4.1.2.2.1"
	studyRootMoveSOPClass = "1.2.840.10008.5.1.4.1.2.2.2"
)

// ConnectionFlags are the AE identity and transport parameters shared by
// every subcommand that talks to a remote AE.
type ConnectionFlags struct {
	Host      string        `required:"" help:"remote AE hostname or IP address"`
	Port      int           `default:"11112" help:"remote AE port"`
	CalledAE  string        `name:"called-ae" default:"ANY-SCP" help:"called AE title (the remote server)"`
	CallingAE string        `name:"calling-ae" default:"PACSCTL" help:"calling AE title (this client)"`
	Timeout   time.Duration `default:"30s" help:"operation timeout"`
	MaxPDU    uint32        `name:"max-pdu" default:"16384" help:"maximum PDU size in bytes"`
}

func (c ConnectionFlags) remoteAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ConnectionFlags) dial(ctx context.Context, sopClassUIDs []string, rateLimit float64, burst int) (*client.Session, error) {
	return client.Dial(ctx, client.Config{
		CallingAETitle: c.CallingAE,
		CalledAETitle:  c.CalledAE,
		RemoteAddr:     c.remoteAddr(),
		MaxPDULength:   c.MaxPDU,
		Timeout:        c.Timeout,
		RateLimit:      rateLimit,
		BurstSize:      burst,
	}, sopClassUIDs)
}

// setString adds a single-valued string element identified by keyword.
func setString(ds *dicom.DataSet, keyword, s string) error {
	if s == "" {
		return nil
	}
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

func stringValue(ds *dicom.DataSet, keyword string) string {
	elem, err := ds.GetByKeyword(keyword)
	if err != nil {
		return ""
	}
	return elem.Value().String()
}

func sopClassUID(ds *dicom.DataSet) string    { return stringValue(ds, "SOPClassUID") }
func sopInstanceUID(ds *dicom.DataSet) string { return stringValue(ds, "SOPInstanceUID") }
