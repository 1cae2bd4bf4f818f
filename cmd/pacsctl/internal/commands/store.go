package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dcmkit/pacs/dicom"
)

// StoreCmd sends one or more local DICOM files to a remote AE (C-STORE).
type StoreCmd struct {
	ConnectionFlags

	Paths []string `arg:"" optional:"" type:"existingfile" help:"DICOM files to store"`

	RateLimit float64 `name:"rate-limit" default:"0" help:"sub-operations per second (0 = unlimited)"`
	Burst     int     `name:"burst" default:"10" help:"burst size for rate limiting"`
}

func (c *StoreCmd) Run() error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("no input files specified")
	}

	instances := make([]*dicom.DataSet, 0, len(c.Paths))
	for _, path := range c.Paths {
		ds, err := dicom.ParseFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		instances = append(instances, ds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	return storeInstances(ctx, c.ConnectionFlags, instances, c.RateLimit, c.Burst)
}

// storeInstances opens one association offering a presentation context
// per distinct SOP Class UID found among instances, then stores each
// in turn, rate-limited if rateLimit > 0. Shared by StoreCmd (explicit
// file list) and ImportCmd (directory scan).
func storeInstances(ctx context.Context, conn ConnectionFlags, instances []*dicom.DataSet, rateLimit float64, burst int) error {
	seen := make(map[string]bool)
	var sopClassUIDs []string
	for _, ds := range instances {
		uid := sopClassUID(ds)
		if uid != "" && !seen[uid] {
			seen[uid] = true
			sopClassUIDs = append(sopClassUIDs, uid)
		}
	}

	sess, err := conn.dial(ctx, sopClassUIDs, rateLimit, burst)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	var succeeded, failed int
	start := time.Now()

	err = sess.StoreAll(ctx, instances, sopClassUID, sopInstanceUID, func(ds *dicom.DataSet, err error) {
		if err != nil {
			failed++
			fmt.Printf("FAILED %s: %v\n", sopInstanceUID(ds), err)
			return
		}
		succeeded++
	})
	if err != nil {
		return fmt.Errorf("store aborted: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("stored %d/%d instances in %s\n", succeeded, len(instances), elapsed.Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d instances failed to store", failed)
	}
	return nil
}
