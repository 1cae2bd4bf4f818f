package commands

import (
	"context"
	"fmt"

	"github.com/dcmkit/pacs/dicom"
)

// ImportCmd bulk-stores every DICOM file found under a directory.
type ImportCmd struct {
	ConnectionFlags

	Dir       string  `arg:"" type:"existingdir" help:"directory to scan for .dcm files"`
	Recursive bool    `name:"recursive" short:"R" default:"true" help:"recurse into subdirectories"`
	Workers   int     `name:"workers" help:"concurrent parse workers (default: GOMAXPROCS)"`
	RateLimit float64 `name:"rate-limit" default:"0" help:"sub-operations per second (0 = unlimited)"`
	Burst     int     `name:"burst" default:"10" help:"burst size for rate limiting"`
}

func (c *ImportCmd) Run() error {
	recursive := c.Recursive
	result, err := dicom.ParseDirectoryWithOptions(c.Dir, dicom.ParseDirectoryOptions{
		Workers:   c.Workers,
		Recursive: &recursive,
		ErrorCallback: func(path string, err error) bool {
			fmt.Printf("skip %s: %v\n", path, err)
			return true
		},
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", c.Dir, err)
	}

	instances := result.Collection.DataSets()
	if len(instances) == 0 {
		fmt.Printf("no DICOM files found under %s\n", c.Dir)
		return nil
	}

	fmt.Printf("parsed %d files (%d failed) from %s in %s\n", result.Parsed, result.Failed, c.Dir, result.Duration)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	return storeInstances(ctx, c.ConnectionFlags, instances, c.RateLimit, c.Burst)
}
