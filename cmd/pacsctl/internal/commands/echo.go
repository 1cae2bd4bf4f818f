package commands

import (
	"context"
	"fmt"
)

// EchoCmd verifies connectivity to a remote AE with a C-ECHO.
type EchoCmd struct {
	ConnectionFlags
}

func (c *EchoCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	sess, err := c.dial(ctx, []string{verificationSOPClass}, 0, 0)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(ctx) }()

	if err := sess.Echo(ctx); err != nil {
		return fmt.Errorf("C-ECHO failed: %w", err)
	}

	fmt.Printf("C-ECHO to %s@%s succeeded\n", c.CalledAE, c.remoteAddr())
	return nil
}
