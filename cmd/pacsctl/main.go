// Command pacsctl is the operator CLI for a pacsd server: C-ECHO,
// C-STORE, C-FIND, C-MOVE, and a bulk "import" helper that stores every
// DICOM file under a directory.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dcmkit/pacs/cmd/pacsctl/internal/commands"
)

const (
	appName        = "pacsctl"
	appDescription = "operator CLI for a pacsd DICOM server"
)

// CLI is the root command structure.
type CLI struct {
	Echo   commands.EchoCmd   `cmd:"" help:"verify connectivity (C-ECHO)"`
	Store  commands.StoreCmd  `cmd:"" help:"send DICOM files (C-STORE)"`
	Find   commands.FindCmd   `cmd:"" help:"query a remote AE (C-FIND)"`
	Move   commands.MoveCmd   `cmd:"" help:"request a retrieve to another AE (C-MOVE)"`
	Import commands.ImportCmd `cmd:"" help:"bulk C-STORE every DICOM file under a directory"`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "pacsctl:", err)
		os.Exit(1)
	}
}
