package client

import "fmt"

// Directory resolves an AE Title to the network address C-MOVE should
// dial to deliver matching instances, since spec.md leaves "how an AE
// Title maps to a (host, port)" unspecified and C-MOVE cannot function
// without some resolution mechanism.
type Directory struct {
	destinations map[string]string // AE Title -> "host:port"
}

// NewDirectory builds a Directory from a static AE Title -> host:port map,
// typically sourced from config.Config.MoveDestinations.
func NewDirectory(destinations map[string]string) *Directory {
	d := &Directory{destinations: make(map[string]string, len(destinations))}
	for ae, addr := range destinations {
		d.destinations[ae] = addr
	}
	return d
}

// Resolve returns the dial address registered for aeTitle.
func (d *Directory) Resolve(aeTitle string) (string, error) {
	addr, ok := d.destinations[aeTitle]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDestination, aeTitle)
	}
	return addr, nil
}
