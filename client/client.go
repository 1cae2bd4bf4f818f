// Package client wraps the DIMSE SCU orchestrator with the pieces a
// PACS server needs to act as a requestor itself: resolving a C-MOVE
// destination AE Title to an address, and throttling bulk C-STORE
// sub-operations with a token-bucket rate limiter.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dcmkit/pacs/dicom"
	"github.com/dcmkit/pacs/dimse/dul"
	"github.com/dcmkit/pacs/dimse/scu"
	"golang.org/x/time/rate"
)

// defaultTransferSyntaxes mirrors the negotiation order the server side
// prefers, so an outbound association offers the same syntaxes an
// inbound one would accept.
var defaultTransferSyntaxes = []string{
	"1.2.840.10008.1.2.1", // Explicit VR Little Endian
	"1.2.840.10008.1.2",   // Implicit VR Little Endian
	"1.2.840.10008.1.2.2", // Explicit VR Big Endian
}

// Config configures a bulk transfer session.
type Config struct {
	CallingAETitle string
	CalledAETitle  string
	RemoteAddr     string
	MaxPDULength   uint32
	Timeout        time.Duration

	// RateLimit caps sub-operations per second; zero means unlimited.
	RateLimit float64
	BurstSize int
}

// Session drives one association's worth of outbound DIMSE operations.
type Session struct {
	config  Config
	client  *scu.Client
	limiter *rate.Limiter
}

// Dial establishes an association offering a presentation context per
// distinct SOP Class UID in sopClassUIDs.
func Dial(ctx context.Context, cfg Config, sopClassUIDs []string) (*Session, error) {
	contexts := buildPresentationContexts(sopClassUIDs)

	scuCfg := scu.Config{
		CallingAETitle:       cfg.CallingAETitle,
		CalledAETitle:        cfg.CalledAETitle,
		RemoteAddr:           cfg.RemoteAddr,
		MaxPDULength:         cfg.MaxPDULength,
		PresentationContexts: contexts,
	}

	c := scu.NewClient(scuCfg)
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RemoteAddr, err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Session{config: cfg, client: c, limiter: limiter}, nil
}

// Close releases the association.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// Echo performs a C-ECHO over the session's association.
func (s *Session) Echo(ctx context.Context) error {
	return s.client.Echo(ctx)
}

// Find performs a C-FIND, invoking callback once per matching result.
func (s *Session) Find(ctx context.Context, sopClassUID string, query *dicom.DataSet, callback func(*dicom.DataSet) error) error {
	return s.client.Find(ctx, "", sopClassUID, query, callback)
}

// Move requests a C-MOVE of matching instances to destinationAE.
func (s *Session) Move(ctx context.Context, sopClassUID, destinationAE string, query *dicom.DataSet) error {
	return s.client.Move(ctx, sopClassUID, destinationAE, query)
}

// Store sends one instance as a C-STORE sub-operation, rate-limited if
// a limit was configured.
func (s *Session) Store(ctx context.Context, ds *dicom.DataSet, sopClassUID, sopInstanceUID string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}
	return s.client.Store(ctx, ds, sopClassUID, sopInstanceUID)
}

// StoreAll sends each instance in order, stopping only on a context
// cancellation; per-instance failures are reported through onResult
// rather than aborting the whole batch, so a bulk import or C-MOVE
// fan-out can tally completed/failed/warning counts as it goes.
func (s *Session) StoreAll(ctx context.Context, instances []*dicom.DataSet, sopClassUID func(*dicom.DataSet) string, sopInstanceUID func(*dicom.DataSet) string, onResult func(ds *dicom.DataSet, err error)) error {
	for _, ds := range instances {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Store(ctx, ds, sopClassUID(ds), sopInstanceUID(ds))
		if onResult != nil {
			onResult(ds, err)
		}
	}
	return nil
}

func buildPresentationContexts(sopClassUIDs []string) []dul.PresentationContextRQ {
	seen := make(map[string]bool, len(sopClassUIDs))
	contexts := make([]dul.PresentationContextRQ, 0, len(sopClassUIDs))
	contextID := uint8(1)

	for _, uid := range sopClassUIDs {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		contexts = append(contexts, dul.PresentationContextRQ{
			ID:               contextID,
			AbstractSyntax:   uid,
			TransferSyntaxes: defaultTransferSyntaxes,
		})
		contextID += 2 // presentation context IDs must be odd
	}

	return contexts
}
