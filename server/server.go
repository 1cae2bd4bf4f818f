package server

import (
	"strconv"

	"github.com/dcmkit/pacs/client"
	"github.com/dcmkit/pacs/config"
	"github.com/dcmkit/pacs/dimse/scp"
	"github.com/dcmkit/pacs/index"
	"github.com/dcmkit/pacs/storage"
	"github.com/sirupsen/logrus"
)

// SupportedContexts lists the abstract syntaxes (SOP Classes) this
// server negotiates, each offered with the server's transfer syntax
// preference order (Explicit VR LE first, per the association layer's
// negotiation fix).
var SupportedContexts = map[string][]string{
	"1.2.840.10008.1.1":         transferSyntaxPreference, // Verification
	"1.2.840.10008.5.1.4.1.2.1.1": transferSyntaxPreference, // Patient Root Q/R - FIND
	"1.2.840.10008.5.1.4.1.2.1.2": transferSyntaxPreference, // Patient Root Q/R - MOVE
	"1.2.840.10008.5.1.4.1.2.1.3": transferSyntaxPreference, // Patient Root Q/R - GET
	"1.2.840.10008.5.1.4.1.2.2.1": transferSyntaxPreference, // Study Root Q/R - FIND
	"1.2.840.10008.5.1.4.1.2.2.2": transferSyntaxPreference, // Study Root Q/R - MOVE
	"1.2.840.10008.5.1.4.1.2.2.3": transferSyntaxPreference, // Study Root Q/R - GET
}

var transferSyntaxPreference = []string{
	"1.2.840.10008.1.2.1", // Explicit VR Little Endian
	"1.2.840.10008.1.2",   // Implicit VR Little Endian
	"1.2.840.10008.1.2.2", // Explicit VR Big Endian
}

// New builds a fully wired dimse/scp.Server from a loaded Config: its
// own index, storage manager, move-destination directory, statistics,
// and this package's handler implementations.
func New(cfg *config.Config, logger *logrus.Logger) (*scp.Server, *Handlers, error) {
	h := &Handlers{
		Index:      index.New(),
		Storage:    storage.New(cfg.DataDirectory),
		Directory:  client.NewDirectory(cfg.MoveDestinations),
		Config:     cfg,
		Logger:     logger,
		Stats:      &Stats{},
		OwnAETitle: cfg.AETitle,
	}

	srv, err := scp.NewServer(scp.Config{
		AETitle:           cfg.AETitle,
		ListenAddr:        fmtListenAddr(cfg.Port),
		MaxPDULength:      uint32(cfg.MaxPDULength),
		MaxAssociations:   cfg.MaxConcurrentConnections,
		SupportedContexts: SupportedContexts,
		EchoHandler:       h,
		StoreHandler:      h,
		FindHandler:       h,
		GetHandler:        h,
		MoveHandler:       h,
		CallerFilter:      h.CallerFilter,
		OnConnection:      h.OnConnection,
		OnDisconnect:      h.OnDisconnect,
	})
	if err != nil {
		return nil, nil, err
	}

	return srv, h, nil
}

func fmtListenAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
