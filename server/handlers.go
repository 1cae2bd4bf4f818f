// Package server wires the index, storage manager, and access-control
// policy into the concrete handler implementations dimse/scp.Server
// dispatches C-ECHO/STORE/FIND/GET/MOVE requests to.
package server

import (
	"context"
	"os"

	"github.com/dcmkit/pacs/client"
	"github.com/dcmkit/pacs/config"
	"github.com/dcmkit/pacs/dicom"
	"github.com/dcmkit/pacs/dimse/dimse"
	"github.com/dcmkit/pacs/dimse/scp"
	"github.com/dcmkit/pacs/index"
	"github.com/dcmkit/pacs/log"
	"github.com/dcmkit/pacs/storage"
	"github.com/sirupsen/logrus"
)

// Handlers implements dimse/scp's EchoHandler, StoreHandler, FindHandler,
// GetHandler, and MoveHandler interfaces against a shared index and
// storage manager.
type Handlers struct {
	Index     *index.Index
	Storage   *storage.Manager
	Directory *client.Directory
	Config    *config.Config
	Logger    *logrus.Logger
	Stats     *Stats

	// OwnAETitle and OwnAddr identify this server to destination AEs
	// when it dials out for a C-MOVE sub-operation transfer.
	OwnAETitle string
}

var _ scp.EchoHandler = (*Handlers)(nil)
var _ scp.StoreHandler = (*Handlers)(nil)
var _ scp.FindHandler = (*Handlers)(nil)
var _ scp.GetHandler = (*Handlers)(nil)
var _ scp.MoveHandler = (*Handlers)(nil)

// HandleEcho always succeeds once an association has been accepted;
// C-ECHO has no semantics beyond confirming the DIMSE round trip works.
func (h *Handlers) HandleEcho(ctx context.Context, req *scp.EchoRequest) *scp.EchoResponse {
	h.Stats.EchoRequests.Add(1)
	session := log.ForSession(h.Logger, req.CallingAE, req.CalledAE)
	session.Debug("C-ECHO")
	return &scp.EchoResponse{Status: dimse.StatusSuccess}
}

// HandleStore persists the dataset via the storage manager and records
// it in the index, in that order: a record only appears once its bytes
// are safely on disk.
func (h *Handlers) HandleStore(ctx context.Context, req *scp.StoreRequest) *scp.StoreResponse {
	h.Stats.StoreRequests.Add(1)
	session := log.ForSession(h.Logger, req.CallingAE, req.CalledAE)
	exchange := log.ForExchange(session, 0, "C-STORE")

	studyUID := keywordValue(req.DataSet, "StudyInstanceUID")
	seriesUID := keywordValue(req.DataSet, "SeriesInstanceUID")

	path, err := h.Storage.Store(req.DataSet, studyUID, seriesUID, req.SOPInstanceUID, dicom.WriteOptions{})
	if err != nil {
		h.Stats.StoreFailures.Add(1)
		exchange.WithError(err).Error("failed to store instance")
		return &scp.StoreResponse{Status: dimse.StatusProcessingFailure}
	}

	rec := index.RecordFromDataSet(req.DataSet, path)
	if err := h.Index.Insert(rec); err != nil {
		h.Stats.StoreFailures.Add(1)
		exchange.WithError(err).Error("failed to index stored instance")
		return &scp.StoreResponse{Status: dimse.StatusDataSetDoesNotMatchSOPClass}
	}

	h.Stats.InstancesStored.Add(1)
	if info, err := os.Stat(path); err == nil {
		h.Stats.BytesReceived.Add(info.Size())
	}
	exchange.WithField("path", path).Info("stored instance")
	return &scp.StoreResponse{Status: dimse.StatusSuccess}
}

// HandleFind queries the index and returns one result dataset per match.
func (h *Handlers) HandleFind(ctx context.Context, req *scp.FindRequest) *scp.FindResponse {
	h.Stats.FindRequests.Add(1)
	session := log.ForSession(h.Logger, req.CallingAE, req.CalledAE)
	exchange := log.ForExchange(session, 0, "C-FIND")

	q := queryFromDataSet(req.Query)
	records, err := h.Index.Query(q)
	if err != nil {
		exchange.WithError(err).Warn("invalid C-FIND query")
		return &scp.FindResponse{Status: dimse.StatusAttributeListError}
	}

	keys := mergeKeywords(hierarchicalKeywords(q.Level), requestedKeywords(req.Query))

	results := make([]*dicom.DataSet, 0, len(records))
	for _, rec := range records {
		ds, err := recordToResultDataSet(rec, keys)
		if err != nil {
			exchange.WithError(err).Warn("failed to build C-FIND result dataset")
			continue
		}
		results = append(results, ds)
	}

	exchange.WithField("matches", len(results)).Debug("C-FIND complete")
	return &scp.FindResponse{Results: results, Status: dimse.StatusSuccess}
}

// HandleGet retrieves matching instances from storage for the caller's
// own association; dimse/scp.Server performs the C-STORE sub-operation
// loop itself once it has these datasets.
func (h *Handlers) HandleGet(ctx context.Context, req *scp.GetRequest) *scp.GetResponse {
	h.Stats.GetRequests.Add(1)
	session := log.ForSession(h.Logger, req.CallingAE, req.CalledAE)
	exchange := log.ForExchange(session, 0, "C-GET")

	q := queryFromDataSet(req.Query)
	records, err := h.Index.Retrieve(q)
	if err != nil {
		exchange.WithError(err).Warn("invalid C-GET query")
		return &scp.GetResponse{Status: dimse.StatusAttributeListError}
	}

	instances, status := h.loadInstances(exchange, records)
	return &scp.GetResponse{Instances: instances, Status: status}
}

// HandleMove retrieves matching instances and forwards them as C-STORE
// sub-operations over a new, outbound association to the resolved
// destination AE Title.
func (h *Handlers) HandleMove(ctx context.Context, req *scp.MoveRequest) *scp.MoveResponse {
	h.Stats.MoveRequests.Add(1)
	session := log.ForSession(h.Logger, req.CallingAE, req.CalledAE)
	exchange := log.ForExchange(session, 0, "C-MOVE")

	q := queryFromDataSet(req.Query)
	records, err := h.Index.Retrieve(q)
	if err != nil {
		exchange.WithError(err).Warn("invalid C-MOVE query")
		return &scp.MoveResponse{Status: dimse.StatusAttributeListError}
	}

	if len(records) == 0 {
		return &scp.MoveResponse{Status: dimse.StatusSuccess}
	}

	destAddr, err := h.Directory.Resolve(req.Destination)
	if err != nil {
		exchange.WithError(err).Warn("unresolved C-MOVE destination")
		return &scp.MoveResponse{Status: dimse.StatusMoveDestinationUnknown}
	}

	instances, loadStatus := h.loadInstances(exchange, records)
	if len(instances) == 0 {
		return &scp.MoveResponse{Status: loadStatus}
	}

	sopClassUIDs := make([]string, 0, len(instances))
	for _, ds := range instances {
		sopClassUIDs = append(sopClassUIDs, keywordValue(ds, "SOPClassUID"))
	}

	sess, err := client.Dial(ctx, client.Config{
		CallingAETitle: h.OwnAETitle,
		CalledAETitle:  req.Destination,
		RemoteAddr:     destAddr,
	}, sopClassUIDs)
	if err != nil {
		exchange.WithError(err).Error("failed to establish C-MOVE destination association")
		return &scp.MoveResponse{Status: dimse.StatusProcessingFailure}
	}
	defer func() { _ = sess.Close(ctx) }()

	var completed, failed uint16
	for _, ds := range instances {
		sopClassUID := keywordValue(ds, "SOPClassUID")
		sopInstanceUID := keywordValue(ds, "SOPInstanceUID")
		if err := sess.Store(ctx, ds, sopClassUID, sopInstanceUID); err != nil {
			failed++
			exchange.WithError(err).WithField("sop_instance_uid", sopInstanceUID).Warn("C-MOVE sub-operation failed")
			continue
		}
		completed++
	}

	status := dimse.StatusSuccess
	if failed > 0 && completed == 0 {
		status = dimse.StatusProcessingFailure
	}

	return &scp.MoveResponse{
		NumberOfCompletedSubOps: completed,
		NumberOfFailedSubOps:    failed,
		Status:                  status,
	}
}

// loadInstances opens each matched record's stored file and re-parses
// it into a dataset, skipping (and counting as failures via the logger)
// any record whose file has gone missing or is unreadable.
func (h *Handlers) loadInstances(exchange *logrus.Entry, records []index.Record) ([]*dicom.DataSet, uint16) {
	instances := make([]*dicom.DataSet, 0, len(records))
	status := dimse.StatusSuccess

	for _, rec := range records {
		ds, err := dicom.ParseFile(rec.Path)
		if err != nil {
			exchange.WithError(err).WithField("path", rec.Path).Warn("failed to load stored instance")
			status = dimse.StatusProcessingFailure
			continue
		}
		instances = append(instances, ds)
	}

	return instances, status
}

// CallerFilter is passed as dimse/scp.Config.CallerFilter: it is
// consulted at association-accept time, before any handler above runs,
// so a rejected AE Title never reaches them.
func (h *Handlers) CallerFilter(callingAE string) bool {
	if h.Config == nil {
		return true
	}
	return h.Config.IsCallerAllowed(callingAE)
}

// OnConnection is passed as dimse/scp.Config.OnConnection to maintain
// the connection-level counters.
func (h *Handlers) OnConnection(accepted bool) {
	h.Stats.ConnectionsTotal.Add(1)
	if !accepted {
		h.Stats.ConnectionsFailed.Add(1)
		return
	}
	h.Stats.ConnectionsActive.Add(1)
}

// OnDisconnect is passed as dimse/scp.Config.OnDisconnect, pairing with
// an earlier OnConnection(true) call.
func (h *Handlers) OnDisconnect() {
	h.Stats.ConnectionsActive.Add(-1)
}
