package dimse

import "errors"

// Association errors, surfaced during A-ASSOCIATE negotiation.
var (
	// ErrProtocolVersionUnsupported indicates the peer's protocol version field does not include version 1.
	ErrProtocolVersionUnsupported = errors.New("unsupported protocol version")

	// ErrNoAcceptedContexts indicates every proposed presentation context was rejected.
	ErrNoAcceptedContexts = errors.New("no presentation contexts accepted")

	// ErrCallingAETitleRejected indicates the requestor's AE title is not in the server's allow list.
	ErrCallingAETitleRejected = errors.New("calling AE title rejected")

	// ErrCalledAETitleRejected indicates the requested AE title is not served by this node.
	ErrCalledAETitleRejected = errors.New("called AE title rejected")

	// ErrPDUOverflow indicates a PDU's declared length exceeds the negotiated maximum.
	ErrPDUOverflow = errors.New("PDU length exceeds negotiated maximum")
)

// DIMSE service errors, surfaced while processing a command inside an
// established association. These are converted to a DIMSE response
// status rather than tearing down the association.
var (
	// ErrUnknownService indicates the command field does not map to a service this node implements.
	ErrUnknownService = errors.New("unknown DIMSE service")

	// ErrDataSetPresentationContextMismatch indicates a dataset's encoding doesn't match its presentation context's transfer syntax.
	ErrDataSetPresentationContextMismatch = errors.New("dataset does not match presentation context")
)

// StatusError wraps a DIMSE status code so handlers can return a
// specific status without the caller needing to know the status
// registry, mirroring how a sentinel error carries a fixed meaning.
type StatusError struct {
	Status uint16
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return "DIMSE status failure"
	}
	return e.Msg
}

// NewStatusError creates a StatusError for the given status code.
func NewStatusError(status uint16, msg string) *StatusError {
	return &StatusError{Status: status, Msg: msg}
}
