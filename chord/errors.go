package chord

import "golang.org/x/xerrors"

// Error taxonomy (spec.md §7). Transport and protocol errors surface as
// connection-level failures wrapped with xerrors so callers can inspect
// the chain with errors.Is/errors.As; semantic outcomes (key not owned,
// key absent) are not errors at the link level, they are reply message
// types (spec.md §4.A).
var (
	ErrNodeDown          = xerrors.New("chord: node is not alive")
	ErrKeyNotFound       = xerrors.New("chord: key not found")
	ErrConnectingFailed  = xerrors.New("chord: connecting to peer failed")
	ErrAlreadyConnected  = xerrors.New("chord: outbound already connected")
	ErrNotConnected      = xerrors.New("chord: outbound not connected")
	ErrProtocol          = xerrors.New("chord: protocol error")
	ErrBootstrapFailed   = xerrors.New("chord: bootstrap join failed")
	ErrDataAddRejected   = xerrors.New("chord: remote rejected data add")
	ErrNoResponsibleNode = xerrors.New("chord: could not resolve a responsible node")
)

// ConnectOutcome is the three-valued result of PeerLink.EnsureOutbound,
// preserved from the original rgp library's ChordConnectionStatus enum
// (SPEC_FULL.md, "SUPPLEMENTED FEATURES" #2) because AlreadyConnected is
// not a failure and stays distinguishable from a fresh connect. The
// package's own callers act only on the returned error.
type ConnectOutcome uint8

const (
	SuccessfullyConnected ConnectOutcome = iota + 1
	ConnectingFailed
	AlreadyConnected
)

func (c ConnectOutcome) String() string {
	switch c {
	case SuccessfullyConnected:
		return "SuccessfullyConnected"
	case ConnectingFailed:
		return "ConnectingFailed"
	case AlreadyConnected:
		return "AlreadyConnected"
	default:
		return "unknown"
	}
}
