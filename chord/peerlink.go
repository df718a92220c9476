package chord

import (
	"net"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/xerrors"
)

// PeerLink is the combined state associated with one remote node: an
// optional inbound stream (requests arriving), an optional outbound
// stream (requests leaving), and the mutex serializing one outbound
// request/reply exchange at a time (spec.md §4.B). It holds a
// non-owning back-reference to the ring it belongs to so its request
// handler can dispatch into ring state without the ring owning a strong
// cycle back (spec.md §9, "Cyclic peer references").
type PeerLink struct {
	identity PeerIdentity

	ring *Ring
	log  Logger

	// trace is an observability-only id (see SPEC_FULL.md DOMAIN STACK);
	// it never appears on the wire.
	trace string

	outMu   sync.Mutex
	outConn net.Conn

	inMu       sync.Mutex
	inConn     net.Conn
	inStopFlag chan struct{}
}

func newPeerLink(ring *Ring, identity PeerIdentity) *PeerLink {
	trace := xid.New().String()
	return &PeerLink{
		identity: identity,
		ring:     ring,
		log:      ring.log.With().Str("peer", identity.String()).Str("trace", trace).Logger(),
		trace:    trace,
	}
}

func (pl *PeerLink) ID() ID { return pl.identity.ID }

func (pl *PeerLink) Identity() PeerIdentity { return pl.identity }

// EnsureOutbound opens a TCP connection to the peer and identifies
// ourselves, unless one is already open (spec.md §4.B).
func (pl *PeerLink) EnsureOutbound() (ConnectOutcome, error) {
	pl.outMu.Lock()
	defer pl.outMu.Unlock()

	if pl.outConn != nil {
		return AlreadyConnected, nil
	}

	conn, err := net.DialTimeout("tcp", pl.identity.Addr(), pl.ring.cfg.ReadTimeout)
	if err != nil {
		pl.log.Warn().Err(err).Msg("ensure_outbound: dial failed")
		return ConnectingFailed, xerrors.Errorf("%w: %v", ErrConnectingFailed, err)
	}

	frame := encodeFrame(pl.ring.selfHeader(MsgIdentify), nil)
	if _, err := conn.Write(frame); err != nil {
		conn.Close()
		pl.log.Warn().Err(err).Msg("ensure_outbound: identify failed")
		return ConnectingFailed, xerrors.Errorf("%w: %v", ErrConnectingFailed, err)
	}

	pl.outConn = conn
	pl.log.Debug().Msg("ensure_outbound: connected")
	return SuccessfullyConnected, nil
}

// CloseOutbound idempotently closes the outbound stream.
func (pl *PeerLink) CloseOutbound() {
	pl.outMu.Lock()
	defer pl.outMu.Unlock()
	pl.closeOutboundLocked()
}

func (pl *PeerLink) closeOutboundLocked() {
	if pl.outConn != nil {
		pl.outConn.Close()
		pl.outConn = nil
	}
}

// attachInbound wires a freshly accepted/identified stream as this peer's
// inbound side, stopping any previously running handler first.
func (pl *PeerLink) attachInbound(conn net.Conn) {
	pl.inMu.Lock()
	oldStop := pl.inStopFlag
	if pl.inConn != nil {
		pl.inConn.Close()
	}
	pl.inConn = conn
	pl.inStopFlag = make(chan struct{})
	stop := pl.inStopFlag
	pl.inMu.Unlock()

	if oldStop != nil {
		close(oldStop)
	}

	go runInboundHandler(pl, conn, stop)
}

func (pl *PeerLink) closeInbound() {
	pl.inMu.Lock()
	defer pl.inMu.Unlock()
	if pl.inConn != nil {
		pl.inConn.Close()
		pl.inConn = nil
	}
	if pl.inStopFlag != nil {
		select {
		case <-pl.inStopFlag:
		default:
			close(pl.inStopFlag)
		}
		pl.inStopFlag = nil
	}
}

func (pl *PeerLink) hasInbound() bool {
	pl.inMu.Lock()
	defer pl.inMu.Unlock()
	return pl.inConn != nil
}

func (pl *PeerLink) hasOutbound() bool {
	pl.outMu.Lock()
	defer pl.outMu.Unlock()
	return pl.outConn != nil
}

// IsAlive probes liveness (spec.md §4.B): if outbound is open it sends a
// Heartbeat and waits for HeartbeatReply; if only inbound is present it is
// assumed alive without probing (the remote side drives its own
// heartbeats against us).
func (pl *PeerLink) IsAlive() bool {
	pl.outMu.Lock()
	defer pl.outMu.Unlock()

	if pl.outConn == nil {
		return pl.hasInbound()
	}

	if err := pl.outConn.SetDeadline(time.Now().Add(pl.ring.cfg.HeartbeatTimeout)); err != nil {
		pl.closeOutboundLocked()
		return false
	}
	if _, err := pl.outConn.Write(encodeFrame(pl.ring.selfHeader(MsgHeartbeat), nil)); err != nil {
		pl.closeOutboundLocked()
		return false
	}
	h, _, err := decodeFrame(pl.outConn)
	pl.outConn.SetDeadline(time.Time{})
	if err != nil || h.Type != MsgHeartbeatReply {
		pl.closeOutboundLocked()
		return false
	}
	return true
}

// roundTrip sends a request frame on the outbound stream and returns the
// decoded reply, holding the outbound mutex for the full exchange so that
// requests and their replies are totally ordered on one connection
// (spec.md §5).
func (pl *PeerLink) roundTrip(msgType MessageType, payload []byte) (Header, []byte, error) {
	pl.outMu.Lock()
	defer pl.outMu.Unlock()

	if pl.outConn == nil {
		return Header{}, nil, ErrNotConnected
	}

	if err := pl.outConn.SetDeadline(time.Now().Add(pl.ring.cfg.ReadTimeout)); err != nil {
		pl.closeOutboundLocked()
		return Header{}, nil, xerrors.Errorf("%w: %v", ErrNodeDown, err)
	}
	defer pl.outConn.SetDeadline(time.Time{})

	frame := encodeFrame(pl.ring.selfHeader(msgType), payload)
	if _, err := pl.outConn.Write(frame); err != nil {
		pl.closeOutboundLocked()
		return Header{}, nil, xerrors.Errorf("%w: %v", ErrNodeDown, err)
	}

	h, p, err := decodeFrame(pl.outConn)
	if err != nil {
		pl.closeOutboundLocked()
		return Header{}, nil, xerrors.Errorf("%w: %v", ErrNodeDown, err)
	}
	return h, p, nil
}

// GetPredecessorFromRemote sends UpdatePredecessor(own) and returns the
// identity the remote replies it now considers its predecessor.
func (pl *PeerLink) GetPredecessorFromRemote(own PeerIdentity) (PeerIdentity, error) {
	h, payload, err := pl.roundTrip(MsgUpdatePredecessor, encodePeerIdentityPayload(own))
	if err != nil {
		return PeerIdentity{}, err
	}
	if h.Type != MsgPredecessor {
		return PeerIdentity{}, xerrors.Errorf("expected Predecessor, got %s: %w", h.Type, ErrProtocol)
	}
	return decodePeerIdentityPayload(payload)
}

// SearchForKey sends Search(key) and returns the responsible peer's
// identity.
func (pl *PeerLink) SearchForKey(key ID) (PeerIdentity, error) {
	h, payload, err := pl.roundTrip(MsgSearch, encodeIDPayload(key))
	if err != nil {
		return PeerIdentity{}, err
	}
	if h.Type != MsgSearchNodeResponse {
		return PeerIdentity{}, xerrors.Errorf("expected SearchNodeResponse, got %s: %w", h.Type, ErrProtocol)
	}
	return decodePeerIdentityPayload(payload)
}

// RequestData sends DataRequest(key) and returns the value, or (nil,
// false) if the remote replied DataNotFound.
func (pl *PeerLink) RequestData(key ID) ([]byte, bool, error) {
	h, payload, err := pl.roundTrip(MsgDataRequest, encodeIDPayload(key))
	if err != nil {
		return nil, false, err
	}
	switch h.Type {
	case MsgDataAnswer:
		return payload, true, nil
	case MsgDataNotFound:
		return nil, false, nil
	default:
		return nil, false, xerrors.Errorf("expected DataAnswer/DataNotFound, got %s: %w", h.Type, ErrProtocol)
	}
}

// AddData sends DataAdd(bytes) and reports whether the remote accepted
// ownership.
func (pl *PeerLink) AddData(value []byte) (bool, error) {
	h, _, err := pl.roundTrip(MsgDataAdd, value)
	if err != nil {
		return false, err
	}
	switch h.Type {
	case MsgDataAddSuccess:
		return true, nil
	case MsgDataAddFailed:
		return false, nil
	default:
		return false, xerrors.Errorf("expected DataAddSuccess/DataAddFailed, got %s: %w", h.Type, ErrProtocol)
	}
}
