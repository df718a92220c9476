package chord

import (
	"net"
	"time"
)

// Listener accepts TCP connections, reads the mandatory Identify frame,
// and attaches the new inbound stream to an existing or freshly created
// peer link (spec.md §4.E).
type Listener struct {
	ring     *Ring
	listener net.Listener
	log      Logger

	stop chan struct{}
	done chan struct{}
}

// newListener binds (ip, port). Go's net.Listen does not expose a
// portable knob for the listen backlog or SO_REUSEADDR the way a raw
// socket() / bind() / listen(20) call would; listenBacklog in config.go
// documents the value spec.md §4.E names, and the OS default backlog is
// accepted as close enough for the interactive, tens-of-peers scale this
// design targets (spec.md §1).
func newListener(ring *Ring, addr string, log Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		ring:     ring,
		listener: ln,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (l *Listener) Addr() net.Addr { return l.listener.Addr() }

func (l *Listener) run() {
	defer close(l.done)
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.stop:
				return
			default:
				l.log.Warn().Err(err).Msg("listener: accept failed")
				continue
			}
		}
		go l.handleAccept(conn)
	}
}

func (l *Listener) handleAccept(conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(l.ring.cfg.ReadTimeout))
	h, _, err := decodeFrame(conn)
	conn.SetReadDeadline(time.Time{})
	if err != nil || h.Type != MsgIdentify {
		l.log.Debug().Err(err).Msg("listener: expected Identify, closing")
		conn.Close()
		return
	}

	identity := PeerIdentity{ID: h.SenderID, IP: h.SenderIP, Port: h.SenderPort}
	pl := l.ring.getOrCreatePeerLink(identity)
	pl.attachInbound(conn)
	l.log.Debug().Stringer("from", identity).Msg("listener: identified and attached inbound stream")
}

func (l *Listener) Stop() {
	select {
	case <-l.stop:
		return
	default:
	}
	close(l.stop)
	l.listener.Close()
	<-l.done
}
