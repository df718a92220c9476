package chord

import (
	"net"
	"strconv"
	"sync/atomic"

	"golang.org/x/xerrors"
)

// Node is the invocation interface the core presents to a host program
// (spec.md §6): new/new_joining, put/get/list_local/status, shutdown.
// Everything else in this package is implementation detail reached only
// through a Node.
type Node struct {
	ring       *Ring
	listener   *Listener
	stabilizer *Stabilizer
	log        Logger

	down atomic.Bool
}

// New starts a solo ring: a node with no predecessor or successor other
// than itself, authoritative for the entire identifier circle until a
// peer joins it (spec.md §6, "new(ip, port)").
func New(cfg Config) (*Node, error) {
	return newNode(cfg, "")
}

// NewJoining starts a node and runs the bootstrap join sequence against
// an existing ring member (spec.md §6, "new_joining").
func NewJoining(cfg Config, bootstrapIP string, bootstrapPort uint16) (*Node, error) {
	cfg.BootstrapIP = bootstrapIP
	cfg.BootstrapPort = bootstrapPort
	return newNode(cfg, bootstrapIP)
}

func newNode(cfg Config, bootstrapIP string) (*Node, error) {
	cfg = cfg.withDefaults()

	selfID := randomID()
	self := PeerIdentity{ID: selfID, Port: cfg.Port}
	copy(self.IP[:], parseIPv4(cfg.IP))

	log := defaultLogger(selfID)
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	ring := newRing(self, cfg, log)

	addr := net.JoinHostPort(cfg.IP, strconv.Itoa(int(cfg.Port)))
	listener, err := newListener(ring, addr, log)
	if err != nil {
		return nil, xerrors.Errorf("chord: bind %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		ring.self.Port = uint16(tcpAddr.Port)
	}

	if bootstrapIP != "" {
		if err := joinRing(ring, bootstrapIP, cfg.BootstrapPort); err != nil {
			listener.listener.Close()
			return nil, err
		}
	}

	go listener.run()

	stabilizer := newStabilizer(ring, log)
	stabilizer.Start()

	n := &Node{
		ring:       ring,
		listener:   listener,
		stabilizer: stabilizer,
		log:        log,
	}
	log.Info().Uint32("id", uint32(selfID)).Str("addr", addr).Bool("joining", bootstrapIP != "").Msg("node started")
	return n, nil
}

// ID returns this node's own identifier.
func (n *Node) ID() ID { return n.ring.self.ID }

// Put routes value to the responsible node: on local responsibility it
// stores directly, otherwise it searches for the owner and forwards
// DataAdd to it (spec.md §6, "put(value_bytes)"). Returns ErrNodeDown if
// called after Shutdown.
func (n *Node) Put(value []byte) (ID, PeerIdentity, error) {
	if n.down.Load() {
		return 0, PeerIdentity{}, ErrNodeDown
	}

	key := HashKey(value)

	if n.ring.StoreIfOwned(value) {
		return key, n.ring.self, nil
	}

	target := n.ring.Search(n.ring.self.ID, key)
	if target.ID == n.ring.self.ID {
		// search bottomed out at ourselves without owning the key: a
		// routing dead-end per spec.md §7.
		return key, target, ErrDataAddRejected
	}

	pl := n.ring.getOrCreatePeerLink(target)
	if !pl.hasOutbound() {
		if _, err := pl.EnsureOutbound(); err != nil {
			return key, target, err
		}
	}
	ok, err := pl.AddData(value)
	if err != nil {
		return key, target, err
	}
	if !ok {
		return key, target, ErrDataAddRejected
	}
	return key, target, nil
}

// Get searches for the node responsible for key and requests its value
// (spec.md §6, "get(key_id)"). Returns ErrNodeDown if called after
// Shutdown.
func (n *Node) Get(key ID) ([]byte, PeerIdentity, error) {
	if n.down.Load() {
		return nil, PeerIdentity{}, ErrNodeDown
	}

	if v, ok := n.ring.LookupLocal(key); ok {
		return v, n.ring.self, nil
	}

	target := n.ring.Search(n.ring.self.ID, key)
	if target.ID == n.ring.self.ID {
		return nil, target, ErrKeyNotFound
	}

	pl := n.ring.getOrCreatePeerLink(target)
	if !pl.hasOutbound() {
		if _, err := pl.EnsureOutbound(); err != nil {
			return nil, target, err
		}
	}
	v, ok, err := pl.RequestData(key)
	if err != nil {
		return nil, target, err
	}
	if !ok {
		return nil, target, ErrKeyNotFound
	}
	return v, target, nil
}

// ListLocal returns a snapshot of the local (key, value) map (spec.md §6,
// "list_local()").
func (n *Node) ListLocal() map[ID][]byte {
	return n.ring.ListLocal()
}

// Shutdown stops the stabilizer and listener, then closes peer links
// (spec.md §6, "shutdown()", and §5 "Cancellation").
func (n *Node) Shutdown() {
	n.down.Store(true)
	n.stabilizer.Stop()
	n.listener.Stop()

	if succ := n.ring.Successor(); succ != nil {
		succ.CloseOutbound()
		succ.closeInbound()
	}
	if pred := n.ring.Predecessor(); pred != nil {
		pred.CloseOutbound()
		pred.closeInbound()
	}
	for _, pl := range n.ring.knownPeerSnapshot() {
		pl.CloseOutbound()
		pl.closeInbound()
	}
	n.log.Info().Msg("node shut down")
}
