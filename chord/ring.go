package chord

import (
	"net"
	"sync"
)

// arc is the half-open-on-the-low-side, closed-on-the-high-side
// responsibility range (predecessor_id, own_id] described in spec.md §3.
type arc struct {
	from ID
	to   ID
}

// Ring holds THE CORE state of one node: its own identity, successor,
// predecessor, responsibility arc, local value store, and the set of
// known peer links (spec.md §4.D). Every link created through
// getOrCreatePeerLink is registered there, the successor and predecessor
// links included.
// It is arena-owned by Node; every PeerLink holds a non-owning pointer
// back to it (spec.md §9).
type Ring struct {
	self PeerIdentity
	cfg  Config
	log  Logger

	mu          sync.RWMutex // guards successor, predecessor, theArc
	successor   *PeerLink
	predecessor *PeerLink
	theArc      arc

	storeMu sync.Mutex
	store   map[ID][]byte

	peersMu     sync.Mutex
	knownPeers  map[ID]*PeerLink
	fingerTable []*PeerLink // length IDBits+1, placeholder per spec.md §4.D / §9 open question 4
}

func newRing(self PeerIdentity, cfg Config, log Logger) *Ring {
	r := &Ring{
		self:       self,
		cfg:        cfg,
		log:        log,
		store:      make(map[ID][]byte),
		knownPeers: make(map[ID]*PeerLink),
	}
	r.theArc = arc{from: 0, to: ^ID(0)} // whole ring: no predecessor known yet
	r.fingerTable = make([]*PeerLink, IDBits+1)
	return r
}

func (r *Ring) selfHeader(t MessageType) Header {
	return Header{SenderID: r.self.ID, SenderIP: r.self.IP, SenderPort: r.self.Port, Type: t}
}

// KeyInMyArc implements key_in_my_arc (spec.md §4.D).
func (r *Ring) KeyInMyArc(k ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keyInMyArcLocked(k)
}

func (r *Ring) keyInMyArcLocked(k ID) bool {
	a := r.theArc
	if a.from <= a.to {
		return k >= a.from && k <= a.to
	}
	return k >= a.from || k <= a.to
}

// Successor / Predecessor return a snapshot of the current links, or nil.
func (r *Ring) Successor() *PeerLink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.successor
}

func (r *Ring) Predecessor() *PeerLink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.predecessor
}

func (r *Ring) Arc() (from, to ID) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.theArc.from, r.theArc.to
}

// setSuccessor swaps the successor link under the short-held lock
// (spec.md §5, "Successor / predecessor slots").
func (r *Ring) setSuccessor(pl *PeerLink) {
	r.mu.Lock()
	r.successor = pl
	r.mu.Unlock()
}

// Search implements ring.search (spec.md §4.D): if the key is ours,
// return our own identity; otherwise choose predecessor or successor as
// the forwarding hop, predecessor taking precedence when both qualify.
func (r *Ring) Search(searchingID, key ID) PeerIdentity {
	if r.KeyInMyArc(key) {
		return r.self
	}

	r.mu.RLock()
	pred := r.predecessor
	succ := r.successor
	r.mu.RUnlock()

	if pred != nil && pred.ID() != searchingID && between(key, searchingID, pred.ID()) {
		if target, err := r.forwardSearch(pred, searchingID, key); err == nil {
			return target
		}
	}

	if succ != nil && succ.ID() != searchingID {
		if target, err := r.forwardSearch(succ, searchingID, key); err == nil {
			return target
		}
	}

	return r.self
}

func (r *Ring) forwardSearch(pl *PeerLink, searchingID, key ID) (PeerIdentity, error) {
	if !pl.hasOutbound() {
		if _, err := pl.EnsureOutbound(); err != nil {
			return PeerIdentity{}, err
		}
	}
	return pl.SearchForKey(key)
}

// UpdatePredecessor implements ring.update_predecessor (spec.md §4.D). It
// accepts the candidate under the three conditions named there and
// always returns the (possibly unchanged) current predecessor identity.
func (r *Ring) UpdatePredecessor(candidate PeerIdentity) PeerIdentity {
	r.mu.Lock()
	pred := r.predecessor
	accept := false

	switch {
	case pred == nil:
		accept = true
	case pred.ID() > r.self.ID:
		// existing predecessor's id wraps past us: candidate qualifies if
		// it is between 0 and us, or between the old predecessor and the
		// wrap point.
		accept = candidate.ID < r.self.ID || candidate.ID > pred.ID()
	default:
		// non-wrapping case
		accept = pred.ID() < candidate.ID && candidate.ID < r.self.ID
	}
	r.mu.Unlock()

	if accept {
		r.setPredecessor(candidate)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.predecessor == nil {
		return r.self
	}
	return r.predecessor.Identity()
}

// setPredecessor is the only place the responsibility arc shrinks after
// startup (spec.md §4.D, set_predecessor); joinRing sets the initial arc
// of a joining node.
func (r *Ring) setPredecessor(peer PeerIdentity) {
	pl := r.getOrCreatePeerLink(peer)

	r.mu.Lock()
	r.predecessor = pl
	r.theArc = arc{from: peer.ID + 1, to: r.self.ID}
	r.mu.Unlock()

	r.transferKeysNotOwned(pl)
}

// transferKeysNotOwned collects every locally stored key that no longer
// satisfies KeyInMyArc and hands it to the new predecessor. Failures are
// logged and the key is lost, matching spec.md §9 open question 3 (a
// safer implementation would retry on the next stabilizer tick instead).
func (r *Ring) transferKeysNotOwned(newOwner *PeerLink) {
	r.storeMu.Lock()
	var toMove map[ID][]byte
	for k, v := range r.store {
		if !r.keyInMyArcLocked(k) {
			if toMove == nil {
				toMove = make(map[ID][]byte)
			}
			toMove[k] = v
			delete(r.store, k)
		}
	}
	r.storeMu.Unlock()

	if len(toMove) == 0 {
		return
	}

	if !newOwner.hasOutbound() {
		if _, err := newOwner.EnsureOutbound(); err != nil {
			r.log.Warn().Err(err).Int("count", len(toMove)).Msg("key transfer: could not reach new predecessor, keys dropped")
			return
		}
	}
	for k, v := range toMove {
		ok, err := newOwner.AddData(v)
		if err != nil || !ok {
			r.log.Warn().Err(err).Uint32("key", uint32(k)).Msg("key transfer: add_data failed, key dropped")
		}
	}
}

// StoreIfOwned implements ring.store_if_owned (spec.md §4.D).
func (r *Ring) StoreIfOwned(value []byte) bool {
	k := HashKey(value)
	if !r.KeyInMyArc(k) {
		return false
	}
	r.storeMu.Lock()
	r.store[k] = value
	r.storeMu.Unlock()
	return true
}

// LookupLocal implements ring.lookup_local (spec.md §4.D).
func (r *Ring) LookupLocal(k ID) ([]byte, bool) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	v, ok := r.store[k]
	return v, ok
}

// ListLocal returns a snapshot copy of the local store.
func (r *Ring) ListLocal() map[ID][]byte {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	out := make(map[ID][]byte, len(r.store))
	for k, v := range r.store {
		out[k] = v
	}
	return out
}

// FindPeerByID implements ring.find_peer_by_id (spec.md §4.D): own
// identity, successor, predecessor, then known peers, in that order.
func (r *Ring) FindPeerByID(id ID) (PeerIdentity, *PeerLink, bool) {
	if id == r.self.ID {
		return r.self, nil, true
	}

	r.mu.RLock()
	succ, pred := r.successor, r.predecessor
	r.mu.RUnlock()

	if succ != nil && succ.ID() == id {
		return succ.Identity(), succ, true
	}
	if pred != nil && pred.ID() == id {
		return pred.Identity(), pred, true
	}

	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	if pl, ok := r.knownPeers[id]; ok {
		return pl.Identity(), pl, true
	}
	return PeerIdentity{}, nil, false
}

// getOrCreatePeerLink returns the existing link for peer's id (checked via
// FindPeerByID) or creates and registers a new one in knownPeers.
func (r *Ring) getOrCreatePeerLink(peer PeerIdentity) *PeerLink {
	if _, pl, ok := r.FindPeerByID(peer.ID); ok && pl != nil {
		return pl
	}

	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	if pl, ok := r.knownPeers[peer.ID]; ok {
		return pl
	}
	pl := newPeerLink(r, peer)
	r.knownPeers[peer.ID] = pl
	return pl
}

// removeKnownPeer drops a dead peer link from the known-peers set
// (spec.md §4.F, reaping).
func (r *Ring) removeKnownPeer(id ID) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	delete(r.knownPeers, id)
}

// knownPeerSnapshot returns a stable slice of known peer links to iterate
// without holding peersMu, per spec.md §4.F ("mutation must be done after
// iteration to avoid concurrent-modification").
func (r *Ring) knownPeerSnapshot() []*PeerLink {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	out := make([]*PeerLink, 0, len(r.knownPeers))
	for _, pl := range r.knownPeers {
		out = append(out, pl)
	}
	return out
}

// selfIP returns this node's own IPv4 address as a net.IP.
func (r *Ring) selfIP() net.IP { return net.IPv4(r.self.IP[0], r.self.IP[1], r.self.IP[2], r.self.IP[3]) }
