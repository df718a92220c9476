package chord

import "golang.org/x/xerrors"

// joinRing runs the one-shot bootstrap sequence of spec.md §4.G: contact
// a known peer, look up this node's own id, and set the initial
// successor. Any failure here is fatal to bootstrap — the caller (Node's
// constructor) returns the error instead of starting the node rather than
// terminating the process itself, leaving the process-exit decision to
// the host program per spec.md §7 ("Bootstrap failure ... is fatal").
func joinRing(r *Ring, bootstrapIP string, bootstrapPort uint16) error {
	bootstrap := PeerIdentity{ID: 0, Port: bootstrapPort}
	copy(bootstrap.IP[:], parseIPv4(bootstrapIP))
	introducer := newPeerLink(r, bootstrap)

	if _, err := introducer.EnsureOutbound(); err != nil {
		return xerrors.Errorf("%w: dial bootstrap: %v", ErrBootstrapFailed, err)
	}

	successorIdentity, err := introducer.SearchForKey(r.self.ID)
	if err != nil {
		return xerrors.Errorf("%w: search for own id via bootstrap: %v", ErrBootstrapFailed, err)
	}

	succ := r.getOrCreatePeerLink(successorIdentity)
	r.setSuccessor(succ)

	r.mu.Lock()
	r.theArc = arc{from: successorIdentity.ID + 1, to: r.self.ID}
	r.mu.Unlock()

	if _, err := succ.EnsureOutbound(); err != nil {
		r.log.Warn().Err(err).Msg("join: could not pre-connect to successor, stabilizer will retry")
	}

	return nil
}
