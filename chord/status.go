package chord

import (
	"fmt"

	"github.com/disiqueira/gotree"
)

// StatusSnapshot is the read-only view of a node's ring membership
// returned by Node.Status (spec.md §6, "status()"): own identity,
// successor, predecessor, responsibility arc, and known peers.
type StatusSnapshot struct {
	Self        PeerIdentity
	Successor   *PeerIdentity
	Predecessor *PeerIdentity
	ArcFrom     ID
	ArcTo       ID
	KnownPeers  []PeerIdentity
	StoredKeys  int
}

// Status implements ring.status (spec.md §6). Each field is read under
// its own lock acquisition, so a ring change that happens while Status
// runs can show up in some fields and not in others. It does not probe
// liveness; IsAlive does that per peer when a caller asks for it.
func (n *Node) Status() StatusSnapshot {
	r := n.ring

	from, to := r.Arc()
	snap := StatusSnapshot{
		Self:       r.self,
		ArcFrom:    from,
		ArcTo:      to,
		StoredKeys: len(r.ListLocal()),
	}

	if succ := r.Successor(); succ != nil {
		id := succ.Identity()
		snap.Successor = &id
	}
	if pred := r.Predecessor(); pred != nil {
		id := pred.Identity()
		snap.Predecessor = &id
	}
	for _, pl := range r.knownPeerSnapshot() {
		snap.KnownPeers = append(snap.KnownPeers, pl.Identity())
	}
	return snap
}

// String renders a StatusSnapshot as an ASCII tree, the way
// YanniZhangYZ-Distributed-Hash-Computation's contract state renders its
// AST with gotree, generalized here to ring membership instead of a
// parse tree.
func (s StatusSnapshot) String() string {
	root := gotree.New(fmt.Sprintf("node %d (%s)", s.Self.ID, s.Self.Addr()))

	root.Add(fmt.Sprintf("arc: (%d, %d]", s.ArcFrom, s.ArcTo))
	root.Add(fmt.Sprintf("stored keys: %d", s.StoredKeys))

	if s.Successor != nil {
		root.Add(fmt.Sprintf("successor: %d (%s)", s.Successor.ID, s.Successor.Addr()))
	} else {
		root.Add("successor: none")
	}

	if s.Predecessor != nil {
		root.Add(fmt.Sprintf("predecessor: %d (%s)", s.Predecessor.ID, s.Predecessor.Addr()))
	} else {
		root.Add("predecessor: none")
	}

	peers := root.Add(fmt.Sprintf("known peers: %d", len(s.KnownPeers)))
	for _, p := range s.KnownPeers {
		peers.Add(fmt.Sprintf("%d (%s)", p.ID, p.Addr()))
	}

	return root.Print()
}
