package chord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testNodeConfig() Config {
	return Config{
		IP:                    "127.0.0.1",
		Port:                  0,
		StabilizeInterval:     50 * time.Millisecond,
		FastStabilizeInterval: 10 * time.Millisecond,
		HeartbeatTimeout:      200 * time.Millisecond,
		ReadTimeout:           time.Second,
	}
}

func nodePort(n *Node) uint16 { return n.ring.self.Port }

func TestNodeSoloPutGet(t *testing.T) {
	n, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(n.Shutdown)

	key, owner, err := n.Put([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, n.ID(), owner.ID)

	v, owner2, err := n.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)
	require.Equal(t, n.ID(), owner2.ID)
}

func TestNodeSoloGetMissing(t *testing.T) {
	n, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(n.Shutdown)

	_, _, err = n.Get(999)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNodeJoiningSecondNodeSeesFirst(t *testing.T) {
	first, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(first.Shutdown)

	second, err := NewJoining(testNodeConfig(), "127.0.0.1", nodePort(first))
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)

	require.Eventually(t, func() bool {
		succ := second.ring.Successor()
		return succ != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNodeJoiningConvergesBothDirections(t *testing.T) {
	first, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(first.Shutdown)

	second, err := NewJoining(testNodeConfig(), "127.0.0.1", nodePort(first))
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)

	// Stabilization should eventually make each node the other's
	// successor and predecessor, whichever direction the id comparison
	// puts them.
	require.Eventually(t, func() bool {
		fSucc, fPred := first.ring.Successor(), first.ring.Predecessor()
		sSucc, sPred := second.ring.Successor(), second.ring.Predecessor()
		return fSucc != nil && fPred != nil && sSucc != nil && sPred != nil &&
			fSucc.ID() == second.ID() && fPred.ID() == second.ID() &&
			sSucc.ID() == first.ID() && sPred.ID() == first.ID()
	}, 3*time.Second, 10*time.Millisecond)
}

func TestNodeTwoNodePutRoutesToOwner(t *testing.T) {
	first, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(first.Shutdown)

	second, err := NewJoining(testNodeConfig(), "127.0.0.1", nodePort(first))
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)

	require.Eventually(t, func() bool {
		return first.ring.Successor() != nil && first.ring.Predecessor() != nil
	}, 3*time.Second, 10*time.Millisecond)

	value := []byte("routed-value")
	key := HashKey(value)

	key2, owner, err := first.Put(value)
	require.NoError(t, err)
	require.Equal(t, key, key2)

	var (
		v    []byte
		gErr error
	)
	if owner.ID == first.ID() {
		v, _, gErr = first.Get(key)
	} else {
		v, _, gErr = second.Get(key)
	}
	require.NoError(t, gErr)
	require.Equal(t, value, v)
}

func TestNodeStatusReportsSelf(t *testing.T) {
	n, err := New(testNodeConfig())
	require.NoError(t, err)
	t.Cleanup(n.Shutdown)

	status := n.Status()
	require.Equal(t, n.ID(), status.Self.ID)
	require.Contains(t, status.String(), "node")
}

func TestNodeBootstrapFailureIsFatal(t *testing.T) {
	_, err := NewJoining(testNodeConfig(), "127.0.0.1", 1)
	require.ErrorIs(t, err, ErrBootstrapFailed)
}

func TestNodeUsesInjectedLogger(t *testing.T) {
	custom := discardLogger()
	cfg := testNodeConfig()
	cfg.Logger = &custom

	n, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(n.Shutdown)

	require.Equal(t, custom, n.log)
}

func TestNodePutGetAfterShutdownReturnErrNodeDown(t *testing.T) {
	n, err := New(testNodeConfig())
	require.NoError(t, err)
	n.Shutdown()

	_, _, err = n.Put([]byte("too late"))
	require.ErrorIs(t, err, ErrNodeDown)

	_, _, err = n.Get(1)
	require.ErrorIs(t, err, ErrNodeDown)
}
