package chord

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenerAttachesInboundOnIdentify(t *testing.T) {
	server, _ := startTestNode(t, 1)

	conn, err := net.DialTimeout("tcp", server.self.Addr(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	identify := Header{SenderID: 42, SenderIP: [4]byte{127, 0, 0, 1}, SenderPort: 5555, Type: MsgIdentify}
	_, err = conn.Write(encodeFrame(identify, nil))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, _, ok := server.FindPeerByID(42)
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestListenerClosesConnectionOnNonIdentifyFirstFrame(t *testing.T) {
	server, _ := startTestNode(t, 1)

	conn, err := net.DialTimeout("tcp", server.self.Addr(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	bogus := Header{SenderID: 1, Type: MsgHeartbeat}
	_, err = conn.Write(encodeFrame(bogus, nil))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	require.Error(t, err)
}
