package chord

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	h := Header{SenderID: 42, SenderIP: [4]byte{10, 0, 0, 1}, SenderPort: 9000, Type: MsgSearch}
	payload := []byte{1, 2, 3, 4}

	frame := encodeFrame(h, payload)
	require.Len(t, frame, headerSize+len(payload))

	got, gotPayload, err := decodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, h.SenderID, got.SenderID)
	require.Equal(t, h.SenderIP, got.SenderIP)
	require.Equal(t, h.SenderPort, got.SenderPort)
	require.Equal(t, h.Type, got.Type)
	require.Equal(t, uint32(len(payload)), got.DataSize)
	require.Equal(t, payload, gotPayload)
}

func TestEncodeDecodeFrameEmptyPayload(t *testing.T) {
	h := Header{SenderID: 1, Type: MsgHeartbeat}
	frame := encodeFrame(h, nil)
	require.Len(t, frame, headerSize)

	got, payload, err := decodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Nil(t, payload)
	require.Equal(t, uint32(0), got.DataSize)
}

func TestDecodeFrameShortRead(t *testing.T) {
	_, _, err := decodeFrame(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestIDPayloadRoundTrip(t *testing.T) {
	buf := encodeIDPayload(123456789)
	id, err := decodeIDPayload(buf)
	require.NoError(t, err)
	require.Equal(t, ID(123456789), id)
}

func TestIDPayloadBadLength(t *testing.T) {
	_, err := decodeIDPayload([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestPeerIdentityPayloadRoundTrip(t *testing.T) {
	p := PeerIdentity{ID: 7, IP: [4]byte{192, 168, 1, 1}, Port: 4001}
	buf := encodePeerIdentityPayload(p)
	require.Len(t, buf, peerIdentityPayloadSize)

	got, err := decodePeerIdentityPayload(buf)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestMessageTypeString(t *testing.T) {
	require.Equal(t, "Identify", MsgIdentify.String())
	require.Equal(t, "Predecessor", MsgPredecessor.String())
	require.Contains(t, MessageType(200).String(), "MessageType")
}
