package chord

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MessageType enumerates the wire protocol's frame types (spec.md §4.A).
type MessageType uint8

const (
	MsgIdentify MessageType = iota + 1
	MsgHeartbeat
	MsgHeartbeatReply
	MsgSearch
	MsgSearchNodeResponse
	MsgDataRequest
	MsgDataAnswer
	MsgDataNotFound
	MsgDataAdd
	MsgDataAddFailed
	MsgDataAddSuccess
	MsgUpdatePredecessor
	MsgTellPredecessor
	MsgPredecessor
)

func (t MessageType) String() string {
	switch t {
	case MsgIdentify:
		return "Identify"
	case MsgHeartbeat:
		return "Heartbeat"
	case MsgHeartbeatReply:
		return "HeartbeatReply"
	case MsgSearch:
		return "Search"
	case MsgSearchNodeResponse:
		return "SearchNodeResponse"
	case MsgDataRequest:
		return "DataRequest"
	case MsgDataAnswer:
		return "DataAnswer"
	case MsgDataNotFound:
		return "DataNotFound"
	case MsgDataAdd:
		return "DataAdd"
	case MsgDataAddFailed:
		return "DataAddFailed"
	case MsgDataAddSuccess:
		return "DataAddSuccess"
	case MsgUpdatePredecessor:
		return "UpdatePredecessor"
	case MsgTellPredecessor:
		return "TellPredecessor"
	case MsgPredecessor:
		return "Predecessor"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// headerSize is the fixed number of bytes preceding any payload:
// node id (4) + ip (4) + port (2) + type (1) + data size (4).
const headerSize = 4 + 4 + 2 + 1 + 4

// Header is the fixed frame header that precedes every message (spec.md
// §4.A). All multi-byte fields travel in network byte order.
type Header struct {
	SenderID   ID
	SenderIP   [4]byte
	SenderPort uint16
	Type       MessageType
	DataSize   uint32
}

// encodeFrame serializes header and payload into one contiguous buffer.
// The caller is responsible for making DataSize == len(payload); encode
// re-derives it defensively so a mismatched caller cannot corrupt the
// stream.
func encodeFrame(h Header, payload []byte) []byte {
	h.DataSize = uint32(len(payload))

	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.SenderID))
	copy(buf[4:8], h.SenderIP[:])
	binary.BigEndian.PutUint16(buf[8:10], h.SenderPort)
	buf[10] = byte(h.Type)
	binary.BigEndian.PutUint32(buf[11:15], h.DataSize)
	copy(buf[headerSize:], payload)
	return buf
}

// decodeFrame blocks on r until a full header and payload have arrived, or
// returns an error if the stream closes or a short read occurs. Short
// reads are fatal to the caller's connection per spec.md §4.A.
func decodeFrame(r io.Reader) (Header, []byte, error) {
	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return Header{}, nil, fmt.Errorf("read header: %w", err)
	}

	h := Header{
		SenderID:   ID(binary.BigEndian.Uint32(hb[0:4])),
		SenderPort: binary.BigEndian.Uint16(hb[8:10]),
		Type:       MessageType(hb[10]),
		DataSize:   binary.BigEndian.Uint32(hb[11:15]),
	}
	copy(h.SenderIP[:], hb[4:8])

	if h.DataSize == 0 {
		return h, nil, nil
	}

	payload := make([]byte, h.DataSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, fmt.Errorf("read payload: %w", err)
	}
	return h, payload, nil
}

// encodeIDPayload encodes a single identifier as a 4-byte big-endian
// payload, used by Search and DataRequest frames.
func encodeIDPayload(id ID) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

func decodeIDPayload(payload []byte) (ID, error) {
	if len(payload) != 4 {
		return 0, fmt.Errorf("bad id payload length: %d", len(payload))
	}
	return ID(binary.BigEndian.Uint32(payload)), nil
}

// peerIdentityPayloadSize is the wire size of one PeerIdentity triple:
// node id (4) + ip (4) + port (2).
const peerIdentityPayloadSize = 4 + 4 + 2

func encodePeerIdentityPayload(p PeerIdentity) []byte {
	buf := make([]byte, peerIdentityPayloadSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.ID))
	copy(buf[4:8], p.IP[:])
	binary.BigEndian.PutUint16(buf[8:10], p.Port)
	return buf
}

func decodePeerIdentityPayload(payload []byte) (PeerIdentity, error) {
	if len(payload) != peerIdentityPayloadSize {
		return PeerIdentity{}, fmt.Errorf("bad peer identity payload length: %d", len(payload))
	}
	var p PeerIdentity
	p.ID = ID(binary.BigEndian.Uint32(payload[0:4]))
	copy(p.IP[:], payload[4:8])
	p.Port = binary.BigEndian.Uint16(payload[8:10])
	return p, nil
}
