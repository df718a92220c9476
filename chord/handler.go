package chord

import (
	"net"
	"time"
)

// runInboundHandler is the per-peer-link task described in spec.md §4.C:
// it decodes frames off the inbound stream until the stream closes or a
// shutdown is requested, and replies to each request on that same inbound
// stream (never the outbound one, so the outbound mutex is never taken by
// the inbound path).
func runInboundHandler(pl *PeerLink, conn net.Conn, stop chan struct{}) {
	closeOnReturn := make(chan struct{})
	go func() {
		select {
		case <-stop:
			conn.Close()
		case <-closeOnReturn:
		}
	}()
	defer close(closeOnReturn)

	pl.log.Debug().Msg("inbound handler: started")
	for {
		if pl.ring.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(pl.ring.cfg.ReadTimeout))
		}

		h, payload, err := decodeFrame(conn)
		if err != nil {
			pl.log.Debug().Err(err).Msg("inbound handler: stream closed")
			return
		}

		dispatchInbound(pl, conn, h, payload)
	}
}

func dispatchInbound(pl *PeerLink, conn net.Conn, h Header, payload []byte) {
	ring := pl.ring

	switch h.Type {
	case MsgHeartbeat:
		writeReply(pl, conn, MsgHeartbeatReply, nil)

	case MsgSearch:
		key, err := decodeIDPayload(payload)
		if err != nil {
			pl.log.Debug().Err(err).Msg("malformed Search frame, discarded")
			return
		}
		result := ring.Search(h.SenderID, key)
		writeReply(pl, conn, MsgSearchNodeResponse, encodePeerIdentityPayload(result))

	case MsgUpdatePredecessor:
		candidate, err := decodePeerIdentityPayload(payload)
		if err != nil {
			pl.log.Debug().Err(err).Msg("malformed UpdatePredecessor frame, discarded")
			return
		}
		current := ring.UpdatePredecessor(candidate)
		writeReply(pl, conn, MsgPredecessor, encodePeerIdentityPayload(current))

	case MsgDataAdd:
		ok := ring.StoreIfOwned(payload)
		if ok {
			writeReply(pl, conn, MsgDataAddSuccess, nil)
		} else {
			writeReply(pl, conn, MsgDataAddFailed, nil)
		}

	case MsgDataRequest:
		key, err := decodeIDPayload(payload)
		if err != nil {
			pl.log.Debug().Err(err).Msg("malformed DataRequest frame, discarded")
			return
		}
		if v, ok := ring.LookupLocal(key); ok {
			writeReply(pl, conn, MsgDataAnswer, v)
		} else {
			writeReply(pl, conn, MsgDataNotFound, nil)
		}

	default:
		pl.log.Debug().Stringer("type", h.Type).Msg("unhandled or malformed frame, discarded")
	}
}

func writeReply(pl *PeerLink, conn net.Conn, t MessageType, payload []byte) {
	frame := encodeFrame(pl.ring.selfHeader(t), payload)
	if _, err := conn.Write(frame); err != nil {
		pl.log.Debug().Err(err).Stringer("type", t).Msg("inbound handler: reply write failed")
	}
}
