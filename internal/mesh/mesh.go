// Package mesh classifies decoded radio frames into semantic session
// events and builds outbound frames from the composer's text intents.
//
// The exact radio firmware container is a length-prefixed protobuf
// message (out of scope per the spec); this package only needs its
// behavioral contract, so inbound/outbound payloads use a minimal
// equivalent wire format: a one-byte kind tag followed by kind-specific
// fields, read and written with encoding/binary.
package mesh

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/meshbbs/core/internal/transport"
)

// Payload kinds, the first byte of every frame payload.
const (
	KindPublicText byte = 0x01
	KindDirectText byte = 0x02
	KindNodeInfo   byte = 0x03
)

// MaxTextBytes is the hard per-frame UTF-8 payload budget from §4.2/§4.5.
const MaxTextBytes = 200

// Event is the sum type the session layer emits upstream. Exactly one
// field-set is populated per the Kind tag.
type Event struct {
	Kind     EventKind
	FromNode uint32
	Text     string
	NodeInfo NodeInfo
}

type EventKind int

const (
	EventPublic EventKind = iota
	EventDirect
	EventNodeInfo
)

// NodeInfo is a node-announce payload used to populate the node
// directory for short-id display (§4.2 [EXPANDED]).
type NodeInfo struct {
	NodeID      uint32
	ShortName   string
	LongName    string
}

// Decode classifies one frame payload into a session Event.
func Decode(payload []byte) (Event, error) {
	if len(payload) < 5 {
		return Event{}, fmt.Errorf("mesh: payload too short: %d bytes", len(payload))
	}
	kind := payload[0]
	node := binary.LittleEndian.Uint32(payload[1:5])
	rest := payload[5:]

	switch kind {
	case KindPublicText:
		return Event{Kind: EventPublic, FromNode: node, Text: string(rest)}, nil
	case KindDirectText:
		return Event{Kind: EventDirect, FromNode: node, Text: string(rest)}, nil
	case KindNodeInfo:
		short, long := splitNulTerminated(rest)
		return Event{Kind: EventNodeInfo, FromNode: node, NodeInfo: NodeInfo{
			NodeID: node, ShortName: short, LongName: long,
		}}, nil
	default:
		return Event{}, fmt.Errorf("mesh: unknown payload kind %#x", kind)
	}
}

func splitNulTerminated(b []byte) (string, string) {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	short := string(b[:i])
	rest := b[i:]
	if len(rest) > 0 {
		rest = rest[1:]
	}
	return short, string(rest)
}

// EncodeDirect builds the outbound payload for a direct text message.
// Returns an error if text exceeds the per-frame UTF-8 budget or would
// split a code point — callers (the composer) are responsible for
// chunking text that doesn't already fit.
func EncodeDirect(toNode uint32, text string) ([]byte, error) {
	return encodeText(KindDirectText, toNode, text)
}

// EncodeBroadcast builds the outbound payload for a broadcast text
// message on the configured channel.
func EncodeBroadcast(text string) ([]byte, error) {
	return encodeText(KindPublicText, 0, text)
}

func encodeText(kind byte, node uint32, text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("mesh: text is not valid utf-8")
	}
	if len(text) > MaxTextBytes {
		return nil, fmt.Errorf("mesh: text exceeds %d byte frame budget (%d bytes)", MaxTextBytes, len(text))
	}
	buf := make([]byte, 5+len(text))
	buf[0] = kind
	binary.LittleEndian.PutUint32(buf[1:5], node)
	copy(buf[5:], text)
	return buf, nil
}

// Outbound destinations for the transport layer's pacing logic.
func DestFor(toNode uint32, broadcast bool) uint32 {
	if broadcast {
		return transport.DestBroadcast
	}
	return toNode
}
