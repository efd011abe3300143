package mesh

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/transport"
)

// Layer sits between the raw transport and the command dispatcher: it
// decodes inbound frames into Events and turns outbound intents into
// frames queued on the transport.
type Layer struct {
	tr  *transport.Transport
	log *zap.Logger

	events chan Event
}

func NewLayer(tr *transport.Transport, log *zap.Logger) *Layer {
	return &Layer{tr: tr, log: log, events: make(chan Event, 64)}
}

// Events returns the channel of classified session events.
func (l *Layer) Events() <-chan Event { return l.events }

// Run decodes inbound transport frames into Events until ctx is done.
func (l *Layer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-l.tr.Inbound():
			ev, err := Decode(payload)
			if err != nil {
				l.log.Warn("dropping undecodable frame", zap.Error(err))
				continue
			}
			select {
			case l.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// SendDirect queues a direct text message to toNode. Returns false if
// the outbound queue is full (Busy backpressure, per §5).
func (l *Layer) SendDirect(toNode uint32, text string) (bool, error) {
	payload, err := EncodeDirect(toNode, text)
	if err != nil {
		return false, err
	}
	return l.tr.Send(transport.Outbound{Dest: toNode, Payload: payload}), nil
}

// SendBroadcast queues a broadcast text message.
func (l *Layer) SendBroadcast(text string) (bool, error) {
	payload, err := EncodeBroadcast(text)
	if err != nil {
		return false, err
	}
	return l.tr.Send(transport.Outbound{Dest: transport.DestBroadcast, Payload: payload}), nil
}
