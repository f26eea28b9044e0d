package notifications

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openplaces/directory-sdk/pkg/outbox"
)

// Dispatcher adapts a Sender to the outbox relay. Undecodable payloads are
// logged and acked; re-delivering them can never succeed.
type Dispatcher struct {
	sender Sender
	log    *logrus.Logger
}

func NewDispatcher(sender Sender, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	n, err := Decode(msg.Payload)
	if err != nil {
		if d.log != nil {
			d.log.WithError(err).WithField("event_id", msg.Meta.EventID).Error("notifications: dropping undecodable message")
		}
		return nil
	}
	return d.sender.Send(ctx, n)
}
