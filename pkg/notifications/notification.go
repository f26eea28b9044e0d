package notifications

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Kind identifies a notification template.
type Kind string

const (
	KindUpdateRequestReceived      Kind = "update_request_received"
	KindUpdateRequestAdminReceived Kind = "update_request_admin_received"
	KindUpdateRequestApproved      Kind = "update_request_approved"
	KindUpdateRequestRejected      Kind = "update_request_rejected"
	KindSignUpReceived             Kind = "organisation_sign_up_received"
	KindSignUpAdminReceived        Kind = "organisation_sign_up_admin_received"
)

// Notification is the unit queued to the outbox and delivered by a Sender.
// Vars feed the template; the sender never inspects them beyond rendering.
type Notification struct {
	EventID uuid.UUID         `json:"event_id"`
	Kind    Kind              `json:"kind"`
	To      string            `json:"to"`
	Vars    map[string]string `json:"vars,omitempty"`
}

func (n Notification) Encode() (json.RawMessage, error) {
	return json.Marshal(n)
}

func Decode(raw json.RawMessage) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
