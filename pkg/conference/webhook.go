package conference

import (
	"net/http"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"google.golang.org/protobuf/encoding/protojson"
)

// LiveKit webhook event names the roster reacts to.
const (
	EventRoomFinished      = "room_finished"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
)

type WebhookReceiver struct {
	auth *authProvider
}

func NewWebhookReceiver(apiKey string, apiSecret string) *WebhookReceiver {
	return &WebhookReceiver{auth: createAuthProvider(apiKey, apiSecret)}
}

// Receive verifies the signature of a LiveKit webhook request and decodes
// its body.
func (w *WebhookReceiver) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	data, err := webhook.Receive(r, w.auth.keyProvider())
	if err != nil {
		return nil, err
	}
	event := &livekit.WebhookEvent{}
	if err = protojson.Unmarshal(data, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RoomUpdate is what a webhook event means for the roster of one room.
type RoomUpdate struct {
	Room     string
	Events   []roster.Event
	Finished bool
}

// Translate maps a webhook event onto roster events.
func Translate(event *livekit.WebhookEvent) RoomUpdate {
	update := RoomUpdate{Room: event.GetRoom().GetName()}

	switch event.GetEvent() {
	case EventRoomFinished:
		update.Finished = true
	case EventParticipantJoined:
		if pi := event.GetParticipant(); pi.GetIdentity() != "" {
			p := FromParticipantInfo(update.Room, pi)
			update.Events = append(update.Events, roster.Seen{Participant: p})
		}
	case EventParticipantLeft:
		if id := event.GetParticipant().GetIdentity(); id != "" {
			update.Events = append(update.Events, roster.Left{ID: id})
		}
	}
	return update
}
