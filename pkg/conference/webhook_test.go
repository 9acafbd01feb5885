package conference

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/require"
)

func TestTranslateParticipantJoined(t *testing.T) {
	update := Translate(&livekit.WebhookEvent{
		Event:       EventParticipantJoined,
		Room:        &livekit.Room{Name: "room-1"},
		Participant: &livekit.ParticipantInfo{Identity: "alice", Name: "Alice", State: livekit.ParticipantInfo_JOINED},
	})

	require.Equal(t, "room-1", update.Room)
	require.False(t, update.Finished)
	require.Len(t, update.Events, 1)

	joined, ok := update.Events[0].(roster.Seen)
	require.True(t, ok)
	require.Equal(t, "alice", joined.Participant.ID)
	require.Equal(t, "room-1", joined.Participant.ConferenceRef)
	require.Equal(t, participant.ConnectionJoined, joined.Participant.ConnectionStatus)
}

func TestTranslateParticipantLeft(t *testing.T) {
	update := Translate(&livekit.WebhookEvent{
		Event:       EventParticipantLeft,
		Room:        &livekit.Room{Name: "room-1"},
		Participant: &livekit.ParticipantInfo{Identity: "alice"},
	})

	require.Equal(t, []roster.Event{roster.Left{ID: "alice"}}, update.Events)
}

func TestTranslateRoomFinished(t *testing.T) {
	update := Translate(&livekit.WebhookEvent{
		Event: EventRoomFinished,
		Room:  &livekit.Room{Name: "room-1"},
	})

	require.True(t, update.Finished)
	require.Empty(t, update.Events)
}

func TestTranslateIgnoresOtherEvents(t *testing.T) {
	update := Translate(&livekit.WebhookEvent{
		Event: "track_published",
		Room:  &livekit.Room{Name: "room-1"},
	})
	require.Empty(t, update.Events)
	require.False(t, update.Finished)

	// A join without a participant is dropped rather than guessed at.
	update = Translate(&livekit.WebhookEvent{Event: EventParticipantJoined})
	require.Empty(t, update.Events)
}

func TestReceiveRejectsUnsignedRequest(t *testing.T) {
	receiver := NewWebhookReceiver("key", "secret")
	req := httptest.NewRequest("POST", "/webhooks", strings.NewReader(`{"event":"room_finished"}`))
	req.Header.Set("Content-Type", "application/webhook+json")

	_, err := receiver.Receive(req)
	require.Error(t, err)
}
