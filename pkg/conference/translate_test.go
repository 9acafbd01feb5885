package conference

import (
	"testing"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	patch, err := ParseMetadata(`{"displayName":"Alice","avatarUrl":"https://a/b.png","role":"moderator"}`)
	require.NoError(t, err)
	require.Equal(t, "Alice", *patch.DisplayName)
	require.Equal(t, "https://a/b.png", *patch.AvatarURL)
	require.Equal(t, participant.RoleModerator, *patch.Role)
	require.Nil(t, patch.Email)
}

func TestParseEmptyMetadata(t *testing.T) {
	patch, err := ParseMetadata("  ")
	require.NoError(t, err)
	require.True(t, patch.IsEmpty())
}

func TestParseInvalidMetadata(t *testing.T) {
	_, err := ParseMetadata("not json")
	require.Error(t, err)

	_, err = ParseMetadata(`{"role":"owner"}`)
	require.ErrorIs(t, err, participant.ErrUnknownRole)
}

func TestIsFakeIdentity(t *testing.T) {
	require.True(t, IsFakeIdentity("RB_abc"))
	require.True(t, IsFakeIdentity("EG_abc"))
	require.False(t, IsFakeIdentity("alice"))
}

func TestFromParticipantInfo(t *testing.T) {
	p := FromParticipantInfo("room-1", &livekit.ParticipantInfo{
		Sid:      "PA_1",
		Identity: "alice",
		Name:     "Alice L.",
		State:    livekit.ParticipantInfo_ACTIVE,
		Metadata: `{"email":"alice@example.com"}`,
	})

	require.Equal(t, "alice", p.ID)
	require.Equal(t, "room-1", p.ConferenceRef)
	require.Equal(t, "Alice L.", p.DisplayName)
	require.Equal(t, "alice@example.com", p.Email)
	require.Equal(t, participant.ConnectionActive, p.ConnectionStatus)
	require.Equal(t, participant.RoleNone, p.Role)
	require.False(t, p.Local)
	require.False(t, p.IsFakeParticipant)
}

func TestFromParticipantInfoPrefersMetadataName(t *testing.T) {
	p := FromParticipantInfo("room-1", &livekit.ParticipantInfo{
		Identity: "EG_1",
		Name:     "egress",
		Metadata: `{"displayName":"Recorder"}`,
	})
	require.Equal(t, "Recorder", p.DisplayName)
	require.True(t, p.IsFakeParticipant)
}
