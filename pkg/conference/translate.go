package conference

import (
	"encoding/json"
	"strings"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/livekit/protocol/livekit"
)

// Identity prefixes of automated participants: recorder and egress bots.
var fakeIdentityPrefixes = []string{BotPrefix, "EG_"}

func IsFakeIdentity(identity string) bool {
	for _, prefix := range fakeIdentityPrefixes {
		if strings.HasPrefix(identity, prefix) {
			return true
		}
	}
	return false
}

// Metadata is the JSON document clients put in their LiveKit participant
// metadata.
type Metadata struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	BotType     string `json:"botType"`
	Presence    string `json:"presence"`
}

// ParseMetadata reads participant metadata into a patch. Empty metadata is
// an empty patch; an unknown role is an error.
func ParseMetadata(raw string) (participant.Patch, error) {
	var patch participant.Patch
	if strings.TrimSpace(raw) == "" {
		return patch, nil
	}

	var md Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return patch, err
	}
	if md.Role != "" {
		role, err := participant.ParseRole(md.Role)
		if err != nil {
			return patch, err
		}
		patch.Role = &role
	}
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&patch.DisplayName, md.DisplayName)
	set(&patch.AvatarURL, md.AvatarURL)
	set(&patch.Email, md.Email)
	set(&patch.BotType, md.BotType)
	set(&patch.Presence, md.Presence)
	return patch, nil
}

// newRemote builds a remote participant from what LiveKit tells us about
// it. Unreadable metadata is ignored.
func newRemote(conferenceRef string, identity string, metadata string) participant.Participant {
	p := participant.Participant{
		ID:                identity,
		ConferenceRef:     conferenceRef,
		Role:              participant.RoleNone,
		IsFakeParticipant: IsFakeIdentity(identity),
	}
	if patch, err := ParseMetadata(metadata); err == nil {
		p = p.Merge(patch)
	}
	return p
}

func connectionStatus(state livekit.ParticipantInfo_State) participant.ConnectionStatus {
	switch state {
	case livekit.ParticipantInfo_JOINING:
		return participant.ConnectionJoining
	case livekit.ParticipantInfo_JOINED:
		return participant.ConnectionJoined
	case livekit.ParticipantInfo_ACTIVE:
		return participant.ConnectionActive
	case livekit.ParticipantInfo_DISCONNECTED:
		return participant.ConnectionDisconnected
	}
	return ""
}

// FromParticipantInfo converts a server-side participant description.
func FromParticipantInfo(conferenceRef string, pi *livekit.ParticipantInfo) participant.Participant {
	p := newRemote(conferenceRef, pi.GetIdentity(), pi.GetMetadata())
	if p.DisplayName == "" {
		p.DisplayName = pi.GetName()
	}
	p.ConnectionStatus = connectionStatus(pi.GetState())
	return p
}
