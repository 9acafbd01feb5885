package participant

import "errors"

// ConnectionStatus mirrors the media connection state reported by the
// conferencing engine for a participant.
type ConnectionStatus string

const (
	ConnectionJoining      ConnectionStatus = "joining"
	ConnectionJoined       ConnectionStatus = "joined"
	ConnectionActive       ConnectionStatus = "active"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

type Role string

const (
	RoleNone        Role = "none"
	RoleModerator   Role = "moderator"
	RoleParticipant Role = "participant"
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(r string) (Role, error) {
	switch r {
	case string(RoleNone), "":
		return RoleNone, nil
	case string(RoleModerator):
		return RoleModerator, nil
	case string(RoleParticipant):
		return RoleParticipant, nil
	}
	return "", ErrUnknownRole
}
