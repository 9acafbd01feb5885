package conference

import (
	"context"
	"errors"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go"
	"github.com/samber/lo"
)

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

func ParseMediaKind(k string) (MediaKind, error) {
	switch k {
	case string(MediaAudio):
		return MediaAudio, nil
	case string(MediaVideo):
		return MediaVideo, nil
	}
	return "", ErrUnknownMediaKind
}

func (k MediaKind) trackType() livekit.TrackType {
	if k == MediaVideo {
		return livekit.TrackType_VIDEO
	}
	return livekit.TrackType_AUDIO
}

// RoomService is the part of the LiveKit room service moderation needs.
type RoomService interface {
	GetParticipant(ctx context.Context, req *livekit.RoomParticipantIdentity) (*livekit.ParticipantInfo, error)
	MutePublishedTrack(ctx context.Context, req *livekit.MuteRoomTrackRequest) (*livekit.MuteRoomTrackResponse, error)
	RemoveParticipant(ctx context.Context, req *livekit.RoomParticipantIdentity) (*livekit.RemoveParticipantResponse, error)
}

func NewRoomService(url string, apiKey string, apiSecret string) (*lksdk.RoomServiceClient, error) {
	httpUrl := httpUrlFromWS(url)
	if httpUrl == "" {
		return nil, ErrUrlMustHaveWS
	}
	return lksdk.NewRoomServiceClient(httpUrl, apiKey, apiSecret), nil
}

type Moderator interface {
	MuteRemote(ctx context.Context, room string, identity string, kind MediaKind) error
	KickRemote(ctx context.Context, room string, identity string) error
	MuteAll(ctx context.Context, room string, r roster.Roster, exclude []string, kind MediaKind) error
	KickAll(ctx context.Context, room string, r roster.Roster, exclude []string) error
}

type moderator struct {
	lksvc RoomService
}

func NewModerator(lksvc RoomService) Moderator {
	return &moderator{lksvc: lksvc}
}

// MuteRemote mutes every published track of the given kind. A participant
// publishing nothing of that kind is left alone.
func (m *moderator) MuteRemote(ctx context.Context, room string, identity string, kind MediaKind) error {
	pi, err := m.lksvc.GetParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     room,
		Identity: identity,
	})
	if err != nil {
		return err
	}

	for _, t := range pi.Tracks {
		if t.Type != kind.trackType() || t.Muted {
			continue
		}
		_, err = m.lksvc.MutePublishedTrack(ctx, &livekit.MuteRoomTrackRequest{
			Room:     room,
			Identity: identity,
			TrackSid: t.Sid,
			Muted:    true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *moderator) KickRemote(ctx context.Context, room string, identity string) error {
	_, err := m.lksvc.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     room,
		Identity: identity,
	})
	return err
}

// targets lists the remote, human participants not excluded. The local
// participant is the bot itself and never a target.
func targets(r roster.Roster, exclude []string) []string {
	return lo.Filter(r.RemoteIDs(), func(id string, _ int) bool {
		return !lo.Contains(exclude, id) && !r.IsFakeParticipant(id)
	})
}

func (m *moderator) MuteAll(ctx context.Context, room string, r roster.Roster, exclude []string, kind MediaKind) error {
	var errs []error
	for _, id := range targets(r, exclude) {
		if err := m.MuteRemote(ctx, room, id, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *moderator) KickAll(ctx context.Context, room string, r roster.Roster, exclude []string) error {
	var errs []error
	for _, id := range targets(r, exclude) {
		if err := m.KickRemote(ctx, room, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
