package conference

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/session"
	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/utils"
	lksdk "github.com/livekit/server-sdk-go"
)

// BotPrefix starts the identity of every bot this service sends into a room.
const BotPrefix = "RB_"

const dispatchTimeout = 5 * time.Second

var ErrUrlMustHaveWS = errors.New("url must contain either ws:// or wss://")

// sdkParticipant is the part of a LiveKit participant the bridge reads.
type sdkParticipant interface {
	Identity() string
}

type withMetadata interface {
	Metadata() string
}

type connector struct {
	url  string
	auth *authProvider
}

// NewConnector returns a session.Connector joining rooms on the LiveKit
// server at url (ws:// or wss://).
func NewConnector(url string, apiKey string, apiSecret string) (session.Connector, error) {
	if httpUrlFromWS(url) == "" {
		return nil, ErrUrlMustHaveWS
	}
	return &connector{
		url:  url,
		auth: createAuthProvider(apiKey, apiSecret),
	}, nil
}

func (c *connector) Connect(ctx context.Context, room string, d session.Dispatcher) (session.Bridge, error) {
	identity := utils.NewGuid(BotPrefix)
	token, err := c.auth.buildObserverToken(room, identity)
	if err != nil {
		return nil, err
	}

	b := newBridge(room, identity, d)

	// The bot is the local participant; it has no id until it is connected.
	if err = b.dispatch(roster.Joined{Participant: participant.Participant{
		Local:       true,
		DisplayName: identity,
		BotType:     "roster",
	}}); err != nil {
		return nil, err
	}

	lkRoom, err := lksdk.ConnectToRoomWithToken(c.url, token, lksdk.WithAutoSubscribe(false))
	if err != nil {
		b.dispatch(roster.Left{ID: participant.LocalDefaultID})
		return nil, err
	}
	b.attach(lkRoom)
	return b, nil
}

type bridge struct {
	room       string
	identity   string
	dispatcher session.Dispatcher
	lkRoom     *lksdk.Room
}

func newBridge(room string, identity string, d session.Dispatcher) *bridge {
	return &bridge{
		room:       room,
		identity:   identity,
		dispatcher: d,
	}
}

func (b *bridge) attach(lkRoom *lksdk.Room) {
	b.lkRoom = lkRoom
	lkRoom.Callback.OnParticipantConnected = func(rp *lksdk.RemoteParticipant) {
		b.participantConnected(rp)
	}
	lkRoom.Callback.OnParticipantDisconnected = func(rp *lksdk.RemoteParticipant) {
		b.participantDisconnected(rp)
	}
	lkRoom.Callback.OnActiveSpeakersChanged = func(speakers []lksdk.Participant) {
		ps := make([]sdkParticipant, 0, len(speakers))
		for _, s := range speakers {
			ps = append(ps, s)
		}
		b.activeSpeakersChanged(ps)
	}
	lkRoom.Callback.OnMetadataChanged = func(oldMetadata string, p lksdk.Participant) {
		b.metadataChanged(p)
	}
	lkRoom.Callback.OnDisconnected = func() {
		logger.Warnw("bot disconnected from room", nil, "room", b.room, "identity", b.identity)
		b.dispatch(roster.Left{ID: b.identity})
	}

	b.connected()
	for _, rp := range lkRoom.GetParticipants() {
		b.participantConnected(rp)
	}
}

func (b *bridge) dispatch(e roster.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	err := b.dispatcher.Dispatch(ctx, e)
	if err != nil {
		logger.Warnw("cannot dispatch roster event", err, "room", b.room, "event", roster.Type(e))
	}
	return err
}

// connected gives the local participant the identity the server knows the
// bot by.
func (b *bridge) connected() {
	b.dispatch(roster.IDChanged{
		OldValue: participant.LocalDefaultID,
		NewValue: b.identity,
	})
}

func (b *bridge) participantConnected(p sdkParticipant) {
	var metadata string
	if m, ok := p.(withMetadata); ok {
		metadata = m.Metadata()
	}
	joined := newRemote(b.room, p.Identity(), metadata)
	joined.ConnectionStatus = participant.ConnectionJoined
	b.dispatch(roster.Seen{Participant: joined})
}

func (b *bridge) participantDisconnected(p sdkParticipant) {
	b.dispatch(roster.Left{ID: p.Identity()})
}

// activeSpeakersChanged promotes the loudest speaker. LiveKit orders the
// list by audio level; an empty list keeps the last dominant speaker.
func (b *bridge) activeSpeakersChanged(speakers []sdkParticipant) {
	if len(speakers) == 0 {
		return
	}
	b.dispatch(roster.DominantSpeakerChanged{ID: speakers[0].Identity()})
}

func (b *bridge) metadataChanged(p sdkParticipant) {
	m, ok := p.(withMetadata)
	if !ok {
		return
	}
	patch, err := ParseMetadata(m.Metadata())
	if err != nil {
		logger.Warnw("cannot parse participant metadata", err, "room", b.room, "identity", p.Identity())
		return
	}
	if patch.IsEmpty() {
		return
	}
	b.dispatch(roster.Updated{ID: p.Identity(), Patch: patch})
}

func (b *bridge) Disconnect() {
	if b.lkRoom != nil {
		b.lkRoom.Disconnect()
	}
	b.dispatch(roster.Left{ID: b.identity})
}

func httpUrlFromWS(url string) string {
	if strings.Contains(url, "ws://") {
		return strings.ReplaceAll(url, "ws://", "http://")
	} else if strings.Contains(url, "wss://") {
		return strings.ReplaceAll(url, "wss://", "https://")
	}
	return ""
}
