package rest

import (
	"errors"
	"net/http"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/conference"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/livekit/protocol/livekit"
)

type WebhookReceiver interface {
	Receive(r *http.Request) (*livekit.WebhookEvent, error)
}

type rosterController struct {
	session.Manager
	moderator conference.Moderator
	webhooks  WebhookReceiver
}

// Room names become report file names, so path separators are refused.
type RoomRequest struct {
	Room string `json:"room" validate:"required,excludesall=/\\"`
}

// UnpublishedReport is returned when a room was untracked but its report
// could not be published.
type UnpublishedReport struct {
	Message string         `json:"message"`
	Report  session.Report `json:"report"`
}

type PinRequest struct {
	Participant string `json:"participant" validate:"required"`
}

type MuteRequest struct {
	Participant string `json:"participant" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=audio video"`
}

type KickRequest struct {
	Participant string `json:"participant" validate:"required"`
}

type MuteAllRequest struct {
	Kind    string   `json:"kind" validate:"required,oneof=audio video"`
	Exclude []string `json:"exclude"`
}

type KickAllRequest struct {
	Exclude []string `json:"exclude"`
}

var ErrUnknownParticipant = errors.New("participant is not in the roster")

func NewRosterController(manager session.Manager, moderator conference.Moderator, webhooks WebhookReceiver) rosterController {
	return rosterController{manager, moderator, webhooks}
}

// Register attaches the roster routes to e.
func (rc *rosterController) Register(e *echo.Echo) {
	e.POST("/rooms/track", rc.TrackRoom)
	e.POST("/rooms/untrack", rc.UntrackRoom)
	e.GET("/rooms/:room/participants", rc.GetParticipants)
	e.PATCH("/rooms/:room/participants/:participant", rc.UpdateParticipant)
	e.POST("/rooms/:room/pin", rc.PinParticipant)
	e.POST("/rooms/:room/mute", rc.MuteParticipant)
	e.POST("/rooms/:room/kick", rc.KickParticipant)
	e.POST("/rooms/:room/mute-all", rc.MuteAll)
	e.POST("/rooms/:room/kick-all", rc.KickAll)
	e.POST("/webhooks", rc.ReceiveWebhooks)
}

func bindAndValidate(c echo.Context, data interface{}) error {
	if err := c.Bind(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	return c.Validate(data)
}

func (rc *rosterController) roomSession(c echo.Context) (*session.Session, error) {
	s, found := rc.Manager.Session(c.Param("room"))
	if !found {
		return nil, echo.NewHTTPError(http.StatusNotFound, session.ErrRoomNotTracked)
	}
	return s, nil
}

// participantIn resolves the participant against the current roster, so
// that callers get a 404 instead of a silently ignored event.
func (rc *rosterController) participantIn(c echo.Context, id string) (*session.Session, error) {
	s, err := rc.roomSession(c)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Roster().Get(id); !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, ErrUnknownParticipant)
	}
	return s, nil
}

func (rc *rosterController) TrackRoom(c echo.Context) error {
	data := new(RoomRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	if err := rc.Manager.Track(c.Request().Context(), data.Room); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}

func (rc *rosterController) UntrackRoom(c echo.Context) error {
	data := new(RoomRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	report, err := rc.Manager.Untrack(c.Request().Context(), data.Room)
	if errors.Is(err, session.ErrRoomNotTracked) {
		return echo.NewHTTPError(http.StatusNotFound, err)
	} else if err != nil {
		// The room is gone by now; the body is the only copy left.
		log.Errorf("cannot publish report | error: %v, room: %s", err, data.Room)
		return c.JSON(http.StatusInternalServerError, UnpublishedReport{Message: err.Error(), Report: report})
	}
	return c.JSON(http.StatusOK, report)
}

func (rc *rosterController) GetParticipants(c echo.Context) error {
	s, err := rc.roomSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Roster().Snapshot())
}

func (rc *rosterController) UpdateParticipant(c echo.Context) error {
	id := c.Param("participant")
	patch := new(participant.Patch)
	if err := c.Bind(patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	s, err := rc.participantIn(c, id)
	if err != nil {
		return err
	}
	return rc.dispatch(c, s, roster.Updated{ID: id, Patch: *patch})
}

func (rc *rosterController) PinParticipant(c echo.Context) error {
	data := new(PinRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	s, err := rc.participantIn(c, data.Participant)
	if err != nil {
		return err
	}
	return rc.dispatch(c, s, roster.Pinned{ID: data.Participant})
}

func (rc *rosterController) dispatch(c echo.Context, s *session.Session, e roster.Event) error {
	if err := s.Dispatch(c.Request().Context(), e); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (rc *rosterController) MuteParticipant(c echo.Context) error {
	data := new(MuteRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}
	kind, err := conference.ParseMediaKind(data.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if _, err = rc.participantIn(c, data.Participant); err != nil {
		return err
	}

	if err = rc.moderator.MuteRemote(c.Request().Context(), c.Param("room"), data.Participant, kind); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}

func (rc *rosterController) KickParticipant(c echo.Context) error {
	data := new(KickRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}
	s, err := rc.participantIn(c, data.Participant)
	if err != nil {
		return err
	}
	if s.Roster().IsLocal(data.Participant) {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot kick the local participant")
	}

	if err = rc.moderator.KickRemote(c.Request().Context(), c.Param("room"), data.Participant); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}

func (rc *rosterController) MuteAll(c echo.Context) error {
	data := new(MuteAllRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}
	kind, err := conference.ParseMediaKind(data.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	s, err := rc.roomSession(c)
	if err != nil {
		return err
	}

	if err = rc.moderator.MuteAll(c.Request().Context(), s.Room(), s.Roster(), data.Exclude, kind); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}

func (rc *rosterController) KickAll(c echo.Context) error {
	data := new(KickAllRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}
	s, err := rc.roomSession(c)
	if err != nil {
		return err
	}

	if err = rc.moderator.KickAll(c.Request().Context(), s.Room(), s.Roster(), data.Exclude); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}

// ReceiveWebhooks feeds LiveKit webhooks into the rooms being tracked.
// Webhooks for other rooms are acknowledged and dropped.
func (rc *rosterController) ReceiveWebhooks(c echo.Context) error {
	event, err := rc.webhooks.Receive(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err)
	}

	room := event.GetRoom().GetName()
	update := conference.Translate(event)

	ctx := c.Request().Context()
	if update.Finished {
		_, err = rc.Manager.Untrack(ctx, update.Room)
	} else if len(update.Events) > 0 {
		err = rc.Manager.Apply(ctx, update.Room, update.Events...)
	}

	if errors.Is(err, session.ErrRoomNotTracked) {
		log.Debugf("dropping webhook for untracked room | room: %s, event: %s", room, event.GetEvent())
	} else if err != nil {
		log.Errorf("cannot apply webhook | error: %v, room: %s, event: %s", err, room, event.GetEvent())
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusOK)
}
