package echoapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core/session"
	"github.com/healthymentoring/backend/core/user"
)

type sessionApi struct {
	svc      session.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc session.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := sessionApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.POST("/:id/mentor-cancel", api.mentorCancel)
	sg.POST("/:id/attendee-cancel", api.attendeeCancel)
}

// CancelResponse is the outcome of a cancel/leave request: the session was
// deleted, or explicit confirmation is needed (session untouched), or the
// post-change session is returned.
type CancelResponse struct {
	Deleted           bool             `json:"deleted,omitempty"`
	NeedsConfirmation bool             `json:"needs_confirmation,omitempty"`
	Session           *session.Session `json:"session,omitempty"`
}

// Handlers

func (api *sessionApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	// booking is a mentor/admin operation; attendees get booked
	if !(claims.IsMentor || claims.IsAdmin) {
		return errHttpForbidden
	}

	var data session.NewSession
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

// query lists the caller's sessions; `?upcoming=true` narrows it down to
// scheduled sessions that have not started yet, soonest first.
func (api *sessionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	partyID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	var sessions []session.Session
	if upcoming, _ := strconv.ParseBool(ctx.QueryParam("upcoming")); upcoming {
		sessions, err = api.svc.QueryUpcomingByParty(ctx.Request().Context(), partyID)
	} else {
		sessions, err = api.svc.QueryByParty(ctx.Request().Context(), partyID)
	}
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	partyID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	sess, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	// non-members don't get to know the session exists
	if !(claims.IsAdmin || sess.HasMentor(partyID) || sess.HasAttendee(partyID)) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) mentorCancel(ctx echo.Context) error {
	return api.cancel(ctx, api.svc.MentorCancel)
}

func (api *sessionApi) attendeeCancel(ctx echo.Context) error {
	return api.cancel(ctx, api.svc.AttendeeCancel)
}

func (api *sessionApi) cancel(
	ctx echo.Context,
	op func(ctx context.Context, sessionID, partyID uuid.UUID, leaveOnly *bool) (session.CancelResult, error),
) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	partyID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data CancelRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelRequest")
	}

	res, err := op(ctx.Request().Context(), id, partyID, data.LeaveOnly)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CancelResponse{
		Deleted:           res.Deleted,
		NeedsConfirmation: res.NeedsConfirmation,
		Session:           res.Session,
	})
}
