package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core/timezone"
)

type timezoneApi struct {
	svc      timezone.Service
	validate *validator.Validate
}

// registerTimezoneAPI mounts the timezone preference endpoints. They always
// act on the authenticated profile; there is no cross-profile access.
func registerTimezoneAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc timezone.Service, validate *validator.Validate) {
	api := timezoneApi{
		svc:      svc,
		validate: validate,
	}

	tg := g.Group("/timezone", jwt)
	tg.GET("", api.retrieve)
	tg.PUT("", api.choose)
	tg.POST("/detected", api.reconcile)
	tg.POST("/use-detected", api.useDetected)
}

type (
	ObservedTimezoneRequest struct {
		Detected string `json:"detected_timezone" validate:"required,timezone"`
	}

	SelectTimezoneRequest struct {
		Selected string `json:"selected_timezone" validate:"required,timezone"`
	}

	// TimezonePrompt tells the frontend which confirmation dialog to show,
	// if any.
	TimezonePrompt struct {
		Type      string `json:"type"` // "first_time" | "mismatch"
		Suggested string `json:"suggested,omitempty"`
		Detected  string `json:"detected,omitempty"`
		Selected  string `json:"selected,omitempty"`
	}

	TimezoneResponse struct {
		Preference      timezone.Preference `json:"preference"`
		DisplayTimezone string              `json:"display_timezone"`
		Prompt          *TimezonePrompt     `json:"prompt,omitempty"`
	}
)

func promptOf(directive timezone.Directive) *TimezonePrompt {
	switch d := directive.(type) {
	case timezone.PromptFirstTime:
		return &TimezonePrompt{Type: "first_time", Suggested: d.Suggested}
	case timezone.PromptMismatch:
		return &TimezonePrompt{Type: "mismatch", Detected: d.Detected, Selected: d.Selected}
	}
	return nil
}

// Handlers

func (api *timezoneApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	profileID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	pref, err := api.svc.Get(ctx.Request().Context(), profileID)
	if err != nil {
		return errors.Wrap(err, "getting timezone preference")
	}
	zone, err := api.svc.DisplayTimezone(ctx.Request().Context(), profileID)
	if err != nil {
		return errors.Wrap(err, "resolving display timezone")
	}
	return ctx.JSON(http.StatusOK, TimezoneResponse{Preference: pref, DisplayTimezone: zone})
}

// reconcile records the zone the caller's browser just observed and answers
// with the dialog the frontend owes the user, if any.
func (api *timezoneApi) reconcile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	profileID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	var data ObservedTimezoneRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ObservedTimezoneRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	pref, directive, err := api.svc.Reconcile(ctx.Request().Context(), profileID, data.Detected)
	if err != nil {
		return errors.Wrap(err, "reconciling timezone")
	}
	return ctx.JSON(http.StatusOK, TimezoneResponse{
		Preference:      pref,
		DisplayTimezone: api.display(ctx, profileID),
		Prompt:          promptOf(directive),
	})
}

func (api *timezoneApi) useDetected(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	profileID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	pref, err := api.svc.AcceptDetected(ctx.Request().Context(), profileID)
	if err != nil {
		return errors.Wrap(err, "accepting detected timezone")
	}
	return ctx.JSON(http.StatusOK, TimezoneResponse{Preference: pref, DisplayTimezone: api.display(ctx, profileID)})
}

func (api *timezoneApi) choose(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	profileID, err := claims.SubjectID()
	if err != nil {
		return err
	}

	var data SelectTimezoneRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectTimezoneRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	pref, err := api.svc.ChooseSelected(ctx.Request().Context(), profileID, data.Selected)
	if err != nil {
		return errors.Wrap(err, "choosing timezone")
	}
	return ctx.JSON(http.StatusOK, TimezoneResponse{Preference: pref, DisplayTimezone: api.display(ctx, profileID)})
}

func (api *timezoneApi) display(ctx echo.Context, profileID uuid.UUID) string {
	zone, err := api.svc.DisplayTimezone(ctx.Request().Context(), profileID)
	if err != nil {
		return ""
	}
	return zone
}
