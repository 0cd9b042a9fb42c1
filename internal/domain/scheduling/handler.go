package scheduling

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetdesk/vetdesk/internal/platform/auth"
	"github.com/vetdesk/vetdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleProfessional, auth.RoleReceptionist))
	read.GET("/professionals/:id/availability", h.GetAvailability)
	read.GET("/professionals/:id/working-hours", h.GetWorkingHours)
	read.GET("/appointments", h.ListAppointments)
	read.GET("/appointments/:id", h.GetAppointment)
	read.GET("/blocks", h.ListBlocks)

	write := api.Group("", auth.RequireRole(auth.RoleProfessional, auth.RoleReceptionist))
	write.PUT("/professionals/:id/working-hours", h.PutWorkingHours)
	write.POST("/appointments", h.CreateAppointment)
	write.PATCH("/appointments/:id", h.RescheduleAppointment)
	write.POST("/appointments/:id/confirm", h.ConfirmAppointment)
	write.POST("/appointments/:id/complete", h.CompleteAppointment)
	write.POST("/appointments/:id/cancel", h.CancelAppointment)
	write.POST("/appointments/:id/no-show", h.MarkNoShow)
	write.DELETE("/appointments/:id", h.DeleteAppointment)
	write.POST("/blocks", h.CreateBlock)
	write.DELETE("/blocks/:id", h.RemoveBlock)
}

// httpError maps core errors onto HTTP statuses: conflicts are 409,
// business-rule violations 422, missing references 404.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrOutsideWorkingHours),
		errors.Is(err, ErrCancellationWindow):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrProfessionalNotFound),
		errors.Is(err, ErrTenantMismatch):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func actor(c echo.Context) string {
	return auth.UserIDFromContext(c.Request().Context())
}

// -- Availability --

func (h *Handler) GetAvailability(c echo.Context) error {
	profID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required (YYYY-MM-DD)")
	}

	duration := 0
	if d := c.QueryParam("duration"); d != "" {
		duration, err = strconv.Atoi(d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid duration")
		}
	}

	slots, err := h.svc.ComputeSlots(c.Request().Context(), profID, date, duration)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"professional_id": profID,
		"date":            date.Format("2006-01-02"),
		"slots":           slots,
	})
}

// -- Working hours --

func (h *Handler) GetWorkingHours(c echo.Context) error {
	profID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.svc.WeeklySchedule(c.Request().Context(), profID)
	if err != nil {
		return httpError(err)
	}
	if entries == nil {
		entries = []*WorkingHoursEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) PutWorkingHours(c echo.Context) error {
	profID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var entries []*WorkingHoursEntry
	if err := c.Bind(&entries); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReplaceWorkingHours(c.Request().Context(), profID, entries); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Appointments --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var body struct {
		ProfessionalID  uuid.UUID `json:"professional_id"`
		ClientID        uuid.UUID `json:"client_id"`
		PetID           uuid.UUID `json:"pet_id"`
		Date            string    `json:"date"`
		StartTime       string    `json:"start_time"`
		DurationMinutes int       `json:"duration_minutes"`
		Notes           string    `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(body.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date (YYYY-MM-DD)")
	}

	appt, err := h.svc.CreateAppointment(c.Request().Context(), CreateAppointmentInput{
		ProfessionalID:  body.ProfessionalID,
		ClientID:        body.ClientID,
		PetID:           body.PetID,
		Date:            date,
		StartTime:       body.StartTime,
		DurationMinutes: body.DurationMinutes,
		Notes:           body.Notes,
	}, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if clientID := c.QueryParam("client_id"); clientID != "" {
		cid, err := uuid.Parse(clientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		items, total, err := h.svc.ListAppointmentsByClient(ctx, cid, pg.Limit, pg.Offset)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	profID, err := uuid.Parse(c.QueryParam("professional_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "professional_id or client_id is required")
	}

	var from, to *time.Time
	if f := c.QueryParam("from"); f != "" {
		d, err := parseDate(f)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		from = &d
	}
	if t := c.QueryParam("to"); t != "" {
		d, err := parseDate(t)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		to = &d
	}

	items, total, err := h.svc.ListAppointmentsByProfessional(ctx, profID, from, to, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Date            *string `json:"date"`
		StartTime       *string `json:"start_time"`
		DurationMinutes *int    `json:"duration_minutes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := RescheduleInput{StartTime: body.StartTime, DurationMinutes: body.DurationMinutes}
	if body.Date != nil {
		d, err := parseDate(*body.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date (YYYY-MM-DD)")
		}
		in.Date = &d
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, in, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	appt, err := h.svc.Confirm(c.Request().Context(), id, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	appt, err := h.svc.Complete(c.Request().Context(), id, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	appt, err := h.svc.MarkNoShow(c.Request().Context(), id, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
		Force  bool   `json:"force"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.Cancel(c.Request().Context(), id, body.Reason, actor(c), body.Force)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id, actor(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Blocks --

func (h *Handler) CreateBlock(c echo.Context) error {
	var body struct {
		ProfessionalID uuid.UUID `json:"professional_id"`
		StartsAt       time.Time `json:"starts_at"`
		EndsAt         time.Time `json:"ends_at"`
		Reason         string    `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.CreateBlock(c.Request().Context(), body.ProfessionalID, body.StartsAt, body.EndsAt, body.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListBlocks(c echo.Context) error {
	profID, err := uuid.Parse(c.QueryParam("professional_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "professional_id is required")
	}
	ctx := c.Request().Context()

	if d := c.QueryParam("date"); d != "" {
		date, err := parseDate(d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		blocks, err := h.svc.ListBlocksForDate(ctx, profID, date)
		if err != nil {
			return httpError(err)
		}
		if blocks == nil {
			blocks = []*ScheduleBlock{}
		}
		return c.JSON(http.StatusOK, blocks)
	}

	pg := pagination.FromContext(c)
	blocks, total, err := h.svc.ListBlocks(ctx, profID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(blocks, total, pg.Limit, pg.Offset))
}

func (h *Handler) RemoveBlock(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveBlock(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
