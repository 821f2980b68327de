package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/tracker"
)

// ErrInvalidEntry is returned for a day write carrying an unknown status or
// session value.
var ErrInvalidEntry = errors.New("invalid attendance entry")

var validate = validator.New()

// Handler serves the attendance routes.
type Handler struct {
	svc *tracker.Service
}

// NewHandler creates a new handler
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// PeopleRequest replaces the people list from display names. Existing people
// keep their ids when their name still appears. Teams, when given, replace
// the stored teams; otherwise stored teams lose members that were removed.
type PeopleRequest struct {
	Names []string       `json:"names" binding:"required"`
	Teams *[]models.Team `json:"teams"`
}

// DayRequest carries raw entries keyed by person id. Entries are normalized
// the same way stored values are, then status must be here, tardy, not or
// none and am/pm must be here, not or none.
type DayRequest struct {
	People map[string]any `json:"people" binding:"required"`
}

// DayResponse is one day with its per-person slot summaries and headcount.
type DayResponse struct {
	Date      string                            `json:"date"`
	Exists    bool                              `json:"exists"`
	Source    tracker.Source                    `json:"source"`
	People    map[string]models.AttendanceEntry `json:"people"`
	Summaries map[string]attendance.Summary     `json:"summaries"`
	Count     attendance.DayCount               `json:"count"`
}

// CalendarResponse is a month grid split into weeks.
type CalendarResponse struct {
	Title string              `json:"title"`
	Start string              `json:"start"`
	End   string              `json:"end"`
	Weeks [][]attendance.Cell `json:"weeks"`
}

// Health reports liveness and whether a remote store is attached.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": constants.Version,
		"online":  h.svc.Online(),
		"today":   h.svc.Today(),
	})
}

func (h *Handler) GetPeople(c *gin.Context) {
	r, err := h.svc.LoadRoster(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) PutPeople(c *gin.Context) {
	var req PeopleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	current, err := h.svc.LoadRoster(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	people := roster.BuildPeopleList(current.People, req.Names)
	teams := roster.PruneTeams(people, current.Teams)
	if req.Teams != nil {
		teams = *req.Teams
	}

	saved, err := h.svc.SaveRoster(ctx, people, teams)
	if err != nil && !errors.Is(err, tracker.ErrSavedLocally) {
		respondError(c, err)
		return
	}
	respondSaved(c, saved, err)
}

func (h *Handler) GetDay(c *gin.Context) {
	day, err := h.svc.LoadDay(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make(map[string]attendance.Summary, len(day.Entries))
	for id, e := range day.Entries {
		summaries[id] = attendance.Summarize(e)
	}
	c.JSON(http.StatusOK, DayResponse{
		Date:      day.Date,
		Exists:    day.Exists(),
		Source:    day.Source,
		People:    day.Entries,
		Summaries: summaries,
		Count:     attendance.Count(day.Entries),
	})
}

func (h *Handler) PutDay(c *gin.Context) {
	date := c.Param("date")
	if !datekey.Valid(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date key: " + date})
		return
	}

	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := checkEntries(attendance.NormalizeEntries(req.People))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.svc.SaveDay(c.Request.Context(), date, entries)
	if err != nil && !errors.Is(err, tracker.ErrSavedLocally) {
		respondError(c, err)
		return
	}
	respondSaved(c, payload, err)
}

func (h *Handler) GetCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	m, err := h.svc.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	start, end := datekey.MonthRange(year, time.Month(month))
	c.JSON(http.StatusOK, CalendarResponse{
		Title: m.Title(),
		Start: start,
		End:   end,
		Weeks: m.Weeks(),
	})
}

func (h *Handler) GetTrends(c *gin.Context) {
	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
			return
		}
		days = n
	}

	report, err := h.svc.Trends(c.Request.Context(), days, c.Query("team"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// checkEntries maps "none" to unset and rejects values the summaries cannot
// count.
func checkEntries(entries map[string]models.AttendanceEntry) (map[string]models.AttendanceEntry, error) {
	ids := make([]string, 0, len(entries))
	for id, e := range entries {
		if e.Status == "none" {
			e.Status = models.StatusNone
		}
		if e.AM == "none" {
			e.AM = models.SessionNone
		}
		if e.PM == "none" {
			e.PM = models.SessionNone
		}
		entries[id] = e
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		err := validate.Struct(entries[id])
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, len(verrs))
			for i, fe := range verrs {
				problems[i] = fmt.Sprintf("%s %q is not one of [%s none]", strings.ToLower(fe.Field()), fe.Value(), fe.Param())
			}
			return nil, fmt.Errorf("%w for %s: %s", ErrInvalidEntry, id, strings.Join(problems, "; "))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to validate entry for %s: %w", id, err)
		}
	}
	return entries, nil
}

// respondSaved answers a write. A remote failure after the local save is
// reported as 202 with a warning.
func respondSaved(c *gin.Context, body any, remoteErr error) {
	if remoteErr != nil {
		logger.Warn("Remote save failed", "path", c.Request.URL.Path, "error", remoteErr)
		c.JSON(http.StatusAccepted, gin.H{"saved": body, "warning": remoteErr.Error()})
		return
	}
	c.JSON(http.StatusOK, body)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, datekey.ErrInvalidKey), errors.Is(err, roster.ErrInvalidTeams):
		status = http.StatusBadRequest
	case errors.Is(err, roster.ErrTeamNotFound), errors.Is(err, roster.ErrPersonNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
