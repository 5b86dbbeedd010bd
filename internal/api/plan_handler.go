package api

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves the weekly schedule view and its actions.
type PlanHandler struct {
	planService service.PlanService
	sessions    *service.SessionManager
	archive     service.ArchiveService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, sessions *service.SessionManager, archive service.ArchiveService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		sessions:    sessions,
		archive:     archive,
	}
}

// --- Request/Response Structs ---

type WeekResponse struct {
	WeekKey      string             `json:"weekKey"`
	Plan         *domain.WeeklyPlan `json:"plan"`
	Days         []service.DayInfo  `json:"days"`
	TodayWorkout *domain.Workout    `json:"todayWorkout,omitempty"`
}

type PostponeRequest struct {
	Day        string `json:"day" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
	Adjustment string `json:"adjustment" binding:"required,oneof=same easier reduce recovery custom"`
}

type RateActivityRequest struct {
	Effort int    `json:"effort" binding:"required,min=1,max=5"`
	Feel   int    `json:"feel" binding:"required,min=1,max=5"`
	Notes  string `json:"notes"`
}

// --- Handler Methods ---

// GetCurrentWeek serves the week containing today.
func (h *PlanHandler) GetCurrentWeek(c *gin.Context) {
	h.serveWeek(c, domain.WeekKey(time.Now()))
}

// GetWeek serves one week's reconciled plan and day grid.
func (h *PlanHandler) GetWeek(c *gin.Context) {
	h.serveWeek(c, c.Param("weekKey"))
}

func (h *PlanHandler) serveWeek(c *gin.Context, weekKey string) {
	// A running session already holds a converged copy; prefer it over
	// another storage round trip.
	if session, ok := h.sessions.Lookup(weekKey); ok {
		if plan := session.Current(); plan != nil {
			h.respondWeek(c, weekKey, plan)
			return
		}
	}

	plan, _, err := h.planService.GetWeek(c.Request.Context(), weekKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeekKey) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load week")
		return
	}
	h.respondWeek(c, weekKey, plan)
}

func (h *PlanHandler) respondWeek(c *gin.Context, weekKey string, plan *domain.WeeklyPlan) {
	resp := WeekResponse{
		WeekKey: weekKey,
		Plan:    plan,
		Days:    service.BuildDayInfos(plan),
	}
	// Only the current week has a "today".
	if weekKey == domain.WeekKey(time.Now()) {
		resp.TodayWorkout = service.TodayWorkout(plan, time.Now())
	}
	c.JSON(http.StatusOK, resp)
}

// WatchWeek attaches the polling reconcile session for a week (the client
// calls this when the week view opens).
func (h *PlanHandler) WatchWeek(c *gin.Context) {
	weekKey := c.Param("weekKey")
	if _, err := domain.ParseWeekKey(weekKey); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid week key")
		return
	}
	h.sessions.Watch(weekKey)
	c.JSON(http.StatusOK, gin.H{"watching": weekKey})
}

// UnwatchWeek detaches the polling session (week view closed).
func (h *PlanHandler) UnwatchWeek(c *gin.Context) {
	h.sessions.Unwatch(c.Param("weekKey"))
	c.JSON(http.StatusOK, gin.H{"watching": nil})
}

// PostponeDay runs the postponement workflow for one day.
func (h *PlanHandler) PostponeDay(c *gin.Context) {
	weekKey := c.Param("weekKey")

	var req PostponeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	day, err := domain.ParseWeekday(req.Day)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.planService.Postpone(c.Request.Context(), weekKey, day, req.Reason, domain.AdjustmentKind(req.Adjustment))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWeekKey), errors.Is(err, service.ErrInvalidDay), errors.Is(err, service.ErrInvalidAdjustment):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPostponeInFlight):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to postpone workout")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncActivities refreshes the week's activity matches from the fitness service.
func (h *PlanHandler) SyncActivities(c *gin.Context) {
	weekKey := c.Param("weekKey")

	plan, err := h.planService.SyncActivities(c.Request.Context(), weekKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWeekKey):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusBadGateway, "Activity sync failed")
		}
		return
	}
	h.respondWeek(c, weekKey, plan)
}

// RateActivity stores the athlete's rating for one activity.
func (h *PlanHandler) RateActivity(c *gin.Context) {
	activityID := c.Param("activityId")

	var req RateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	rating, err := h.planService.RateActivity(c.Request.Context(), activityID, req.Effort, req.Feel, req.Notes)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to store rating")
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// ArchiveDownloadURL returns a temporary link to one archived week's export.
func (h *PlanHandler) ArchiveDownloadURL(c *gin.Context) {
	weekKey := c.Param("weekKey")

	url, err := h.archive.ArchiveDownloadURL(c.Request.Context(), weekKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeekKey) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
