package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rms-platform/rms-access/internal/audit"
	"github.com/rms-platform/rms-access/internal/auth"
	"github.com/rms-platform/rms-access/internal/platform/httpx"
	"github.com/rms-platform/rms-access/internal/rbac"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 50
	defaultRangeDays = 7
	maxRangeDays     = 90
	dateLayout       = "2006-01-02"

	// maxPage keeps (page-1)*page_size far from overflowing the offset.
	maxPage = 100000
)

// TimelineService defines the read contract for session audit data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler serves the session audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
	now     func() time.Time
}

// NewHandler builds an audit handler. Routes are guarded by mw.
func NewHandler(logger *slog.Logger, service TimelineService, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		rbac:    mw,
		now:     time.Now,
	}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load session timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export session timeline", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"session-audit.csv\"")
	if err := audit.WriteCSV(w, rows); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

// parseFilters reads from/to as inclusive calendar days in UTC.
func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	query := r.URL.Query()
	now := h.now().UTC()
	toStr := strings.TrimSpace(query.Get("to"))
	if toStr == "" {
		toStr = now.Format(dateLayout)
	}
	toTime, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return audit.TimelineFilters{}, invalid("to")
	}
	fromStr := strings.TrimSpace(query.Get("from"))
	if fromStr == "" {
		fromStr = toTime.AddDate(0, 0, -(defaultRangeDays - 1)).Format(dateLayout)
	}
	fromTime, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return audit.TimelineFilters{}, invalid("from")
	}
	// Both ends are whole days, so the window spans Sub+1 days.
	if fromTime.After(toTime) || toTime.Sub(fromTime) >= maxRangeDays*24*time.Hour {
		return audit.TimelineFilters{}, invalid("range")
	}

	page, err := positiveInt(query.Get("page"), 1)
	if err != nil || page > maxPage {
		return audit.TimelineFilters{}, invalid("page")
	}
	pageSize, err := positiveInt(query.Get("page_size"), defaultPageSize)
	if err != nil {
		return audit.TimelineFilters{}, invalid("page_size")
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var userID int64
	if v := strings.TrimSpace(query.Get("user_id")); v != "" {
		userID, err = strconv.ParseInt(v, 10, 64)
		if err != nil || userID <= 0 {
			return audit.TimelineFilters{}, invalid("user_id")
		}
	}
	event := strings.ToLower(strings.TrimSpace(query.Get("event")))
	switch auth.SessionEvent(event) {
	case "", auth.EventLogin, auth.EventResume, auth.EventLogout:
	default:
		return audit.TimelineFilters{}, invalid("event")
	}

	return audit.TimelineFilters{
		From:     fromTime,
		To:       toTime.Add(24 * time.Hour),
		UserID:   userID,
		Event:    event,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func positiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("not a positive integer: %q", raw)
	}
	return parsed, nil
}

func invalid(field string) error {
	return fmt.Errorf("%w: %s", httpx.ErrValidation, field)
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.RespondError(w, err)
}
