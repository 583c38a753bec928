package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"focus-server/models"
	"focus-server/scheduler"
	"focus-server/store"

	"go.uber.org/zap"
)

type ReminderHandler struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
	now       func() time.Time
}

func NewReminderHandler(s *store.Store, sched *scheduler.Scheduler, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		store:     s,
		scheduler: sched,
		logger:    logger.With(zap.String("component", "reminders")),
		now:       time.Now,
	}
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reminder, err := h.add(r, req)
	if err != nil {
		var badInput *inputError
		if errors.As(err, &badInput) {
			http.Error(w, badInput.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create reminder failed", zap.Error(err))
		http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reminder)
}

func (h *ReminderHandler) add(r *http.Request, req models.CreateReminderRequest) (*models.Reminder, error) {
	return addReminder(r.Context(), h.scheduler, req, h.now())
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.store.ListReminders()
	if err != nil {
		h.logger.Error("list reminders failed", zap.Error(err))
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	if reminders == nil {
		reminders = []models.Reminder{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reminders)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reminderID := r.PathValue("id")
	if reminderID == "" {
		http.Error(w, "Reminder ID required", http.StatusBadRequest)
		return
	}

	if err := h.scheduler.Cancel(reminderID); err != nil {
		h.logger.Error("delete reminder failed", zap.String("id", reminderID), zap.Error(err))
		http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// inputError marks a failure caused by the caller's input.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badInput(msg string) error { return &inputError{msg: msg} }

func addReminder(ctx context.Context, sched *scheduler.Scheduler, req models.CreateReminderRequest, now time.Time) (*models.Reminder, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, badInput("Title is required")
	}
	fireAt, err := parseRemindTime(req.RemindAt, now)
	if err != nil {
		return nil, badInput("Invalid time format: " + err.Error())
	}
	return sched.Add(ctx, models.Reminder{
		Title:  strings.TrimSpace(req.Title),
		Body:   req.Body,
		FireAt: fireAt,
	})
}

// parseRemindTime accepts RFC 3339, a few plain layouts in local time, and
// relative forms such as "in 5 minutes", "10min" or "tomorrow".
func parseRemindTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, errors.New("empty time")
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}

	formats := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, input, now.Location()); err == nil {
			return t, nil
		}
	}

	if ms, err := strconv.ParseInt(input, 10, 64); err == nil && ms > 0 && len(input) >= 12 {
		// epoch milliseconds, as Date.now() produces
		return time.UnixMilli(ms), nil
	}

	lower := strings.ToLower(input)
	switch lower {
	case "tomorrow":
		return now.Add(24 * time.Hour), nil
	case "next week":
		return now.Add(7 * 24 * time.Hour), nil
	}

	return parseRelativeTime(strings.TrimPrefix(lower, "in "), now)
}

func parseRelativeTime(input string, now time.Time) (time.Time, error) {
	value, unit, err := parseTimeComponents(strings.TrimSpace(input))
	if err != nil {
		return time.Time{}, err
	}

	if unit != "s" {
		unit = strings.TrimSuffix(unit, "s") // normalize plural
	}

	var step time.Duration
	switch unit {
	case "second", "sec", "s":
		step = time.Second
	case "minute", "min", "m":
		step = time.Minute
	case "hour", "hr", "h":
		step = time.Hour
	case "day", "d":
		step = 24 * time.Hour
	case "week", "w":
		step = 7 * 24 * time.Hour
	default:
		return time.Time{}, &time.ParseError{Message: "unknown time unit: " + unit}
	}

	if int64(value) > math.MaxInt64/int64(step) {
		return time.Time{}, &time.ParseError{Message: "duration out of range"}
	}
	return now.Add(time.Duration(value) * step), nil
}

// parseTimeComponents splits "5 minutes" or "5min" into its number and unit.
func parseTimeComponents(input string) (int, string, error) {
	parts := strings.Fields(input)
	if len(parts) == 2 {
		n, err := strconv.Atoi(parts[0])
		if err != nil || n < 0 {
			return 0, "", &time.ParseError{Message: "invalid number"}
		}
		return n, parts[1], nil
	}
	if len(parts) != 1 {
		return 0, "", &time.ParseError{Message: "invalid time format"}
	}

	for i, c := range input {
		if c < '0' || c > '9' {
			if i == 0 {
				break
			}
			n, err := strconv.Atoi(input[:i])
			if err != nil {
				return 0, "", &time.ParseError{Message: "invalid number"}
			}
			return n, input[i:], nil
		}
	}
	return 0, "", &time.ParseError{Message: "invalid time format"}
}
