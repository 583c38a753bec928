package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"focus-server/audio"
	"focus-server/blocklist"
	"focus-server/models"
	"focus-server/scheduler"
	"focus-server/store"
	"focus-server/templates"
	"focus-server/tracking"

	"go.uber.org/zap"
)

// Action names accepted by the dispatcher.
const (
	ActionToggleBlocking   = "toggleBlocking"
	ActionToggleReminders  = "toggleReminders"
	ActionTestReminder     = "testReminder"
	ActionGetTrackingData  = "getTrackingData"
	ActionUpdateAnalytics  = "updateAnalytics"
	ActionGetSettings      = "getSettings"
	ActionCheckURL         = "checkUrl"
	ActionRecordVisit      = "recordVisit"
	ActionRecordActiveTime = "recordActiveTime"
	ActionReminderAdd      = "reminders:add"
	ActionReminderRemove   = "reminders:remove"
	ActionReminderList     = "reminders:list"
	ActionAudioInit        = "audio:init"
	ActionAudioPlayIndex   = "audio:playIndex"
	ActionAudioPlayTrack   = "audio:playTrack"
	ActionAudioToggle      = "audio:toggle"
	ActionAudioNext        = "audio:next"
	ActionAudioPrev        = "audio:prev"
	ActionAudioSetVolume   = "audio:setVolume"
	ActionAudioGetState    = "audio:getState"
)

var ErrUnknownAction = errors.New("unknown action")

// Nudger is the part of the nudge service the dispatcher drives.
type Nudger interface {
	Reconfigurer
	Test(ctx context.Context) error
}

// Dispatcher executes boundary actions sent by the popup, background worker
// and content scripts, over HTTP or the websocket.
type Dispatcher struct {
	store            *store.Store
	settings         *SettingsService
	scheduler        *scheduler.Scheduler
	tracker          *tracking.Aggregator
	nudger           Nudger
	player           *audio.Player
	redirectTemplate string
	logger           *zap.Logger
	now              func() time.Time
}

type DispatcherConfig struct {
	Store            *store.Store
	Settings         *SettingsService
	Scheduler        *scheduler.Scheduler
	Tracker          *tracking.Aggregator
	Nudger           Nudger
	Player           *audio.Player
	RedirectTemplate string
	Logger           *zap.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		store:            cfg.Store,
		settings:         cfg.Settings,
		scheduler:        cfg.Scheduler,
		tracker:          cfg.Tracker,
		nudger:           cfg.Nudger,
		player:           cfg.Player,
		redirectTemplate: cfg.RedirectTemplate,
		logger:           cfg.Logger.With(zap.String("component", "actions")),
		now:              time.Now,
	}
}

// Dispatch never panics on bad input; failures come back as ok=false.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ActionRequest) models.ActionResponse {
	data, err := d.run(ctx, req)
	resp := models.ActionResponse{RequestID: req.RequestID, OK: err == nil, Data: data}
	if err != nil {
		resp.Data = nil
		resp.Error = err.Error()
		var bad *inputError
		switch {
		case errors.Is(err, ErrUnknownAction), errors.As(err, &bad):
			d.logger.Debug("action rejected", zap.String("action", req.Action), zap.Error(err))
		default:
			d.logger.Warn("action failed", zap.String("action", req.Action), zap.Error(err))
		}
	}
	return resp
}

func (d *Dispatcher) run(ctx context.Context, req models.ActionRequest) (interface{}, error) {
	switch req.Action {
	case ActionToggleBlocking:
		if req.Enabled == nil {
			return nil, badInput("enabled is required")
		}
		return d.settings.Update(models.UpdateSettingsRequest{IsBlocking: req.Enabled})

	case ActionToggleReminders:
		if req.Enabled == nil {
			return nil, badInput("enabled is required")
		}
		return d.settings.Update(models.UpdateSettingsRequest{AIRemindersEnabled: req.Enabled})

	case ActionTestReminder:
		return nil, d.nudger.Test(ctx)

	case ActionGetSettings:
		return d.settings.Load()

	case ActionGetTrackingData:
		return d.tracker.TrackingData()

	case ActionUpdateAnalytics:
		return d.tracker.Analytics()

	case ActionCheckURL:
		return d.checkURL(req.URL)

	case ActionRecordVisit:
		host, err := d.tracker.RecordURL(req.URL)
		if err != nil {
			return nil, err
		}
		return map[string]string{"domain": host}, nil

	case ActionRecordActiveTime:
		if err := d.tracker.RecordActiveSeconds(req.Domain, req.Seconds); err != nil {
			if errors.Is(err, tracking.ErrInvalidSeconds) || errors.Is(err, tracking.ErrEmptyDomain) {
				return nil, badInput(err.Error())
			}
			return nil, err
		}
		return nil, nil

	case ActionReminderAdd:
		return addReminder(ctx, d.scheduler, models.CreateReminderRequest{
			Title:    req.Title,
			Body:     req.Body,
			RemindAt: req.RemindAt,
		}, d.now())

	case ActionReminderRemove:
		if req.ID == "" {
			return nil, badInput("id is required")
		}
		return nil, d.scheduler.Cancel(req.ID)

	case ActionReminderList:
		reminders, err := d.store.ListReminders()
		if reminders == nil {
			reminders = []models.Reminder{}
		}
		return reminders, err

	case ActionAudioInit:
		playlist := req.Playlist
		if len(playlist) == 0 {
			custom, err := d.store.ListTracks()
			if err != nil {
				return nil, err
			}
			playlist = audio.Playlist(custom)
		}
		if err := d.player.Init(ctx, playlist, req.Volume); err != nil {
			return nil, err
		}
		return d.player.State(), nil

	case ActionAudioPlayIndex, ActionAudioPlayTrack:
		if req.Index == nil {
			return nil, badInput("index is required")
		}
		return d.playerResult(d.player.PlayIndex(ctx, *req.Index))

	case ActionAudioToggle:
		return d.playerResult(d.player.Toggle(ctx))

	case ActionAudioNext:
		return d.playerResult(d.player.Next(ctx))

	case ActionAudioPrev:
		return d.playerResult(d.player.Prev(ctx))

	case ActionAudioSetVolume:
		volume := audio.DefaultVolume
		if req.Volume != nil {
			volume = *req.Volume
		}
		return d.playerResult(d.player.SetVolume(ctx, volume))

	case ActionAudioGetState:
		return d.player.State(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}

func (d *Dispatcher) playerResult(err error) (interface{}, error) {
	if errors.Is(err, audio.ErrBadIndex) {
		return nil, badInput(err.Error())
	}
	if err != nil {
		return nil, err
	}
	return d.player.State(), nil
}

// checkURL applies the block list to a navigation and counts the block.
func (d *Dispatcher) checkURL(rawURL string) (*models.CheckURLResult, error) {
	settings, err := d.settings.Load()
	if err != nil {
		return nil, err
	}

	policy, err := blocklist.ParseMatchPolicy(settings.BlockMatchPolicy)
	if err != nil {
		d.logger.Warn("stored match policy invalid, using substring", zap.Error(err))
		policy = blocklist.MatchSubstring
	}

	gate := blocklist.NewGate(policy)
	if !gate.IsBlocked(rawURL, settings.BlockedSites, settings.IsBlocking) {
		return &models.CheckURLResult{Blocked: false}, nil
	}

	if err := d.tracker.RecordBlock(); err != nil {
		d.logger.Error("failed to count block", zap.Error(err))
	}

	redirect := templates.InterpolateURL(d.redirectTemplate, &templates.Context{
		URL:  rawURL,
		Host: blocklist.Hostname(rawURL),
		Now:  d.now(),
	})
	d.logger.Info("navigation blocked", zap.String("host", blocklist.Hostname(rawURL)))
	return &models.CheckURLResult{Blocked: true, RedirectURL: redirect}, nil
}

// AudioEnded advances the playlist when the media element reports the end of a track.
func (d *Dispatcher) AudioEnded(ctx context.Context) {
	if err := d.player.Ended(ctx); err != nil {
		d.logger.Warn("auto-advance failed", zap.Error(err))
	}
}

// Handle serves POST /api/actions.
func (d *Dispatcher) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := d.Dispatch(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
