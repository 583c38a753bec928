package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"focus-server/blocklist"
	"focus-server/models"
	"focus-server/store"

	"go.uber.org/zap"
)

// Reconfigurer re-reads settings that drive background work, e.g. the nudge alarm.
type Reconfigurer interface {
	Reconfigure() error
}

// Broadcaster pushes a frame to every connected client.
type Broadcaster interface {
	BroadcastAll(msg models.WSMessage)
}

// SettingsService applies settings changes and propagates them.
type SettingsService struct {
	store   *store.Store
	nudger  Reconfigurer
	clients Broadcaster
	logger  *zap.Logger
}

func NewSettingsService(s *store.Store, nudger Reconfigurer, clients Broadcaster, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		store:   s,
		nudger:  nudger,
		clients: clients,
		logger:  logger.With(zap.String("component", "settings")),
	}
}

func (s *SettingsService) Load() (models.Settings, error) {
	return s.store.LoadSettings()
}

func (s *SettingsService) Update(req models.UpdateSettingsRequest) (models.Settings, error) {
	if req.ReminderInterval != nil && *req.ReminderInterval <= 0 {
		return models.Settings{}, badInput("reminderInterval must be a positive number of minutes")
	}
	if req.BlockMatchPolicy != nil {
		policy, err := blocklist.ParseMatchPolicy(*req.BlockMatchPolicy)
		if err != nil {
			return models.Settings{}, badInput(err.Error())
		}
		p := string(policy)
		req.BlockMatchPolicy = &p
	}
	if req.BlockedSites != nil {
		var sites []string
		for _, site := range *req.BlockedSites {
			sites, _ = blocklist.AddSite(sites, site)
		}
		if sites == nil {
			sites = []string{}
		}
		req.BlockedSites = &sites
	}

	if err := s.store.UpdateSettings(req); err != nil {
		return models.Settings{}, err
	}

	if req.AIRemindersEnabled != nil || req.ReminderInterval != nil {
		if err := s.nudger.Reconfigure(); err != nil {
			s.logger.Error("nudge reconfigure failed", zap.Error(err))
		}
	}
	return s.changed()
}

func (s *SettingsService) AddBlockedSite(input string) (models.Settings, bool, error) {
	settings, err := s.store.LoadSettings()
	if err != nil {
		return models.Settings{}, false, err
	}
	sites, added := blocklist.AddSite(settings.BlockedSites, input)
	if !added {
		return settings, false, nil
	}
	if err := s.store.SetSetting(models.SettingBlockedSites, sites); err != nil {
		return models.Settings{}, false, err
	}
	settings, err = s.changed()
	return settings, true, err
}

func (s *SettingsService) RemoveBlockedSite(input string) (models.Settings, bool, error) {
	settings, err := s.store.LoadSettings()
	if err != nil {
		return models.Settings{}, false, err
	}
	sites, removed := blocklist.RemoveSite(settings.BlockedSites, input)
	if !removed {
		return settings, false, nil
	}
	if err := s.store.SetSetting(models.SettingBlockedSites, sites); err != nil {
		return models.Settings{}, false, err
	}
	settings, err = s.changed()
	return settings, true, err
}

func (s *SettingsService) changed() (models.Settings, error) {
	settings, err := s.store.LoadSettings()
	if err != nil {
		return models.Settings{}, err
	}
	if s.clients != nil {
		s.clients.BroadcastAll(models.WSMessage{Type: models.WSTypeSettingsChanged, Payload: settings})
	}
	return settings, nil
}

type SettingsHandler struct {
	settings *SettingsService
	logger   *zap.Logger
}

func NewSettingsHandler(settings *SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger.With(zap.String("component", "settings"))}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load()
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.settings.Update(req)
	if err != nil {
		h.fail(w, "update settings", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

func (h *SettingsHandler) AddBlockedSite(w http.ResponseWriter, r *http.Request) {
	var req models.BlockedSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if blocklist.NormalizeSite(req.Site) == "" {
		http.Error(w, "Site is required", http.StatusBadRequest)
		return
	}

	settings, added, err := h.settings.AddBlockedSite(req.Site)
	if err != nil {
		h.fail(w, "add blocked site", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if added {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(settings)
}

func (h *SettingsHandler) RemoveBlockedSite(w http.ResponseWriter, r *http.Request) {
	site, err := url.PathUnescape(r.PathValue("site"))
	if err != nil || site == "" {
		http.Error(w, "Site required", http.StatusBadRequest)
		return
	}

	settings, removed, err := h.settings.RemoveBlockedSite(site)
	if err != nil {
		h.fail(w, "remove blocked site", err)
		return
	}
	if !removed {
		http.Error(w, "Site not in block list", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

func (h *SettingsHandler) fail(w http.ResponseWriter, op string, err error) {
	var bad *inputError
	if errors.As(err, &bad) {
		http.Error(w, bad.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error(op+" failed", zap.Error(err))
	http.Error(w, "Failed to "+op, http.StatusInternalServerError)
}
