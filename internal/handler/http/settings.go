package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
)

type SettingsHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
}

type settingsHandlerImpl struct {
	settingsService settings.Service
}

func NewSettingsHandler(settingsService settings.Service) SettingsHandler {
	return &settingsHandlerImpl{
		settingsService: settingsService,
	}
}

// Get implements SettingsHandler.
func (h *settingsHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	current, err := h.settingsService.Current(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, current)
}

// Update implements SettingsHandler. The whole snapshot is replaced; a rejected snapshot leaves the current one in place.
func (h *settingsHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if !decodeJSON(w, r, &next) {
		return
	}

	updated, err := h.settingsService.Update(r.Context(), &next)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Settings updated", updated)
}

// Refresh implements SettingsHandler.
func (h *settingsHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	current, err := h.settingsService.Refresh(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Settings reloaded", current)
}
