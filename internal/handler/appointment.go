package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/store"
	"github.com/mweber/pettrack/internal/websocket"
)

var validAppointmentCategories = map[string]bool{
	"vet": true, "groomer": true, "walker": true, "training": true, "other": true,
}

var validAppointmentStatuses = map[string]bool{
	"scheduled": true, "completed": true, "cancelled": true,
}

type AppointmentHandler struct {
	appointmentStore *store.AppointmentStore
	petStore         *store.PetStore
	hub              *websocket.Hub
	logger           *slog.Logger
}

func NewAppointmentHandler(as *store.AppointmentStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentStore: as,
		petStore:         ps,
		hub:              hub,
		logger:           logger.With("component", "appointment"),
	}
}

type appointmentRequest struct {
	PetID           int64     `json:"pet_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	ProviderName    string    `json:"provider_name"`
	ProviderPhone   string    `json:"provider_phone"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
	AssignedTo      *int64    `json:"assigned_to"`
	ReminderEnabled *bool     `json:"reminder_enabled"`
	ReminderMinutes *int      `json:"reminder_minutes"`
}

func (req *appointmentRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if !validAppointmentCategories[req.Category] {
		return "invalid category"
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		return "start_at and end_at are required"
	}
	if !req.EndAt.After(req.StartAt) {
		return "end_at must be after start_at"
	}
	if req.Status == "" {
		req.Status = "scheduled"
	}
	if !validAppointmentStatuses[req.Status] {
		return "invalid status"
	}
	return ""
}

func (req *appointmentRequest) params() store.AppointmentParams {
	reminderEnabled := true
	if req.ReminderEnabled != nil {
		reminderEnabled = *req.ReminderEnabled
	}
	reminderMinutes := 1440
	if req.ReminderMinutes != nil {
		reminderMinutes = *req.ReminderMinutes
	}
	return store.AppointmentParams{
		PetID:           req.PetID,
		Title:           req.Title,
		Category:        req.Category,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		ProviderName:    strings.TrimSpace(req.ProviderName),
		ProviderPhone:   strings.TrimSpace(req.ProviderPhone),
		Location:        strings.TrimSpace(req.Location),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          req.Status,
		AssignedTo:      req.AssignedTo,
		ReminderEnabled: reminderEnabled,
		ReminderMinutes: reminderMinutes,
	}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pet, err := h.petStore.GetByID(req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	if pet == nil || pet.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	appt, err := h.appointmentStore.Create(ac.HouseholdID, req.params())
	if err != nil {
		h.logger.Error("create appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("appointment", "created", appt.ID, nil))
	writeJSON(w, http.StatusCreated, appt)
}

// List returns appointments. ?upcoming=true filters to those starting now or
// later; ?pet_id= scopes to one pet.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var from *time.Time
	if r.URL.Query().Get("upcoming") == "true" {
		now := time.Now()
		from = &now
	}
	var petID *int64
	if s := r.URL.Query().Get("pet_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pet_id")
			return
		}
		petID = &id
	}

	appointments, err := h.appointmentStore.ListByHousehold(ac.HouseholdID, from, petID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appointments == nil {
		appointments = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.Appointment {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	appt, err := h.appointmentStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return nil
	}
	if appt == nil || appt.HouseholdID != ac.HouseholdID {
		notFound(w)
		return nil
	}
	return appt
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt := h.getOwned(w, r)
	if appt == nil {
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	appt := h.getOwned(w, r)
	if appt == nil {
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pet, err := h.petStore.GetByID(req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	if pet == nil || pet.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	updated, err := h.appointmentStore.Update(appt.ID, req.params())
	if err != nil {
		h.logger.Error("update appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("appointment", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

type appointmentStatusRequest struct {
	Status string `json:"status"`
}

func (h *AppointmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	appt := h.getOwned(w, r)
	if appt == nil {
		return
	}

	var req appointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validAppointmentStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	updated, err := h.appointmentStore.SetStatus(appt.ID, req.Status)
	if err != nil {
		h.logger.Error("set appointment status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("appointment", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes an appointment. Routed behind RequireOwner.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	appt := h.getOwned(w, r)
	if appt == nil {
		return
	}

	if err := h.appointmentStore.Delete(appt.ID); err != nil {
		h.logger.Error("delete appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("appointment", "deleted", appt.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
