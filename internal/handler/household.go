package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/store"
	"github.com/mweber/pettrack/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		householdStore: hs,
		hub:            hub,
		logger:         logger.With("component", "household"),
	}
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	household, err := h.householdStore.GetByID(ac.HouseholdID)
	if err != nil || household == nil {
		writeError(w, http.StatusInternalServerError, "failed to load household")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	members, err := h.householdStore.ListMembers(ac.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.MemberWithUser{}
	}
	writeJSON(w, http.StatusOK, members)
}

type renameHouseholdRequest struct {
	Name string `json:"name"`
}

// Rename changes the household name. Routed behind RequireOwner.
func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req renameHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.householdStore.Rename(ac.HouseholdID, req.Name)
	if err != nil {
		h.logger.Error("rename household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename household")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("household", "updated", household.ID, nil))
	writeJSON(w, http.StatusOK, household)
}

// RemoveMember kicks a member out. Routed behind RequireOwner; owners cannot
// remove themselves.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if userID == ac.UserID {
		writeError(w, http.StatusBadRequest, "you cannot remove yourself")
		return
	}

	member, err := h.householdStore.GetMember(ac.HouseholdID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if member == nil {
		notFound(w)
		return
	}

	if err := h.householdStore.RemoveMember(ac.HouseholdID, userID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("member", "removed", userID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
