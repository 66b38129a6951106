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

var validShoppingCategories = map[string]bool{
	"food": true, "treats": true, "supplies": true,
	"toys": true, "medication": true, "other": true,
}

type ShoppingHandler struct {
	shoppingStore *store.ShoppingStore
	petStore      *store.PetStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{
		shoppingStore: ss,
		petStore:      ps,
		hub:           hub,
		logger:        logger.With("component", "shopping"),
	}
}

type shoppingItemRequest struct {
	PetID    *int64   `json:"pet_id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Priority string   `json:"priority"`
	Notes    string   `json:"notes"`
}

func (req *shoppingItemRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Category == "" {
		req.Category = "other"
	}
	if !validShoppingCategories[req.Category] {
		return "invalid category"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if req.Priority != "low" && req.Priority != "medium" && req.Priority != "high" {
		return "invalid priority"
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return "quantity must be positive"
	}
	return ""
}

// checkPet validates an optional pet reference against the household.
func (h *ShoppingHandler) checkPet(householdID int64, petID *int64) (bool, error) {
	if petID == nil {
		return true, nil
	}
	pet, err := h.petStore.GetByID(*petID)
	if err != nil {
		return false, err
	}
	return pet != nil && pet.HouseholdID == householdID, nil
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ok, err := h.checkPet(ac.HouseholdID, req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	item, err := h.shoppingStore.Create(ac.HouseholdID, req.PetID, req.Name, req.Category, req.Quantity, strings.TrimSpace(req.Unit), req.Priority, ac.UserID, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("shopping_item", "created", item.ID, nil))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	items, err := h.shoppingStore.ListByHousehold(ac.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.ShoppingItem {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	item, err := h.shoppingStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil || item.HouseholdID != ac.HouseholdID {
		notFound(w)
		return nil
	}
	return item
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	item := h.getOwned(w, r)
	if item == nil {
		return
	}

	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ok, err := h.checkPet(ac.HouseholdID, req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	updated, err := h.shoppingStore.Update(item.ID, req.PetID, req.Name, req.Category, req.Quantity, strings.TrimSpace(req.Unit), req.Priority, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error("update shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("shopping_item", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

type purchaseRequest struct {
	IsPurchased bool `json:"is_purchased"`
}

func (h *ShoppingHandler) SetPurchased(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	item := h.getOwned(w, r)
	if item == nil {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.shoppingStore.SetPurchased(item.ID, req.IsPurchased, ac.UserID)
	if err != nil {
		h.logger.Error("set purchased", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("shopping_item", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	item := h.getOwned(w, r)
	if item == nil {
		return
	}

	if err := h.shoppingStore.Delete(item.ID); err != nil {
		h.logger.Error("delete shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("shopping_item", "deleted", item.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ClearPurchased sweeps every bought item off the list in one call.
func (h *ShoppingHandler) ClearPurchased(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	n, err := h.shoppingStore.ClearPurchased(ac.HouseholdID)
	if err != nil {
		h.logger.Error("clear purchased", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear items")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("shopping_item", "cleared", 0, map[string]any{"count": n}))
	writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
}
