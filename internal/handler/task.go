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
	"github.com/mweber/pettrack/internal/task"
	"github.com/mweber/pettrack/internal/websocket"
)

type TaskHandler struct {
	taskStore *store.TaskStore
	petStore  *store.PetStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, ps *store.PetStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskStore: ts,
		petStore:  ps,
		hub:       hub,
		logger:    logger.With("component", "task"),
	}
}

type taskRequest struct {
	PetID       int64  `json:"pet_id"`
	AssignedTo  *int64 `json:"assigned_to"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Time        string `json:"time"`
	DaysOfWeek  []int  `json:"days_of_week"`
	Priority    string `json:"priority"`
	IsActive    *bool  `json:"is_active"`
}

func (req *taskRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if !task.ValidCategory(req.Category) {
		return "invalid category"
	}
	if !task.ValidTimeOfDay(req.Time) {
		return "time must be HH:MM in 24-hour format"
	}
	if err := task.ValidateDays(req.DaysOfWeek); err != nil {
		return err.Error()
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if !task.ValidPriority(req.Priority) {
		return "invalid priority"
	}
	return ""
}

// ownedPet checks the pet referenced by a template belongs to the caller's
// household.
func (h *TaskHandler) ownedPet(householdID, petID int64) (bool, error) {
	pet, err := h.petStore.GetByID(petID)
	if err != nil {
		return false, err
	}
	return pet != nil && pet.HouseholdID == householdID, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ok, err := h.ownedPet(ac.HouseholdID, req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	t, err := h.taskStore.Create(ac.HouseholdID, req.PetID, req.AssignedTo, req.Title, strings.TrimSpace(req.Description), req.Category, req.Time, req.DaysOfWeek, req.Priority)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "created", t.ID, nil))
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	tasks, err := h.taskStore.ListByHousehold(ac.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListForDate returns the day view: active templates due on the requested
// date with their completion state. Defaults to today when no date is given.
func (h *TaskHandler) ListForDate(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	date := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := task.ParseDateKey(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	var petID, assignedTo *int64
	if s := r.URL.Query().Get("pet_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pet_id")
			return
		}
		petID = &id
	}
	if s := r.URL.Query().Get("assigned_to"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		assignedTo = &id
	}

	tasks, err := h.taskStore.ListForDate(ac.HouseholdID, date, petID, assignedTo)
	if err != nil {
		h.logger.Error("list tasks for date", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.TaskWithCompletion{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.taskStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if t == nil || t.HouseholdID != ac.HouseholdID {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.taskStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		notFound(w)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ok, err := h.ownedPet(ac.HouseholdID, req.PetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown pet")
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	t, err := h.taskStore.Update(id, req.PetID, req.AssignedTo, req.Title, strings.TrimSpace(req.Description), req.Category, req.Time, req.DaysOfWeek, req.Priority, isActive)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "updated", t.ID, nil))
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a template and its completion history. Routed behind
// RequireOwner.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.taskStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		notFound(w)
		return
	}

	if err := h.taskStore.Delete(id); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type completeRequest struct {
	TaskID      int64  `json:"task_id"`
	Date        string `json:"date"`
	IsCompleted bool   `json:"is_completed"`
}

// Complete marks or unmarks a task done for a calendar day. Both directions
// are idempotent, so double taps from two phones cannot error.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := task.ParseDateKey(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	t, err := h.taskStore.GetByID(req.TaskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if t == nil || t.HouseholdID != ac.HouseholdID {
		notFound(w)
		return
	}

	if err := h.taskStore.SetCompletion(req.TaskID, date, ac.UserID, req.IsCompleted); err != nil {
		h.logger.Error("set completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update completion")
		return
	}

	action := "uncompleted"
	if req.IsCompleted {
		action = "completed"
	}
	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", action, req.TaskID, map[string]any{"date": task.DateKey(date)}))
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":      req.TaskID,
		"date":         task.DateKey(date),
		"is_completed": req.IsCompleted,
	})
}
