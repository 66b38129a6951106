package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/push"
	"github.com/mweber/pettrack/internal/store"
	"github.com/mweber/pettrack/internal/websocket"
)

type PostHandler struct {
	postStore   *store.PostStore
	petStore    *store.PetStore
	userStore   *store.UserStore
	pushStore   *store.PushStore
	pushService *push.Service
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewPostHandler(ps *store.PostStore, pets *store.PetStore, us *store.UserStore, pushStore *store.PushStore, pushService *push.Service, hub *websocket.Hub, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		postStore:   ps,
		petStore:    pets,
		userStore:   us,
		pushStore:   pushStore,
		pushService: pushService,
		hub:         hub,
		logger:      logger.With("component", "post"),
	}
}

type postRequest struct {
	PetID   *int64 `json:"pet_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (req *postRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" {
		return "title is required"
	}
	if req.Content == "" {
		return "content is required"
	}
	return ""
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.PetID != nil {
		pet, err := h.petStore.GetByID(*req.PetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create post")
			return
		}
		if pet == nil || pet.HouseholdID != ac.HouseholdID {
			writeError(w, http.StatusBadRequest, "unknown pet")
			return
		}
	}

	post, err := h.postStore.Create(ac.HouseholdID, req.PetID, ac.UserID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("create post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("post", "created", post.ID, nil))
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	posts, err := h.postStore.ListByHousehold(ac.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.Post {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	post, err := h.postStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get post")
		return nil
	}
	if post == nil || post.HouseholdID != ac.HouseholdID {
		notFound(w)
		return nil
	}
	return post
}

// Get returns a thread with replies and records that the caller has now seen
// it.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	post := h.getOwned(w, r)
	if post == nil {
		return
	}

	if err := h.postStore.MarkRead(post.ID, ac.UserID); err != nil {
		h.logger.Warn("mark post read", "error", err)
	}

	full, err := h.postStore.GetWithReplies(post.ID)
	if err != nil || full == nil {
		writeError(w, http.StatusInternalServerError, "failed to get post")
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// Update edits a thread. Author-only regardless of role.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	post := h.getOwned(w, r)
	if post == nil {
		return
	}
	if post.AuthorID != ac.UserID {
		writeError(w, http.StatusForbidden, "only the author can edit this post")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.postStore.Update(post.ID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("update post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("post", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a thread. Author-only regardless of role.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	post := h.getOwned(w, r)
	if post == nil {
		return
	}
	if post.AuthorID != ac.UserID {
		writeError(w, http.StatusForbidden, "only the author can delete this post")
		return
	}

	if err := h.postStore.Delete(post.ID); err != nil {
		h.logger.Error("delete post", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("post", "deleted", post.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type replyRequest struct {
	Content string `json:"content"`
}

// Reply appends to a thread, flips it back to unread for everyone else, and
// notifies subscribed household members through web push.
func (h *PostHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	post := h.getOwned(w, r)
	if post == nil {
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	reply, err := h.postStore.AddReply(post.ID, ac.UserID, req.Content)
	if err != nil {
		h.logger.Error("add reply", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add reply")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("post", "replied", post.ID, map[string]any{"reply_id": reply.ID}))
	go h.notifyReply(ac.HouseholdID, ac.UserID, post)

	writeJSON(w, http.StatusCreated, reply)
}

// notifyReply fans a push notification out to every subscribed device in the
// household except the replier's. Dead subscriptions are pruned as they
// surface.
func (h *PostHandler) notifyReply(householdID, replierID int64, post *model.Post) {
	if !h.pushService.Enabled() {
		return
	}

	subs, err := h.pushStore.ListByHouseholdExcept(householdID, replierID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	replier, err := h.userStore.GetByID(replierID)
	replierName := "Someone"
	if err == nil && replier != nil {
		replierName = replier.Name
	}

	id := strconv.FormatInt(post.ID, 10)
	payload := push.Payload{
		Title: "New reply: " + post.Title,
		Body:  replierName + " replied to a discussion",
		URL:   "/posts/" + id,
		Tag:   "post-" + id,
	}

	for i := range subs {
		sub := &subs[i]
		if err := h.pushService.Send(sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				if derr := h.pushStore.DeleteByEndpoint(sub.Endpoint); derr != nil {
					h.logger.Warn("prune expired subscription", "error", derr)
				}
				continue
			}
			h.logger.Warn("send reply push", "error", err)
		}
	}
}

// Resolve marks a thread settled or reopens it. Routed behind RequireOwner.
func (h *PostHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	post := h.getOwned(w, r)
	if post == nil {
		return
	}

	var req struct {
		IsResolved bool `json:"is_resolved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated, err := h.postStore.SetResolved(post.ID, req.IsResolved, ac.UserID)
	if err != nil {
		h.logger.Error("set resolved", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("post", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}
