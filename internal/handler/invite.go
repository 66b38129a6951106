package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/email"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/store"
)

type InviteHandler struct {
	inviteStore    *store.InviteStore
	householdStore *store.HouseholdStore
	userStore      *store.UserStore
	sessionStore   *store.SessionStore
	emailClient    *email.Client
	logger         *slog.Logger
}

func NewInviteHandler(is *store.InviteStore, hs *store.HouseholdStore, us *store.UserStore, ss *store.SessionStore, ec *email.Client, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{
		inviteStore:    is,
		householdStore: hs,
		userStore:      us,
		sessionStore:   ss,
		emailClient:    ec,
		logger:         logger.With("component", "invite"),
	}
}

type createInviteRequest struct {
	Email string `json:"email"`
}

// inviteResponse surfaces the token on creation only. The model hides it
// from JSON everywhere else, but the issuer needs it back so the invite can
// be shared by hand when email delivery is unconfigured or fails.
type inviteResponse struct {
	*model.PendingInvite
	Token string `json:"token"`
}

// Create issues an invite to join the caller's household. The invite row is
// durable before the email goes out; a delivery failure is logged and the
// token can still be shared by hand.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	member, err := h.householdStore.GetMemberByEmail(ac.HouseholdID, req.Email)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	if member != nil {
		writeError(w, http.StatusBadRequest, "this email already belongs to a household member")
		return
	}

	existing, err := h.inviteStore.GetActiveByEmailAndHousehold(req.Email, ac.HouseholdID)
	if err != nil {
		h.logger.Error("check duplicate invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "an invite for this email is already pending")
		return
	}

	invite, err := h.inviteStore.Create(req.Email, ac.HouseholdID, ac.UserID)
	if err != nil {
		h.logger.Error("create invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	if h.emailClient.Configured() {
		household, _ := h.householdStore.GetByID(ac.HouseholdID)
		inviter, _ := h.userStore.GetByID(ac.UserID)
		householdName, inviterName := "a household", "A member"
		if household != nil {
			householdName = household.Name
		}
		if inviter != nil {
			inviterName = inviter.Name
		}
		if err := h.emailClient.SendInvite(req.Email, invite.Token, householdName, inviterName); err != nil {
			h.logger.Warn("send invite email", "error", err, "invite_id", invite.ID)
		}
	}

	writeJSON(w, http.StatusCreated, inviteResponse{PendingInvite: invite, Token: invite.Token})
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

// Accept redeems an invite token. Unauthenticated callers get the target
// email back so the client can route them through login or signup first; the
// token stays live until a matching authenticated user consumes it.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	invite, err := h.inviteStore.GetByToken(req.Token)
	if err != nil {
		h.logger.Error("lookup invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	if invite == nil {
		writeError(w, http.StatusBadRequest, "invite is invalid or has expired")
		return
	}

	user := h.sessionUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_auth": true,
			"email":         invite.Email,
		})
		return
	}

	if user.Email != invite.Email {
		writeError(w, http.StatusBadRequest, "this invite was sent to a different email address")
		return
	}

	member, err := h.householdStore.GetMember(invite.HouseholdID, user.ID)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	if member != nil {
		// Already in: just consume the token.
		if err := h.inviteStore.Delete(invite.ID); err != nil {
			h.logger.Warn("consume invite", "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "already_member", "household_id": invite.HouseholdID})
		return
	}

	if _, err := h.householdStore.AddMember(invite.HouseholdID, user.ID, model.RoleMember); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	if err := h.userStore.SetHousehold(user.ID, invite.HouseholdID); err != nil {
		h.logger.Error("set user household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept invite")
		return
	}
	if err := h.inviteStore.Delete(invite.ID); err != nil {
		h.logger.Warn("consume invite", "error", err)
	}

	// Repoint the caller's live session so the next request sees the new
	// household.
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
			if err := h.sessionStore.UpdateHousehold(sess.ID, invite.HouseholdID); err != nil {
				h.logger.Warn("update session household", "error", err)
			}
		}
	}

	h.logger.Info("invite accepted", "user_id", user.ID, "household_id", invite.HouseholdID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "joined", "household_id": invite.HouseholdID})
}

// sessionUser resolves the cookie to a user, or nil. Accept runs on the
// public mux, so it cannot rely on the auth middleware.
func (h *InviteHandler) sessionUser(r *http.Request) *model.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		return nil
	}
	user, err := h.userStore.GetByID(sess.UserID)
	if err != nil {
		return nil
	}
	return user
}
