package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/onboard"
	"github.com/mweber/pettrack/internal/store"
)

const sessionCookieName = "pettrack_session"

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore
	inviteStore    *store.InviteStore
	logger         *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, is *store.InviteStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		householdStore: hs,
		sessionStore:   ss,
		inviteStore:    is,
		logger:         logger.With("component", "auth"),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. Whether the new user lands in a fresh
// household or an existing one depends on pending invites for their email.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	invite, err := h.inviteStore.GetActiveByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup invite", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	var householdID int64
	plan := onboard.Decide(invite, time.Now().UTC())
	switch plan.Kind {
	case onboard.JoinExisting:
		householdID = plan.HouseholdID
		if _, err := h.householdStore.AddMember(householdID, user.ID, model.RoleMember); err != nil {
			h.logger.Error("add invited member", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		if err := h.inviteStore.Delete(plan.InviteID); err != nil {
			h.logger.Warn("consume invite", "error", err)
		}
	default:
		household, err := h.householdStore.Create(req.Name+"'s Household", user.ID)
		if err != nil {
			h.logger.Error("create household", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		householdID = household.ID
		if _, err := h.householdStore.AddMember(householdID, user.ID, model.RoleOwner); err != nil {
			h.logger.Error("add owner member", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
	}

	if err := h.userStore.SetHousehold(user.ID, householdID); err != nil {
		h.logger.Error("set user household", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.startSession(w, r, user.ID, householdID)
	h.logger.Info("user registered", "user_id", user.ID, "household_id", householdID, "joined_existing", plan.Kind == onboard.JoinExisting)

	user, _ = h.userStore.GetByID(user.ID)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.userStore.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || user.PasswordHash == "" {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	householdID, err := h.resolveHousehold(user)
	if err != nil {
		h.logger.Error("resolve household", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.startSession(w, r, user.ID, householdID)
	writeJSON(w, http.StatusOK, user)
}

// resolveHousehold returns the household a login lands in. Accounts predating
// onboarding (or left orphaned) get a fresh household on the spot.
func (h *AuthHandler) resolveHousehold(user *model.User) (int64, error) {
	if user.HouseholdID != nil {
		m, err := h.householdStore.GetMember(*user.HouseholdID, user.ID)
		if err != nil {
			return 0, err
		}
		if m != nil {
			return *user.HouseholdID, nil
		}
	}

	household, err := h.householdStore.Create(user.Name+"'s Household", user.ID)
	if err != nil {
		return 0, err
	}
	if _, err := h.householdStore.AddMember(household.ID, user.ID, model.RoleOwner); err != nil {
		return 0, err
	}
	if err := h.userStore.SetHousehold(user.ID, household.ID); err != nil {
		return 0, err
	}
	return household.ID, nil
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID, householdID int64) {
	sess, err := h.sessionStore.Create(userID, householdID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   90 * 24 * 60 * 60, // 90 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
			h.sessionStore.Delete(sess.ID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the caller's profile plus their household and role.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	household, err := h.householdStore.GetByID(ac.HouseholdID)
	if err != nil || household == nil {
		writeError(w, http.StatusInternalServerError, "failed to load household")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"household": household,
		"role":      ac.Role,
	})
}

type profileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Bio     string `json:"bio"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	current, err := h.userStore.GetByID(ac.UserID)
	if err != nil || current == nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	user, err := h.userStore.UpdateProfile(ac.UserID, req.Name, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Address), strings.TrimSpace(req.Bio), current.AvatarURL)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
