package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mweber/pettrack/internal/email"
	"github.com/mweber/pettrack/internal/files"
	"github.com/mweber/pettrack/internal/handler"
	"github.com/mweber/pettrack/internal/middleware"
	"github.com/mweber/pettrack/internal/push"
	"github.com/mweber/pettrack/internal/store"
	ws "github.com/mweber/pettrack/internal/websocket"
)

// Config collects everything the server needs beyond the database.
type Config struct {
	BaseURL         string
	ResendAPIKey    string
	FromEmail       string
	S3              files.S3Config
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	inviteH        *handler.InviteHandler
	householdH     *handler.HouseholdHandler
	petH           *handler.PetHandler
	taskH          *handler.TaskHandler
	appointmentH   *handler.AppointmentHandler
	shoppingH      *handler.ShoppingHandler
	postH          *handler.PostHandler
	pushH          *handler.PushHandler
	fileH          *handler.FileHandler
	sessionStore   *store.SessionStore
	inviteStore    *store.InviteStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	inviteStore := store.NewInviteStore(db)
	petStore := store.NewPetStore(db)
	taskStore := store.NewTaskStore(db)
	appointmentStore := store.NewAppointmentStore(db)
	shoppingStore := store.NewShoppingStore(db)
	postStore := store.NewPostStore(db)
	pushStore := store.NewPushStore(db)

	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.FromEmail, cfg.BaseURL)
	fileStore := files.NewStore(cfg.S3)
	pushService := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, householdStore, sessionStore, inviteStore, logger),
		inviteH:        handler.NewInviteHandler(inviteStore, householdStore, userStore, sessionStore, emailClient, logger),
		householdH:     handler.NewHouseholdHandler(householdStore, hub, logger),
		petH:           handler.NewPetHandler(petStore, fileStore, hub, logger),
		taskH:          handler.NewTaskHandler(taskStore, petStore, hub, logger),
		appointmentH:   handler.NewAppointmentHandler(appointmentStore, petStore, hub, logger),
		shoppingH:      handler.NewShoppingHandler(shoppingStore, petStore, hub, logger),
		postH:          handler.NewPostHandler(postStore, petStore, userStore, pushStore, pushService, hub, logger),
		pushH:          handler.NewPushHandler(pushStore, pushService, logger),
		fileH:          handler.NewFileHandler(fileStore, logger),
		sessionStore:   sessionStore,
		inviteStore:    inviteStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// InviteStore returns the invite store for cleanup tasks.
func (s *Server) InviteStore() *store.InviteStore {
	return s.inviteStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/invites/accept", s.inviteH.Accept)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session + profile
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/profile", s.authH.UpdateProfile)

	// Household + members
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.Handle("PUT /api/household", middleware.RequireOwner(http.HandlerFunc(s.householdH.Rename)))
	mux.HandleFunc("GET /api/household/members", s.householdH.ListMembers)
	mux.Handle("DELETE /api/household/members/{id}", middleware.RequireOwner(http.HandlerFunc(s.householdH.RemoveMember)))

	// Invites
	mux.HandleFunc("POST /api/invites", s.inviteH.Create)

	// Pets
	mux.HandleFunc("POST /api/pets", s.petH.Create)
	mux.HandleFunc("GET /api/pets", s.petH.List)
	mux.HandleFunc("GET /api/pets/{id}", s.petH.Get)
	mux.HandleFunc("PUT /api/pets/{id}", s.petH.Update)
	mux.HandleFunc("DELETE /api/pets/{id}", s.petH.Delete)
	mux.HandleFunc("POST /api/pets/{id}/photo", s.petH.UploadPhoto)
	mux.HandleFunc("POST /api/pets/{id}/records", s.petH.UploadMedicalRecord)
	mux.HandleFunc("GET /api/pets/{id}/records", s.petH.ListMedicalRecords)
	mux.HandleFunc("DELETE /api/pets/{id}/records/{record_id}", s.petH.DeleteMedicalRecord)

	// Care tasks
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/for-date", s.taskH.ListForDate)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.Handle("DELETE /api/tasks/{id}", middleware.RequireOwner(http.HandlerFunc(s.taskH.Delete)))
	mux.HandleFunc("POST /api/tasks/complete", s.taskH.Complete)

	// Appointments
	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("GET /api/appointments/{id}", s.appointmentH.Get)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("POST /api/appointments/{id}/status", s.appointmentH.SetStatus)
	mux.Handle("DELETE /api/appointments/{id}", middleware.RequireOwner(http.HandlerFunc(s.appointmentH.Delete)))

	// Shopping list
	mux.HandleFunc("POST /api/shopping-items", s.shoppingH.Create)
	mux.HandleFunc("GET /api/shopping-items", s.shoppingH.List)
	mux.HandleFunc("PUT /api/shopping-items/{id}", s.shoppingH.Update)
	mux.HandleFunc("POST /api/shopping-items/{id}/purchase", s.shoppingH.SetPurchased)
	mux.HandleFunc("DELETE /api/shopping-items/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/shopping-items/clear-purchased", s.shoppingH.ClearPurchased)

	// Discussion posts
	mux.HandleFunc("POST /api/posts", s.postH.Create)
	mux.HandleFunc("GET /api/posts", s.postH.List)
	mux.HandleFunc("GET /api/posts/{id}", s.postH.Get)
	mux.HandleFunc("PUT /api/posts/{id}", s.postH.Update)
	mux.HandleFunc("DELETE /api/posts/{id}", s.postH.Delete)
	mux.HandleFunc("POST /api/posts/{id}/replies", s.postH.Reply)
	mux.Handle("POST /api/posts/{id}/resolve", middleware.RequireOwner(http.HandlerFunc(s.postH.Resolve)))

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Stored files
	mux.HandleFunc("GET /api/files/{key...}", s.fileH.Download)

	// Real-time sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
