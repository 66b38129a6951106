package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/files"
)

type FileHandler struct {
	fileStore *files.Store
	logger    *slog.Logger
}

func NewFileHandler(fs *files.Store, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileStore: fs,
		logger:    logger.With("component", "file"),
	}
}

// Download proxies a stored object to the client. Keys are prefixed with the
// owning household id, so a caller can only reach files under their own
// prefix; anything else looks like it doesn't exist.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	key := r.PathValue("key")
	if key == "" || !files.BelongsTo(key, ac.HouseholdID) {
		notFound(w)
		return
	}

	body, contentType, err := h.fileStore.Fetch(r.Context(), key)
	if err != nil {
		h.logger.Warn("fetch file", "error", err, "key", key)
		notFound(w)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream file", "error", err, "key", key)
	}
}
