package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mweber/pettrack/internal/auth"
	"github.com/mweber/pettrack/internal/files"
	"github.com/mweber/pettrack/internal/model"
	"github.com/mweber/pettrack/internal/store"
	"github.com/mweber/pettrack/internal/websocket"
)

// maxUploadBytes caps photo and document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

var validSpecies = map[string]bool{
	"dog": true, "cat": true, "bird": true, "fish": true,
	"reptile": true, "rabbit": true, "other": true,
}

type PetHandler struct {
	petStore  *store.PetStore
	fileStore *files.Store
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewPetHandler(ps *store.PetStore, fs *files.Store, hub *websocket.Hub, logger *slog.Logger) *PetHandler {
	return &PetHandler{
		petStore:  ps,
		fileStore: fs,
		hub:       hub,
		logger:    logger.With("component", "pet"),
	}
}

type petRequest struct {
	Name           string   `json:"name"`
	Species        string   `json:"species"`
	Breed          string   `json:"breed"`
	BirthDate      string   `json:"birth_date"`
	Weight         *float64 `json:"weight"`
	MicrochipID    string   `json:"microchip_id"`
	PrimaryCarerID *int64   `json:"primary_carer_id"`
	Notes          string   `json:"notes"`
}

func (req *petRequest) validate() (birthDate *time.Time, msg string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "name is required"
	}
	if req.Species == "" {
		req.Species = "other"
	}
	if !validSpecies[req.Species] {
		return nil, "invalid species"
	}
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return nil, "birth_date must be YYYY-MM-DD"
		}
		birthDate = &t
	}
	if req.Weight != nil && *req.Weight <= 0 {
		return nil, "weight must be positive"
	}
	return birthDate, ""
}

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	birthDate, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.PrimaryCarerID != nil && !auth.IsOwner(r.Context()) {
		writeError(w, http.StatusForbidden, "only household owners can assign a primary carer")
		return
	}

	pet, err := h.petStore.Create(ac.HouseholdID, req.Name, req.Species, strings.TrimSpace(req.Breed), birthDate, req.Weight, strings.TrimSpace(req.MicrochipID), req.PrimaryCarerID, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error("create pet", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create pet")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("pet", "created", pet.ID, nil))
	writeJSON(w, http.StatusCreated, pet)
}

func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pets, err := h.petStore.ListByHousehold(ac.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pets")
		return
	}
	if pets == nil {
		pets = []model.Pet{}
	}
	writeJSON(w, http.StatusOK, pets)
}

// getOwned loads a pet and enforces household scope, writing the error
// response itself when the pet is unavailable.
func (h *PetHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.Pet {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	pet, err := h.petStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get pet")
		return nil
	}
	if pet == nil || pet.HouseholdID != ac.HouseholdID {
		notFound(w)
		return nil
	}
	return pet
}

func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	birthDate, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	carerChanged := (req.PrimaryCarerID == nil) != (pet.PrimaryCarerID == nil) ||
		(req.PrimaryCarerID != nil && pet.PrimaryCarerID != nil && *req.PrimaryCarerID != *pet.PrimaryCarerID)
	if carerChanged && !auth.IsOwner(r.Context()) {
		writeError(w, http.StatusForbidden, "only household owners can assign a primary carer")
		return
	}

	updated, err := h.petStore.Update(pet.ID, req.Name, req.Species, strings.TrimSpace(req.Breed), birthDate, req.Weight, strings.TrimSpace(req.MicrochipID), req.PrimaryCarerID, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error("update pet", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update pet")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("pet", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	if err := h.petStore.Delete(pet.ID); err != nil {
		h.logger.Error("delete pet", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete pet")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("pet", "deleted", pet.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadPhoto accepts a multipart photo upload and stores it as the pet's
// profile picture.
func (h *PetHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	key, err := h.fileStore.Upload(r.Context(), ac.HouseholdID, "pets", header.Filename, data)
	if err != nil {
		h.logger.Error("upload pet photo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	if err := h.petStore.SetPhotoKey(pet.ID, key); err != nil {
		h.logger.Error("set photo key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("pet", "updated", pet.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"photo_key": key})
}

// UploadMedicalRecord stores a document (vet report, vaccination card) for a
// pet.
func (h *PetHandler) UploadMedicalRecord(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	key, err := h.fileStore.Upload(r.Context(), ac.HouseholdID, "records", header.Filename, data)
	if err != nil {
		h.logger.Error("upload medical record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	rec, err := h.petStore.AddMedicalRecord(pet.ID, header.Filename, key, strings.TrimSpace(r.FormValue("description")))
	if err != nil {
		h.logger.Error("add medical record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("medical_record", "created", rec.ID, map[string]any{"pet_id": pet.ID}))
	writeJSON(w, http.StatusCreated, rec)
}

func (h *PetHandler) ListMedicalRecords(w http.ResponseWriter, r *http.Request) {
	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	records, err := h.petStore.ListMedicalRecords(pet.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []model.MedicalRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *PetHandler) DeleteMedicalRecord(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	pet := h.getOwned(w, r)
	if pet == nil {
		return
	}

	recID, err := strconv.ParseInt(r.PathValue("record_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record_id")
		return
	}

	rec, err := h.petStore.GetMedicalRecord(recID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	if rec == nil || rec.PetID != pet.ID {
		notFound(w)
		return
	}

	if err := h.petStore.DeleteMedicalRecord(recID); err != nil {
		h.logger.Error("delete medical record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	if h.fileStore.Enabled() {
		if err := h.fileStore.Delete(r.Context(), rec.FileKey); err != nil {
			h.logger.Warn("delete stored file", "error", err, "key", rec.FileKey)
		}
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("medical_record", "deleted", recID, map[string]any{"pet_id": pet.ID}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
