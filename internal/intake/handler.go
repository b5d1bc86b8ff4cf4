package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dentalstack/intake-platform/internal/tenancy"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

// Handler exposes the intake flow over HTTP for the booking UI.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the intake HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("intake: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the intake endpoints. The business id is taken from the
// request context, set by the tenancy middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Post("/sessions/{sessionID}/messages", h.ProcessMessage)
	r.Post("/sessions/{sessionID}/pain-level", h.RecordPainLevel)
	r.Post("/sessions/{sessionID}/medical-history", h.RecordMedicalHistory)
	r.Post("/sessions/{sessionID}/match", h.MatchDentists)
	r.Post("/sessions/{sessionID}/select-dentist", h.SelectDentist)
	r.Post("/sessions/{sessionID}/abandon", h.Abandon)
	r.Post("/sessions/{sessionID}/complete", h.Complete)
	return r
}

// CreateSessionRequest opens a session; patient_id may be empty for
// anonymous intakes.
type CreateSessionRequest struct {
	PatientID string `json:"patient_id"`
}

// CreateSession handles POST /intake/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	businessID, ok := tenancy.BusinessIDFromContext(r.Context())
	if !ok {
		jsonError(w, "missing business id", http.StatusBadRequest)
		return
	}

	var req CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	session, err := h.service.CreateSession(r.Context(), businessID, strings.TrimSpace(req.PatientID))
	if err != nil {
		h.logger.Error("create session failed", "business_id", businessID, "error", err)
		jsonError(w, "failed to create session", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /intake/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ProcessMessageRequest carries one patient utterance.
type ProcessMessageRequest struct {
	Message string `json:"message"`
}

// ProcessMessage handles POST /intake/sessions/{sessionID}/messages
func (h *Handler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req ProcessMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.ProcessPatientMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecordPainLevelRequest carries the patient's pain-scale answer.
type RecordPainLevelRequest struct {
	Level int `json:"level"`
}

// RecordPainLevel handles POST /intake/sessions/{sessionID}/pain-level
func (h *Handler) RecordPainLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req RecordPainLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session, err := h.service.RecordPainLevel(r.Context(), sessionID, req.Level)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// RecordMedicalHistoryRequest carries the medical-history form answers.
// Omitted lists leave the stored values untouched.
type RecordMedicalHistoryRequest struct {
	HistoryNotes       []string `json:"history_notes"`
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"current_medications"`
}

// RecordMedicalHistory handles POST /intake/sessions/{sessionID}/medical-history
func (h *Handler) RecordMedicalHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req RecordMedicalHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session, err := h.service.RecordMedicalHistory(r.Context(), sessionID,
		req.HistoryNotes, req.Allergies, req.CurrentMedications)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// MatchDentists handles POST /intake/sessions/{sessionID}/match
func (h *Handler) MatchDentists(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.service.PerformDentistMatching(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SelectDentistRequest records the patient's pick from the ranked list.
type SelectDentistRequest struct {
	DentistID string `json:"dentist_id"`
}

// SelectDentist handles POST /intake/sessions/{sessionID}/select-dentist
func (h *Handler) SelectDentist(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req SelectDentistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.DentistID) == "" {
		jsonError(w, "dentist_id is required", http.StatusBadRequest)
		return
	}

	ok, err := h.service.SelectDentist(r.Context(), sessionID, req.DentistID)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"selected": ok})
}

// AbandonRequest carries the caller's view of where the patient dropped off.
type AbandonRequest struct {
	CurrentStatus string `json:"current_status"`
}

// Abandon handles POST /intake/sessions/{sessionID}/abandon
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req AbandonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status := Status(req.CurrentStatus)
	if !status.Valid() {
		jsonError(w, "invalid current_status", http.StatusBadRequest)
		return
	}

	ok, err := h.service.AbandonIntake(r.Context(), sessionID, status)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"abandoned": ok})
}

// CompleteRequest links the session to the externally booked appointment.
type CompleteRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Complete handles POST /intake/sessions/{sessionID}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.AppointmentID) == "" {
		jsonError(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CompleteIntake(r.Context(), sessionID, req.AppointmentID)
	if err != nil {
		h.respondError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Statistics handles GET /admin/intake/statistics?business_id=&start=&end=
// Mounted behind the admin JWT middleware.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("business_id")
	if businessID == "" {
		if fromCtx, ok := tenancy.BusinessIDFromContext(r.Context()); ok {
			businessID = fromCtx
		}
	}
	if businessID == "" {
		jsonError(w, "business_id is required", http.StatusBadRequest)
		return
	}

	start, err := parseDateParam(r.URL.Query().Get("start"))
	if err != nil {
		jsonError(w, "invalid start date", http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(r.URL.Query().Get("end"))
	if err != nil {
		jsonError(w, "invalid end date", http.StatusBadRequest)
		return
	}

	summary, err := h.service.GetStatistics(r.Context(), businessID, start, end)
	if err != nil {
		h.logger.Error("statistics query failed", "business_id", businessID, "error", err)
		jsonError(w, "failed to compute statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrSessionTerminal):
		jsonError(w, "session is completed or abandoned", http.StatusConflict)
	case errors.Is(err, ErrEmptyRoster):
		jsonError(w, "no active dentists for practice", http.StatusConflict)
	default:
		h.logger.Error("intake operation failed", "session_id", sessionID, "error", err)
		jsonError(w, "internal error", http.StatusBadGateway)
	}
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Accept bare dates too.
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
