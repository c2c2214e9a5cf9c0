package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appdist "drive-distribution/application/distribution"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/logging"
)

// maxBodyBytes bounds the optional student list of a distribution request
const maxBodyBytes = 1 << 20

// Distributor starts a distribution run
type Distributor interface {
	CreateDistribution(ctx context.Context, req appdist.Request) (*distribution.Result, error)
}

// FileLister reads the file records of an activity
type FileLister interface {
	ListFileRecords(ctx context.Context, activityID int64) ([]distribution.FileRecord, error)
}

// Handler serves the distribution endpoints
type Handler struct {
	distributor Distributor
	files       FileLister
	logger      logging.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(distributor Distributor, files FileLister, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		distributor: distributor,
		files:       files,
		logger:      logger,
	}
}

type distributeRequest struct {
	Students []roster.User `json:"students"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// CreateDistribution handles POST /v1/activities/{id}/distribution
func (h *Handler) CreateDistribution(w http.ResponseWriter, r *http.Request) {
	id, ok := activityID(w, r)
	if !ok {
		return
	}

	var req distributeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", false)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", false)
			return
		}
	}

	result, err := h.distributor.CreateDistribution(r.Context(), appdist.Request{
		ActivityID: id,
		Students:   req.Students,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "distribution failed",
				"activity_id", id,
				"request_id", middleware.GetReqID(r.Context()),
				"err", err,
			)
		}
		writeError(w, status, err.Error(), appdist.IsRetryable(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListFiles handles GET /v1/activities/{id}/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := activityID(w, r)
	if !ok {
		return
	}

	records, err := h.files.ListFileRecords(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list file records", "activity_id", id, "err", err)
		writeError(w, statusFor(err), err.Error(), false)
		return
	}

	entries := make([]distribution.RecordEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, distribution.RecordEntry{
			UserID:     rec.UserID,
			GroupID:    rec.GroupID,
			GroupingID: rec.GroupingID,
			URL:        rec.URL,
			Permission: rec.Permission,
			Name:       rec.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": entries})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func activityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid activity id", false)
		return 0, false
	}
	return id, true
}

// statusFor maps a run error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, distribution.ErrConfiguration),
		errors.Is(err, roster.ErrInvalidSelection),
		errors.Is(err, roster.ErrEveryoneWithGroups):
		return http.StatusBadRequest
	case errors.Is(err, distribution.ErrActivityNotFound),
		errors.Is(err, roster.ErrCourseNotFound),
		errors.Is(err, roster.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, distribution.ErrAlreadyDistributed),
		errors.Is(err, distribution.ErrRunInProgress),
		errors.Is(err, distribution.ErrLockLost):
		return http.StatusConflict
	case errors.Is(err, distribution.ErrNoRecipients):
		return http.StatusUnprocessableEntity
	case errors.Is(err, distribution.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, errorResponse{Error: msg, Retryable: retryable})
}
