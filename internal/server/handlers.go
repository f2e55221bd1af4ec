package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
	"github.com/ChayanSD/reimburse-ai/internal/queue"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type submitRequest struct {
	FileURL  string `json:"file_url"`
	Filename string `json:"filename"`
	UserID   string `json:"user_id"`
	Async    bool   `json:"async"`
}

// handleSubmitExpense processes a receipt submission. Synchronous requests
// return the normalized record; async requests return 202 with a job ID.
// Results are cached per (user, file URL) so re-submitting the same image
// skips re-extraction.
func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FileURL == "" || req.UserID == "" {
		jsonError(w, "file_url and user_id are required", http.StatusBadRequest)
		return
	}

	if cached, ok := s.store.CachedResult(req.UserID, req.FileURL); ok {
		slog.Info("Returning cached extraction", "user_id", req.UserID, "file_url", req.FileURL)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if req.Async {
		if s.enqueuer == nil {
			jsonError(w, "Async processing is not enabled", http.StatusBadRequest)
			return
		}
		job, err := s.enqueuer.Enqueue(queue.Job{
			FileURL:  req.FileURL,
			Filename: req.Filename,
			UserID:   req.UserID,
		})
		if err != nil {
			slog.Error("Error enqueueing job", "error", err)
			jsonError(w, "Queue is not accepting jobs", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"job_id": job.ID.String(),
			"status": "queued",
		})
		return
	}

	record, err := s.processExpense(r, req)
	if err != nil {
		if errors.Is(err, extraction.ErrMissingInput) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error processing expense", "filename", req.Filename, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// processExpense runs the pipeline, persists the record, and caches the
// result for repeat submissions.
func (s *Server) processExpense(r *http.Request, req submitRequest) (*extraction.NormalizedRecord, error) {
	record, err := s.processor.Process(r.Context(), req.FileURL, req.Filename, req.UserID)
	if err != nil {
		return nil, err
	}

	record, err = s.store.SaveRecord(record)
	if err != nil {
		return nil, err
	}

	if err := s.store.CacheResult(req.UserID, req.FileURL, record); err != nil {
		// The record is saved; a stale cache just means re-extraction later.
		slog.Warn("Error caching extraction result", "error", err)
	}

	return record, nil
}

// handleListExpenses returns all expenses for a user
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		corsError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	records, err := s.store.ListRecords(userID)
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if records == nil {
		records = []*extraction.NormalizedRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetExpense returns a single expense
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if id == "" || userID == "" {
		corsError(w, "Expense ID and user_id required", http.StatusBadRequest)
		return
	}

	record, err := s.store.GetRecord(userID, id)
	if err != nil {
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if id == "" || userID == "" {
		corsError(w, "Expense ID and user_id required", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteRecord(userID, id); err != nil {
		corsError(w, "Error deleting expense", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
