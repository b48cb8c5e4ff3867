package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/parallax/internal/extraction"
	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/internal/persistence"
	"github.com/lewisedginton/parallax/internal/ratelimit"
	"github.com/lewisedginton/parallax/pkg/logger"
	"github.com/lewisedginton/parallax/pkg/metrics"
)

// InsightService is the pipeline behind the API.
type InsightService interface {
	Extract(ctx context.Context, req extraction.ExtractRequest) (*insights.MemoryRecord, error)
	Mediate(ctx context.Context, req extraction.MediateRequest) (*insights.NVCAnalysis, error)
	Memory(ctx context.Context, userID string) (*insights.MemoryRecord, error)
	Signals(ctx context.Context, userID string) ([]insights.Signal, error)
	SetActionItemStatus(ctx context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error)
}

type extractRequest struct {
	Messages       []insights.ConversationTurn `json:"messages"`
	ExistingMemory *insights.MemoryRecord      `json:"existing_memory,omitempty"`
	UserID         string                      `json:"user_id,omitempty"`
}

type extractResponse struct {
	Insights *insights.MemoryRecord `json:"insights"`
}

type mediateRequest struct {
	Messages []insights.ConversationTurn `json:"messages"`
	Message  string                      `json:"message"`
	Sender   insights.Sender             `json:"sender,omitempty"`
	UserID   string                      `json:"user_id,omitempty"`
}

type mediateResponse struct {
	Analysis *insights.NVCAnalysis `json:"analysis"`
}

type memoryResponse struct {
	Memory *insights.MemoryRecord `json:"memory"`
}

type signalsResponse struct {
	Signals []insights.Signal `json:"signals"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// API holds the HTTP handlers.
type API struct {
	service        InsightService
	extractLimiter *ratelimit.Limiter
	mediateLimiter *ratelimit.Limiter
	metrics        *metrics.Metrics
	log            logger.Logger
}

func (a *API) extractHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromContext(r.Context(), a.log)

	var req extractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !a.extractLimiter.Allow(r.Context(), "extract:"+rateLimitKey(r, req.UserID)) {
		log.Info("Extraction rate limited", logger.UserIDField(req.UserID))
		a.metrics.ObserveExtraction(metrics.OutcomeRateLimited)
		writeJSON(w, http.StatusOK, extractResponse{})
		return
	}

	record, err := a.service.Extract(r.Context(), extraction.ExtractRequest{
		Messages:       req.Messages,
		ExistingMemory: req.ExistingMemory,
		UserID:         req.UserID,
	})
	if err != nil {
		if errors.Is(err, extraction.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Extraction failed", logger.ErrorField(err))
		writeJSON(w, http.StatusOK, extractResponse{})
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Insights: record})
}

func (a *API) mediateHandler(w http.ResponseWriter, r *http.Request) {
	var req mediateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !a.mediateLimiter.Allow(r.Context(), "mediate:"+rateLimitKey(r, req.UserID)) {
		retry := int(math.Ceil(a.mediateLimiter.Window().Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	analysis, err := a.service.Mediate(r.Context(), extraction.MediateRequest{
		Messages: req.Messages,
		Message:  req.Message,
		Sender:   req.Sender,
	})
	if err != nil {
		if errors.Is(err, extraction.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.GetLoggerFromContext(r.Context(), a.log).Error("Mediation failed", logger.ErrorField(err))
		writeJSON(w, http.StatusOK, mediateResponse{})
		return
	}
	writeJSON(w, http.StatusOK, mediateResponse{Analysis: analysis})
}

func (a *API) memoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	record, err := a.service.Memory(r.Context(), userID)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memoryResponse{Memory: record})
}

func (a *API) signalsHandler(w http.ResponseWriter, r *http.Request) {
	signals, err := a.service.Signals(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	if signals == nil {
		signals = []insights.Signal{}
	}
	writeJSON(w, http.StatusOK, signalsResponse{Signals: signals})
}

func (a *API) actionItemHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := insights.ParseActionItemStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.service.SetActionItemStatus(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "itemID"), status)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memoryResponse{Memory: record})
}

func (a *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	logger.GetLoggerFromContext(r.Context(), a.log).Error("Store request failed", logger.ErrorField(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// rateLimitKey prefers the caller's user id and falls back to the peer
// address. Handlers prefix it with the route so limiters sharing a counter
// do not consume each other's budget. Forwarding headers are ignored here; RealIP applies them to
// RemoteAddr when the deployment trusts its proxy.
func rateLimitKey(r *http.Request, userID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return "user:" + userID
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return "ip:" + host
	}
	return "ip:" + r.RemoteAddr
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return errors.New("malformed JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
