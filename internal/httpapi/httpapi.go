package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/logger"
	"tandas/backend/internal/merchandise"
	"tandas/backend/internal/pricing"
	"tandas/backend/internal/service"
	"tandas/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/batches", a.handleBatches)
	mux.HandleFunc("/api/v1/batches/", a.handleBatchActions)
	mux.HandleFunc("/api/v1/catalog/publish", a.handlePublish)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleBatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		batches, err := a.service.ListBatches(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
	case http.MethodPost:
		var batch domain.Batch
		if err := decodeJSON(r, &batch); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		a.saveBatch(w, r, "", batch, http.StatusCreated)
	default:
		writeMethodNotAllowed(w)
	}
}

// handleBatchActions serves /api/v1/batches/{name}[/action]. Names are
// free text, so segments are read from the escaped path and unescaped one
// by one.
func (a *API) handleBatchActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/batches/"
	escaped := r.URL.EscapedPath()
	if !strings.HasPrefix(escaped, prefix) {
		writeError(w, http.StatusBadRequest, errors.New("invalid batch path"))
		return
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(escaped, prefix), "/"), "/")
	name, err := url.PathUnescape(segments[0])
	if err != nil || strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("batch name required"))
		return
	}
	action := strings.Join(segments[1:], "/")

	switch action {
	case "":
		a.handleBatch(w, r, name)
	case "codes/check":
		a.handleCodeCheck(w, r, name)
	case "pricing-settings":
		a.handlePricingSettings(w, r, name)
	case "cost-estimate":
		a.handleCostEstimate(w, r, name)
	case "pricing":
		a.handlePricingSheet(w, r, name)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown batch action"))
	}
}

func (a *API) handleBatch(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		batch, err := a.service.GetBatch(r.Context(), name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
	case http.MethodPut:
		var batch domain.Batch
		if err := decodeJSON(r, &batch); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		a.saveBatch(w, r, name, batch, http.StatusOK)
	case http.MethodDelete:
		if err := a.service.DeleteBatch(r.Context(), name); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) saveBatch(w http.ResponseWriter, r *http.Request, originalName string, batch domain.Batch, okStatus int) {
	resp, err := a.service.SaveBatch(r.Context(), originalName, batch)
	if err != nil {
		var partial *service.PartialSyncError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusMultiStatus, map[string]any{
				"batch":        resp.Batch,
				"renamed":      resp.Renamed,
				"warnings":     resp.Warnings,
				"sync_error":   partial.Err.Error(),
				"failed_codes": partial.Codes,
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, okStatus, resp)
}

func (a *API) handleCodeCheck(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.CodeCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.CheckCode(r.Context(), name, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePricingSettings(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		settings, err := a.service.GetPricingSettings(r.Context(), name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"settings": settings,
			"presets":  pricing.Presets(),
		})
	case http.MethodPut:
		var req domain.PricingSettingsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settings, err := a.service.SavePricingSettings(r.Context(), name, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCostEstimate(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	estimate, err := a.service.CostEstimate(r.Context(), name, query.Get("rate"), query.Get("expense"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

func (a *API) handlePricingSheet(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	sheet, err := a.service.PricingSheet(r.Context(), name, r.URL.Query().Get("brand"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (a *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.PublishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.Publish(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		logger.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(startedAt)).
			Msg("request")
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// statusFor maps the service error kinds onto HTTP statuses.
func statusFor(err error) int {
	var (
		validation *merchandise.ValidationError
		duplicate  *merchandise.DuplicateCodeError
		storeErr   *store.StoreError
	)
	switch {
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidBatch):
		return http.StatusBadRequest
	case errors.As(err, &storeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var duplicate *merchandise.DuplicateCodeError
	if errors.As(err, &duplicate) {
		writeJSON(w, status, map[string]any{
			"error":     err.Error(),
			"code":      duplicate.Code,
			"collision": duplicate.Existing,
		})
		return
	}
	var validation *merchandise.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		writeJSON(w, status, map[string]any{
			"error": err.Error(),
			"field": validation.Field,
		})
		return
	}
	writeError(w, status, err)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies carry a generic message; the detail only goes to the log.
	msg := err.Error()
	if status >= 500 {
		logger.Log.Error().Err(err).Int("status", status).Msg("request failed")
		msg = "internal server error"
		if status == http.StatusBadGateway {
			msg = "store unavailable, retry the request"
		}
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
