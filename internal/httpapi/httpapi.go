package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"deliverydesk/backend/internal/aggregate"
	"deliverydesk/backend/internal/logger"
	"deliverydesk/backend/internal/service"
	"deliverydesk/backend/internal/xid"
)

type API struct {
	service       *service.Service
	allowedOrigin string
	validator     *validator.Validate
	log           zerolog.Logger
}

func New(svc *service.Service, allowedOrigin string) *API {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
		validator:     v,
		log:           logger.WithComponent("httpapi"),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/readyz", a.handleReady)

	mux.HandleFunc("/api/v1/invoices", a.requireReady(a.handleInvoices))
	mux.HandleFunc("/api/v1/invoices/", a.requireReady(a.handleInvoiceActions))
	mux.HandleFunc("/api/v1/archive", a.requireReady(a.handleArchive))
	mux.HandleFunc("/api/v1/drivers", a.requireReady(a.handleDrivers))
	mux.HandleFunc("/api/v1/drivers/", a.requireReady(a.handleDriverActions))
	mux.HandleFunc("/api/v1/stock", a.requireReady(a.handleStock))
	mux.HandleFunc("/api/v1/stock/", a.requireReady(a.handleStockActions))
	mux.HandleFunc("/api/v1/statistics", a.requireReady(a.handleStatistics))

	mux.HandleFunc("/api/v1/theme", a.handleTheme)
	mux.HandleFunc("/api/v1/theme/toggle", a.handleThemeToggle)

	return a.withMiddleware(mux)
}

// requireReady answers 503 until the first successful load.
func (a *API) requireReady(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.service.IsReady() {
			writeError(w, http.StatusServiceUnavailable, errors.New(service.LoadFailedNotice))
			return
		}
		next(w, r)
	}
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

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	status := http.StatusOK
	ready := a.service.IsReady()
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ready})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := xid.FromHeader(r.Header.Get("X-Request-ID"), "req")
		w.Header().Set("X-Request-ID", requestID)

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(startedAt)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// validate runs the struct tags and reports the first failing field.
func (a *API) validate(v any) error {
	err := a.validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%s: %s", fe.Field(), fe.Tag())
	}
	return err
}

// pathParts splits what follows prefix into its non-empty segments.
func pathParts(r *http.Request, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

// sortRows applies ?sort= and ?dir= when present.
func sortRows[T any](r *http.Request, rows []T) []T {
	column := strings.TrimSpace(r.URL.Query().Get("sort"))
	if column == "" {
		return rows
	}
	return aggregate.SortTable(rows, column, aggregate.ParseDirection(r.URL.Query().Get("dir")))
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeNotFound(w http.ResponseWriter, what string, id string) {
	writeError(w, http.StatusNotFound, fmt.Errorf("%s %q not found", what, id))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause only goes to the log.
	msg := err.Error()
	if status >= 500 && status != http.StatusServiceUnavailable {
		zlog.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
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
