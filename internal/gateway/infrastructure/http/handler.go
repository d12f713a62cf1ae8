package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/application"
	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/domain"
)

const (
	msgProcessed     = "Payment processed successfully"
	msgNetworkError  = "Payment processing failed due to network error"
	msgInternalError = "Internal server error"
	msgNotFound      = "Endpoint not found"
	msgDuplicate     = "Duplicate request"

	maxBodyBytes = 1 << 20
)

// Deduper is satisfied by idempotency.Store.
type Deduper interface {
	Key(scope, key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    Deduper
	tracer  trace.Tracer
}

// NewHandler builds the HTTP surface. idem may be nil, in which case the
// Idempotency-Key header is ignored.
func NewHandler(log *slog.Logger, service *application.Service, idem Deduper) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("gateway-http"),
	}
}

type reply struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/payments", h.createPayment)
	r.Post("/validate", h.validate)
	r.Get("/payments", h.listPayments)
	r.Get("/transactions", h.listTransactions)
	r.Get("/health", h.health)

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)
	return r
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePayment")
	defer span.End()

	in, err := decodeInput(r)
	if err != nil {
		h.log.Error("payment body decode failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, reply{Message: msgInternalError})
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idem != nil {
		k := h.idem.Key("payments", key)
		seen, err := h.idem.Seen(ctx, k)
		if err != nil {
			h.log.Error("idempotency check failed", "err", err)
		} else if seen {
			writeJSON(w, http.StatusConflict, reply{Message: msgDuplicate})
			return
		}
		// A rejected or failed attempt must not block the client's retry.
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if ww.Status() >= http.StatusBadRequest {
				_ = h.idem.Forget(context.WithoutCancel(ctx), k)
			}
		}()
		w = ww
	}

	p, err := h.service.Process(ctx, in)
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, reply{Message: ve.Message})
	case errors.Is(err, application.ErrSimulatedFailure):
		writeJSON(w, http.StatusInternalServerError, reply{Message: msgNetworkError})
	case err != nil:
		h.log.Error("payment processing failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, reply{Message: msgInternalError})
	default:
		writeJSON(w, http.StatusOK, reply{
			Success:       true,
			Message:       msgProcessed,
			TransactionID: p.ID,
			Timestamp:     p.Timestamp,
		})
	}
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, false)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Validate(in))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.Payments(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, reply{Message: msgInternalError})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments, "count": len(payments)})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.service.Transactions(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, reply{Message: msgInternalError})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns, "count": len(txns)})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.service.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"uptime":    h.service.Uptime().Seconds(),
	})
}

func (h *Handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, reply{Message: msgNotFound})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error("unhandled panic", "panic", rec, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, reply{Message: msgInternalError})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// decodeInput reads a JSON payment body. A body that is empty or not sent as
// application/json yields an empty Input, so the usual field checks answer it.
// Only malformed JSON is an error.
func decodeInput(r *http.Request) (domain.Input, error) {
	var in domain.Input
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		return in, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return in, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return domain.Input{}, err
	}
	return in, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
