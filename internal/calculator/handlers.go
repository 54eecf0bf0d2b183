package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-chi-calculator/internal/equation"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// maxKeys bounds a single key sequence in one request.
const maxKeys = 4096

// maxBodyBytes bounds a request body. It leaves room for maxKeys keys
// written as space-separated named tokens.
const maxBodyBytes = 64 << 10

// Handler serves the calculator endpoints.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/calculator", func(r chi.Router) {
		r.Post("/add", h.binary(equation.Add))
		r.Post("/subtract", h.binary(equation.Subtract))
		r.Post("/multiply", h.binary(equation.Multiply))
		r.Post("/divide", h.binary(equation.Divide))
		r.Post("/percent", h.binary(equation.Percent))
		r.Post("/evaluate", h.Evaluate)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/keys", h.PressKeys)
		})
	})
}

func numeric(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// elapsedMs is the time since start in fractional milliseconds.
func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// ---------------------------------------------------------------------------
// Handlers: binary operations
// ---------------------------------------------------------------------------

// binary returns the handler for POST /calculator/{operation}. The operands
// are typed into a fresh engine, so the result follows the keypad's rules
// exactly (percent is a*b/100, division by zero is Undefined).
func (h *Handler) binary(op equation.Operator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.handleBinaryOp(w, r, op)
	}
}

func (h *Handler) handleBinaryOp(w http.ResponseWriter, r *http.Request, op equation.Operator) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	opName := op.String()

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req CalcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if math.IsNaN(req.A) || math.IsInf(req.A, 0) || math.IsNaN(req.B) || math.IsInf(req.B, 0) {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid numeric input", fmt.Errorf("a=%g b=%g", req.A, req.B), http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.Float64("calculator.operand.a", req.A),
		attribute.Float64("calculator.operand.b", req.B),
	)

	start := time.Now()
	e := equation.New()
	e.EnterNumber(strconv.FormatFloat(req.A, 'f', -1, 64))
	e.AppendOperator(op)
	e.EnterNumber(strconv.FormatFloat(req.B, 'f', -1, 64))
	s := e.Evaluate()
	elapsed := elapsedMs(start)

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	opsHistogram.Record(ctx, elapsed, attrs)
	recordEvaluation(ctx, opName, s)

	if s.Failed() {
		msg := "result out of range"
		if s.LastResult() == equation.Undefined {
			msg = "division by zero"
		}
		err := fmt.Errorf("%s evaluated to %s", s.LastExpression(), s.LastResult())
		observability.RecordError(ctx, span, logger, errorCounter, opName, msg, err, http.StatusBadRequest, w)
		return
	}

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", s.LastResult()),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.String("calculator.result", s.LastResult()))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.Float64("a", req.A),
		zap.Float64("b", req.B),
		zap.String("expression", s.LastExpression()),
		zap.String("result", s.LastResult()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, CalcResponse{
		Operation:  opName,
		A:          req.A,
		B:          req.B,
		Expression: s.LastExpression(),
		Result:     s.LastResult(),
	})
}

// ---------------------------------------------------------------------------
// Handler: key replay, one child span per key
// ---------------------------------------------------------------------------

// decodeKeys reads a KeysRequest body and parses its key sequence. Bodies
// over maxBodyBytes are refused before they are buffered.
func decodeKeys(w http.ResponseWriter, r *http.Request) ([]equation.Key, string, error) {
	var req KeysRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "too many keys", err
		}
		return nil, "invalid request body", err
	}

	keys, err := equation.ParseKeys(req.Keys)
	if err != nil {
		return nil, "invalid keys", err
	}
	if len(keys) == 0 {
		return nil, "no keys provided", errors.New("keys is empty")
	}
	if len(keys) > maxKeys {
		return nil, "too many keys", fmt.Errorf("%d keys exceeds the limit of %d", len(keys), maxKeys)
	}
	return keys, "", nil
}

// Evaluate handles POST /calculator/evaluate. It presses a key sequence on a
// fresh calculator and returns the display after every key along with the
// final state. Each key gets its own child span.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.evaluate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	keys, msg, err := decodeKeys(w, r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", msg, err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(attribute.Int("calculator.keys_count", len(keys)))

	start := time.Now()
	e := equation.New()
	steps := make([]KeyStep, 0, len(keys))

	for i, k := range keys {
		_, keySpan := tracer.Start(ctx, fmt.Sprintf("calculator.key.%d.%s", i, k.Kind),
			trace.WithAttributes(
				attribute.Int("calculator.key.index", i),
				attribute.String("calculator.key", k.String()),
				attribute.String("calculator.display.before", e.State().Display()),
			),
		)

		s := e.Press(k)
		if k.Kind == equation.KeyEvaluate {
			recordEvaluation(ctx, "evaluate", s)
		}

		keySpan.SetAttributes(attribute.String("calculator.display.after", s.Display()))
		keySpan.End()

		steps = append(steps, KeyStep{Key: k.String(), Display: s.Display()})
	}

	final := e.State()
	elapsed := elapsedMs(start)

	recordKeys(ctx, keys)
	opsHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "evaluate")))

	span.AddEvent("evaluate.complete", trace.WithAttributes(
		attribute.String("display", final.Display()),
		attribute.String("result", final.LastResult()),
		attribute.Int("total_keys", len(keys)),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("key sequence evaluated",
		zap.Int("keys", len(keys)),
		zap.String("display", final.Display()),
		zap.String("result", final.LastResult()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Steps: steps,
		State: final.Snapshot(),
	})
}

// ---------------------------------------------------------------------------
// Handlers: sessions
// ---------------------------------------------------------------------------

func sessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		SessionID: s.ID,
		State:     s.State().Snapshot(),
		Stats:     s.Stats(),
	}
}

// lookup resolves the {id} URL parameter, writing a 404 when it is unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, span trace.Span, opName string) (*Session, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("calculator.session.id", id))

	s, err := h.store.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, observability.LoggerWithTrace(ctx), errorCounter, opName, err.Error(), err, http.StatusNotFound, w)
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /calculator/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.session.create")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	s, err := h.store.Create()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrTooManySessions) {
			status = http.StatusServiceUnavailable
		}
		observability.RecordError(ctx, span, logger, errorCounter, "session.create", err.Error(), err, status, w)
		return
	}

	span.SetAttributes(attribute.String("calculator.session.id", s.ID))
	span.SetStatus(codes.Ok, "")

	logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, sessionResponse(s))
}

// GetSession handles GET /calculator/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.session.get")
	defer span.End()

	s, ok := h.lookup(w, r.WithContext(ctx), span, "session.get")
	if !ok {
		return
	}

	handlers.WriteJSON(w, http.StatusOK, sessionResponse(s))
}

// DeleteSession handles DELETE /calculator/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.session.delete")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("calculator.session.id", id))

	if err := h.store.Delete(id); err != nil {
		observability.RecordError(ctx, span, observability.LoggerWithTrace(ctx), errorCounter, "session.delete", err.Error(), err, http.StatusNotFound, w)
		return
	}

	observability.LoggerWithTrace(ctx).Info("session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /calculator/sessions/{id}/keys.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "calculator.session.keys")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	s, ok := h.lookup(w, r.WithContext(ctx), span, "session.keys")
	if !ok {
		return
	}

	keys, msg, err := decodeKeys(w, r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "session.keys", msg, err, http.StatusBadRequest, w)
		return
	}

	start := time.Now()
	state := s.Press(keys)
	elapsed := elapsedMs(start)

	recordKeys(ctx, keys)
	opsHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "session.keys")))
	if keys[len(keys)-1].Kind == equation.KeyEvaluate {
		recordEvaluation(ctx, "session.keys", state)
	}

	span.SetAttributes(
		attribute.Int("calculator.keys_count", len(keys)),
		attribute.String("calculator.display", state.Display()),
	)
	span.SetStatus(codes.Ok, "")

	logger.Debug("session keys applied",
		zap.String("session_id", s.ID),
		zap.Int("keys", len(keys)),
		zap.String("display", state.Display()),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, SessionResponse{
		SessionID: s.ID,
		State:     state.Snapshot(),
		Stats:     s.Stats(),
	})
}
