// Package server exposes the trainer and the autodiff engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"cgrad/internal/expression"
	"cgrad/internal/neuron"
)

var validate = validator.New()

// Server owns HTTP handlers and shared application state.
//
// Every request builds its own graph; the only shared state is the latest
// training result per gate.
type Server struct {
	mu      sync.RWMutex
	results map[string]*neuron.Result

	trainer *neuron.Trainer
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server that trains with trainer's options unless a request
// overrides them.
func New(trainer *neuron.Trainer, opts ...Option) *Server {
	s := &Server{
		results: make(map[string]*neuron.Result),
		trainer: trainer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes attaches all endpoints to the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/gates", s.handleGates)
	mux.HandleFunc("POST /api/train", s.handleTrain)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/expression", s.handleExpression)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

// result reads the latest run for gate with a shared lock.
func (s *Server) result(gate string) *neuron.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[gate]
}

// setResult swaps the latest run for its gate with an exclusive lock.
func (s *Server) setResult(res *neuron.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.Gate] = res
}

// writeJSON is a helper to consistently send JSON responses.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeOptionalJSON decodes JSON when body is present.
// Empty bodies are treated as "use defaults" rather than errors.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeRequest decodes and validates a request body.
func decodeRequest(r *http.Request, dst any) error {
	if err := decodeOptionalJSON(r, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGates(w http.ResponseWriter, _ *http.Request) {
	var resp GatesResponse
	for _, g := range neuron.Gates() {
		resp.Gates = append(resp.Gates, GateInfo{Gate: g, Trained: s.result(g.Name) != nil})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := decodeRequest(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gate, err := neuron.GateByName(req.Gate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := s.trainer.Options()
	if req.Epochs != nil {
		opts.Epochs = *req.Epochs
	}
	if req.LearningRate != nil {
		opts.LearningRate = *req.LearningRate
	}
	if req.Optimizer != "" {
		opts.Optimizer = req.Optimizer
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	trainer, err := s.trainer.WithOptions(opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := trainer.Train(r.Context(), gate)
	if err != nil {
		// The client went away mid-run; nothing useful to store.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !finite(res.FinalLoss) {
		http.Error(w, fmt.Sprintf("training diverged: final loss %v", res.FinalLoss), http.StatusUnprocessableEntity)
		return
	}
	s.setResult(res)
	writeJSON(w, http.StatusOK, TrainResponse{Result: res})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeRequest(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.result(req.Gate)
	if res == nil {
		http.Error(w, fmt.Sprintf("gate %q has not been trained", req.Gate), http.StatusNotFound)
		return
	}

	out := res.Weights.Predict(*req.X1, *req.X2)
	class := 0
	if out >= 0.5 {
		class = 1
	}
	writeJSON(w, http.StatusOK, PredictResponse{
		Gate:    res.Gate,
		RunID:   res.RunID,
		X1:      *req.X1,
		X2:      *req.X2,
		Output:  out,
		Class:   class,
		Weights: res.Weights,
	})
}

func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	var req ExpressionRequest
	if err := decodeRequest(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := expression.Evaluate(*req.A, *req.B)
	if !finite(res.Value) || !finite(res.GradA) || !finite(res.GradB) {
		http.Error(w, "result is not finite", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
