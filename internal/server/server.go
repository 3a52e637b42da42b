// Package server exposes pricing, implied volatility and chain evaluation
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contactkeval/option-greeks/internal/chain"
	"github.com/contactkeval/option-greeks/internal/logger"
	"github.com/contactkeval/option-greeks/internal/report"
)

// maxChainQuotes bounds a single POST /v1/chain request.
const maxChainQuotes = 10000

// Defaults fill in query parameters a request omits.
type Defaults struct {
	Rate     float64
	Dividend float64
	Workers  int
}

// Server routes HTTP requests to the pricing packages.
type Server struct {
	router   *mux.Router
	metrics  *metrics
	decoder  *schema.Decoder
	defaults Defaults
}

// quoteQuery is the query string of /v1/price and /v1/iv.
type quoteQuery struct {
	ID       string   `schema:"id"`
	Type     string   `schema:"type,required"`
	Spot     float64  `schema:"spot,required"`
	Strike   float64  `schema:"strike,required"`
	Rate     *float64 `schema:"rate"`
	Dividend *float64 `schema:"dividend"`
	Years    float64  `schema:"years,required"`
	Vol      float64  `schema:"vol"`
	Price    float64  `schema:"price"`
}

// New builds a server with its routes and metrics registry.
func New(d Defaults) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		router:   mux.NewRouter(),
		metrics:  newMetrics(),
		decoder:  decoder,
		defaults: d,
	}

	s.router.Use(s.metrics.instrument)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/price", s.price).Methods(http.MethodGet)
	v1.HandleFunc("/iv", s.impliedVol).Methods(http.MethodGet)
	v1.HandleFunc("/chain", s.evaluateChain).Methods(http.MethodPost)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	q, err := s.decodeQuote(r)
	if err == nil && q.Price != 0 {
		err = fmt.Errorf("%w: use /v1/iv to solve from a price", chain.ErrInvalidQuote)
	}
	s.single(w, q, err)
}

func (s *Server) impliedVol(w http.ResponseWriter, r *http.Request) {
	q, err := s.decodeQuote(r)
	if err == nil && q.Vol != 0 {
		err = fmt.Errorf("%w: use /v1/price to price from a vol", chain.ErrInvalidQuote)
	}
	s.single(w, q, err)
}

func (s *Server) single(w http.ResponseWriter, q chain.Quote, err error) {
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := chain.EvaluateOne(q)
	s.metrics.quotes.Inc()

	status := http.StatusOK
	if !res.Solved {
		s.metrics.solveFailures.Inc()
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report.Rows([]chain.Result{res})[0])
}

func (s *Server) evaluateChain(w http.ResponseWriter, r *http.Request) {
	var quotes []chain.Quote
	if err := json.NewDecoder(r.Body).Decode(&quotes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode quotes: %w", err))
		return
	}
	if len(quotes) > maxChainQuotes {
		writeError(w, http.StatusBadRequest, fmt.Errorf("at most %d quotes per request, got %d", maxChainQuotes, len(quotes)))
		return
	}

	results, err := chain.Evaluate(r.Context(), quotes, s.defaults.Workers)
	if errors.Is(err, chain.ErrInvalidQuote) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.quotes.Add(float64(len(results)))
	for _, res := range results {
		if !res.Solved {
			s.metrics.solveFailures.Inc()
		}
	}
	writeJSON(w, http.StatusOK, report.Rows(results))
}

func (s *Server) decodeQuote(r *http.Request) (chain.Quote, error) {
	var qq quoteQuery
	if err := s.decoder.Decode(&qq, r.URL.Query()); err != nil {
		return chain.Quote{}, fmt.Errorf("%w: %v", chain.ErrInvalidQuote, err)
	}

	q := chain.Quote{
		ID:       qq.ID,
		Type:     qq.Type,
		Spot:     qq.Spot,
		Strike:   qq.Strike,
		Rate:     s.defaults.Rate,
		Dividend: s.defaults.Dividend,
		Years:    qq.Years,
		Vol:      qq.Vol,
		Price:    qq.Price,
	}
	if qq.Rate != nil {
		q.Rate = *qq.Rate
	}
	if qq.Dividend != nil {
		q.Dividend = *qq.Dividend
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger.Debugf("request failed (%d): %v", status, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
