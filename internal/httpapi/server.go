// Package httpapi exposes the g2pd service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"g2pd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager satisfies it.
type Service interface {
	ListModels(ctx context.Context) ([]types.Variant, error)
	Convert(ctx context.Context, req types.ConvertRequest) (types.ConvertResponse, error)
	Predict(ctx context.Context, model string, graphemes []string) ([]string, error)
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) { handleModels(svc, w, r) })
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, svc.Status()) })
	r.Post("/convert", func(w http.ResponseWriter, r *http.Request) { handleConvert(svc, w, r) })
	r.Post("/v1/g2p", func(w http.ResponseWriter, r *http.Request) { handlePredict(svc, w, r) })

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func corsOptions() cors.Options {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Log-Level"}
	}
	return cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}

// handleModels godoc
// @Summary      List available variants
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /models [get]
func handleModels(svc Service, w http.ResponseWriter, r *http.Request) {
	models, err := svc.ListModels(r.Context())
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
}

// handleConvert godoc
// @Summary      Convert a manifest
// @Description  Attaches a phoneme prediction to every record of a server-side JSON Lines manifest.
// @Tags         convert
// @Accept       json
// @Produce      json
// @Param        request  body      types.ConvertRequest  true  "conversion request"
// @Success      200      {object}  types.ConvertResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      403      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /convert [post]
func handleConvert(svc Service, w http.ResponseWriter, r *http.Request) {
	var req types.ConvertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Manifest) == "" {
		writeJSONError(w, http.StatusBadRequest, "manifest is required")
		return
	}
	for _, p := range []string{req.Manifest, req.Output} {
		if err := checkAllowedPath(p); err != nil {
			writeJSONError(w, http.StatusForbidden, err.Error())
			return
		}
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "convert", req.Model)

	ctx, cancel := workContext(r)
	defer cancel()
	resp, err := svc.Convert(ctx, req)
	observeConversion(metricModel(resp.Model), resp.Records, err)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("output_busy")
		}
		logEnd(r, lvl, "convert", status, start, err)
		if r.Context().Err() != nil {
			return
		}
		writeJSONError(w, status, err.Error())
		return
	}
	logEnd(r, lvl, "convert", http.StatusOK, start, nil)
	writeJSON(w, http.StatusOK, resp)
}

// handlePredict godoc
// @Summary      Convert grapheme strings
// @Tags         g2p
// @Accept       json
// @Produce      json
// @Param        request  body      types.PredictRequest  true  "graphemes"
// @Success      200      {object}  types.PredictResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /v1/g2p [post]
func handlePredict(svc Service, w http.ResponseWriter, r *http.Request) {
	var req types.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelDebug {
		logStart(r, lvl, "g2p", req.Model)
	}
	ctx, cancel := workContext(r)
	defer cancel()
	out, err := svc.Predict(ctx, req.Model, req.Graphemes)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("shutting_down")
		}
		logEnd(r, lvl, "g2p", status, start, err)
		if r.Context().Err() != nil {
			return
		}
		writeJSONError(w, status, err.Error())
		return
	}
	if lvl >= LevelDebug {
		logEnd(r, lvl, "g2p", http.StatusOK, start, nil)
	}
	writeJSON(w, http.StatusOK, types.PredictResponse{Phonemes: out})
}

// decodeJSON enforces the content type and body limit, writing a 4xx on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// metricModel bounds label cardinality to variants that actually resolved.
func metricModel(served string) string {
	if served == "" {
		return "unresolved"
	}
	return served
}
