package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	appai "github.com/bryanwahyu/saringan/internal/application/ai"
	appproducer "github.com/bryanwahyu/saringan/internal/application/producer"
	aidomain "github.com/bryanwahyu/saringan/internal/domain/ai"
	"github.com/bryanwahyu/saringan/internal/domain/joberrors"
	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/domain/reports"
	"github.com/bryanwahyu/saringan/internal/middleware"
)

var (
	errNotFound    = errors.New("not found")
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("not configured")
)

// Deps carries everything the API surface touches. Index, Failures and
// AI are optional; their routes answer 503 when nil.
type Deps struct {
	Queue      jobs.Queue
	Producer   *appproducer.Service
	Index      reports.IndexRepository
	Failures   joberrors.Repository
	AI         *appai.Service
	Checkers   map[string]middleware.HealthChecker
	QueueStats middleware.QueueStatsFunc
	Log        *logrus.Entry
}

type Router struct {
	deps Deps
}

func NewRouter(deps Deps) http.Handler {
	r := &Router{deps: deps}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(deps.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler(deps.QueueStats))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/submit", r.wrap(r.handleSubmit))
		rt.Get("/jobs", r.wrap(r.handleJobs))
		rt.Get("/jobs/{id}", r.wrap(r.handleJob))
		rt.Get("/jobs/{id}/report", r.wrap(r.handleReport))
		rt.Get("/jobs/{id}/errors", r.wrap(r.handleJobErrors))
		rt.Get("/reports", r.wrap(r.handleReports))
		rt.Get("/reports/latest", r.wrap(r.handleLatest))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/ai/analyze", r.wrap(r.handleAIAnalyze))
		rt.Get("/ai/analyze", r.wrap(r.handleAIAnalyzeList))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, errNotFound), errors.Is(err, sql.ErrNoRows):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, errBadRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, errUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, aidomain.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			r.deps.Log.WithError(err).Errorf("%s %s failed", req.Method, req.URL.Path)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/submit
// Body: {"path": "/watched/dir/sample.exe"}
// Hashes the file, copies it into the shared intake and queues it.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := middleware.ValidateSubmitPath(body.Path); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	entry, queued, err := r.deps.Producer.Add(req.Context(), body.Path)
	if err != nil {
		return err
	}
	if entry.JobID == "" {
		return fmt.Errorf("%w: not a readable regular file", errBadRequest)
	}
	if queued {
		middleware.IncrementSubmits()
	}

	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	return writeJSON(w, status, map[string]any{
		"job_id":       entry.JobID,
		"content_hash": entry.ContentHash,
		"status":       entry.Status,
		"queued":       queued,
	})
}

// GET /v1/jobs?status=pending
func (r *Router) handleJobs(w http.ResponseWriter, req *http.Request) error {
	entries, err := r.deps.Queue.Load(req.Context())
	if err != nil {
		return err
	}

	if want := req.URL.Query().Get("status"); want != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if string(e.Status) == want {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": len(entries),
	})
}

// GET /v1/jobs/{id}, where id is the short job id or the full sha256
func (r *Router) handleJob(w http.ResponseWriter, req *http.Request) error {
	entry, err := r.findEntry(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, entry)
}

// GET /v1/jobs/{id}/report?format=json|md
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	entry, err := r.findEntry(req)
	if err != nil {
		return err
	}

	path := entry.ReportPath
	contentType := "application/json"
	if req.URL.Query().Get("format") == "md" {
		path = entry.ReportMDPath
		contentType = "text/markdown"
	}
	if path == "" {
		return fmt.Errorf("%w: report not generated yet", errNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: report file missing", errNotFound)
	}

	w.Header().Set("Content-Type", contentType)
	_, err = w.Write(data)
	return err
}

// GET /v1/jobs/{id}/errors
func (r *Router) handleJobErrors(w http.ResponseWriter, req *http.Request) error {
	if r.deps.Failures == nil {
		return fmt.Errorf("error index %w", errUnavailable)
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateJobID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.deps.Failures.ListByJob(req.Context(), id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports?page=&page_size=&level=&status=&path=&hash=
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	if r.deps.Index == nil {
		return fmt.Errorf("report index %w", errUnavailable)
	}
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	filters := map[string]interface{}{}
	for _, key := range []string{"level", "status", "path", "hash"} {
		if v := q.Get(key); v != "" {
			filters[key] = middleware.SanitizeString(v)
		}
	}

	result, err := r.deps.Index.Paginate(req.Context(),
		middleware.ValidatePage(page), middleware.ValidateLimit(size), filters)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /v1/reports/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	if r.deps.Index == nil {
		return fmt.Errorf("report index %w", errUnavailable)
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.deps.Index.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	if r.deps.Index == nil {
		return fmt.Errorf("report index %w", errUnavailable)
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	total, critical, high, medium, err := r.deps.Index.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"since_days":    days,
		"total_reports": total,
		"critical":      critical,
		"high":          high,
		"medium":        medium,
	})
}

// POST /v1/ai/analyze
// Body: {"job_id": "<id>"}
// Feeds the finished report to the AI analyst and stores the summary.
func (r *Router) handleAIAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.deps.AI == nil {
		return fmt.Errorf("ai analyst %w", errUnavailable)
	}
	var body struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := middleware.ValidateJobID(body.JobID); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	entry, err := r.lookupEntry(req, body.JobID)
	if err != nil {
		return err
	}
	if entry.ReportPath == "" {
		return fmt.Errorf("%w: report not generated yet", errNotFound)
	}

	a, err := r.deps.AI.AnalyzeFile(req.Context(), string(entry.JobID), entry.ReportPath)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/ai/analyze?page=&page_size=
func (r *Router) handleAIAnalyzeList(w http.ResponseWriter, req *http.Request) error {
	if r.deps.AI == nil {
		return fmt.Errorf("ai analyst %w", errUnavailable)
	}
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	list, err := r.deps.AI.History(req.Context(),
		middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func (r *Router) findEntry(req *http.Request) (jobs.Entry, error) {
	return r.lookupEntry(req, chi.URLParam(req, "id"))
}

func (r *Router) lookupEntry(req *http.Request, id string) (jobs.Entry, error) {
	if err := middleware.ValidateJobID(id); err != nil {
		return jobs.Entry{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	entries, err := r.deps.Queue.Load(req.Context())
	if err != nil {
		return jobs.Entry{}, err
	}
	idx, ok := jobs.FindByID(entries, id)
	if !ok {
		return jobs.Entry{}, fmt.Errorf("job %s %w", id, errNotFound)
	}
	return entries[idx], nil
}
