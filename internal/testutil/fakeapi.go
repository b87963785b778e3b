package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"taskdesk/internal/service"
	"taskdesk/internal/taskerr"
)

// RecordedRequest is what FakeAPI saw of an incoming request.
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// FakeAPI serves the tasks REST resource over HTTP, backed by a FakeService.
type FakeAPI struct {
	*httptest.Server
	Service *FakeService

	// Token, when set, is required as a bearer token on every request.
	Token string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeAPI starts a FakeAPI. The server is closed through t.Cleanup by
// callers (or Close directly).
func NewFakeAPI(svc *FakeService) *FakeAPI {
	api := &FakeAPI{Service: svc}

	r := chi.NewRouter()
	r.Use(api.record, api.auth)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", api.list)
		r.Post("/", api.create)
		r.Get("/{id}", api.get)
		r.Put("/{id}", api.update)
		r.Delete("/{id}", api.delete)
		r.Put("/{id}/done", api.setDone)
		r.Put("/{id}/pending", api.setPending)
	})

	api.Server = httptest.NewServer(r)
	return api
}

// Requests returns a copy of every request received so far.
func (a *FakeAPI) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

// LastRequest returns the most recent request.
func (a *FakeAPI) LastRequest() RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return RecordedRequest{}
	}
	return a.requests[len(a.requests)-1]
}

func (a *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  map[string]string{},
			Header: r.Header.Clone(),
		}
		for k := range r.URL.Query() {
			rec.Query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil {
			body, _ := readAll(r)
			rec.Body = body
		}
		a.mu.Lock()
		a.requests = append(a.requests, rec)
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Token != "" && r.Header.Get("Authorization") != "Bearer "+a.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "UNAUTHORIZED"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *FakeAPI) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	opts := service.ListOptions{
		Page:  page,
		Limit: limit,
		Filters: service.Filters{
			Priority: service.Priority(q.Get("priority")),
			Status:   service.Status(q.Get("status")),
			Title:    q.Get("title"),
			DueDate:  q.Get("dueDate"),
		},
	}
	res, err := a.Service.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	t, err := a.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: t, Status: http.StatusCreated})
}

func (a *FakeAPI) get(w http.ResponseWriter, r *http.Request) {
	t, err := a.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: t, Status: http.StatusOK})
}

func (a *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	t, err := a.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: t, Status: http.StatusOK})
}

func (a *FakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeAPI) setDone(w http.ResponseWriter, r *http.Request) {
	t, err := a.Service.SetDone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: t, Status: http.StatusOK})
}

func (a *FakeAPI) setPending(w http.ResponseWriter, r *http.Request) {
	t, err := a.Service.SetPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: t, Status: http.StatusOK})
}

type envelope struct {
	Data   service.Task `json:"data"`
	Status int          `json:"status"`
}

func decodeInput(w http.ResponseWriter, r *http.Request) (service.TaskInput, bool) {
	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "INVALID_BODY"})
		return service.TaskInput{}, false
	}
	return in, true
}

func writeError(w http.ResponseWriter, err error) {
	var se *taskerr.ServiceError
	if errors.As(err, &se) {
		status := se.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": se.Raw})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "INTERNAL_ERROR"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readAll reads the request body and rewinds it for the next handler.
func readAll(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, err
}
