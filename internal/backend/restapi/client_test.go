package restapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/service"
	"taskdesk/internal/taskerr"
	"taskdesk/internal/testutil"
)

func newClient(t *testing.T, opts ...restapi.Option) (*restapi.Client, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(testutil.NewFakeService())
	t.Cleanup(api.Close)

	c, err := restapi.New(context.Background(), api.URL, opts...)
	require.NoError(t, err)
	return c, api
}

func due() *time.Time {
	d := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return &d
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := restapi.New(context.Background(), "ftp://example.com")
	assert.Error(t, err)

	_, err = restapi.New(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestList_EncodesPaginationAndFilters(t *testing.T) {
	c, api := newClient(t)

	_, err := c.List(context.Background(), service.ListOptions{
		Page:  2,
		Limit: 5,
		Filters: service.Filters{
			Priority: service.PriorityHigh,
			Status:   service.StatusDone,
			Title:    "milk",
			DueDate:  "2030-01-02",
		},
	})
	require.NoError(t, err)

	req := api.LastRequest()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, map[string]string{
		"page":     "2",
		"limit":    "5",
		"priority": "high",
		"status":   "done",
		"title":    "milk",
		"dueDate":  "2030-01-02",
	}, req.Query)
}

func TestList_DefaultsAndOmitsEmptyFilters(t *testing.T) {
	c, api := newClient(t)

	page, err := c.List(context.Background(), service.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)

	assert.Equal(t, map[string]string{"page": "1", "limit": "10"}, api.LastRequest().Query)
}

func TestList_ReturnsPaginationEnvelope(t *testing.T) {
	c, api := newClient(t)
	for i := 0; i < 12; i++ {
		api.Service.AddTask(service.Task{Title: "t", Priority: service.PriorityLow})
	}

	page, err := c.List(context.Background(), service.ListOptions{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, service.Pagination{Page: 2, Limit: 5, Total: 12, TotalPages: 3}, page.Pagination())
}

func TestCreate_SendsPayloadAndReturnsTask(t *testing.T) {
	c, api := newClient(t)
	d := due()

	task, err := c.Create(context.Background(), service.TaskInput{
		Title:    "Write report",
		Priority: service.PriorityHigh,
		DueDate:  d,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, service.StatusPending, task.Status)
	assert.True(t, d.Equal(task.DueDate))

	req := api.LastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "Write report", body["title"])
	assert.Equal(t, "high", body["priority"])
	assert.NotContains(t, body, "status")
	assert.NotContains(t, body, "_id")
}

func TestCreate_MapsErrorEnvelope(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Create(context.Background(), service.TaskInput{Priority: service.PriorityHigh, DueDate: due()})
	require.Error(t, err)

	var se *taskerr.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, taskerr.CodeTitleIsRequired, se.Code)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "El título es obligatorio.", se.Message)
}

func TestGet_NotFound(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Get(context.Background(), "missing")
	assert.Equal(t, taskerr.CodeTaskNotFound, taskerr.CodeOf(err))
	assert.Equal(t, "La tarea no fue encontrada.", taskerr.Message(err))
}

func TestEmptyID_FailsWithoutRequest(t *testing.T) {
	c, api := newClient(t)

	_, err := c.Get(context.Background(), "  ")
	assert.Equal(t, taskerr.CodeInvalidID, taskerr.CodeOf(err))
	assert.Equal(t, taskerr.CodeInvalidID, taskerr.CodeOf(c.Delete(context.Background(), "")))
	assert.Empty(t, api.Requests())
}

func TestUpdate_ReplacesFields(t *testing.T) {
	c, api := newClient(t)
	seed := api.Service.AddTask(service.Task{Title: "Old", Priority: service.PriorityLow, DueDate: *due()})

	got, err := c.Update(context.Background(), seed.ID, service.TaskInput{Title: "New", Priority: service.PriorityMedium})
	require.NoError(t, err)
	assert.Equal(t, seed.ID, got.ID)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, service.PriorityMedium, got.Priority)

	req := api.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tasks/"+seed.ID, req.Path)
}

func TestDelete_NoContent(t *testing.T) {
	c, api := newClient(t)
	seed := api.Service.AddTask(service.Task{Title: "x", Priority: service.PriorityLow})

	require.NoError(t, c.Delete(context.Background(), seed.ID))
	assert.Equal(t, 0, api.Service.Len())
	assert.Equal(t, http.MethodDelete, api.LastRequest().Method)
}

func TestDelete_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"_id":"a"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := restapi.New(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NoError(t, c.Delete(context.Background(), "a"))
}

func TestSetDoneAndPending(t *testing.T) {
	c, api := newClient(t)
	seed := api.Service.AddTask(service.Task{Title: "x", Priority: service.PriorityLow})

	done, err := c.SetDone(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.Equal(t, service.StatusDone, done.Status)
	assert.Equal(t, "/tasks/"+seed.ID+"/done", api.LastRequest().Path)

	pending, err := c.SetPending(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.Equal(t, service.StatusPending, pending.Status)
	assert.Equal(t, "/tasks/"+seed.ID+"/pending", api.LastRequest().Path)
}

func TestNonJSONErrorBody_FallsBackToDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	c, err := restapi.New(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "x")
	var se *taskerr.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, taskerr.CodeUnknown, se.Code)
	assert.Equal(t, taskerr.DefaultMessage, taskerr.Message(err))
}

func TestMalformedSuccessBody_IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	t.Cleanup(srv.Close)

	c, err := restapi.New(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = c.List(context.Background(), service.ListOptions{})
	require.Error(t, err)
	assert.Equal(t, taskerr.DefaultMessage, taskerr.Message(err))
}

func TestTransportError_MapsToDefault(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := restapi.New(context.Background(), url)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, taskerr.CodeUnknown, taskerr.CodeOf(err))
	assert.Equal(t, taskerr.DefaultMessage, taskerr.Message(err))
}

func TestHeaders(t *testing.T) {
	c, api := newClient(t, restapi.WithUserAgent("taskdesk-test"))

	_, err := c.List(context.Background(), service.ListOptions{})
	require.NoError(t, err)
	_, err = c.List(context.Background(), service.ListOptions{})
	require.NoError(t, err)

	reqs := api.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "taskdesk-test", reqs[0].Header.Get("User-Agent"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	first := reqs[0].Header.Get(restapi.RequestIDHeader)
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, reqs[1].Header.Get(restapi.RequestIDHeader))
}

func TestBearerToken(t *testing.T) {
	api := testutil.NewFakeAPI(testutil.NewFakeService())
	api.Token = "secret"
	t.Cleanup(api.Close)

	anon, err := restapi.New(context.Background(), api.URL)
	require.NoError(t, err)
	_, err = anon.List(context.Background(), service.ListOptions{})
	var se *taskerr.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)

	authed, err := restapi.New(context.Background(), api.URL,
		restapi.WithToken(&oauth2.Token{AccessToken: "secret", TokenType: "Bearer"}))
	require.NoError(t, err)
	_, err = authed.List(context.Background(), service.ListOptions{})
	assert.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := restapi.NewMetrics(reg)
	c, _ := newClient(t, restapi.WithMetrics(m))

	_, _ = c.List(context.Background(), service.ListOptions{})
	_, _ = c.Get(context.Background(), "missing")
	_, _ = c.Get(context.Background(), "missing")

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Requests.WithLabelValues("list", "200")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Requests.WithLabelValues("get", "404")))
	assert.Equal(t, 2, promtest.CollectAndCount(m.Requests))
}

func TestLogSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := newClient(t, restapi.WithMetrics(restapi.NewMetrics(reg)))
	_, _ = c.List(context.Background(), service.ListOptions{})

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, restapi.LogSummary(l, reg))

	out := buf.String()
	assert.Contains(t, out, "api requests")
	assert.Contains(t, out, "op=list")
	assert.Contains(t, out, "code=200")
	assert.Contains(t, out, "count=1")
}
