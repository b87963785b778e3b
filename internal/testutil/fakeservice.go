// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/service"
	"taskdesk/internal/taskerr"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It enforces the same business rules as the real API and answers with the
// same error codes.
type FakeService struct {
	mu    sync.Mutex
	tasks []service.Task // insertion order
	calls map[string]int

	// Now is the clock used for timestamps and due date checks.
	Now func() time.Time

	// Error injection for testing
	ListErr       error
	CreateErr     error
	GetErr        error
	UpdateErr     error
	DeleteErr     error
	SetDoneErr    error
	SetPendingErr error

	// ListHook, when set, runs before List reads any data. A non-nil
	// return fails the call. Tests use it to block or reorder responses.
	ListHook func(ctx context.Context, opts service.ListOptions) error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		calls: make(map[string]int),
		Now:   time.Now,
	}
}

// AddTask seeds a task directly, bypassing validation.
// An empty ID is replaced with a fresh one; the stored task is returned.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = service.StatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.Now().UTC()
		t.UpdatedAt = t.CreatedAt
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Task returns the stored task with the given ID.
func (f *FakeService) Task(id string) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, false
	}
	return f.tasks[i], true
}

// Len returns the number of stored tasks.
func (f *FakeService) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Calls returns how many times the named operation was invoked.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context, opts service.ListOptions) (service.Page, error) {
	f.count("list")
	if f.ListHook != nil {
		if err := f.ListHook(ctx, opts); err != nil {
			return service.Page{}, err
		}
	}
	if f.ListErr != nil {
		return service.Page{}, f.ListErr
	}
	opts = opts.WithDefaults()

	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []service.Task
	for _, t := range f.tasks {
		if matches(t, opts.Filters) {
			matched = append(matched, t)
		}
	}

	total := len(matched)
	totalPages := (total + opts.Limit - 1) / opts.Limit
	start := (opts.Page - 1) * opts.Limit
	data := []service.Task{}
	if start < total {
		end := start + opts.Limit
		if end > total {
			end = total
		}
		data = append(data, matched[start:end]...)
	}

	return service.Page{
		Data:       data,
		Status:     200,
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.count("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	if err := f.checkInput(in, true); err != nil {
		return service.Task{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.Now().UTC()
	t := service.Task{
		ID:        uuid.NewString(),
		Status:    service.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}.Apply(in)
	f.tasks = append(f.tasks, t)
	return t, nil
}

// Get implements service.Service.
func (f *FakeService) Get(ctx context.Context, id string) (service.Task, error) {
	f.count("get")
	if f.GetErr != nil {
		return service.Task{}, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, apiError(404, taskerr.CodeTaskNotFound)
	}
	return f.tasks[i], nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	f.count("update")
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	if err := f.checkInput(in, false); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, apiError(404, taskerr.CodeTaskNotFound)
	}
	t := f.tasks[i].Apply(in)
	t.UpdatedAt = f.Now().UTC()
	f.tasks[i] = t
	return t, nil
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.count("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return apiError(404, taskerr.CodeTaskNotFound)
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// SetDone implements service.Service. Repeated transitions succeed.
func (f *FakeService) SetDone(ctx context.Context, id string) (service.Task, error) {
	f.count("set_done")
	if f.SetDoneErr != nil {
		return service.Task{}, f.SetDoneErr
	}
	return f.setStatus(id, service.StatusDone)
}

// SetPending implements service.Service. Repeated transitions succeed.
func (f *FakeService) SetPending(ctx context.Context, id string) (service.Task, error) {
	f.count("set_pending")
	if f.SetPendingErr != nil {
		return service.Task{}, f.SetPendingErr
	}
	return f.setStatus(id, service.StatusPending)
}

func (f *FakeService) setStatus(id string, s service.Status) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, apiError(404, taskerr.CodeTaskNotFound)
	}
	f.tasks[i].Status = s
	f.tasks[i].UpdatedAt = f.Now().UTC()
	return f.tasks[i], nil
}

// checkInput applies the API's payload rules.
func (f *FakeService) checkInput(in service.TaskInput, creating bool) error {
	if creating && strings.TrimSpace(in.Title) == "" {
		return apiError(400, taskerr.CodeTitleIsRequired)
	}
	if creating && in.Priority == "" {
		return apiError(400, taskerr.CodePriorityIsRequired)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return apiError(400, taskerr.CodeInvalidPriority)
	}
	if in.Status != "" && !in.Status.Valid() {
		return apiError(400, taskerr.CodeInvalidStatus)
	}
	if creating {
		if in.DueDate == nil || in.DueDate.IsZero() {
			return apiError(400, taskerr.CodeDueDateRequired)
		}
		if !in.DueDate.After(f.Now()) {
			return apiError(400, taskerr.CodeDueDateMustBeGreaterThanNow)
		}
	}
	return nil
}

func (f *FakeService) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeService) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func matches(t service.Task, flt service.Filters) bool {
	if flt.Priority != "" && t.Priority != flt.Priority {
		return false
	}
	if flt.Status != "" && t.Status != flt.Status {
		return false
	}
	if flt.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(flt.Title)) {
		return false
	}
	if flt.DueDate != "" && !strings.HasPrefix(t.DueDate.UTC().Format(time.RFC3339), flt.DueDate) {
		return false
	}
	return true
}

func apiError(status int, code taskerr.Code) *taskerr.ServiceError {
	return taskerr.NewServiceError(status, code.String())
}
