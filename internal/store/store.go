// Package store holds the client-side task cache for one UI session.
//
// A Store keeps each fetched task once, keyed by ID, and describes the
// general list and every per-priority list as ordered ID sequences over that
// map. Mutations patch the map, so every list that shows a task sees the
// change at the same time.
//
// Every action sets Loading on entry and clears it on exit, resets Err on
// entry and sets it to a localized message on failure. Raw service errors are
// never returned; callers get an *ActionError carrying only the mapped text.
//
// Actions may be called from several goroutines without corrupting state,
// but Err is last-writer-wins: callers that need one visible action at a
// time must not start another while Loading reports true.
package store

import (
	"context"
	"log/slog"
	"sync"

	"taskdesk/internal/service"
	"taskdesk/internal/taskerr"
)

// ActionError is the failure of a store action as users see it.
type ActionError struct {
	Op      string
	Code    taskerr.Code
	Status  int // HTTP status of the API response, 0 if none
	Message string
}

func (e *ActionError) Error() string { return e.Message }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithPriorityMigration controls what UpdateTask does when the API returns a
// task with a different priority. When false (the default) the task stays in
// the priority list it was fetched into until that list is fetched again.
// When true it is moved to the list of its new priority, if that list exists.
func WithPriorityMigration(enabled bool) Option {
	return func(s *Store) { s.migrate = enabled }
}

// State is a point-in-time copy of the store.
type State struct {
	General    service.Collection
	ByPriority map[service.Priority]service.Collection
	Loading    bool
	Error      string
}

// Store is the authoritative in-memory cache of fetched tasks.
type Store struct {
	svc     service.Service
	log     *slog.Logger
	migrate bool

	mu       sync.Mutex
	byID     map[string]service.Task
	general  *view
	priority map[service.Priority]*view
	inflight int
	err      string
	seq      uint64
}

// view is one cached list: IDs in server order plus its pagination.
type view struct {
	ids        []string
	pagination service.Pagination
	stale      bool

	// latest is the token of the newest fetch issued for this view.
	latest uint64
}

// New creates an empty store over svc.
func New(svc service.Service, opts ...Option) *Store {
	s := &Store{
		svc:      svc,
		log:      slog.Default(),
		byID:     make(map[string]service.Task),
		general:  &view{},
		priority: make(map[service.Priority]*view),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTasks replaces the general list with one page from the API.
// The previous contents are dropped, not merged.
func (s *Store) FetchTasks(ctx context.Context, page, limit int, filters service.Filters) error {
	const op = "fetchTasks"
	s.begin()
	defer s.end()

	tok := s.issue(func() *view { return s.general })
	res, err := s.svc.List(ctx, service.ListOptions{Page: page, Limit: limit, Filters: filters})
	return s.settle(op, tok, func() *view { return s.general }, res, err)
}

// FetchTasksByPriority replaces the list for p with one page of tasks of
// that priority, creating the list on first use.
func (s *Store) FetchTasksByPriority(ctx context.Context, p service.Priority, page, limit int) error {
	const op = "fetchTasksByPriority"
	s.begin()
	defer s.end()

	get := func() *view { return s.priorityView(p) }
	tok := s.issue(get)
	res, err := s.svc.List(ctx, service.ListOptions{
		Page:    page,
		Limit:   limit,
		Filters: service.Filters{Priority: p},
	})
	return s.settle(op, tok, get, res, err)
}

// CreateTask creates a task and appends it to the general list and to the
// list of its priority. Pagination totals are left as the server sent them.
func (s *Store) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	const op = "createTask"
	s.begin()
	defer s.end()

	t, err := s.svc.Create(ctx, in)
	if err != nil {
		return service.Task{}, s.fail(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.ID] = t
	s.general.add(t.ID)
	s.priorityView(t.Priority).add(t.ID)
	return t, nil
}

// ShowTask fetches a single task. Nothing is cached.
func (s *Store) ShowTask(ctx context.Context, id string) (service.Task, error) {
	const op = "showTask"
	s.begin()
	defer s.end()

	t, err := s.svc.Get(ctx, id)
	if err != nil {
		return service.Task{}, s.fail(op, err)
	}
	return t, nil
}

// UpdateTask sends in to the API and replaces the cached task wholesale
// with the object it returns.
func (s *Store) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	const op = "updateTask"
	s.begin()
	defer s.end()

	t, err := s.svc.Update(ctx, id, in)
	if err != nil {
		return service.Task{}, s.fail(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, cached := s.byID[id]
	if !cached {
		return t, nil
	}
	s.byID[id] = t
	if s.migrate && old.Priority != t.Priority {
		for p, v := range s.priority {
			if p != t.Priority {
				v.remove(id)
			}
		}
		if v, ok := s.priority[t.Priority]; ok {
			v.add(id)
		}
	}
	return t, nil
}

// DeleteTask deletes a task and removes it from every cached list.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	const op = "deleteTask"
	s.begin()
	defer s.end()

	if err := s.svc.Delete(ctx, id); err != nil {
		return s.fail(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.general.remove(id)
	for _, v := range s.priority {
		v.remove(id)
	}
	delete(s.byID, id)
	return nil
}

// MarkAsDone transitions a task to done and patches its status locally.
func (s *Store) MarkAsDone(ctx context.Context, id string) error {
	const op = "markAsDone"
	s.begin()
	defer s.end()

	if _, err := s.svc.SetDone(ctx, id); err != nil {
		return s.fail(op, err)
	}
	s.updateTaskStatus(id, service.StatusDone)
	return nil
}

// MarkAsPending transitions a task to pending and patches its status locally.
func (s *Store) MarkAsPending(ctx context.Context, id string) error {
	const op = "markAsPending"
	s.begin()
	defer s.end()

	if _, err := s.svc.SetPending(ctx, id); err != nil {
		return s.fail(op, err)
	}
	s.updateTaskStatus(id, service.StatusPending)
	return nil
}

// updateTaskStatus sets the status of the cached task id, leaving every
// other field and every list order untouched.
func (s *Store) updateTaskStatus(id string, status service.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return
	}
	t.Status = status
	s.byID[id] = t
}

// Tasks returns the general list.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.general)
}

// Pagination returns the pagination of the general list.
func (s *Store) Pagination() service.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.general.pagination
}

// General returns the general list with its pagination.
func (s *Store) General() service.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection(s.general)
}

// ByPriority returns the list for p, if it has been created.
func (s *Store) ByPriority(p service.Priority) (service.Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.priority[p]
	if !ok {
		return service.Collection{}, false
	}
	return s.collection(v), true
}

// Lookup returns the cached task with the given ID.
func (s *Store) Lookup(id string) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	return t, ok
}

// Loading reports whether any action is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err returns the message of the last failed action, or "" if the most
// recent action has not failed.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot copies the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		General:    s.collection(s.general),
		ByPriority: make(map[service.Priority]service.Collection, len(s.priority)),
		Loading:    s.inflight > 0,
		Error:      s.err,
	}
	for p, v := range s.priority {
		st.ByPriority[p] = s.collection(v)
	}
	return st
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.err = ""
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) fail(op string, err error) error {
	msg := taskerr.Message(err)
	s.log.Debug("store action failed", "op", op, "error", err)

	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()

	return &ActionError{Op: op, Code: taskerr.CodeOf(err), Status: taskerr.StatusOf(err), Message: msg}
}

// issue hands out a fetch token for the view returned by get.
func (s *Store) issue(get func() *view) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	get().latest = s.seq
	return s.seq
}

// settle applies a fetch result unless a newer fetch for the same view was
// issued meanwhile, in which case the result is dropped.
func (s *Store) settle(op string, tok uint64, get func() *view, res service.Page, err error) error {
	s.mu.Lock()
	superseded := get().latest != tok
	s.mu.Unlock()

	if superseded {
		s.log.Debug("discarding superseded fetch", "op", op, "token", tok, "error", err)
		return nil
	}
	if err != nil {
		return s.fail(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := get()
	// A newer fetch may have been issued while the lock was released.
	if v.latest != tok {
		return nil
	}
	v.ids = v.ids[:0]
	for _, t := range res.Data {
		s.byID[t.ID] = t
		v.ids = append(v.ids, t.ID)
	}
	v.pagination = res.Pagination()
	v.stale = false
	s.prune()
	return nil
}

// priorityView returns the view for p, creating it. Callers hold mu.
func (s *Store) priorityView(p service.Priority) *view {
	v, ok := s.priority[p]
	if !ok {
		v = &view{}
		s.priority[p] = v
	}
	return v
}

// prune drops tasks no view refers to. Callers hold mu.
func (s *Store) prune() {
	live := make(map[string]struct{}, len(s.byID))
	for _, id := range s.general.ids {
		live[id] = struct{}{}
	}
	for _, v := range s.priority {
		for _, id := range v.ids {
			live[id] = struct{}{}
		}
	}
	for id := range s.byID {
		if _, ok := live[id]; !ok {
			delete(s.byID, id)
		}
	}
}

// resolve materializes a view. Callers hold mu.
func (s *Store) resolve(v *view) []service.Task {
	out := make([]service.Task, 0, len(v.ids))
	for _, id := range v.ids {
		if t, ok := s.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) collection(v *view) service.Collection {
	return service.Collection{
		Tasks:      s.resolve(v),
		Pagination: v.pagination,
		Stale:      v.stale,
	}
}

func (v *view) add(id string) {
	for _, have := range v.ids {
		if have == id {
			return
		}
	}
	v.ids = append(v.ids, id)
	v.stale = true
}

func (v *view) remove(id string) {
	for i, have := range v.ids {
		if have == id {
			v.ids = append(v.ids[:i], v.ids[i+1:]...)
			v.stale = true
			return
		}
	}
}
