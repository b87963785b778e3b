package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/service"
	"taskdesk/internal/store"
	"taskdesk/internal/taskerr"
	"taskdesk/internal/testutil"
)

var ctx = context.Background()

func future() *time.Time {
	d := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	return &d
}

func seed(svc *testutil.FakeService, title string, p service.Priority) service.Task {
	return svc.AddTask(service.Task{Title: title, Priority: p, DueDate: *future()})
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestNew_Empty(t *testing.T) {
	st := store.New(testutil.NewFakeService())

	snap := st.Snapshot()
	assert.Empty(t, snap.General.Tasks)
	assert.Empty(t, snap.ByPriority)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
}

func TestFetchTasks_ReplacesWholesale(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "Buy milk", service.PriorityLow)
	b := seed(svc, "Pay rent", service.PriorityHigh)
	st := store.New(svc)

	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))
	assert.Equal(t, []string{a.ID, b.ID}, ids(st.Tasks()))
	assert.Equal(t, service.Pagination{Page: 1, Limit: 10, Total: 2, TotalPages: 1}, st.Pagination())

	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{Priority: service.PriorityHigh}))
	assert.Equal(t, []string{b.ID}, ids(st.Tasks()), "entries from the previous filter must not linger")
	assert.Equal(t, 1, st.Pagination().Total)

	_, cached := st.Lookup(a.ID)
	assert.False(t, cached, "tasks no list refers to are dropped")
}

func TestFetchTasks_FailureKeepsLastSuccess(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "Buy milk", service.PriorityLow)
	st := store.New(svc)

	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))
	before := st.General()

	svc.ListErr = errors.New("connection reset")
	err := st.FetchTasks(ctx, 2, 10, service.Filters{})
	require.Error(t, err)

	assert.False(t, st.Loading())
	assert.Equal(t, taskerr.DefaultMessage, st.Err())
	assert.Equal(t, before, st.General())
	assert.Equal(t, []string{a.ID}, ids(st.Tasks()))
}

func TestAction_LoadingDuringCallAndErrorReset(t *testing.T) {
	svc := testutil.NewFakeService()
	st := store.New(svc)

	svc.GetErr = taskerr.NewServiceError(404, "TASK_NOT_FOUND")
	_, err := st.ShowTask(ctx, "x")
	require.Error(t, err)
	require.Equal(t, "La tarea no fue encontrada.", st.Err())

	var sawLoading, sawErr bool
	svc.ListHook = func(context.Context, service.ListOptions) error {
		sawLoading = st.Loading()
		sawErr = st.Err() != ""
		return nil
	}
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))

	assert.True(t, sawLoading, "loading is set while the request is in flight")
	assert.False(t, sawErr, "error is cleared on entry")
	assert.False(t, st.Loading())
	assert.Empty(t, st.Err())
}

func TestActionError_HidesRawError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateErr = errors.New("dial tcp: connection refused")
	st := store.New(svc)

	_, err := st.CreateTask(ctx, service.TaskInput{Title: "x"})

	var ae *store.ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "createTask", ae.Op)
	assert.Equal(t, taskerr.CodeUnknown, ae.Code)
	assert.Zero(t, ae.Status)
	assert.Equal(t, taskerr.DefaultMessage, ae.Error())
	assert.Nil(t, errors.Unwrap(err))
	assert.NotContains(t, st.Err(), "connection refused")
}

func TestFetchTasksByPriority(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, "low one", service.PriorityLow)
	h1 := seed(svc, "high one", service.PriorityHigh)
	h2 := seed(svc, "high two", service.PriorityHigh)
	st := store.New(svc)

	_, ok := st.ByPriority(service.PriorityHigh)
	require.False(t, ok)

	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityHigh, 1, 10))

	high, ok := st.ByPriority(service.PriorityHigh)
	require.True(t, ok)
	assert.Equal(t, []string{h1.ID, h2.ID}, ids(high.Tasks))
	assert.Equal(t, 2, high.Pagination.Total)
	assert.Empty(t, st.Tasks(), "the general list is untouched")

	_, ok = st.ByPriority(service.PriorityLow)
	assert.False(t, ok)
}

func TestCreateTask_AppendsToGeneralAndPriority(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, "existing", service.PriorityLow)
	st := store.New(svc)
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))
	before := st.General()

	created, err := st.CreateTask(ctx, service.TaskInput{
		Title:    "X",
		Priority: service.PriorityHigh,
		DueDate:  future(),
	})
	require.NoError(t, err)

	general := st.General()
	require.Len(t, general.Tasks, len(before.Tasks)+1)
	assert.Equal(t, created.ID, general.Tasks[len(general.Tasks)-1].ID)
	assert.Equal(t, before.Pagination, general.Pagination, "totals stay server-authoritative")
	assert.True(t, general.Stale)

	high, ok := st.ByPriority(service.PriorityHigh)
	require.True(t, ok, "the priority list is created on demand")
	assert.Equal(t, []string{created.ID}, ids(high.Tasks))
}

func TestCreateTask_ValidationErrorMapped(t *testing.T) {
	st := store.New(testutil.NewFakeService())

	_, err := st.CreateTask(ctx, service.TaskInput{Priority: service.PriorityHigh, DueDate: future()})
	require.Error(t, err)
	assert.Equal(t, "El título es obligatorio.", st.Err())
	assert.Empty(t, st.Tasks())
}

func TestShowTask_DoesNotCache(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "A", service.PriorityLow)
	st := store.New(svc)

	got, err := st.ShowTask(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Empty(t, st.Tasks())
	_, cached := st.Lookup(a.ID)
	assert.False(t, cached)
}

func TestUpdateTask_RoundTrip(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "Draft", service.PriorityMedium)
	st := store.New(svc)
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))
	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityMedium, 1, 10))

	shown, err := st.ShowTask(ctx, a.ID)
	require.NoError(t, err)

	newDue := shown.DueDate.Add(24 * time.Hour)
	edit := service.TaskInput{
		Title:       "Final",
		Description: "ready to ship",
		Priority:    shown.Priority,
		Status:      service.StatusDone,
		DueDate:     &newDue,
	}
	_, err = st.UpdateTask(ctx, shown.ID, edit)
	require.NoError(t, err)

	for _, list := range [][]service.Task{st.Tasks(), mustPriority(t, st, service.PriorityMedium).Tasks} {
		require.Len(t, list, 1)
		got := list[0]
		assert.Equal(t, shown.ID, got.ID)
		assert.Equal(t, "Final", got.Title)
		assert.Equal(t, "ready to ship", got.Description)
		assert.Equal(t, service.PriorityMedium, got.Priority)
		assert.Equal(t, service.StatusDone, got.Status)
		assert.True(t, newDue.Equal(got.DueDate))
	}
}

func TestUpdateTask_UncachedTaskNotInserted(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "A", service.PriorityLow)
	st := store.New(svc)

	_, err := st.UpdateTask(ctx, a.ID, service.TaskInput{Title: "B"})
	require.NoError(t, err)
	assert.Empty(t, st.Tasks())
}

func TestUpdateTask_Reprioritize(t *testing.T) {
	setup := func(opts ...store.Option) (*store.Store, service.Task) {
		svc := testutil.NewFakeService()
		a := seed(svc, "A", service.PriorityLow)
		seed(svc, "B", service.PriorityHigh)
		st := store.New(svc, opts...)
		require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityLow, 1, 10))
		require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityHigh, 1, 10))
		_, err := st.UpdateTask(ctx, a.ID, service.TaskInput{Priority: service.PriorityHigh})
		require.NoError(t, err)
		return st, a
	}

	t.Run("stays in old list by default", func(t *testing.T) {
		st, a := setup()
		low := mustPriority(t, st, service.PriorityLow)
		require.Equal(t, []string{a.ID}, ids(low.Tasks))
		assert.Equal(t, service.PriorityHigh, low.Tasks[0].Priority)
		assert.Len(t, mustPriority(t, st, service.PriorityHigh).Tasks, 1)
	})

	t.Run("moves with migration enabled", func(t *testing.T) {
		st, a := setup(store.WithPriorityMigration(true))
		assert.Empty(t, mustPriority(t, st, service.PriorityLow).Tasks)
		high := mustPriority(t, st, service.PriorityHigh)
		assert.Len(t, high.Tasks, 2)
		assert.Equal(t, a.ID, high.Tasks[1].ID)
	})
}

func TestDeleteTask_RemovesEverywhere(t *testing.T) {
	svc := testutil.NewFakeService()
	target := seed(svc, "target", service.PriorityHigh)
	h2 := seed(svc, "other high", service.PriorityHigh)
	m1 := seed(svc, "other medium", service.PriorityMedium)
	st := store.New(svc)

	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityHigh, 1, 10))
	// The task moves server-side, so a later medium fetch also contains it.
	_, err := svc.Update(ctx, target.ID, service.TaskInput{Priority: service.PriorityMedium})
	require.NoError(t, err)
	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityMedium, 1, 10))
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))

	require.Equal(t, []string{target.ID, h2.ID}, ids(mustPriority(t, st, service.PriorityHigh).Tasks))
	require.Equal(t, []string{target.ID, m1.ID}, ids(mustPriority(t, st, service.PriorityMedium).Tasks))
	require.Equal(t, []string{target.ID, h2.ID, m1.ID}, ids(st.Tasks()))

	require.NoError(t, st.DeleteTask(ctx, target.ID))

	assert.Equal(t, []string{h2.ID}, ids(mustPriority(t, st, service.PriorityHigh).Tasks))
	assert.Equal(t, []string{m1.ID}, ids(mustPriority(t, st, service.PriorityMedium).Tasks))
	assert.Equal(t, []string{h2.ID, m1.ID}, ids(st.Tasks()))
	assert.True(t, st.General().Stale)
	assert.Equal(t, 3, st.Pagination().Total, "totals stay server-authoritative")
}

func TestDeleteTask_FailureLeavesCache(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "A", service.PriorityLow)
	st := store.New(svc)
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))

	require.Error(t, st.DeleteTask(ctx, "nope"))
	assert.Equal(t, "La tarea no fue encontrada.", st.Err())
	assert.Equal(t, []string{a.ID}, ids(st.Tasks()))
}

func TestMarkAsDone_FlipsOnlyStatusEverywhere(t *testing.T) {
	svc := testutil.NewFakeService()
	a := seed(svc, "A", service.PriorityHigh)
	st := store.New(svc)
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))
	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityHigh, 1, 10))

	for i := 0; i < 2; i++ {
		require.NoError(t, st.MarkAsDone(ctx, a.ID), "repeat transitions succeed")
		assert.Empty(t, st.Err())

		for _, got := range []service.Task{st.Tasks()[0], mustPriority(t, st, service.PriorityHigh).Tasks[0]} {
			assert.Equal(t, service.StatusDone, got.Status)
			assert.Equal(t, a.Title, got.Title)
			assert.Equal(t, a.Priority, got.Priority)
			assert.True(t, a.DueDate.Equal(got.DueDate))
		}
	}
	assert.Equal(t, 2, svc.Calls("set_done"))
	assert.Equal(t, 2, svc.Calls("list"), "no re-fetch after a transition")
}

func TestMarkAsPending(t *testing.T) {
	svc := testutil.NewFakeService()
	a := svc.AddTask(service.Task{Title: "A", Priority: service.PriorityLow, Status: service.StatusDone})
	st := store.New(svc)
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))

	require.NoError(t, st.MarkAsPending(ctx, a.ID))
	assert.Equal(t, service.StatusPending, st.Tasks()[0].Status)

	svc.SetPendingErr = taskerr.NewServiceError(400, "INVALID_STATUS")
	require.Error(t, st.MarkAsPending(ctx, a.ID))
	assert.Equal(t, "El estado proporcionado no es válido.", st.Err())
}

func TestFetchTasks_SupersededResponseDiscarded(t *testing.T) {
	svc := testutil.NewFakeService()
	for _, title := range []string{"a", "b", "c", "d"} {
		seed(svc, title, service.PriorityLow)
	}

	release := make(chan struct{})
	svc.ListHook = func(_ context.Context, opts service.ListOptions) error {
		if opts.Page == 1 {
			<-release
		}
		return nil
	}
	st := store.New(svc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, st.FetchTasks(ctx, 1, 2, service.Filters{}))
	}()
	require.Eventually(t, func() bool { return svc.Calls("list") == 1 }, time.Second, time.Millisecond)

	// The later request completes first.
	require.NoError(t, st.FetchTasks(ctx, 2, 2, service.Filters{}))
	assert.True(t, st.Loading(), "the first fetch is still in flight")

	close(release)
	wg.Wait()

	assert.Equal(t, 2, st.Pagination().Page, "the newest request wins regardless of completion order")
	titles := []string{st.Tasks()[0].Title, st.Tasks()[1].Title}
	assert.Equal(t, []string{"c", "d"}, titles)
	assert.False(t, st.Loading())
}

func TestFetchTasks_SupersededFailureIgnored(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, "a", service.PriorityLow)

	release := make(chan struct{})
	svc.ListHook = func(_ context.Context, opts service.ListOptions) error {
		if opts.Page == 1 {
			<-release
			return errors.New("timeout")
		}
		return nil
	}
	st := store.New(svc)

	done := make(chan error, 1)
	go func() { done <- st.FetchTasks(ctx, 1, 10, service.Filters{}) }()
	require.Eventually(t, func() bool { return svc.Calls("list") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, st.FetchTasks(ctx, 2, 10, service.Filters{}))
	close(release)

	assert.NoError(t, <-done)
	assert.Empty(t, st.Err())
}

func TestPriorityFetchesSequenceIndependently(t *testing.T) {
	svc := testutil.NewFakeService()
	h := seed(svc, "h", service.PriorityHigh)
	l := seed(svc, "l", service.PriorityLow)
	st := store.New(svc)

	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityHigh, 1, 10))
	require.NoError(t, st.FetchTasksByPriority(ctx, service.PriorityLow, 1, 10))
	require.NoError(t, st.FetchTasks(ctx, 1, 10, service.Filters{}))

	assert.Equal(t, []string{h.ID}, ids(mustPriority(t, st, service.PriorityHigh).Tasks))
	assert.Equal(t, []string{l.ID}, ids(mustPriority(t, st, service.PriorityLow).Tasks))
	assert.Equal(t, []string{h.ID, l.ID}, ids(st.Tasks()))
}

func mustPriority(t *testing.T, st *store.Store, p service.Priority) service.Collection {
	t.Helper()
	c, ok := st.ByPriority(p)
	require.True(t, ok, "priority list %s missing", p)
	return c
}
