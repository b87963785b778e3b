package commands

import (
	"context"

	"taskdesk/internal/config"
	"taskdesk/internal/service"
	"taskdesk/internal/store"
)

// OutOfRangeError reports a row reference past the end of its list.
type OutOfRangeError struct {
	Ref TaskRef
}

func (e *OutOfRangeError) Error() string {
	return "task number out of range: " + e.Ref.String()
}

// resolveTask maps ref to a task from the store's cached lists. A list the
// store has not loaded yet is fetched first, one page of cfg.PageSize.
func resolveTask(ctx context.Context, cfg *config.Config, st *store.Store, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		if t, ok := st.Lookup(ref.ID); ok {
			return t, nil
		}
		return service.Task{ID: ref.ID}, nil
	}

	var tasks []service.Task
	if ref.Priority == "" {
		if st.Pagination().Page == 0 {
			if err := st.FetchTasks(ctx, service.DefaultPage, cfg.PageSize, service.Filters{}); err != nil {
				return service.Task{}, err
			}
		}
		tasks = st.Tasks()
	} else {
		c, ok := st.ByPriority(ref.Priority)
		if !ok || c.Pagination.Page == 0 {
			if err := st.FetchTasksByPriority(ctx, ref.Priority, service.DefaultPage, cfg.PageSize); err != nil {
				return service.Task{}, err
			}
			c, _ = st.ByPriority(ref.Priority)
		}
		tasks = c.Tasks
	}

	if ref.Row < 1 || ref.Row > len(tasks) {
		return service.Task{}, &OutOfRangeError{Ref: ref}
	}
	return tasks[ref.Row-1], nil
}

// lookupArgs parses args as a task reference and resolves it.
func lookupArgs(ctx context.Context, cfg *config.Config, st *store.Store, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, err
	}
	return resolveTask(ctx, cfg, st, ref)
}
