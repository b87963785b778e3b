// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All API calls go through this interface.
// The store and commands never speak HTTP directly.
//
// Failures are returned as *taskerr.ServiceError when the API answered with
// an error envelope; anything else (transport, decoding) is an ordinary error.
type Service interface {
	// List returns one page of tasks matching opts.Filters.
	List(ctx context.Context, opts ListOptions) (Page, error)

	// Create creates a task and returns it with its API-assigned ID.
	Create(ctx context.Context, in TaskInput) (Task, error)

	// Get returns a single task by ID.
	Get(ctx context.Context, id string) (Task, error)

	// Update writes in over the task and returns the API's resulting object.
	Update(ctx context.Context, id string, in TaskInput) (Task, error)

	// Delete deletes a task.
	Delete(ctx context.Context, id string) error

	// SetDone transitions a task to done.
	SetDone(ctx context.Context, id string) (Task, error)

	// SetPending transitions a task back to pending.
	SetPending(ctx context.Context, id string) (Task, error)
}
