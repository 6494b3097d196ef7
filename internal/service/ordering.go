package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/column"
	"github.com/corkboard/corkboard/internal/domain/task"
	"github.com/corkboard/corkboard/internal/port/database"
)

// OrderingEngine owns the positional `order` values of columns and tasks.
// No other component writes those fields.
//
// Sibling orders are kept dense: a gapless 0-based permutation within the
// parent. Every move renumbers only the affected range, inside one atomic
// store operation. Concurrent moves touching the same project serialize on
// a per-project lock so two movers can never compute positions from stale
// reads; moves on disjoint projects proceed in parallel.
type OrderingEngine struct {
	store database.Store
	locks *projectLocks
}

// NewOrderingEngine creates the ordering engine over the given store.
func NewOrderingEngine(store database.Store) *OrderingEngine {
	return &OrderingEngine{
		store: store,
		locks: newProjectLocks(),
	}
}

// AppendColumn creates a column at the end of the project's column list.
func (e *OrderingEngine) AppendColumn(ctx context.Context, projectID, name string) (*column.Column, error) {
	release, err := e.locks.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := e.store.ColumnOrders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("append column: %w", err)
	}
	if err := verifyDense(orders); err != nil {
		return nil, fmt.Errorf("append column: project %s columns: %w", projectID, err)
	}

	c, err := e.store.CreateColumnAt(ctx, projectID, name, len(orders))
	if err != nil {
		return nil, fmt.Errorf("append column: %w", err)
	}
	return c, nil
}

// InsertColumn creates a column at targetOrder, shifting existing columns at
// or after that index up by one in the same atomic unit.
func (e *OrderingEngine) InsertColumn(ctx context.Context, projectID, name string, targetOrder int) (*column.Column, error) {
	release, err := e.locks.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := e.store.ColumnOrders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	if err := verifyDense(orders); err != nil {
		return nil, fmt.Errorf("insert column: project %s columns: %w", projectID, err)
	}
	if targetOrder < 0 || targetOrder > len(orders) {
		return nil, fmt.Errorf("insert column at %d of %d: %w", targetOrder, len(orders), domain.ErrInvalidPosition)
	}

	c, err := e.store.CreateColumnAt(ctx, projectID, name, targetOrder)
	if err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	return c, nil
}

// ReorderColumn moves a column to newOrder within its project. The returned
// bool is false when newOrder equals the current order: a no-op that writes
// nothing, records nothing and broadcasts nothing.
func (e *OrderingEngine) ReorderColumn(ctx context.Context, columnID string, newOrder int) (*column.Column, bool, error) {
	c, err := e.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, false, fmt.Errorf("reorder column: %w", err)
	}

	release, err := e.locks.acquire(ctx, c.ProjectID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	orders, err := e.store.ColumnOrders(ctx, c.ProjectID)
	if err != nil {
		return nil, false, fmt.Errorf("reorder column: %w", err)
	}
	if err := verifyDense(orders); err != nil {
		return nil, false, fmt.Errorf("reorder column: project %s columns: %w", c.ProjectID, err)
	}
	if newOrder < 0 || newOrder >= len(orders) {
		return nil, false, fmt.Errorf("reorder column to %d of %d: %w", newOrder, len(orders), domain.ErrInvalidPosition)
	}
	if newOrder == c.Order {
		return c, false, nil
	}

	if err := e.store.MoveColumn(ctx, columnID, c.Order, newOrder); err != nil {
		return nil, false, fmt.Errorf("reorder column: %w", err)
	}
	c.Order = newOrder
	return c, true, nil
}

// DeleteColumn removes a column and compacts the orders of the survivors.
// Tasks in the column are removed with it.
func (e *OrderingEngine) DeleteColumn(ctx context.Context, columnID string) (*column.Column, error) {
	c, err := e.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("delete column: %w", err)
	}

	release, err := e.locks.acquire(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.store.RemoveColumn(ctx, columnID); err != nil {
		return nil, fmt.Errorf("delete column: %w", err)
	}
	return c, nil
}

// AppendTask creates a task at the end of the given column.
func (e *OrderingEngine) AppendTask(ctx context.Context, columnID string, req task.CreateRequest) (*task.Task, error) {
	c, err := e.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("append task: %w", err)
	}

	release, err := e.locks.acquire(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := e.store.TaskOrders(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("append task: %w", err)
	}
	if err := verifyDense(orders); err != nil {
		return nil, fmt.Errorf("append task: column %s tasks: %w", columnID, err)
	}

	t, err := e.store.CreateTaskAt(ctx, c.ProjectID, columnID, req, len(orders))
	if err != nil {
		return nil, fmt.Errorf("append task: %w", err)
	}
	return t, nil
}

// MoveTask relocates a task to targetOrder in targetColumnID. The source
// column's tasks above the vacated slot shift down; the destination's tasks
// at or after targetOrder shift up; the whole two-sided renumbering is one
// atomic store operation. When source and destination columns are the same
// this degenerates to a single-column reorder. The returned bool is false
// for the no-op case (same column, same order).
func (e *OrderingEngine) MoveTask(ctx context.Context, taskID, targetColumnID string, targetOrder int) (*task.Task, bool, error) {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, false, fmt.Errorf("move task: %w", err)
	}

	dst, err := e.store.GetColumn(ctx, targetColumnID)
	if err != nil {
		return nil, false, fmt.Errorf("move task: target column: %w", err)
	}
	if dst.ProjectID != t.ProjectID {
		// Cross-project moves are not a thing; treat the column as missing
		// rather than revealing it exists elsewhere.
		return nil, false, fmt.Errorf("move task: target column %s: %w", targetColumnID, domain.ErrNotFound)
	}

	// One lock covers both columns: they share a project.
	release, err := e.locks.acquire(ctx, t.ProjectID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	srcOrders, err := e.store.TaskOrders(ctx, t.ColumnID)
	if err != nil {
		return nil, false, fmt.Errorf("move task: %w", err)
	}
	if err := verifyDense(srcOrders); err != nil {
		return nil, false, fmt.Errorf("move task: column %s tasks: %w", t.ColumnID, err)
	}

	sameColumn := t.ColumnID == targetColumnID
	if sameColumn {
		if targetOrder < 0 || targetOrder >= len(srcOrders) {
			return nil, false, fmt.Errorf("move task to %d of %d: %w", targetOrder, len(srcOrders), domain.ErrInvalidPosition)
		}
		if targetOrder == t.Order {
			return t, false, nil
		}
	} else {
		dstOrders, err := e.store.TaskOrders(ctx, targetColumnID)
		if err != nil {
			return nil, false, fmt.Errorf("move task: %w", err)
		}
		if err := verifyDense(dstOrders); err != nil {
			return nil, false, fmt.Errorf("move task: column %s tasks: %w", targetColumnID, err)
		}
		if targetOrder < 0 || targetOrder > len(dstOrders) {
			return nil, false, fmt.Errorf("move task to %d of %d: %w", targetOrder, len(dstOrders), domain.ErrInvalidPosition)
		}
	}

	if err := e.store.MoveTask(ctx, taskID, t.ColumnID, targetColumnID, t.Order, targetOrder); err != nil {
		return nil, false, fmt.Errorf("move task: %w", err)
	}
	t.ColumnID = targetColumnID
	t.Order = targetOrder
	return t, true, nil
}

// ReorderTask moves a task to newOrder within its current column.
func (e *OrderingEngine) ReorderTask(ctx context.Context, taskID string, newOrder int) (*task.Task, bool, error) {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, false, fmt.Errorf("reorder task: %w", err)
	}
	return e.MoveTask(ctx, taskID, t.ColumnID, newOrder)
}

// DeleteTask removes a task and compacts the orders of its column siblings.
func (e *OrderingEngine) DeleteTask(ctx context.Context, taskID string) (*task.Task, error) {
	t, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}

	release, err := e.locks.acquire(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.store.RemoveTask(ctx, taskID); err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return t, nil
}

// verifyDense checks that orders (ascending) form the contiguous set
// {0..n-1}. A violation is never repaired here: silent renumbering could
// mask the concurrency bug that produced it.
func verifyDense(orders []int) error {
	for i, o := range orders {
		if o != i {
			return fmt.Errorf("expected order %d, found %d: %w", i, o, domain.ErrOrderingCorruption)
		}
	}
	return nil
}

// projectLocks hands out one exclusive lock per project id. Weighted
// semaphores (weight 1) are used instead of plain mutexes so acquisition
// respects context cancellation. Entries are reference-counted and
// removed once no caller holds or waits on them, so the table tracks the
// projects currently under mutation rather than every project ever seen.
type projectLocks struct {
	mu   sync.Mutex
	sems map[string]*projectLock
}

type projectLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{sems: make(map[string]*projectLock)}
}

func (l *projectLocks) acquire(ctx context.Context, projectID string) (release func(), err error) {
	l.mu.Lock()
	entry, ok := l.sems[projectID]
	if !ok {
		entry = &projectLock{sem: semaphore.NewWeighted(1)}
		l.sems[projectID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.put(projectID, entry)
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	return func() {
		entry.sem.Release(1)
		l.put(projectID, entry)
	}, nil
}

// put drops one reference and deletes the entry when it was the last.
func (l *projectLocks) put(projectID string, entry *projectLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 && l.sems[projectID] == entry {
		delete(l.sems, projectID)
	}
	l.mu.Unlock()
}
