package events

import (
	"context"
	"sync"
)

// TaskEventKind names the mutation that produced a TaskEvent.
type TaskEventKind string

const (
	TaskCreated  TaskEventKind = "task.created"
	TaskUpdated  TaskEventKind = "task.updated"
	TaskToggled  TaskEventKind = "task.toggled"
	TaskDeleted  TaskEventKind = "task.deleted"
	OwnerRemoved TaskEventKind = "owner.removed"
)

// TaskEvent is published after a task write has been committed.
type TaskEvent struct {
	Kind    TaskEventKind
	TaskID  uint64
	OwnerID uint64
	// UserIDs are the assignees touched by the write, before and after.
	UserIDs []uint64
}

// Affected returns the owner and every assignee without duplicates.
func (e TaskEvent) Affected() []uint64 {
	ids := make([]uint64, 0, len(e.UserIDs)+1)
	seen := make(map[uint64]struct{}, len(e.UserIDs)+1)
	for _, id := range append([]uint64{e.OwnerID}, e.UserIDs...) {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Handler reacts to a task event.
type Handler func(ctx context.Context, event TaskEvent)

// Bus delivers task events to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for every subsequent Publish.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish runs every handler before returning.
func (b *Bus) Publish(ctx context.Context, event TaskEvent) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}
