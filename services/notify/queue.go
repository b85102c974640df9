// Package notifysvc queues the notifications of each dashboard session until its client
// polls them.
package notifysvc

import (
	"sync"

	"github.com/Shin40411/Lms-client/core"
)

// maxQueued bounds each session queue; the oldest notifications are dropped first.
const maxQueued = 50

type Queues struct {
	mu     sync.Mutex
	queues map[string][]core.Toast
	logger core.Logger
}

func NewQueues(logger core.Logger) *Queues {
	return &Queues{queues: make(map[string][]core.Toast), logger: logger}
}

// For returns the notifier of sessionID.
func (q *Queues) For(sessionID string) core.Notifier {
	return core.NotifierFunc(func(t core.Toast) { q.push(sessionID, t) })
}

func (q *Queues) push(sessionID string, t core.Toast) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := append(q.queues[sessionID], t)
	if over := len(queue) - maxQueued; over > 0 {
		q.logger.Debug("notification queue of a session is full; dropping the oldest")
		queue = append(queue[:0:0], queue[over:]...)
	}
	q.queues[sessionID] = queue
}

// Drain returns and forgets the pending notifications of sessionID, oldest first. Never nil.
func (q *Queues) Drain(sessionID string) []core.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[sessionID]
	delete(q.queues, sessionID)
	if queue == nil {
		return []core.Toast{}
	}
	return queue
}

// Drop forgets sessionID.
func (q *Queues) Drop(sessionID string) {
	q.mu.Lock()
	delete(q.queues, sessionID)
	q.mu.Unlock()
}
