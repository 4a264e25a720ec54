package dispatch

import (
	"sync"
	"time"
)

// userThrottle bounds the number of tasks started per user inside a rolling
// time window, so one user's backlog cannot starve others.
type userThrottle struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	users  map[string]*userWindow
}

type userWindow struct {
	start time.Time
	count int
}

func newUserThrottle(limit int, window time.Duration) *userThrottle {
	return &userThrottle{
		limit:  limit,
		window: window,
		users:  make(map[string]*userWindow),
	}
}

// reserve attempts to claim a slot for the user at now. It returns zero when
// the slot was claimed, otherwise the duration until the user's window opens
// again.
func (t *userThrottle) reserve(userID string, now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.users[userID]
	if !ok || now.Sub(w.start) >= t.window {
		t.users[userID] = &userWindow{start: now, count: 1}
		return 0
	}
	if w.count < t.limit {
		w.count++
		return 0
	}
	return w.start.Add(t.window).Sub(now)
}
