package registry

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ReentrantMutex is a mutex that may be re-acquired by the goroutine that
// already holds it. The registry holds it across factory callbacks, and a
// factory is expected to call back into the registry to resolve its own
// dependencies; a plain sync.Mutex would deadlock on that path.
//
// The holder is identified by goroutine id and the lock is released when the
// depth counter returns to zero. Callers must not hand the held mutex to
// another goroutine.
type ReentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int
}

var _ sync.Locker = (*ReentrantMutex)(nil)

// Lock acquires the mutex, or increments the hold depth when the calling
// goroutine already owns it.
func (m *ReentrantMutex) Lock() {
	gid := goroutineID()
	if m.owner.Load() == gid {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(gid)
	m.depth = 1
}

// Unlock decrements the hold depth and releases the mutex when it reaches
// zero. Unlocking from a goroutine that does not own the mutex panics.
func (m *ReentrantMutex) Unlock() {
	gid := goroutineID()
	if m.owner.Load() != gid {
		panic("registry: unlock of reentrant mutex not owned by current goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// heldByCurrentGoroutine reports whether the calling goroutine owns the mutex.
func (m *ReentrantMutex) heldByCurrentGoroutine() bool {
	return m.owner.Load() == goroutineID()
}

// goroutineID returns a unique identifier for the current goroutine
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Parse goroutine ID from the stack trace
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}
