package volume

import (
	"sync"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fserrors"
)

// cookieTable tracks the cookies a Volume has handed out for one kind of
// open (file, directory, attribute directory, attribute, index directory,
// or query), so Unmount can force-free anything a misbehaving or crashed
// client left outstanding.
//
// Grounded on original_source's FreeCookie-on-unmount sweep. The table
// records allocation order and drains from the end, so cookies of one kind
// are freed in the reverse of the order they were allocated. Order across
// kinds is not tracked: Volume.forceFree drains one table after another in
// a fixed order (queries, index directories, attributes, attribute
// directories, directories, files).
type cookieTable struct {
	mu      sync.Mutex
	entries map[driver.Cookie]any
	order   []driver.Cookie
}

func newCookieTable() *cookieTable {
	return &cookieTable{entries: make(map[driver.Cookie]any)}
}

// register records a cookie the driver just minted (nil state if the
// caller has none to track).
func (t *cookieTable) register(c driver.Cookie, state any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[c] = state
	t.order = append(t.order, c)
}

// state returns the bookkeeping value registered for c, or false if c is
// not outstanding.
func (t *cookieTable) state(c driver.Cookie) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[c]
	return v, ok
}

// setState replaces the bookkeeping value for an outstanding cookie.
func (t *cookieTable) setState(c driver.Cookie, state any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[c]; !ok {
		return fserrors.BadRequest("cookie not outstanding")
	}
	t.entries[c] = state
	return nil
}

// free removes a cookie, returning an error if it was not outstanding
// (spec.md's double-free-is-a-bug framing).
func (t *cookieTable) free(c driver.Cookie) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[c]; !ok {
		return fserrors.BadRequest("FreeCookie on a cookie that is not outstanding")
	}
	delete(t.entries, c)
	for i, oc := range t.order {
		if oc == c {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// drainLIFO returns every outstanding cookie in the reverse of its
// allocation order, clearing the table.
func (t *cookieTable) drainLIFO() []driver.Cookie {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]driver.Cookie, len(t.order))
	for i, c := range t.order {
		out[len(t.order)-1-i] = c
	}
	t.entries = make(map[driver.Cookie]any)
	t.order = nil
	return out
}

// cookieAndState pairs a drained cookie with the bookkeeping value it was
// registered with.
type cookieAndState struct {
	Cookie driver.Cookie
	State  any
}

// drainLIFOWithState is drainLIFO but also returns each cookie's
// bookkeeping state, for cookie kinds whose force-free needs it (e.g. an
// attribute cookie's owning node).
func (t *cookieTable) drainLIFOWithState() []cookieAndState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]cookieAndState, len(t.order))
	for i, c := range t.order {
		out[len(t.order)-1-i] = cookieAndState{Cookie: c, State: t.entries[c]}
	}
	t.entries = make(map[driver.Cookie]any)
	t.order = nil
	return out
}

// count reports how many cookies are outstanding, for tests and metrics.
func (t *cookieTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}
