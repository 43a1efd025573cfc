// Package gesture tracks drag-resize sessions on strategy cards.
//
// A Session is a scoped acquisition: it observes pointer moves from Begin until
// End or Cancel, and releasing it twice is harmless. No session outlives its
// gesture, and Reset releases any that are still open.
package gesture

import "sync"

const (
	DefaultHeight = 400
	MinHeight     = 200
)

// Layout owns the heights of every card.
type Layout struct {
	mu            sync.Mutex
	defaultHeight int
	minHeight     int
	heights       map[string]int
	sessions      map[*Session]struct{}
}

// NewLayout creates a layout. Non-positive values fall back to the defaults.
func NewLayout(defaultHeight, minHeight int) *Layout {
	if minHeight <= 0 {
		minHeight = MinHeight
	}
	if defaultHeight < minHeight {
		defaultHeight = max(DefaultHeight, minHeight)
	}
	return &Layout{
		defaultHeight: defaultHeight,
		minHeight:     minHeight,
		heights:       make(map[string]int),
		sessions:      make(map[*Session]struct{}),
	}
}

// Height returns a card's height.
func (l *Layout) Height(card string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height(card)
}

func (l *Layout) height(card string) int {
	if h, ok := l.heights[card]; ok {
		return h
	}
	return l.defaultHeight
}

// Begin starts a resize gesture at pointer position y.
func (l *Layout) Begin(card string, y int) *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &Session{layout: l, card: card, startY: y, startHeight: l.height(card)}
	l.sessions[s] = struct{}{}
	return s
}

// Active counts sessions that have not been released.
func (l *Layout) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Reset cancels open sessions and restores every card to the default height.
func (l *Layout) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for s := range l.sessions {
		s.released = true
	}
	l.sessions = make(map[*Session]struct{})
	l.heights = make(map[string]int)
}

// Session is one drag gesture.
type Session struct {
	layout      *Layout
	card        string
	startY      int
	startHeight int
	released    bool
}

// Move applies a pointer move and returns the new height. Moves after release are ignored.
func (s *Session) Move(y int) int {
	l := s.layout
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.released {
		return l.height(s.card)
	}
	h := max(s.startHeight+y-s.startY, l.minHeight)
	l.heights[s.card] = h
	return h
}

// End releases the session keeping the last height.
func (s *Session) End() { s.release(false) }

// Cancel releases the session restoring the height it started with.
func (s *Session) Cancel() { s.release(true) }

func (s *Session) release(restore bool) {
	l := s.layout
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	delete(l.sessions, s)
	if restore {
		l.heights[s.card] = s.startHeight
	}
}
