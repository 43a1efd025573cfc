// Package notify holds transient toasts and recent system notifications.
package notify

import (
	"io"
	"log/slog"
	"sort"
	"time"

	"strategy_dash/internal/domain"
)

// Kind of a toast.
type Kind string

const (
	KindAlert  Kind = "alert"
	KindSystem Kind = "system"
	KindStatus Kind = "status"
)

// Toast is a transient message removed by wall-clock expiry only.
type Toast struct {
	ID        uint64
	Kind      Kind
	Title     string
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cue is played when an alert fires (a bell, a sound, a desktop ping).
type Cue interface {
	Play()
}

// Bell writes the terminal BEL character.
type Bell struct {
	W io.Writer
}

// Play rings once. A failed write only loses the cue, so it is logged and dropped.
func (b Bell) Play() {
	if b.W == nil {
		return
	}
	if _, err := b.W.Write([]byte{'\a'}); err != nil {
		slog.Debug("Bell write failed", slog.Any("error", err))
	}
}

// Center is owned by the engine loop and is not safe for concurrent use.
type Center struct {
	ttl         time.Duration
	perCategory int
	cue         Cue

	nextID uint64
	toasts []Toast
	recent map[string][]domain.SystemNotification
}

// NewCenter creates a center. ttl bounds how long toasts stay visible,
// perCategory bounds how many notifications are kept per category.
func NewCenter(ttl time.Duration, perCategory int, cue Cue) *Center {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if perCategory <= 0 {
		perCategory = 50
	}
	return &Center{
		ttl:         ttl,
		perCategory: perCategory,
		cue:         cue,
		recent:      make(map[string][]domain.SystemNotification),
	}
}

// Push adds a toast that expires ttl after now.
func (c *Center) Push(kind Kind, title, message string, now time.Time) Toast {
	c.nextID++
	t := Toast{
		ID:        c.nextID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.toasts = append(c.toasts, t)
	return t
}

// AlertTriggered plays the cue and surfaces a toast. It does not touch any data.
func (c *Center) AlertTriggered(a domain.PriceAlert, now time.Time) Toast {
	if c.cue != nil {
		c.cue.Play()
	}
	return c.Push(KindAlert, "Alert triggered", a.Describe(), now)
}

// Notify records a system notification under its category and surfaces a toast.
func (c *Center) Notify(n domain.SystemNotification, now time.Time) Toast {
	cat := n.Category
	if cat == "" {
		cat = "general"
	}
	list := append(c.recent[cat], n)
	if len(list) > c.perCategory {
		list = list[len(list)-c.perCategory:]
	}
	c.recent[cat] = list

	title := cat
	if n.Symbol != "" {
		title = cat + " · " + domain.DisplaySymbol(n.Symbol)
	}
	return c.Push(KindSystem, title, n.Message, now)
}

// Expire drops every toast whose deadline is not after now and returns how many went.
func (c *Center) Expire(now time.Time) int {
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
		}
	}
	removed := len(c.toasts) - len(kept)
	c.toasts = kept
	return removed
}

// Toasts returns the visible toasts, oldest first.
func (c *Center) Toasts() []Toast {
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// Recent returns the kept notifications of one category, oldest first.
func (c *Center) Recent(category string) []domain.SystemNotification {
	list := c.recent[category]
	out := make([]domain.SystemNotification, len(list))
	copy(out, list)
	return out
}

// Categories lists categories that have received notifications.
func (c *Center) Categories() []string {
	out := make([]string, 0, len(c.recent))
	for cat := range c.recent {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
