// Package notify holds the dashboard's single toast slot.
//
// There is no queue: showing a notification while another is visible
// replaces its message and kind.
package notify

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/metrics"
)

// Kind is the toast style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Kinds lists the accepted kinds in display order.
var Kinds = []Kind{KindSuccess, KindError, KindWarning, KindInfo}

// ParseKind validates a kind name. Empty means success.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	if k == "" {
		return KindSuccess, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown notification kind %q", value)
}

// Notification is the toast state observed by the UI.
type Notification struct {
	Visible   bool      `json:"visible"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Center owns the toast slot.
type Center struct {
	mu        sync.Mutex
	current   Notification
	observers map[int]func(Notification)
	nextID    int
	clock     func() time.Time
}

// NewCenter returns a hidden slot with the default success kind.
func NewCenter() *Center {
	return &Center{
		current:   Notification{Kind: KindSuccess},
		observers: make(map[int]func(Notification)),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Show replaces the message and kind and makes the toast visible.
func (c *Center) Show(message string, kind Kind) Notification {
	if kind == "" {
		kind = KindSuccess
	}
	metrics.RecordNotification(string(kind))

	return c.update(func(n *Notification) {
		n.Message = message
		n.Kind = kind
		n.Visible = true
	})
}

// ShowError routes a failed request into the slot as an error toast.
func (c *Center) ShowError(err error) Notification {
	if err == nil {
		return c.Snapshot()
	}
	return c.Show(ErrorMessage(err), KindError)
}

// Dismiss hides the toast. Message and kind are kept.
func (c *Center) Dismiss() Notification {
	return c.update(func(n *Notification) {
		n.Visible = false
	})
}

// Snapshot returns the current toast state.
func (c *Center) Snapshot() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers fn for every change. Observers run synchronously
// under the center's lock and must not call back into it.
func (c *Center) Subscribe(fn func(Notification)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Center) update(apply func(*Notification)) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&c.current)
	c.current.UpdatedAt = c.clock()
	for _, fn := range c.observers {
		fn(c.current)
	}
	return c.current
}

// ErrorMessage renders a user-facing line for a failed guarded request.
func ErrorMessage(err error) string {
	if statusErr, ok := fetch.AsStatusError(err); ok {
		if statusErr.Status != "" {
			return fmt.Sprintf("Request failed: %s", statusErr.Status)
		}
		return fmt.Sprintf("Request failed: HTTP %d", statusErr.StatusCode)
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return "Request timed out"
	}
	return "Request failed: " + err.Error()
}
