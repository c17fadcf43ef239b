package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/gommon/color"

	"github.com/trezcool/masomo-parents/core"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a one-shot message shown to the parent.
type Toast struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func newToast(level Level, msg string) Toast {
	return Toast{ID: uuid.New().String(), Level: level, Message: msg}
}

// FlashNotifier collects the toasts raised while serving one request.
type FlashNotifier struct {
	mu     sync.Mutex
	toasts []Toast
	logger core.Logger
}

var _ core.Notifier = (*FlashNotifier)(nil)

func NewFlashNotifier(logger core.Logger) *FlashNotifier {
	return &FlashNotifier{logger: logger}
}

func (n *FlashNotifier) push(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *FlashNotifier) Success(msg string) {
	n.push(newToast(LevelSuccess, msg))
}

func (n *FlashNotifier) Error(msg string) {
	if n.logger != nil {
		n.logger.Debug("toast: " + msg)
	}
	n.push(newToast(LevelError, msg))
}

// Drain returns the collected toasts, oldest first, and forgets them.
func (n *FlashNotifier) Drain() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	toasts := n.toasts
	n.toasts = nil
	if toasts == nil {
		return []Toast{}
	}
	return toasts
}

// ConsoleNotifier prints toasts as they are raised.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
	clr *color.Color
}

var _ core.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(out io.Writer, colored bool) *ConsoleNotifier {
	clr := color.New()
	if !colored {
		clr.Disable()
	}
	return &ConsoleNotifier{out: out, clr: clr}
}

func (n *ConsoleNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.out, n.clr.Green("✓ "+msg))
}

func (n *ConsoleNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.out, n.clr.Red("✗ "+msg))
}
