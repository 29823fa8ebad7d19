package planner

import "time"

// Config holds the orchestrator's time windows and history bound.
// UndoWindow bounds how long an applied change can be undone, DeltaWindow
// how long a blocker delta stays displayed. Repeated confirmations of one
// change inside ConfirmWindow only touch the indicator.
type Config struct {
	UndoWindow    time.Duration `yaml:"undo_window" json:"undo_window"`
	DeltaWindow   time.Duration `yaml:"delta_window" json:"delta_window"`
	ConfirmWindow time.Duration `yaml:"confirm_window" json:"confirm_window"`
	HistoryLimit  int           `yaml:"history_limit" json:"history_limit"`
}

// DefaultConfig returns the standard windows.
func DefaultConfig() *Config {
	return &Config{
		UndoWindow:    60 * time.Second,
		DeltaWindow:   12 * time.Second,
		ConfirmWindow: time.Second,
		HistoryLimit:  5,
	}
}
