package common

import "errors"

// ErrModulePaused is returned when a module's normal entry points are halted,
// either by governance or by the emergency shutdown coordinator.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module's user-facing operations are halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view means no pause
// configuration exists and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
