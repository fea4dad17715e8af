package state

import (
	"sort"
	"strings"
)

var pauseListKey = []byte("pause/modules")

func (m *Manager) loadPausedModules() ([]string, error) {
	var list []string
	if _, err := m.KVGet(pauseListKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetPaused flips the pause flag for a module. The stored list stays sorted
// for determinism.
func (m *Manager) SetPaused(module string, paused bool) error {
	normalized := strings.ToLower(strings.TrimSpace(module))
	if normalized == "" {
		return nil
	}
	list, err := m.loadPausedModules()
	if err != nil {
		return err
	}
	next := make([]string, 0, len(list)+1)
	found := false
	for _, entry := range list {
		if entry == normalized {
			found = true
			if !paused {
				continue
			}
		}
		next = append(next, entry)
	}
	if paused && !found {
		next = append(next, normalized)
		sort.Strings(next)
	}
	return m.KVPut(pauseListKey, next)
}

// IsPaused reports whether the module is paused. Read errors report as not
// paused, matching the best-effort semantics the guard callers expect.
func (m *Manager) IsPaused(module string) bool {
	normalized := strings.ToLower(strings.TrimSpace(module))
	if normalized == "" {
		return false
	}
	list, err := m.loadPausedModules()
	if err != nil {
		return false
	}
	for _, entry := range list {
		if entry == normalized {
			return true
		}
	}
	return false
}
