package state

import (
	"halochain/native/shutdown"
)

var shutdownStateKey = []byte("shutdown/state")

type storedShutdownState struct {
	Shutdown       bool
	CanRefund      bool
	ShutdownHeight uint64
}

// ShutdownGetState returns the persisted shutdown stage, or nil when the
// protocol has never been halted.
func (m *Manager) ShutdownGetState() (*shutdown.State, error) {
	var stored storedShutdownState
	ok, err := m.KVGet(shutdownStateKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &shutdown.State{
		Shutdown:       stored.Shutdown,
		CanRefund:      stored.CanRefund,
		ShutdownHeight: stored.ShutdownHeight,
	}, nil
}

// ShutdownPutState persists the shutdown stage.
func (m *Manager) ShutdownPutState(st *shutdown.State) error {
	if st == nil {
		return nil
	}
	return m.KVPut(shutdownStateKey, storedShutdownState{
		Shutdown:       st.Shutdown,
		CanRefund:      st.CanRefund,
		ShutdownHeight: st.ShutdownHeight,
	})
}
