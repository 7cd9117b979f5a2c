package registry

// resetGlobal returns the process-wide registry to StateAbsent.
func resetGlobal() {
	existence.Lock()
	defer existence.Unlock()

	instance.Store(nil)
	state.Store(int32(StateAbsent))
	globalOpts = nil
}
