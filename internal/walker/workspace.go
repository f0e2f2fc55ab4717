package walker

import "sync"

// Workspace is the private scratch store owned by exactly one walker. It is
// created empty with the walker and cleared when the walker is released;
// a walker abandoned without release leaves its workspace to the garbage
// collector, which is safe because no other walker ever holds a reference.
type Workspace struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{values: map[string]any{}}
}

// Set stores a value under key.
func (ws *Workspace) Set(key string, value any) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.values[key] = value
}

// Get retrieves a value; ok is false when the key is absent.
func (ws *Workspace) Get(key string) (any, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	value, ok := ws.values[key]
	return value, ok
}

// Has reports whether key is present.
func (ws *Workspace) Has(key string) bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	_, ok := ws.values[key]
	return ok
}

// Delete removes a key.
func (ws *Workspace) Delete(key string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.values, key)
}

// Len returns the number of stored keys.
func (ws *Workspace) Len() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.values)
}

// Clear drops every stored value.
func (ws *Workspace) Clear() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.values = map[string]any{}
}
