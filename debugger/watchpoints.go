package debugger

import (
	"fmt"
	"sync"

	"github.com/hacker007/darkvm/internal/value"
	"github.com/hacker007/darkvm/internal/vm"
)

// WatchType classifies the condition under which a watchpoint should
// trigger. DarkVM only observes named variables in the current frame's
// store, so all three behave identically: a watchpoint fires whenever
// the variable's value differs from the last-observed value.
type WatchType int

const (
	WatchWrite WatchType = iota
	WatchRead
	WatchReadWrite
)

// Watchpoint monitors a single variable name for value changes.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // the variable name being watched
	Enabled    bool
	LastValue  *value.Value // nil until the variable has been observed once
	HitCount   int
}

// WatchpointManager manages all watchpoints.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates an empty watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint on the named variable.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

// DeleteWatchpoint removes a watchpoint by ID.
func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

// EnableWatchpoint enables a watchpoint by ID.
func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

// DisableWatchpoint disables a watchpoint by ID.
func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

// GetWatchpoint gets a watchpoint by ID.
func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

// GetAllWatchpoints returns all watchpoints.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

// CheckWatchpoints resolves each enabled watchpoint's variable against
// machine's current frame store and returns the first one whose value
// differs from its last-observed value. A variable that is undefined
// is treated as unchanged, not as an error, since it may simply not
// have come into scope yet.
func (wm *WatchpointManager) CheckWatchpoints(machine *vm.VM) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		current, ok := machine.LookupVariable(wp.Expression)
		if !ok {
			continue
		}

		if wp.LastValue == nil || wp.LastValue.String() != current.String() {
			wp.HitCount++
			cur := current
			wp.LastValue = &cur
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint records the current value of a watchpoint's
// variable without treating that first observation as a change.
func (wm *WatchpointManager) InitializeWatchpoint(id int, machine *vm.VM) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	if current, ok := machine.LookupVariable(wp.Expression); ok {
		wp.LastValue = &current
	}

	return nil
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}
