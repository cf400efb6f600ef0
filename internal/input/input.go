package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical game action, decoupled from the physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionDescend
	ActionToggleNoclip
	ActionToggleWireframe
	ActionToggleOverlay
	ActionPause
	ActionCount // sentinel for array sizing
)

// Manager tracks keyboard and mouse state and maps physical keys to logical
// actions. Edge flags (just pressed/released) latch when the event arrives
// and clear in PostUpdate at the end of the frame.
type Manager struct {
	mu sync.RWMutex

	// One key can drive multiple actions.
	keyToActions map[glfw.Key][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	// Accumulated mouse-look delta since the last Consume.
	mouseDX, mouseDY float64
	lastX, lastY     float64
	haveCursor       bool
}

// NewManager creates a manager with the default bindings.
func NewManager() *Manager {
	m := &Manager{
		keyToActions: make(map[glfw.Key][]Action),
	}

	m.BindKey(glfw.KeyW, ActionMoveForward)
	m.BindKey(glfw.KeyS, ActionMoveBackward)
	m.BindKey(glfw.KeyA, ActionMoveLeft)
	m.BindKey(glfw.KeyD, ActionMoveRight)
	m.BindKey(glfw.KeySpace, ActionJump)
	m.BindKey(glfw.KeyLeftShift, ActionDescend)
	m.BindKey(glfw.KeyN, ActionToggleNoclip)
	m.BindKey(glfw.KeyF, ActionToggleWireframe)
	m.BindKey(glfw.KeyF3, ActionToggleOverlay)
	m.BindKey(glfw.KeyEscape, ActionPause)

	return m
}

// BindKey binds a physical key to a logical action. Multiple keys can drive
// the same action.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	m.keyToActions[key] = append(m.keyToActions[key], action)
	m.mu.Unlock()
}

// HandleKeyEvent updates action state from a raw key event.
func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.RLock()
	actions, exists := m.keyToActions[key]
	m.mu.RUnlock()
	if !exists {
		return
	}

	isPressed := action == glfw.Press || action == glfw.Repeat

	m.mu.Lock()
	for _, act := range actions {
		if isPressed && !m.currentState[act] {
			m.justPressed[act] = true
		}
		if !isPressed && m.currentState[act] {
			m.justReleased[act] = true
		}
		m.currentState[act] = isPressed
	}
	m.mu.Unlock()
}

// HandleCursorEvent accumulates mouse movement. The first event only seeds
// the reference position so the view does not jerk on focus.
func (m *Manager) HandleCursorEvent(x, y float64) {
	m.mu.Lock()
	if m.haveCursor {
		m.mouseDX += x - m.lastX
		m.mouseDY += m.lastY - y // screen Y grows downward
	}
	m.lastX, m.lastY = x, y
	m.haveCursor = true
	m.mu.Unlock()
}

// Attach installs the GLFW callbacks on a window. Call once at startup.
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		m.HandleCursorEvent(x, y)
	})
}

// ConsumeMouseDelta returns and clears the accumulated look delta.
func (m *Manager) ConsumeMouseDelta() (dx, dy float64) {
	m.mu.Lock()
	dx, dy = m.mouseDX, m.mouseDY
	m.mouseDX, m.mouseDY = 0, 0
	m.mu.Unlock()
	return dx, dy
}

// PostUpdate clears the per-frame edge flags. Call at the end of each frame
// after all input checks are done.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	for i := range m.justPressed {
		m.justPressed[i] = false
		m.justReleased[i] = false
	}
	m.mu.Unlock()
}

// IsActive reports whether the action is currently held.
func (m *Manager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState[action]
}

// JustPressed reports whether the action was pressed this frame.
func (m *Manager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

// JustReleased reports whether the action was released this frame.
func (m *Manager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}
