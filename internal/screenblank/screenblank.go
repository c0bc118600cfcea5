// Package screenblank keeps the display awake while music is playing by
// holding a screen-saver inhibition on the D-Bus session bus.
package screenblank

import (
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/five82/piju/internal/state"
)

const (
	screenSaverBus   = "org.freedesktop.ScreenSaver"
	screenSaverPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface = "org.freedesktop.ScreenSaver"

	appName       = "piju"
	inhibitReason = "Music is playing"
)

// Inhibitor is the subset of the freedesktop ScreenSaver API piju uses.
type Inhibitor interface {
	Inhibit(app, reason string) (uint32, error)
	UnInhibit(cookie uint32) error
}

// Manager inhibits screen blanking while the playback state is playing and
// releases the inhibition otherwise.
type Manager struct {
	mu        sync.Mutex
	inhibitor Inhibitor
	closer    func() error
	cookie    uint32
	inhibited bool
	lastState state.PlaybackState
}

// New connects to the session bus.
func New() (*Manager, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	m := NewWithInhibitor(&busInhibitor{obj: conn.Object(screenSaverBus, screenSaverPath)})
	m.closer = conn.Close
	return m, nil
}

// NewWithInhibitor builds a Manager around inh.
func NewWithInhibitor(inh Inhibitor) *Manager {
	return &Manager{inhibitor: inh}
}

// SetState is called once per poll cycle with the current playback state.
// Bus calls happen only when the inhibition has to change; a failed call is
// retried on the next cycle and logged once per state change.
func (m *Manager) SetState(s state.PlaybackState) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := s != m.lastState
	m.lastState = s

	want := s == state.Playing
	if want == m.inhibited {
		return
	}
	if want {
		cookie, err := m.inhibitor.Inhibit(appName, inhibitReason)
		if err != nil {
			if changed {
				log.Printf("screen saver inhibit failed: %v", err)
			}
			return
		}
		m.cookie = cookie
		m.inhibited = true
		return
	}
	if err := m.inhibitor.UnInhibit(m.cookie); err != nil {
		if changed {
			log.Printf("screen saver uninhibit failed: %v", err)
		}
		return
	}
	m.cookie = 0
	m.inhibited = false
}

// Close releases any inhibition and the bus connection.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if m.inhibited {
		if err := m.inhibitor.UnInhibit(m.cookie); err != nil {
			log.Printf("screen saver uninhibit failed: %v", err)
		}
		m.inhibited = false
	}
	closer := m.closer
	m.mu.Unlock()

	if closer != nil {
		return closer()
	}
	return nil
}

type busInhibitor struct {
	obj dbus.BusObject
}

func (b *busInhibitor) Inhibit(app, reason string) (uint32, error) {
	var cookie uint32
	err := b.obj.Call(screenSaverIface+".Inhibit", 0, app, reason).Store(&cookie)
	if err != nil {
		return 0, err
	}
	return cookie, nil
}

func (b *busInhibitor) UnInhibit(cookie uint32) error {
	return b.obj.Call(screenSaverIface+".UnInhibit", 0, cookie).Err
}
