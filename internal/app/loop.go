package app

import (
	"log"
	"time"

	"github.com/ayusman/peekaboo/internal/toggle"
)

// step runs one iteration of the frame loop and reports whether to stop.
//
// Iteration order:
// 1. Poll one key (bounded by PollInterval)
// 2. Quit, or apply a toggle
// 3. Capture a frame; on failure count a skip and return
// 4. Render every enabled feature
// 5. Show the frame and publish the results
func (a *App) step() bool {
	key, ok := a.config.Keys.PollKey(a.config.PollInterval)
	action := a.toggles.Handle(key, ok)

	switch action.Type {
	case toggle.ActionQuit:
		return true
	case toggle.ActionToggled:
		a.applyToggle(action)
	}

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		a.mu.Lock()
		a.stats.Skip()
		a.mu.Unlock()
		return false
	}
	defer frame.Close()

	state := a.toggles.State()
	results := a.processor.Process(frame, state)

	if a.config.Display != nil {
		if err := a.config.Display.Show(*frame); err != nil {
			log.Printf("Error showing frame: %v", err)
		}
	}

	a.mu.Lock()
	a.stats.Record(results)
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	if a.config.Publisher != nil {
		a.config.Publisher.Publish(NewEvent(seq, time.Now(), state.EnabledKinds(a.config.Context.Catalog.Kinds()), results))
	}

	return false
}

func (a *App) applyToggle(action toggle.Action) {
	state := "off"
	if action.Enabled {
		state = "on"
	}
	log.Printf("Feature %s %s", action.Kind, state)

	a.publishStatus(a.toggles.State())

	a.mu.Lock()
	a.stats.Toggle(action.Kind)
	callback := a.onToggle
	a.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(action.Kind, action.Enabled)
	}
}
