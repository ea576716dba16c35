package market

import (
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/regime"
)

// The helpers below rebuild a market from a save file. None of them process
// impacts or notify subscribers.

// RestoreDay sets the current day.
func (m *Market) RestoreDay(day int) {
	if day < 1 {
		day = 1
	}
	m.day = day
}

// RestoreRegime sets the active regime without announcing it.
func (m *Market) RestoreRegime(r regime.Regime) { m.regime = r }

// RestoreEvent appends a persisted event as-is.
func (m *Market) RestoreEvent(e *event.Event) { m.events = append(m.events, e) }

// RestoreRumor appends a persisted rumor as-is.
func (m *Market) RestoreRumor(r *event.Rumor) { m.rumors = append(m.rumors, r) }
