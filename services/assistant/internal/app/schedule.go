package app

import (
	"context"
	"time"

	// Embedded zone database so preference timezones resolve without system tzdata.
	_ "time/tzdata"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

const defaultDeliveryTime = "07:00"

// RunDailyBriefing refreshes the briefing at the preferred delivery time each
// day until ctx is cancelled. Preferences are re-read every cycle.
func (a *App) RunDailyBriefing(ctx context.Context) error {
	for {
		now := a.clock.Now()
		next := nextDelivery(a.prefs.Get(), now)
		timer := a.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}
		if !a.prefs.Get().BriefingEnabled {
			continue
		}
		if _, err := a.RefreshBriefing(ctx); err != nil {
			a.logger.Warn("scheduled briefing failed", "err", err)
		}
	}
}

// nextDelivery returns the first delivery instant strictly after now, in the
// preferences' timezone. An unknown zone falls back to UTC and an unparseable
// time to 07:00.
func nextDelivery(prefs domain.UserPreferences, now time.Time) time.Time {
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		loc = time.UTC
	}
	clock, err := time.Parse("15:04", prefs.BriefingDeliveryTime)
	if err != nil {
		clock, _ = time.Parse("15:04", defaultDeliveryTime)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, clock.Hour(), clock.Minute(), 0, 0, loc)
	}
	return next
}
