// Package freshness decides whether a cached puzzle is still today's puzzle.
// The NYT publishes a new square shortly after 03:00 US/Eastern; a cache
// entry is valid when it was written after the most recent rollover.
package freshness

import (
	"fmt"
	"time"
	_ "time/tzdata" // the rollover zone must resolve on minimal images

	"lottawords/internal/puzzle"
)

// Zone is the IANA name of the zone the puzzle rolls over in.
const Zone = "America/New_York"

// Rollover is the daily instant the puzzle changes.
type Rollover struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Default returns the 03:05 US/Eastern rollover.
func Default() Rollover {
	loc, err := time.LoadLocation(Zone)
	if err != nil {
		// tzdata is embedded, so this only fires on a corrupted build.
		panic(fmt.Sprintf("load %s: %v", Zone, err))
	}
	return Rollover{Hour: 3, Minute: 5, Location: loc}
}

func (r Rollover) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Cutoff returns the most recent rollover at or before now.
func (r Rollover) Cutoff(now time.Time) time.Time {
	local := now.In(r.loc())
	cut := time.Date(local.Year(), local.Month(), local.Day(), r.Hour, r.Minute, 0, 0, r.loc())
	if local.Before(cut) {
		cut = time.Date(local.Year(), local.Month(), local.Day()-1, r.Hour, r.Minute, 0, 0, r.loc())
	}
	return cut
}

// Next returns the first rollover strictly after now.
func (r Rollover) Next(now time.Time) time.Time {
	cut := r.Cutoff(now)
	return time.Date(cut.Year(), cut.Month(), cut.Day()+1, r.Hour, r.Minute, 0, 0, r.loc())
}

// Valid reports whether e was written after the most recent rollover.
func (r Rollover) Valid(e *puzzle.Entry, now time.Time) bool {
	if e == nil || e.LastUpdated.IsZero() {
		return false
	}
	return !e.LastUpdated.Before(r.Cutoff(now))
}

// CronSpec returns the rollover as a five-field cron expression pinned to
// the rollover zone.
func (r Rollover) CronSpec() string {
	return fmt.Sprintf("CRON_TZ=%s %d %d * * *", r.loc().String(), r.Minute, r.Hour)
}
