package tracking

import "time"

// TimedExecution ties a wall-clock timer to a tracker so callers record an
// invocation with one call. A nil tracker makes every method a no-op, which
// keeps the hot path free of nil checks when tracking is disabled.
type TimedExecution struct {
	tracker *Tracker
	start   time.Time
}

// Start begins timing an invocation against tracker (which may be nil).
func Start(tracker *Tracker) *TimedExecution {
	return &TimedExecution{tracker: tracker, start: time.Now()}
}

// ElapsedMs returns milliseconds since Start.
func (e *TimedExecution) ElapsedMs() int64 {
	return time.Since(e.start).Milliseconds()
}

// Track records a compressed invocation with the elapsed time.
func (e *TimedExecution) Track(command, rule string, inputTokens, outputTokens int) error {
	if e == nil || e.tracker == nil {
		return nil
	}
	return e.tracker.Track(command, rule, inputTokens, outputTokens, e.ElapsedMs())
}

// TrackPassthrough records an uncompressed invocation with the elapsed time.
func (e *TimedExecution) TrackPassthrough(command string, tokens int) error {
	if e == nil || e.tracker == nil {
		return nil
	}
	return e.tracker.TrackPassthrough(command, tokens, e.ElapsedMs())
}

// Close releases the underlying tracker.
func (e *TimedExecution) Close() {
	if e == nil || e.tracker == nil {
		return
	}
	e.tracker.Close()
}
