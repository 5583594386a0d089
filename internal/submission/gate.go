// Package submission decides whether a user may post another surf report.
package submission

import "time"

// DefaultCooldown is the minimum spacing between two reports by the same user.
const DefaultCooldown = 30 * time.Minute

type Gate struct {
	cooldown time.Duration
}

// NewGate returns a gate with the given cooldown; non-positive values use DefaultCooldown.
func NewGate(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{cooldown: cooldown}
}

func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

// Decision is the gate's answer for one user at one instant.
type Decision struct {
	Allowed   bool          `json:"allowed"`
	Remaining time.Duration `json:"-"`
	NextAt    *time.Time    `json:"next_at,omitempty"`
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed || d.Remaining <= 0 {
		return 0
	}
	secs := d.Remaining / time.Second
	if d.Remaining%time.Second != 0 {
		secs++
	}
	return int(secs)
}

// Check allows a report when there is no previous one or at least the cooldown
// has elapsed since it. A last timestamp in the future counts as zero elapsed.
func (g *Gate) Check(last *time.Time, now time.Time) Decision {
	if last == nil {
		return Decision{Allowed: true}
	}
	elapsed := now.Sub(*last)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= g.cooldown {
		return Decision{Allowed: true}
	}
	remaining := g.cooldown - elapsed
	next := now.Add(remaining)
	return Decision{Allowed: false, Remaining: remaining, NextAt: &next}
}

// Allowed is Check without the detail.
func (g *Gate) Allowed(last *time.Time, now time.Time) bool {
	return g.Check(last, now).Allowed
}
