package timeline

import (
	"math"
	"maps"
	"time"
)

// NodeStats are the raw counters of one submodule.
type NodeStats struct {
	RequestedMinutes int
	MinutesWorked    int
	DaysWorked       float64 // from Start to End
	Done             float64 // 0..1
	Start            time.Time
	End              time.Time // completion time, or the forest's now
}

// Rollup aggregates the counters of a subtree keyed by display id. A pair
// reached along two paths is counted once.
type Rollup struct {
	Start            time.Time
	RequestedMinutes map[string]int
	MinutesWorked    map[string]int
	Done             map[string]float64
}

// NewRollup returns an empty rollup.
func NewRollup() *Rollup {
	return &Rollup{
		RequestedMinutes: make(map[string]int),
		MinutesWorked:    make(map[string]int),
		Done:             make(map[string]float64),
	}
}

// Merge folds o into r: the earliest start wins and the per-id maps union.
func (r *Rollup) Merge(o *Rollup) {
	if o == nil {
		return
	}
	if !o.Start.IsZero() && (r.Start.IsZero() || o.Start.Before(r.Start)) {
		r.Start = o.Start
	}
	maps.Copy(r.RequestedMinutes, o.RequestedMinutes)
	maps.Copy(r.MinutesWorked, o.MinutesWorked)
	maps.Copy(r.Done, o.Done)
}

// Len is the number of distinct submodules in the rollup.
func (r *Rollup) Len() int {
	return len(r.RequestedMinutes)
}

// Stats returns the node's own counters, computed once.
func (n *SubmoduleNode) Stats() NodeStats {
	if n.stats == nil {
		s := n.Chunk.own(n.Index, n.forest.Now)
		n.stats = &s
	}
	return *n.stats
}

// TotalStats returns the rollup of the node's subtree, computed once. The
// returned value is shared; merge it into a fresh Rollup before changing it.
func (n *SubmoduleNode) TotalStats() *Rollup {
	if n.total != nil {
		return n.total
	}
	r := NewRollup()
	r.Start = n.forest.Now
	for _, c := range n.Children {
		r.Merge(c.TotalStats())
	}
	own := n.Stats()
	if own.Start.Before(r.Start) {
		r.Start = own.Start
	}
	id := n.ID()
	r.RequestedMinutes[id] = own.RequestedMinutes
	r.MinutesWorked[id] = own.MinutesWorked
	r.Done[id] = own.Done
	n.total = r
	return r
}

// OwnRollup is a rollup of the node alone, ignoring its prerequisites.
func (n *SubmoduleNode) OwnRollup() *Rollup {
	own := n.Stats()
	r := NewRollup()
	r.Start = own.Start
	id := n.ID()
	r.RequestedMinutes[id] = own.RequestedMinutes
	r.MinutesWorked[id] = own.MinutesWorked
	r.Done[id] = own.Done
	return r
}

// Summary holds the display metrics derived from a rollup.
type Summary struct {
	Label              string    `json:"label"`
	RequestedMinutes   int       `json:"requested_minutes"`
	MinutesWorked      int       `json:"minutes_worked"`
	ElapsedDays        float64   `json:"elapsed_days"`
	Completion         float64   `json:"completion"`           // requested-time weighted, 0..1
	WorkFactor         float64   `json:"work_factor"`          // 0 when nothing is complete
	AdvancementPerWeek float64   `json:"advancement_per_week"` // completion gained per week
	ETADays            float64   `json:"eta_days"`
	HasETA             bool      `json:"has_eta"`
	ETACorrectedDays   float64   `json:"eta_corrected_days"`
	HasCorrectedETA    bool      `json:"has_corrected_eta"`
	Now                time.Time `json:"now"`
}

// Finalize derives the display metrics of r as seen at now. Less than five
// minutes of elapsed time counts as just started: no advancement and no ETA.
func Finalize(label string, r *Rollup, now time.Time) Summary {
	s := Summary{Label: label, Now: now}
	var weighted float64
	for id, req := range r.RequestedMinutes {
		s.RequestedMinutes += req
		weighted += r.Done[id] * float64(req)
	}
	for _, m := range r.MinutesWorked {
		s.MinutesWorked += m
	}
	start := r.Start
	if start.IsZero() {
		start = now
	}
	s.ElapsedDays = days(now.Sub(start))

	if s.RequestedMinutes > 0 {
		s.Completion = weighted / float64(s.RequestedMinutes)
	}
	if s.Completion > 0 {
		s.WorkFactor = float64(s.MinutesWorked) / (float64(s.RequestedMinutes) * s.Completion)
	}

	if math.Floor(s.ElapsedDays*288) == 0 || s.Completion == 0 {
		return s
	}
	s.AdvancementPerWeek = s.Completion / (s.ElapsedDays / 7)
	s.ETADays = (1 - s.Completion) * (s.ElapsedDays / s.Completion)
	s.HasETA = true
	if s.WorkFactor > 0 {
		s.ETACorrectedDays = s.ETADays / s.WorkFactor
		s.HasCorrectedETA = true
	}
	return s
}

// RequestedHours is the total requested effort in hours.
func (s Summary) RequestedHours() float64 { return float64(s.RequestedMinutes) / 60 }

// HoursWorked is the total logged effort in hours.
func (s Summary) HoursWorked() float64 { return float64(s.MinutesWorked) / 60 }

// HoursLeft is requested minus worked, floored at zero.
func (s Summary) HoursLeft() float64 {
	return math.Max(s.RequestedHours()-s.HoursWorked(), 0)
}

// HoursLeftAdjusted scales the requested effort by the work factor before
// subtracting the hours worked. Without a work factor it equals HoursLeft.
func (s Summary) HoursLeftAdjusted() float64 {
	if s.WorkFactor == 0 {
		return s.HoursLeft()
	}
	return math.Max(s.RequestedHours()*s.WorkFactor-s.HoursWorked(), 0)
}

// ETADate is now plus the whole days of the ETA.
func (s Summary) ETADate() (time.Time, bool) {
	if !s.HasETA {
		return time.Time{}, false
	}
	return s.Now.AddDate(0, 0, int(s.ETADays)), true
}

// ETACorrectedDate is now plus the whole days of the corrected ETA.
func (s Summary) ETACorrectedDate() (time.Time, bool) {
	if !s.HasCorrectedETA {
		return time.Time{}, false
	}
	return s.Now.AddDate(0, 0, int(s.ETACorrectedDays)), true
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}
