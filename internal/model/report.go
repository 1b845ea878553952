package model

import "time"

// Interval is a closed time range with Start <= End.
type Interval struct {
	Start time.Time `json:"start" yaml:"start" msgpack:"start"`
	End   time.Time `json:"end" yaml:"end" msgpack:"end"`
}

// Overlaps reports whether the two intervals share at least one instant.
// Touching intervals (a.End == b.Start) overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return !(other.Start.After(iv.End) || other.End.Before(iv.Start))
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// ProcessInterval is a paired START/END process.
type ProcessInterval struct {
	ProcessID string
	Start     time.Time
	End       time.Time
	LicenseNo string
	Version   string
	Toolboxes []string
}

// Interval returns the bounds of the process.
func (p ProcessInterval) Interval() Interval {
	return Interval{Start: p.Start, End: p.End}
}

// ToolboxWindow is the merged usage of one toolbox within a batch.
type ToolboxWindow struct {
	Toolbox   string
	Intervals []Interval
}

// TimeFilter restricts consolidation to [Start, End]. A nil *TimeFilter is inactive.
type TimeFilter struct {
	Start time.Time
	End   time.Time
}

// Admits reports whether an interval intersects the window. Intervals that
// only touch a window bound are rejected.
func (f *TimeFilter) Admits(start, end time.Time) bool {
	if f == nil {
		return true
	}
	return start.Before(f.End) && end.After(f.Start)
}

// Clip returns start/end clamped to the window.
func (f *TimeFilter) Clip(start, end time.Time) (time.Time, time.Time) {
	if f == nil {
		return start, end
	}
	if start.Before(f.Start) {
		start = f.Start
	}
	if end.After(f.End) {
		end = f.End
	}
	return start, end
}

// ReportRow is one line of the usage report.
type ReportRow struct {
	LicenseNo     string    `json:"license_no" yaml:"license_no" msgpack:"license_no"`
	Version       string    `json:"version" yaml:"version" msgpack:"version"`
	Toolbox       string    `json:"toolbox" yaml:"toolbox" msgpack:"toolbox"`
	Start         time.Time `json:"start" yaml:"start" msgpack:"start"`
	End           time.Time `json:"end" yaml:"end" msgpack:"end"`
	DurationHours float64   `json:"duration_hours" yaml:"duration_hours" msgpack:"duration_hours"`
}

// NewReportRow fills DurationHours from the interval bounds.
func NewReportRow(licenseNo, version, toolbox string, iv Interval) ReportRow {
	return ReportRow{
		LicenseNo:     licenseNo,
		Version:       version,
		Toolbox:       toolbox,
		Start:         iv.Start,
		End:           iv.End,
		DurationHours: iv.Duration().Hours(),
	}
}
