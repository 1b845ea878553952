// Package pipeline orchestrates file processing, caching, report writing and
// usage aggregation.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/andralbr/dataEvaluation/internal/model"
)

// ToolboxSummary totals the usage of one toolbox under one license.
type ToolboxSummary struct {
	LicenseNo  string    `json:"license_no"`
	Version    string    `json:"version"`
	Toolbox    string    `json:"toolbox"`
	Hours      float64   `json:"hours"`
	Intervals  int       `json:"intervals"`
	FirstStart time.Time `json:"first_start"`
	LastEnd    time.Time `json:"last_end"`
}

// DailyUsage is the usage of all toolboxes on one calendar day.
type DailyUsage struct {
	Date  time.Time
	Hours float64
}

type summaryKey struct {
	license, version, toolbox string
}

// SummarizeToolboxes totals rows per (license, version, toolbox), sorted by
// hours descending, then toolbox name.
func SummarizeToolboxes(rows []model.ReportRow) []ToolboxSummary {
	sumMap := make(map[summaryKey]*ToolboxSummary)

	for _, r := range rows {
		k := summaryKey{r.LicenseNo, r.Version, r.Toolbox}
		ts, ok := sumMap[k]
		if !ok {
			ts = &ToolboxSummary{LicenseNo: r.LicenseNo, Version: r.Version, Toolbox: r.Toolbox}
			sumMap[k] = ts
		}
		ts.Hours += r.DurationHours
		ts.Intervals++
		if ts.FirstStart.IsZero() || r.Start.Before(ts.FirstStart) {
			ts.FirstStart = r.Start
		}
		if r.End.After(ts.LastEnd) {
			ts.LastEnd = r.End
		}
	}

	out := make([]ToolboxSummary, 0, len(sumMap))
	for _, ts := range sumMap {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		if out[i].Toolbox != out[j].Toolbox {
			return out[i].Toolbox < out[j].Toolbox
		}
		if out[i].LicenseNo != out[j].LicenseNo {
			return out[i].LicenseNo < out[j].LicenseNo
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// HoursByToolbox totals hours per toolbox across all licenses.
func HoursByToolbox(rows []model.ReportRow) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range rows {
		out[r.Toolbox] += r.DurationHours
	}
	return out
}

// ToolboxHours is the total usage of one toolbox name across licenses.
type ToolboxHours struct {
	Toolbox string  `json:"toolbox"`
	Hours   float64 `json:"hours"`
}

// RankToolboxes totals hours per toolbox name, sorted by hours descending,
// then name.
func RankToolboxes(rows []model.ReportRow) []ToolboxHours {
	byTbx := HoursByToolbox(rows)
	ranked := make([]ToolboxHours, 0, len(byTbx))
	for name, h := range byTbx {
		ranked = append(ranked, ToolboxHours{Toolbox: name, Hours: h})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Hours != ranked[j].Hours {
			return ranked[i].Hours > ranked[j].Hours
		}
		return ranked[i].Toolbox < ranked[j].Toolbox
	})
	return ranked
}

// HoursByDay splits every row at midnight (in the rows' own location) and
// totals the hours per day, oldest first. Days without usage between the
// first and last active day are included as zeros so charts show gaps.
func HoursByDay(rows []model.ReportRow) []DailyUsage {
	if len(rows) == 0 {
		return nil
	}

	dayMap := make(map[time.Time]float64)
	var first, last time.Time
	for _, r := range rows {
		for day := startOfDay(r.Start); day.Before(r.End); day = day.AddDate(0, 0, 1) {
			next := day.AddDate(0, 0, 1)
			s, e := r.Start, r.End
			if s.Before(day) {
				s = day
			}
			if e.After(next) {
				e = next
			}
			dayMap[day] += e.Sub(s).Hours()
			if first.IsZero() || day.Before(first) {
				first = day
			}
			if day.After(last) {
				last = day
			}
		}
	}
	if first.IsZero() {
		return nil
	}

	var days []DailyUsage
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, DailyUsage{Date: day, Hours: dayMap[day]})
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FilterRows returns rows whose toolbox and license match the given
// substrings, case-insensitively. Empty filters match everything.
func FilterRows(rows []model.ReportRow, toolbox, license string) []model.ReportRow {
	if toolbox == "" && license == "" {
		return rows
	}
	var result []model.ReportRow
	for _, r := range rows {
		if toolbox != "" && !containsIgnoreCase(r.Toolbox, toolbox) {
			continue
		}
		if license != "" && !containsIgnoreCase(r.LicenseNo, license) {
			continue
		}
		result = append(result, r)
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
