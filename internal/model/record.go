// Package model defines domain types for toolbox usage consolidation.
package model

import "time"

// RecordKind tags a log record as the opening or closing line of a process.
type RecordKind int

const (
	KindStart RecordKind = iota
	KindEnd
)

func (k RecordKind) String() string {
	if k == KindEnd {
		return "END"
	}
	return "START"
}

// LogRecord is one parsed $START or $END line. Start records only carry
// ProcessID and Timestamp.
type LogRecord struct {
	Kind      RecordKind
	ProcessID string
	Timestamp time.Time
	LicenseNo string
	Version   string
	Toolboxes []string
	Line      int // 1-based line number in the source file, 0 if unknown
}

// Start builds a $START record.
func Start(processID string, ts time.Time) LogRecord {
	return LogRecord{Kind: KindStart, ProcessID: processID, Timestamp: ts}
}

// End builds an $END record.
func End(processID, licenseNo, version string, ts time.Time, toolboxes ...string) LogRecord {
	return LogRecord{
		Kind:      KindEnd,
		ProcessID: processID,
		Timestamp: ts,
		LicenseNo: licenseNo,
		Version:   version,
		Toolboxes: toolboxes,
	}
}
