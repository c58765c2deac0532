package proc

import "strings"

// LaunchdJob is one row of `launchctl list`: PID, last exit status, label.
// PID is "-" for jobs that are loaded but not running.
type LaunchdJob struct {
	PID    string
	Status string
	Label  string
}

func (j LaunchdJob) Running() bool {
	return j.PID != "" && j.PID != "-"
}

// ParseLaunchctlLine parses one `launchctl list` row, including the header.
func ParseLaunchctlLine(line string) (LaunchdJob, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return LaunchdJob{}, false
	}
	return LaunchdJob{PID: fields[0], Status: fields[1], Label: fields[2]}, true
}
