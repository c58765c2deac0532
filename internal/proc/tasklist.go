package proc

import (
	"encoding/csv"
	"strings"
)

// ParseTasklistName extracts the image name from
// `tasklist /FI "PID eq N" /FO CSV /NH` output:
//
//	"node.exe","4242","Console","1","52,120 K"
//
// tasklist prints an INFO line instead of CSV when nothing matches.
func ParseTasklistName(out string) string {
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, `"`) {
			return ""
		}
		rec, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil || len(rec) == 0 {
			return strings.Trim(strings.SplitN(line, ",", 2)[0], `"`)
		}
		return rec[0]
	}
	return ""
}

// TasklistHasProcess reports whether tasklist output lists a process.
func TasklistHasProcess(out string) bool {
	return !strings.Contains(out, "No tasks are running") && strings.TrimSpace(out) != ""
}
