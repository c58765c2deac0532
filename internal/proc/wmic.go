package proc

import "strings"

const wmicCommandLinePrefix = "CommandLine="

// ParseWmicCommandLine finds the CommandLine= entry in
// `wmic process where processid=N get commandline /format:list` output.
func ParseWmicCommandLine(out string) (string, bool) {
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, wmicCommandLinePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, wmicCommandLinePrefix)), true
		}
	}
	return "", false
}
