package proc

import "strings"

// ParsePsCommand returns the first line of `ps -p N -o command=` output.
func ParsePsCommand(out string) string {
	for line := range strings.Lines(out) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ParsePsUserCommand splits the first line of `ps -p N -o user=,command=`
// into the user and the raw command.
func ParsePsUserCommand(out string) (user, command string, ok bool) {
	line := ParsePsCommand(out)
	if line == "" {
		return "", "", false
	}
	user, command, found := strings.Cut(line, " ")
	if !found {
		return "", "", false
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return "", "", false
	}
	return user, command, true
}

// ExtractProcessName takes the token before the first space of a command
// line and strips any directory prefix.
func ExtractProcessName(commandLine string) string {
	if commandLine == "" {
		return ""
	}
	name := commandLine
	if i := strings.IndexByte(commandLine, ' '); i > 0 {
		name = commandLine[:i]
	}
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
