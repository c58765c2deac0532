package classify

import "strings"

// DefaultDevKeywords marks IDEs and local framework servers.
const DefaultDevKeywords = "idea,java,tace,claude,springboot"

// DevMatcher flags development processes by keyword.
type DevMatcher []string

// ParseKeywords splits a comma-separated keyword list into trimmed
// lowercase entries, dropping empty ones.
func ParseKeywords(list string) []string {
	var out []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func NewDevMatcher(keywords []string) DevMatcher {
	m := make(DevMatcher, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m = append(m, k)
		}
	}
	return m
}

// Match reports whether the lowercased "name commandLine" contains any
// keyword.
func (m DevMatcher) Match(name, commandLine string) bool {
	combined := strings.ToLower(name + " " + commandLine)
	for _, k := range m {
		if strings.Contains(combined, k) {
			return true
		}
	}
	return false
}
