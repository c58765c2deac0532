package source

import (
	"cmp"
	"slices"
	"strings"
)

// LabelRule maps a process name to the launchd label of the service that
// usually owns it. Match is a lowercase substring unless Exact is set.
type LabelRule struct {
	Match string
	Exact bool
	Label string
}

// LabelTable is consulted in order; the first matching rule wins.
type LabelTable []LabelRule

// DefaultLabels covers the Homebrew formulae that fork their listener from
// a wrapper process.
var DefaultLabels = LabelTable{
	{Match: "mysql", Label: "homebrew.mxcl.mysql"},
	{Match: "redis", Label: "homebrew.mxcl.redis"},
	{Match: "postgres", Label: "homebrew.mxcl.postgresql"},
	{Match: "nginx", Label: "homebrew.mxcl.nginx"},
	{Match: "httpd", Label: "homebrew.mxcl.httpd"},
	{Match: "apache", Label: "homebrew.mxcl.httpd"},
	{Match: "mongodb", Label: "homebrew.mxcl.mongodb-community"},
	{Match: "mongod", Exact: true, Label: "homebrew.mxcl.mongodb-community"},
}

// LabelTableFromMap builds a table from configuration. A key prefixed with
// "=" matches the whole name. Longer keys are tried first.
func LabelTableFromMap(m map[string]string) LabelTable {
	if len(m) == 0 {
		return DefaultLabels
	}
	table := make(LabelTable, 0, len(m))
	for key, label := range m {
		rule := LabelRule{Label: label}
		if exact, ok := strings.CutPrefix(key, "="); ok {
			rule.Exact = true
			key = exact
		}
		rule.Match = strings.ToLower(strings.TrimSpace(key))
		if rule.Match == "" || label == "" {
			continue
		}
		table = append(table, rule)
	}
	slices.SortFunc(table, func(a, b LabelRule) int {
		if c := cmp.Compare(len(b.Match), len(a.Match)); c != 0 {
			return c
		}
		return cmp.Compare(a.Match, b.Match)
	})
	return table
}

func (t LabelTable) Lookup(name string) (string, bool) {
	name = strings.ToLower(name)
	if name == "" {
		return "", false
	}
	for _, r := range t {
		if r.Exact && name == r.Match || !r.Exact && strings.Contains(name, r.Match) {
			return r.Label, true
		}
	}
	return "", false
}
