// Package classify tags listening ports with a role and their owning
// processes with a category using ordered name and port heuristics.
package classify

import (
	"slices"
	"strings"

	"github.com/pranshuparmar/portman/pkg/model"
)

type processRule struct {
	category model.ProcessCategory
	match    func(name, combined string) bool
}

// Evaluated top to bottom; the first match wins.
var processRules = []processRule{
	{model.CategoryJava, func(name, combined string) bool {
		return name == "java" || strings.Contains(name, "java") ||
			containsAny(combined, "spring", "tomcat", "jetty", ".jar")
	}},
	{model.CategoryNode, func(name, combined string) bool {
		return name == "node" || containsAny(name, "npm", "yarn", "pnpm") ||
			containsAny(combined, "webpack", "vite", "next", "nuxt")
	}},
	{model.CategoryPython, func(name, combined string) bool {
		return oneOf(name, "python", "python3", "python2") ||
			containsAny(combined, "django", "flask", "fastapi", "uvicorn", "gunicorn")
	}},
	{model.CategoryWebServer, func(name, _ string) bool {
		return oneOf(name, "nginx", "httpd", "apache", "apache2") ||
			containsAny(name, "caddy", "lighttpd")
	}},
	{model.CategoryDatabase, func(name, _ string) bool {
		return name == "mongod" || containsAny(name,
			"mysql", "postgres", "redis", "mongo", "oracle", "sqlserver",
			"mariadb", "clickhouse", "elastic", "cassandra", "influx")
	}},
	{model.CategoryIDE, func(name, _ string) bool {
		return name == "code" || containsAny(name,
			"idea", "intellij", "pycharm", "webstorm", "vscode",
			"eclipse", "netbeans", "sublime", "atom", "android studio")
	}},
	{model.CategoryBrowser, func(name, _ string) bool {
		return containsAny(name, "chrome", "firefox", "safari", "edge", "opera", "brave")
	}},
	{model.CategorySystem, func(name, _ string) bool {
		return oneOf(name, "systemd", "launchd", "init", "sshd", "cupsd", "cron", "systemd-resolved") ||
			strings.Contains(name, "kernel")
	}},
}

var (
	frontendPorts = []uint16{3000, 3001, 4200, 5173, 8081, 9000, 9090}
	backendPorts  = []uint16{8080, 8000, 8888, 9527, 7001, 7002, 5000, 80, 443}
	databasePorts = []uint16{3306, 5432, 6379, 27017, 1521, 1433, 9200, 9300, 8086, 9042, 33060}
)

// language marker paired with the framework markers that confirm it.
var backendStacks = []struct {
	language   string
	frameworks []string
}{
	{"java", []string{"spring", "tomcat", "jar", "jetty"}},
	{"python", []string{"django", "flask", "fastapi", "uvicorn", "gunicorn"}},
	{"go", []string{"gin", "beego", "echo"}},
	{"node", []string{"express", "koa", "nest", "fastify"}},
}

// Process returns the category of a process. An empty name is OTHER.
// Windows image names are matched without their .exe suffix.
func Process(name, commandLine string) model.ProcessCategory {
	if name == "" {
		return model.CategoryOther
	}
	lname := strings.TrimSuffix(strings.ToLower(name), ".exe")
	combined := combine(name, commandLine)
	for _, rule := range processRules {
		if rule.match(lname, combined) {
			return rule.category
		}
	}
	return model.CategoryOther
}

// Port returns the role of a listening port, checking FRONTEND, BACKEND
// and DATABASE in that order.
func Port(port uint16, name, commandLine string) model.PortRole {
	combined := combine(name, commandLine)

	if containsAny(combined, "node", "npm", "yarn", "webpack", "vite",
		"react", "vue", "angular", "next", "nuxt", "gatsby") || slices.Contains(frontendPorts, port) {
		return model.RoleFrontend
	}

	for _, stack := range backendStacks {
		if strings.Contains(combined, stack.language) && containsAny(combined, stack.frameworks...) {
			return model.RoleBackend
		}
	}
	if slices.Contains(backendPorts, port) {
		return model.RoleBackend
	}

	if containsAny(combined, "mysql", "postgres", "redis", "mongodb", "oracle",
		"sqlserver", "mariadb", "clickhouse", "elasticsearch") || slices.Contains(databasePorts, port) {
		return model.RoleDatabase
	}

	return model.RoleOther
}

func combine(name, commandLine string) string {
	return strings.ToLower(name + " " + commandLine)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func oneOf(s string, options ...string) bool {
	return slices.Contains(options, s)
}
