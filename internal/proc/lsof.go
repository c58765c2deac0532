package proc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portman/pkg/model"
)

// Listing is one socket row parsed from a discovery tool, before the owning
// process has been resolved.
type Listing struct {
	Port          uint16
	Protocol      string
	Status        string
	PID           int64
	ProcessName   string
	User          string
	LocalAddress  string
	RemoteAddress string
}

var lsofPortPattern = regexp.MustCompile(`:(\d+)$`)

// ParseLsofLine parses a line of `lsof -i -P -n` output such as
//
//	java    12345 alice  123u  IPv4 0x1234      0t0  TCP *:8080 (LISTEN)
//
// Lines with fewer than nine fields, a non-numeric PID or an address without
// a trailing port are rejected.
func ParseLsofLine(line string) (Listing, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return Listing{}, false
	}

	pid, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Listing{}, false
	}

	address := fields[8]
	port, ok := trailingPort(address)
	if !ok {
		return Listing{}, false
	}

	return Listing{
		Port:         port,
		Protocol:     fields[7],
		Status:       model.StatusListening,
		PID:          pid,
		ProcessName:  fields[0],
		User:         fields[2],
		LocalAddress: address,
	}, true
}

func trailingPort(address string) (uint16, bool) {
	m := lsofPortPattern.FindStringSubmatch(address)
	if m == nil {
		return 0, false
	}
	port, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}
