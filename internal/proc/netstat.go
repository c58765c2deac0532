package proc

import (
	"regexp"
	"strconv"
	"strings"
)

// PROTO local:port remote:port STATE pid. Addresses may be bracketed IPv6.
var netstatPattern = regexp.MustCompile(
	`(TCP|UDP)\s+([\[\]0-9a-fA-F.:%]+):(\d+)\s+([\[\]0-9a-fA-F.:%]+|\*):(\d+|\*)\s+(\w+)\s+(\d+)`)

// ParseNetstatLine parses a line of `netstat -ano` output such as
//
//	TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       12345
func ParseNetstatLine(line string) (Listing, bool) {
	m := netstatPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Listing{}, false
	}

	port, err := strconv.ParseUint(m[3], 10, 16)
	if err != nil {
		return Listing{}, false
	}
	pid, err := strconv.ParseInt(m[7], 10, 64)
	if err != nil {
		return Listing{}, false
	}

	return Listing{
		Port:          uint16(port),
		Protocol:      m[1],
		Status:        m[6],
		PID:           pid,
		LocalAddress:  m[2] + ":" + m[3],
		RemoteAddress: m[4] + ":" + m[5],
	}, true
}
