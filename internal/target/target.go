// Package target turns command-line arguments into the PIDs they refer to.
package target

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portman/pkg/model"
)

type Kind int

const (
	KindPID Kind = iota
	KindPort
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindPID:
		return "pid"
	case KindPort:
		return "port"
	default:
		return "name"
	}
}

// Target is a parsed argument: "4321" is a PID, ":8080" a port and anything
// else a process name.
type Target struct {
	Kind  Kind
	Value string
	PID   int64
	Port  uint16
}

var ErrNoMatch = errors.New("no matching process")

// Parse classifies arg. With asPort set a bare number is read as a port.
func Parse(arg string, asPort bool) (Target, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Target{}, errors.New("empty target")
	}

	if rest, ok := strings.CutPrefix(arg, ":"); ok || asPort {
		if !ok {
			rest = arg
		}
		port, err := strconv.ParseUint(rest, 10, 16)
		if err != nil || port == 0 {
			return Target{}, fmt.Errorf("invalid port %q", rest)
		}
		return Target{Kind: KindPort, Value: arg, Port: uint16(port)}, nil
	}

	if pid, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if pid <= 0 {
			return Target{}, fmt.Errorf("invalid pid %d", pid)
		}
		return Target{Kind: KindPID, Value: arg, PID: pid}, nil
	}

	return Target{Kind: KindName, Value: arg}, nil
}

// Resolve returns the PIDs t refers to, looking ports and names up in
// records. Names match the process name case-insensitively, as a substring
// unless exact is set. The calling process is never returned for a name.
func Resolve(t Target, records []model.PortRecord, exact bool) ([]int64, error) {
	var pids []int64
	switch t.Kind {
	case KindPID:
		return []int64{t.PID}, nil
	case KindPort:
		for _, r := range records {
			if r.Port == t.Port && r.PID > 0 {
				pids = append(pids, r.PID)
			}
		}
		if len(pids) == 0 {
			return nil, fmt.Errorf("%w listening on port %d", ErrNoMatch, t.Port)
		}
	case KindName:
		self := int64(os.Getpid())
		want := strings.ToLower(t.Value)
		for _, r := range records {
			if r.PID <= 0 || r.PID == self {
				continue
			}
			name := strings.ToLower(r.ProcessName)
			if exact && name == want || !exact && strings.Contains(name, want) {
				pids = append(pids, r.PID)
			}
		}
		if len(pids) == 0 {
			return nil, fmt.Errorf("%w named %q", ErrNoMatch, t.Value)
		}
	}
	slices.Sort(pids)
	return slices.Compact(pids), nil
}
