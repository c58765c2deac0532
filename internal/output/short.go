package output

import (
	"fmt"
	"io"

	"github.com/pranshuparmar/portman/pkg/model"
)

var (
	colorResetShort   = "\033[0m"
	colorMagentaShort = "\033[35m"
	colorDimShort     = "\033[2m"
	colorGreenShort   = "\033[32m"
)

// RenderShort prints one line per record: ":8080 → java (pid 4321)".
func RenderShort(w io.Writer, records []model.PortRecord, colorEnabled bool) {
	for _, r := range records {
		name := displayName(r.ProcessName)
		if colorEnabled {
			nameColor := ""
			if r.IsDevelopmentProcess {
				nameColor = colorGreenShort
			}
			fmt.Fprintf(w, ":%d%s → %s%s%s%s (%spid %d%s)\n",
				r.Port, colorMagentaShort, colorResetShort,
				nameColor, name, colorResetShort, colorDimShort, r.PID, colorResetShort)
			continue
		}
		fmt.Fprintf(w, ":%d → %s (pid %d)\n", r.Port, name, r.PID)
	}
}

func displayName(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
