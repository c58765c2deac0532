package output

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/pranshuparmar/portman/pkg/model"
)

var (
	colorResetTree   = "\033[0m"
	colorMagentaTree = "\033[35m"
	colorGreenTree   = "\033[32m"
	colorDimTree     = "\033[2m"
)

const treePortLimit = 10

// PrintTree groups records by owning process and lists each process's
// ports beneath it.
func PrintTree(w io.Writer, records []model.PortRecord, colorEnabled bool) {
	colorReset, colorMagenta, colorGreen, colorDim := "", "", "", ""
	if colorEnabled {
		colorReset = colorResetTree
		colorMagenta = colorMagentaTree
		colorGreen = colorGreenTree
		colorDim = colorDimTree
	}

	groups := make(map[int64][]model.PortRecord)
	var pids []int64
	for _, r := range records {
		if _, ok := groups[r.PID]; !ok {
			pids = append(pids, r.PID)
		}
		groups[r.PID] = append(groups[r.PID], r)
	}
	slices.Sort(pids)

	for _, pid := range pids {
		ports := groups[pid]
		slices.SortFunc(ports, func(a, b model.PortRecord) int { return cmp.Compare(a.Port, b.Port) })
		head := ports[0]

		nameColor := ""
		if head.IsDevelopmentProcess {
			nameColor = colorGreen
		}
		fmt.Fprintf(w, "%s%s%s (%spid %d%s) %s\n",
			nameColor, displayName(head.ProcessName), colorReset, colorDim, pid, colorReset, head.ProcessCategory)

		count := len(ports)
		for i, r := range ports {
			if i >= treePortLimit {
				fmt.Fprintf(w, "  %s└─ %s... and %d more\n", colorMagenta, colorReset, count-treePortLimit)
				break
			}
			connector := "├─ "
			if i == count-1 || (i == treePortLimit-1 && count <= treePortLimit) {
				connector = "└─ "
			}
			fmt.Fprintf(w, "  %s%s%s:%d %s %s %s\n",
				colorMagenta, connector, colorReset, r.Port, r.Protocol, r.LocalAddress, r.PortRole)
		}
	}
}
