//go:build !linux && !darwin && !freebsd && !windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"portman is only supported on Linux, macOS, FreeBSD and Windows.\n\nIt relies on lsof and ps, or netstat and tasklist on Windows, to find listening ports.",
	)
	os.Exit(1)
}
