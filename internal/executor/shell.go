package executor

import "context"

// Shell runs a pipeline through the platform shell: "cmd /c" on Windows and
// "sh -c" everywhere else. Only constant or numeric input may be spliced into
// the pipeline string.
func Shell(ctx context.Context, r Runner, windows bool, pipeline string) Result {
	if windows {
		return r.Run(ctx, "cmd", "/c", pipeline)
	}
	return r.Run(ctx, "sh", "-c", pipeline)
}
