package app

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/portman/internal/output"
	"github.com/pranshuparmar/portman/internal/pipeline"
	"github.com/pranshuparmar/portman/internal/target"
	"github.com/pranshuparmar/portman/pkg/model"
)

func newScanCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan listening ports now and print the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := ctx.getManager().ScanAllPorts(cmd.Context())
			return ctx.render(cmd.OutOrStdout(), records, func(w io.Writer) {
				output.RenderTable(w, records, ctx.color())
			})
		},
	}
}

func newListCmd(ctx *appContext) *cobra.Command {
	var (
		devOnly bool
		role    string
		tree    bool
		short   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listening ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ctx.getManager()
			m.EnsureScanned(cmd.Context())

			records, err := filterRecords(m.GetAllPorts(), devOnly, role)
			if err != nil {
				return err
			}
			return ctx.render(cmd.OutOrStdout(), records, func(w io.Writer) {
				switch {
				case tree:
					output.PrintTree(w, records, ctx.color())
				case short:
					output.RenderShort(w, records, ctx.color())
				default:
					output.RenderTable(w, records, ctx.color())
				}
			})
		},
	}
	cmd.Flags().BoolVar(&devOnly, "dev", false, "Only show development processes")
	cmd.Flags().StringVar(&role, "role", "", "Only show ports with this role: frontend, backend, database, other")
	cmd.Flags().BoolVar(&tree, "tree", false, "Group ports by process")
	cmd.Flags().BoolVar(&short, "short", false, "One line per port")
	cmd.MarkFlagsMutuallyExclusive("tree", "short")
	return cmd
}

func filterRecords(records []model.PortRecord, devOnly bool, role string) ([]model.PortRecord, error) {
	var want model.PortRole
	if role != "" {
		want = model.PortRole(strings.ToUpper(role))
		switch want {
		case model.RoleFrontend, model.RoleBackend, model.RoleDatabase, model.RoleOther:
		default:
			return nil, fmt.Errorf("unknown role %q", role)
		}
	}
	out := make([]model.PortRecord, 0, len(records))
	for _, r := range records {
		if devOnly && !r.IsDevelopmentProcess {
			continue
		}
		if want != "" && r.PortRole != want {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newGetCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <port>",
		Short: "Show the process listening on a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.ParseUint(strings.TrimPrefix(args[0], ":"), 10, 16)
			if err != nil || port == 0 {
				return fmt.Errorf("invalid port %q", args[0])
			}
			rec, err := ctx.getManager().LookupPort(cmd.Context(), uint16(port))
			if err != nil {
				return fmt.Errorf("port %d: %w", port, err)
			}
			return ctx.render(cmd.OutOrStdout(), rec, func(w io.Writer) {
				output.RenderTable(w, []model.PortRecord{rec}, ctx.color())
			})
		},
	}
}

func newSearchCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find ports by port number, PID, process name or command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ctx.getManager()
			m.EnsureScanned(cmd.Context())
			records := m.SearchPorts(args[0])
			return ctx.render(cmd.OutOrStdout(), records, func(w io.Writer) {
				output.RenderTable(w, records, ctx.color())
			})
		},
	}
}

func newStatsCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize listening ports by role and process type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ctx.getManager()
			m.EnsureScanned(cmd.Context())
			stats := m.Statistics()
			return ctx.render(cmd.OutOrStdout(), stats, func(w io.Writer) {
				output.RenderStats(w, stats)
			})
		},
	}
}

type processInfo struct {
	Process model.ProcessRecord `json:"process" yaml:"process"`
	Source  model.Source        `json:"source" yaml:"source"`
}

func newInfoCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <pid>",
		Short: "Show a process and the service that manages it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			m := ctx.getManager()
			p, err := m.ProcessInfo(cmd.Context(), pid)
			if err != nil {
				return fmt.Errorf("pid %d: %w", pid, err)
			}
			info := processInfo{Process: p, Source: m.DetectService(cmd.Context(), pid)}
			return ctx.render(cmd.OutOrStdout(), info, func(w io.Writer) {
				output.RenderProcess(w, info.Process, info.Source)
			})
		},
	}
}

type aliveResult struct {
	PID   int64 `json:"pid" yaml:"pid"`
	Alive bool  `json:"alive" yaml:"alive"`
}

func newAliveCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "alive <pid>",
		Short: "Report whether a process is running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			res := aliveResult{PID: pid, Alive: ctx.getManager().IsAlive(cmd.Context(), pid)}
			return ctx.render(cmd.OutOrStdout(), res, func(w io.Writer) {
				if res.Alive {
					fmt.Fprintf(w, "pid %d is running\n", pid)
				} else {
					fmt.Fprintf(w, "pid %d is not running\n", pid)
				}
			})
		},
	}
}

var errKillFailed = errors.New("one or more processes could not be stopped")

func newKillCmd(ctx *appContext) *cobra.Command {
	var (
		permanent bool
		asPort    bool
		exact     bool
	)
	cmd := &cobra.Command{
		Use:   "kill <pid|:port|name>...",
		Short: "Kill processes by PID, port or name",
		Long: "Kill processes by PID, port or name.\n\n" +
			"With --permanent a process managed by launchd is stopped through its\n" +
			"service so it does not restart; the process is never killed directly\n" +
			"when the service cannot be stopped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ctx.getManager()

			targets := make([]target.Target, 0, len(args))
			needRecords := false
			for _, arg := range args {
				t, err := target.Parse(arg, asPort)
				if err != nil {
					return err
				}
				needRecords = needRecords || t.Kind != target.KindPID
				targets = append(targets, t)
			}

			var records []model.PortRecord
			if needRecords {
				records = m.ScanAllPorts(cmd.Context())
			}
			var pids []int64
			seen := make(map[int64]bool)
			for _, t := range targets {
				resolved, err := target.Resolve(t, records, exact)
				if err != nil {
					return err
				}
				for _, pid := range resolved {
					if !seen[pid] {
						seen[pid] = true
						pids = append(pids, pid)
					}
				}
			}

			var out model.BatchKillResult
			if len(pids) == 1 {
				res, err := m.KillProcess(cmd.Context(), pids[0], permanent)
				if err != nil {
					return err
				}
				out = model.BatchKillResult{Results: []model.KillResult{res}, Total: 1, Permanent: permanent}
				if res.Success {
					out.SuccessCount = 1
				} else {
					out.FailCount = 1
				}
			} else {
				var err error
				if out, err = m.BatchKill(cmd.Context(), pids, permanent); err != nil {
					return err
				}
			}

			if err := ctx.render(cmd.OutOrStdout(), out, func(w io.Writer) {
				output.RenderKill(w, out.Results)
			}); err != nil {
				return err
			}
			if out.FailCount > 0 {
				return errKillFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&permanent, "permanent", "p", false, "Stop launchd-managed services so they stay stopped")
	cmd.Flags().BoolVar(&asPort, "port", false, "Treat bare numbers as ports")
	cmd.Flags().BoolVar(&exact, "exact", false, "Match process names exactly")
	return cmd
}

func parsePID(arg string) (int64, error) {
	pid, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", pipeline.ErrInvalidPID, arg)
	}
	return pid, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portman %s", version)
			if commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s", commit)
				if buildDate != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ", built %s", buildDate)
				}
				fmt.Fprint(cmd.OutOrStdout(), ")")
			}
			fmt.Fprintf(cmd.OutOrStdout(), " %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
