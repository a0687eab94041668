package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modoverlay/internal/engine"
	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/modules"
	"github.com/danieljhkim/modoverlay/internal/planner"
)

var (
	buildModules []string
	buildUpper   string
	buildWork    string
	buildDryRun  bool
)

var buildCmd = &cobra.Command{
	Use:   "build <root>",
	Short: "Mount an overlay tree over a root",
	Long: `Mount module directories over <root> and restore every mount that existed under it.

Module roots given with --module are layered in order, the first one winning.
Without --module, enabled modules from the modules directory that contain a
directory named after <root> are used, sorted by module name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		root := filepath.Clean(args[0])

		moduleRoots := buildModules
		if len(moduleRoots) == 0 {
			moduleRoots, err = modules.Discover(e.fs, e.paths.Modules, filepath.Base(root))
			if err != nil {
				return err
			}
			if len(moduleRoots) == 0 {
				PrintWarning(fmt.Sprintf("No modules provide %s", root))
				return nil
			}
		}

		upper, work := buildUpper, buildWork
		if upper == "" && work == "" {
			upper, work = e.cfg.UpperDir, e.cfg.WorkDir
		}

		req := &engine.TreeRequest{
			Root:        root,
			ModuleRoots: moduleRoots,
			UpperDir:    upper,
			WorkDir:     work,
			DryRun:      buildDryRun,
		}
		result, err := runBuild(e, req)
		if err != nil {
			return err
		}
		return printTreeResult(req, result)
	},
}

var buildAllCmd = &cobra.Command{
	Use:   "build-all",
	Short: "Mount overlay trees for every configured partition",
	Long: `Mount an overlay tree over each configured partition that at least one enabled
module provides. A failing partition does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		var errs []error
		for _, partition := range e.cfg.Partitions {
			root := filepath.Join("/", partition)
			if fsops.Probe(e.fs, root) != fsops.KindDir {
				e.log.WithField("target", root).Debug("partition missing, skipping")
				continue
			}
			moduleRoots, err := modules.Discover(e.fs, e.paths.Modules, partition)
			if err != nil {
				return err
			}
			if len(moduleRoots) == 0 {
				continue
			}

			req := &engine.TreeRequest{
				Root:        root,
				ModuleRoots: moduleRoots,
				UpperDir:    e.cfg.UpperDir,
				WorkDir:     e.cfg.WorkDir,
				DryRun:      buildDryRun,
			}
			result, err := runBuild(e, req)
			if err != nil {
				PrintError(fmt.Sprintf("%s: %v", root, err))
				errs = append(errs, err)
				continue
			}
			if err := printTreeResult(req, result); err != nil {
				return err
			}
		}
		return errors.Join(errs...)
	},
}

// runBuild takes the lock and builds one tree.
func runBuild(e *env, req *engine.TreeRequest) (*engine.TreeResult, error) {
	if !req.DryRun {
		if err := requireSysAdmin(); err != nil {
			return nil, err
		}
	}
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	eng, err := e.newEngine()
	if err != nil {
		return nil, err
	}
	return eng.BuildOverlayTree(context.Background(), req)
}

func printTreeResult(req *engine.TreeRequest, result *engine.TreeResult) error {
	if jsonOutput {
		return outputJSON(result)
	}

	plan := result.Plan
	if req.DryRun {
		PrintSection(fmt.Sprintf("Dry Run: %s", plan.Root))
	} else {
		PrintSection(plan.Root)
	}
	PrintLabelValue("lowerdir", plan.RootLowerdir())
	PrintLabelValue("children", plan.Summary())
	if len(plan.Children) > 0 {
		rows := make([][]string, 0, len(plan.Children))
		for _, c := range plan.Children {
			rows = append(rows, []string{c.MountPoint, string(c.Action), childDetail(c)})
		}
		fmt.Println()
		PrintTable([]string{"MOUNT POINT", "ACTION", "DETAIL"}, rows)
	}
	fmt.Println()

	if req.DryRun {
		return nil
	}
	for _, fb := range result.Fallbacks {
		PrintWarning(fmt.Sprintf("%s: nested overlay failed, bind mounted instead", fb))
	}
	if result.StateErr != nil {
		PrintWarning(fmt.Sprintf("Tree is mounted but was not recorded: %v", result.StateErr))
	}
	PrintSuccess(fmt.Sprintf("Mounted overlay tree on %s", plan.Root))
	return nil
}

func childDetail(c planner.ChildOp) string {
	switch c.Action {
	case planner.ActionOverlay:
		return c.Lowerdir()
	case planner.ActionMask:
		return "masked by " + c.MaskedBy
	default:
		return ""
	}
}

var teardownCmd = &cobra.Command{
	Use:   "teardown <root>",
	Short: "Unmount an overlay tree recorded by build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := requireSysAdmin(); err != nil {
			return err
		}
		unlock, err := e.lock()
		if err != nil {
			return err
		}
		defer func() { _ = unlock() }()

		eng, err := e.newEngine()
		if err != nil {
			return err
		}
		result, err := eng.Teardown(context.Background(), args[0])
		if result != nil && !jsonOutput && len(result.Unmounted) > 0 {
			PrintSubsection("Unmounted:")
			PrintList(result.Unmounted, 1)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Removed overlay tree on %s", result.Root))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded overlay trees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		eng, err := e.newEngine()
		if err != nil {
			return err
		}
		trees, err := eng.Status()
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(trees)
		}

		PrintSection("Overlay Trees")
		if len(trees) == 0 {
			PrintEmptyState("No overlay trees recorded")
			return nil
		}
		for _, tree := range trees {
			PrintSubsection(tree.Root)
			PrintLabelValue("Modules", PrintCount(len(tree.ModuleRoots), "module root", "module roots"))
			PrintLabelValue("Mounts", PrintCount(len(tree.Mounts), "mount", "mounts"))
			if len(tree.Masked) > 0 {
				PrintLabelValue("Masked", PrintCount(len(tree.Masked), "child", "children"))
			}
			if tree.UpperDir != "" {
				PrintLabelValue("Upper", tree.UpperDir)
			}
			PrintLabelValue("Built", tree.BuiltAt.Format("2006-01-02 15:04:05"))
			fmt.Println()
		}
		return nil
	},
}

var mountsCmd = &cobra.Command{
	Use:   "mounts <root>",
	Short: "List the mounts nested under a root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		eng, err := e.newEngine()
		if err != nil {
			return err
		}
		points, err := eng.Mounts(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(points)
		}
		if len(points) == 0 {
			PrintEmptyState(fmt.Sprintf("No mounts under %s", args[0]))
			return nil
		}
		PrintList(points, 0)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringArrayVarP(&buildModules, "module", "m", nil, "Module root to layer (repeatable, highest priority first)")
	buildCmd.Flags().StringVar(&buildUpper, "upper", "", "Writable upper directory")
	buildCmd.Flags().StringVar(&buildWork, "work", "", "Overlay work directory (same filesystem as --upper)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show the plan without mounting")
	buildAllCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show the plans without mounting")
}
