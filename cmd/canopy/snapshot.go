package main

import (
	"fmt"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/snapshot"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage design tree snapshots",
	Long:  `Capture, restore, list, inspect and remove snapshots in the configured store.`,
}

// withManager runs fn against a snapshot manager over the configured store.
func withManager(cmd *cobra.Command, fn func(*snapshot.Manager, *cli.Backend) error) error {
	backend, err := cli.BuildBackend(cmd.Context(), settings, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	mgr := snapshot.NewManager(backend.Snapshots,
		snapshot.WithLocker(backend.Locker),
		snapshot.WithLogger(logger),
	)
	return fn(mgr, backend)
}

func projectArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return settings.Project
}

var snapshotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *snapshot.Manager, _ *cli.Backend) error {
			projects, err := mgr.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No snapshots found.")
				return nil
			}
			fmt.Fprintln(out, "Snapshots:")
			for _, p := range projects {
				fmt.Fprintln(out, "- "+p)
			}
			return nil
		})
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect [project]",
	Short: "Print a snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		project := projectArg(args)
		return withManager(cmd, func(mgr *snapshot.Manager, _ *cli.Backend) error {
			snap, err := mgr.Load(cmd.Context(), project)
			if err != nil {
				return fmt.Errorf("failed to load snapshot %q: %w", project, err)
			}
			return printState(cmd.OutOrStdout(), format, snap)
		})
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <project>...",
	Short: "Remove one or more snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *snapshot.Manager, _ *cli.Backend) error {
			var failed int
			out := cmd.OutOrStdout()
			for _, project := range args {
				if err := mgr.Delete(cmd.Context(), project); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", project, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "Removed snapshot '%s'\n", project)
			}
			if failed > 0 {
				return fmt.Errorf("%d snapshot(s) could not be removed", failed)
			}
			return nil
		})
	},
}

var snapshotCaptureCmd = &cobra.Command{
	Use:   "capture [project]",
	Short: "Replay the log and store the resulting tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project := projectArg(args)
		editor, backend, err := openEditor(cmd.Context(), domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()
		defer editor.Close()

		mgr := snapshot.NewManager(backend.Snapshots,
			snapshot.WithLocker(backend.Locker),
			snapshot.WithLogger(logger),
		)
		if err := mgr.Capture(cmd.Context(), project, editor.Runtime()); err != nil {
			return fmt.Errorf("failed to capture snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Captured %d element(s) into '%s'\n", editor.Runtime().Len(), project)
		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore [project]",
	Short: "Seed an empty event log from a snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project := projectArg(args)
		return withManager(cmd, func(mgr *snapshot.Manager, backend *cli.Backend) error {
			recs, err := mgr.Restore(cmd.Context(), project, backend.Log)
			if err != nil {
				return fmt.Errorf("failed to restore snapshot %q: %w", project, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d event(s) from '%s'\n", len(recs), project)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotLsCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
	snapshotCmd.AddCommand(snapshotCaptureCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)

	snapshotInspectCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml, mermaid or tree")
}
