package main

import (
	"fmt"
	"io"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/presentation/tui"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the materialized design tree",
	Long: `Replays the configured log (or asks a running server with --server) and prints the tree.
Formats: json, yaml, mermaid or tree. The default is tree on a terminal and json otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		format, _ := cmd.Flags().GetString("format")

		var snap domain.Snapshot
		if serverURL != "" {
			s, err := canopyhttp.NewClient(serverURL, canopyhttp.WithClientLogger(logger)).State(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch state: %w", err)
			}
			snap = s
		} else {
			editor, backend, err := openEditor(cmd.Context(), domain.LifecycleHooks{})
			if err != nil {
				return err
			}
			snap = editor.Runtime().State()
			_ = editor.Close()
			_ = backend.Close()
		}

		return printState(cmd.OutOrStdout(), format, snap)
	},
}

func printState(w io.Writer, format string, snap domain.Snapshot) error {
	if format == "" {
		format = "json"
		if stdoutIsTerminal() {
			format = "tree"
		}
	}

	switch format {
	case "mermaid":
		_, err := fmt.Fprint(w, graph.GenerateMermaid(snap, nil))
		return err
	case "tree":
		out, err := tui.NewRenderer()(tui.MarkdownTree(snap))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	default:
		return cli.Print(w, format, snap)
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().String("server", "", "Base URL of a running canopy server")
	stateCmd.Flags().StringP("format", "f", "", "Output format: json, yaml, mermaid or tree")
}
