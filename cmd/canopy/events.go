package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/canopy/internal/cli"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the event log",
	Long: `Prints every recorded event as one JSON line prefixed with its sequence.
With --follow it keeps printing live events until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		follow, _ := cmd.Flags().GetBool("follow")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		var log ports.EventLog
		if serverURL != "" {
			log = canopyhttp.NewClient(serverURL, canopyhttp.WithClientLogger(logger))
		} else {
			backend, err := cli.BuildBackend(sigCtx, settings, logger)
			if err != nil {
				return err
			}
			defer backend.Close()
			log = backend.Log
		}

		recs, err := log.Fetch(sigCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}
		out := cmd.OutOrStdout()
		cursor := ""
		for _, rec := range recs {
			if err := printRecord(out, rec); err != nil {
				return err
			}
			cursor = rec.Seq
		}
		if !follow {
			return nil
		}

		live, err := log.Subscribe(sigCtx, cursor)
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		for rec := range live {
			if err := printRecord(out, rec); err != nil {
				return err
			}
		}
		return nil
	},
}

func printRecord(w io.Writer, rec domain.Record) error {
	data, err := json.Marshal(rec.Event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", rec.Seq, data)
	return err
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("server", "", "Base URL of a running canopy server")
	eventsCmd.Flags().BoolP("follow", "F", false, "Keep printing live events")
}
