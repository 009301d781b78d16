package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidekit/aide/internal/event"
)

func newApplyCommand(opts *RootOptions) *cobra.Command {
	var eventsPath string

	cmd := &cobra.Command{
		Use:   "apply <document-id>",
		Short: "Apply a batch of primitive events to a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(eventsPath)
			if err != nil {
				return fmt.Errorf("read events: %w", err)
			}
			var events []event.Event
			if err := json.Unmarshal(data, &events); err != nil {
				return fmt.Errorf("parse events: %w", err)
			}

			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			doc, err := asm.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := asm.Apply(cmd.Context(), doc, events)
			if err != nil {
				return err
			}
			if result.Applied > 0 {
				if err := asm.Save(cmd.Context(), doc); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "applied %d of %d\n", result.Applied, len(events))
			for _, warning := range result.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
			}
			for _, failure := range result.Failures {
				fmt.Fprintf(cmd.OutOrStdout(), "failed %s: %s\n", failure.Event.Type, failure.Reason)
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d events failed", len(result.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&eventsPath, "events", "", "JSON file holding an array of events")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}
