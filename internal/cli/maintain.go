package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompactCommand(opts *RootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "compact <document-id>",
		Short: "Truncate a document's persisted event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			doc, err := asm.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			before := len(doc.Events)
			if err := asm.Compact(cmd.Context(), doc, keep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compacted %d -> %d events\n", before, len(doc.Events))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "number of recent events to retain")
	return cmd
}

func newCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <document-id>",
		Short: "Compare the stored snapshot against a replay of the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			doc, err := asm.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := asm.IntegrityCheck(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if report.Match {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: snapshot matches replay of %d events\n", report.EventCount)
				return nil
			}
			return fmt.Errorf("snapshot diverges from replay of %d events (run repair)", report.EventCount)
		},
		Args: cobra.ExactArgs(1),
	}
}

func newRepairCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <document-id>",
		Short: "Recompute the snapshot from the event log and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			doc, err := asm.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := asm.Repair(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "repaired")
			return nil
		},
	}
}
