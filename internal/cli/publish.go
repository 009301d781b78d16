package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(opts *RootOptions) *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "publish <document-id>",
		Short: "Write a public copy of a document",
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
			result, err := asm.Publish(cmd.Context(), doc, slug, opts.FreeTier)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (hash %s)\n", result.Slug, result.ContentHash)
			if result.EventLogOmitted {
				fmt.Fprintln(cmd.OutOrStdout(), "event log omitted from public copy")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "publish slug (defaults to the document id)")
	return cmd
}

func newForkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fork <document-id>",
		Short: "Deep-clone a document under a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			fork, err := asm.Fork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fork.ID)
			return nil
		},
	}
}
