package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidekit/aide/internal/render"
)

func newRenderCommand(opts *RootOptions) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "render <document-id>",
		Short: "Render a document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel != string(render.ChannelHTML) && channel != string(render.ChannelText) {
				return fmt.Errorf("invalid channel %q: must be html or text", channel)
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
			out, err := render.Render(doc.Snapshot, doc.Blueprint, doc.Events, render.Options{
				Channel: render.Channel(channel),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "html", "output channel (html|text)")
	return cmd
}
