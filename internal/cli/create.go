package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aidekit/aide/internal/docformat"
)

// blueprintFile is the YAML shape accepted by --blueprint.
type blueprintFile struct {
	Identity string `yaml:"identity"`
	Voice    string `yaml:"voice"`
	Prompt   string `yaml:"prompt"`
}

func newCreateCommand(opts *RootOptions) *cobra.Command {
	var blueprintPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new empty document",
		RunE: func(cmd *cobra.Command, args []string) error {
			blueprint := docformat.Blueprint{}
			if blueprintPath != "" {
				data, err := os.ReadFile(blueprintPath)
				if err != nil {
					return fmt.Errorf("read blueprint: %w", err)
				}
				var file blueprintFile
				if err := yaml.Unmarshal(data, &file); err != nil {
					return fmt.Errorf("parse blueprint: %w", err)
				}
				blueprint = docformat.Blueprint{
					Identity: file.Identity,
					Voice:    file.Voice,
					Prompt:   file.Prompt,
				}
			}

			asm, closer, err := opts.openAssembly()
			if err != nil {
				return err
			}
			defer closer()

			doc, err := asm.Create(cmd.Context(), blueprint)
			if err != nil {
				return err
			}
			if err := asm.Save(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&blueprintPath, "blueprint", "", "YAML blueprint file (identity/voice/prompt)")
	return cmd
}
