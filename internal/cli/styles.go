package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stylestudio/internal/styles"
)

type styleEntry struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Steps       []string `json:"steps" yaml:"steps"`
}

func NewStylesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the style catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := styles.Catalog()
			entries := make([]styleEntry, 0, len(catalog))
			for _, def := range catalog {
				entries = append(entries, styleEntry{Name: def.Name, Description: def.Description, Steps: styles.StepStrings(def)})
			}
			return newFormatter(rootOpts, cmd).Success(entries, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintln(w, e.Name)
					for _, step := range e.Steps {
						fmt.Fprintf(w, "  %s\n", step)
					}
				}
			})
		},
	}
}
