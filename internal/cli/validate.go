package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cobra.Command {
	var templatePath string
	var recursive bool

	cmd := &cobra.Command{
		Use:   "validate [files or globs...]",
		Short: "Validate files against an annotation template",
		Long: `Build an upload from the given files, apply the template, and report
every submission-blocking validation error plus per-cell errors.

Exits non-zero when the upload could not be submitted as-is.

Examples:
  annotcore validate --template plate.json images/*.czi
  annotcore validate --template plate.json --recursive ./acquisition/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, err := newSession(ctx, templatePath, args, recursive)
			if err != nil {
				return err
			}

			errs := svc.ValidationErrors()
			cells := svc.AnnotationErrors()
			if len(errs) == 0 {
				fmt.Printf("%s %d file(s) pass validation\n", okColor("✓"), len(svc.FileNames()))
				return nil
			}

			for _, msg := range errs {
				fmt.Printf("%s %s\n", errColor("✗"), msg)
			}
			for _, key := range sortedCellKeys(cells) {
				names := make([]string, 0, len(cells[key]))
				for name := range cells[key] {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("  %s %s: %s\n", dimColor(key.String()), name, cells[key][name])
				}
			}
			return fmt.Errorf("%d validation error(s)", len(errs))
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "annotation template JSON file (required)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "expand directories recursively")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
