package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"annotcore/internal/core"
)

// RowsCmd returns the rows command.
func RowsCmd() *cobra.Command {
	var templatePath string
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rows [files or globs...]",
		Short: "Show the hierarchical upload table for the given files",
		Long: `Build an upload from the given files and print the row hierarchy the
annotation table would display: one top-level row per file with its
aggregated dimension values, nested sub-image and channel rows below.

Examples:
  annotcore rows images/*.czi
  annotcore rows --template plate.json --recursive ./acquisition/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, err := newSession(ctx, templatePath, args, recursive)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ROW\tPOSITIONS\tSCENES\tSUB-IMAGES\tCHANNELS\tWELLS")
			for _, row := range svc.Rows() {
				printRow(w, row, 0)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "annotation template JSON file")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "expand directories recursively")
	return cmd
}

func printRow(w *tabwriter.Writer, row core.Row, depth int) {
	label := rowLabel(row)
	fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("  ", depth),
		label,
		joinInts(row.PositionIndexes),
		joinInts(row.Scenes),
		strings.Join(row.SubImageNames, ","),
		strings.Join(row.ChannelIDs, ","),
		joinInts(row.Record.WellIDs),
	)
	for _, sub := range row.SubRows {
		printRow(w, sub, depth+1)
	}
}

func rowLabel(row core.Row) string {
	key := row.Key
	switch {
	case key.ChannelID != "" && key.HasSubImage():
		return "channel " + key.ChannelID
	case key.ChannelID != "":
		return filepath.Base(key.File) + " / channel " + key.ChannelID
	case key.PositionIndex.Valid:
		return fmt.Sprintf("position %d", key.PositionIndex.Value)
	case key.Scene.Valid:
		return fmt.Sprintf("scene %d", key.Scene.Value)
	case key.SubImageName != "":
		return key.SubImageName
	default:
		return filepath.Base(key.File)
	}
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}
