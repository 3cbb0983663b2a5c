package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"annotcore/internal/infra/blob"
	blobcore "annotcore/internal/infra/blob/core"
	"annotcore/internal/infra/persistence"
)

// DraftCmd returns the draft command group.
func DraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage saved upload drafts",
		Long:  `Save, list, inspect, and delete upload drafts in the configured draft store.`,
	}

	cmd.AddCommand(draftSaveCmd())
	cmd.AddCommand(draftListCmd())
	cmd.AddCommand(draftShowCmd())
	cmd.AddCommand(draftExportCmd())
	cmd.AddCommand(draftDeleteCmd())
	return cmd
}

func draftExportCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "export [draft-id]",
		Short: "Write a draft's JSON payload to the configured blob store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := persistence.OpenDraftStore(ctx)
			if err != nil {
				return fmt.Errorf("open draft store: %w", err)
			}
			defer store.Close()

			draft, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(draft, "", "  ")
			if err != nil {
				return err
			}

			blobs, err := blob.OpenFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}
			if key == "" {
				key = "drafts/" + draft.ID + ".json"
			}
			info, err := blobs.Put(ctx, key, bytes.NewReader(payload),
				blobcore.PutOptions{ContentType: "application/json", Metadata: map[string]string{"draft": draft.ID}})
			if err != nil {
				return fmt.Errorf("export draft: %w", err)
			}
			fmt.Printf("%s Exported draft %s to %s (%d byte(s), %s)\n",
				okColor("✓"), draft.ID, info.Key, info.Size, blobs.Driver())
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "blob key (default drafts/<id>.json)")
	return cmd
}

func draftSaveCmd() *cobra.Command {
	var templatePath string
	var recursive bool
	var name string

	cmd := &cobra.Command{
		Use:   "save [files or globs...]",
		Short: "Save the given files as a named upload draft",
		Long: `Build an upload from the given files, apply the template, and persist
the session as a draft. Prints the generated draft id.

Examples:
  annotcore draft save --name batch-1 --template plate.json images/*.czi`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, err := newSession(ctx, templatePath, args, recursive)
			if err != nil {
				return err
			}
			id, err := svc.SaveDraft(ctx, name)
			if err != nil {
				return fmt.Errorf("save draft: %w", err)
			}
			fmt.Printf("%s Saved draft %s (%d file(s))\n", okColor("✓"), id, len(svc.FileNames()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "draft name (required)")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "annotation template JSON file")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "expand directories recursively")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func draftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := persistence.OpenDraftStore(ctx)
			if err != nil {
				return fmt.Errorf("open draft store: %w", err)
			}
			defer store.Close()

			infos, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("No drafts saved.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSAVED\tFILES")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					info.ID, info.Name, info.SavedAt.Format("2006-01-02 15:04:05"), info.Files)
			}
			return w.Flush()
		},
	}
}

func draftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [draft-id]",
		Short: "Show the row hierarchy of a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, err := newSession(ctx, "", nil, false)
			if err != nil {
				return err
			}
			if err := svc.LoadDraft(ctx, args[0]); err != nil {
				return fmt.Errorf("load draft: %w", err)
			}

			if template, ok := svc.Template(); ok {
				fmt.Printf("Template: %s (v%d)\n", template.Name, template.Version)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ROW\tPOSITIONS\tSCENES\tSUB-IMAGES\tCHANNELS\tWELLS")
			for _, row := range svc.Rows() {
				printRow(w, row, 0)
			}
			return w.Flush()
		},
	}
}

func draftDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [draft-id]",
		Short: "Delete a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := persistence.OpenDraftStore(ctx)
			if err != nil {
				return fmt.Errorf("open draft store: %w", err)
			}
			defer store.Close()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Deleted draft %s\n", okColor("✓"), args[0])
			return nil
		},
	}
}
