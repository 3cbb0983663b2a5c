package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"annotcore/internal/infra/blob"
	blobcore "annotcore/internal/infra/blob/core"
)

// RequestsCmd returns the requests command.
func RequestsCmd() *cobra.Command {
	var templatePath string
	var recursive bool
	var publishKey string

	cmd := &cobra.Command{
		Use:   "requests [files or globs...]",
		Short: "Emit the per-file upload request payloads as JSON",
		Long: `Build an upload from the given files, apply the template, and print the
submission payloads as a JSON array. Fails when validation blocks the
submission. With --publish the bundle is also written to the configured
blob store under the given key.

Examples:
  annotcore requests --template plate.json images/*.czi > payloads.json
  annotcore requests --template plate.json --publish uploads/batch-1.json images/*.czi`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, err := newSession(ctx, templatePath, args, recursive)
			if err != nil {
				return err
			}
			if !svc.CanSubmit() {
				for _, msg := range svc.ValidationErrors() {
					fmt.Fprintf(os.Stderr, "%s %s\n", errColor("✗"), msg)
				}
				return fmt.Errorf("upload is not submittable")
			}

			requests, err := svc.UploadRequests()
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(requests, "", "  ")
			if err != nil {
				return err
			}
			if publishKey != "" {
				store, err := blob.OpenFromEnv(ctx)
				if err != nil {
					return fmt.Errorf("open blob store: %w", err)
				}
				info, err := store.Put(ctx, publishKey, bytes.NewReader(payload),
					blobcore.PutOptions{ContentType: "application/json"})
				if err != nil {
					return fmt.Errorf("publish bundle: %w", err)
				}
				fmt.Fprintf(os.Stderr, "%s Published %d byte(s) to %s (%s)\n",
					okColor("✓"), info.Size, info.Key, store.Driver())
			}
			_, err = os.Stdout.Write(append(payload, '\n'))
			return err
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "annotation template JSON file (required)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "expand directories recursively")
	cmd.Flags().StringVar(&publishKey, "publish", "", "also write the bundle to the blob store under this key")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
