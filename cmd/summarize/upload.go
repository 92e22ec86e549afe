package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/newsdigest/internal/infra/docstore"
)

func newUploadCmd(c *cli) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Copy local annotated groups into the configured object store",
		Long: `Upload every *.json group in --input to the groups/ prefix of the bucket under
storage.objectStore, so that "summarize run" can read them from there.

Example:
  OBJECT_STORE_BUCKET=news summarize upload --input data/groups`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obj := c.cfg.Storage.ObjectStore
			if !obj.Enabled() {
				return errors.New("storage.objectStore is not configured")
			}
			remote, err := docstore.NewObjectStore(docstore.ObjectStoreOptions{
				Endpoint:        obj.Endpoint,
				AccessKeyID:     obj.AccessKeyID,
				SecretAccessKey: obj.SecretAccessKey,
				Bucket:          obj.Bucket,
				Region:          obj.Region,
				UseSSL:          obj.UseSSL,
			}, c.logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			local := docstore.NewFileStore(input, "", c.logger)
			names, err := local.List(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				group, err := local.Load(ctx, name)
				if err != nil {
					return err
				}
				if err := remote.PutGroup(ctx, name, group); err != nil {
					return fmt.Errorf("upload %s: %w", name, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			c.logger.Info("groups uploaded", "count", len(names), "bucket", obj.Bucket)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "directory of annotated *.json groups")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
