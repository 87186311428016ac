package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thornlink/thorn/backend/config"
)

func newMediaPolicyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "media-policy",
		Short: "Allow public reads of uploaded profile media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.MediaEnabled() {
				return fmt.Errorf("no media bucket configured (S3_BUCKET_NAME)")
			}
			s3Config, err := config.NewS3Config(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initializing S3 client: %w", err)
			}
			if err := s3Config.SetupBucketPolicy(cmd.Context()); err != nil {
				return fmt.Errorf("applying bucket policy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public read enabled on %s/profiles/\n", s3Config.BucketName)
			return nil
		},
	}
}
