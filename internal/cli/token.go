package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thornlink/thorn/backend/internal/service"
)

// defaultAvatar lets a locally issued token claim a profile.
const defaultAvatar = "https://thorn.bio/static/avatars/default.png"

func newTokenCmd(a *app) *cobra.Command {
	var (
		owner  string
		avatar string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for local testing",
		Long: `Issue a bearer token signed with the configured JWT secret. Without
--owner a new owner id is generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			id := service.Identity{AvatarURL: avatar}
			if owner == "" {
				id.OwnerID = uuid.New()
			} else if id.OwnerID, err = uuid.Parse(owner); err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}

			token, err := service.NewIdentityService(cfg.JWTSecret).IssueToken(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id (uuid) to put in the token subject")
	cmd.Flags().StringVar(&avatar, "avatar", defaultAvatar, "Avatar URL carried by the identity")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
