package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/database"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/repository"
)

type demoProfile struct {
	username    string
	displayName string
	bio         string
	avatarURL   string
	verified    bool
	links       []models.LinkItem
}

var demoProfiles = []demoProfile{
	{
		username:    "thorn",
		displayName: "Thorn",
		avatarURL:   "https://thorn.bio/static/avatars/thorn.png",
		bio:         "Official account.\nOne link for everything.",
		verified:    true,
		links: []models.LinkItem{
			{Title: "GitHub", URL: "https://github.com/thornlink"},
			{Title: "Discord", URL: "https://discord.gg/thorn"},
			{Title: "X", URL: "https://x.com/thornlink"},
		},
	},
	{
		username:    "ghost",
		displayName: "Ghost",
		avatarURL:   "https://thorn.bio/static/avatars/ghost.png",
	},
}

// demoOwner derives a stable owner id so reseeding finds the same rows.
func demoOwner(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://thorn.bio/"+username))
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo profiles",
		Long:  `Create the demo profiles. Profiles that already exist are left alone.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(_ *config.Config, db *database.DB) error {
				repo := repository.NewProfileRepository(db.DB)
				ctx := cmd.Context()

				for _, demo := range demoProfiles {
					existing, err := repo.FetchByHandle(ctx, demo.username)
					if err != nil {
						return err
					}
					if existing != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "  skip %s (exists)\n", demo.username)
						continue
					}

					profile, err := models.NewProfile(demoOwner(demo.username), demo.username, demo.displayName, demo.avatarURL)
					if err != nil {
						return err
					}
					if demo.bio != "" {
						bio := demo.bio
						profile.Bio = &bio
					}
					for _, link := range demo.links {
						if err := profile.Links.Append(link.Title, link.URL); err != nil {
							return fmt.Errorf("seeding %s: %w", demo.username, err)
						}
					}
					if err := repo.Create(ctx, profile); err != nil {
						return fmt.Errorf("seeding %s: %w", demo.username, err)
					}
					if demo.verified {
						if err := repo.SetVerified(ctx, profile.ID, true); err != nil {
							return err
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  created %s\n", demo.username)
				}
				return nil
			})
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "verify <username>",
		Short: "Set or clear the verified badge of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(_ *config.Config, db *database.DB) error {
				repo := repository.NewProfileRepository(db.DB)
				profile, err := repo.FetchByHandle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if profile == nil {
					return &models.NotFoundError{What: "profile"}
				}
				if err := repo.SetVerified(cmd.Context(), profile.ID, !unset); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s verified=%t\n", profile.Username, !unset)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "Remove the badge instead of granting it")
	return cmd
}
