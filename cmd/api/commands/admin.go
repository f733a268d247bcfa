package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/services/admin"
	"github.com/spf13/cobra"
)

var promoteEmail string

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant the admin role to an existing account",
	Long: `Marks the account with the given email as an active, verified admin.
Use it to bootstrap the first administrator after signing up normally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())

		svc := admin.NewService(
			repository.NewUserRepository(db.DB),
			repository.NewProductRepository(db.DB),
			repository.NewCheckoutRepository(db.DB),
			nil,
		)
		user, err := svc.PromoteAdmin(ctx, promoteEmail)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", user.Username, user.Email)
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account to promote")
	_ = promoteAdminCmd.MarkFlagRequired("email")
}
