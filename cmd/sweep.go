package cmd

import (
	"context"
	"fmt"

	"foodbridge/routes"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark every listing past its expiry as expired, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.close()

		app := routes.NewApp(b.store, b.events, appOptions(cfg))
		n, err := app.ListingSvc.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d listings\n", n)
		return nil
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
			return fmt.Errorf("admin_email and admin_password must both be set")
		}
		b, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.close()

		app := routes.NewApp(b.store, b.events, appOptions(cfg))
		return app.AuthSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	},
}
