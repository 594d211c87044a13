package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/app"
	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/database"
	"vibeshop.com/app/internal/logging"
	"vibeshop.com/app/internal/modules/payments"
)

// env is loaded once per invocation by the root PersistentPreRunE.
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func (e *env) app(ctx context.Context, opts app.Options) (*app.App, error) {
	return app.New(ctx, e.cfg, e.db, logging.New(e.cfg.Log), opts)
}

func RootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "VibeShop maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(os.Environ)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DB, logging.New(cfg.Log))
			if err != nil {
				return err
			}
			e.cfg, e.db = cfg, db
			return nil
		},
	}
	root.AddCommand(
		migrateCmd(e),
		adminCmd(e),
		reviewsCmd(e),
		sessionsCmd(e),
		payCmd(e),
	)
	return root
}

func migrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Apply or inspect schema migrations"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := database.Up(cmd.Context(), e.db); err != nil {
					return err
				}
				v, err := database.Version(cmd.Context(), e.db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return database.Down(cmd.Context(), e.db)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the migration status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return database.Status(cmd.Context(), e.db)
			},
		},
	)
	return cmd
}

func adminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Manage administrator accounts"}
	cmd.AddCommand(&cobra.Command{
		Use:   "grant <email>",
		Short: "Give an existing member the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.app(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			u, err := a.Users.GrantAdmin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", u.Email, u.ID)
			return nil
		},
	})
	return cmd
}

func reviewsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "reviews", Short: "Moderate reviews"}
	cmd.AddCommand(&cobra.Command{
		Use:   "approve-pending",
		Short: "Approve every pending review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.app(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			n, err := a.Reviews.ApprovePending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %d reviews\n", n)
			return nil
		},
	})
	return cmd
}

func sessionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "sessions", Short: "Manage login sessions"}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.app(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			n, err := a.Auth.PurgeExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions\n", n)
			return nil
		},
	})
	return cmd
}

var errMockOnly = errors.New("pay simulate needs payments.provider=mock")

func payCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{Use: "pay", Short: "Payment utilities"}
	cmd.AddCommand(&cobra.Command{
		Use:   "simulate <order-number>",
		Short: "Confirm a pending order through the mock gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.Payments.Provider != "mock" {
				return errMockOnly
			}
			ctx := cmd.Context()
			a, err := e.app(ctx, app.Options{Provider: payments.NewMock(), SyncMail: true})
			if err != nil {
				return err
			}
			o, err := a.Orders.Repo().FindByNumber(ctx, args[0])
			if err != nil {
				return err
			}
			amount := decimal.NewFromInt(o.Amount)
			paid, err := a.Payments.ConfirmSuccess(ctx, payments.SuccessParams{
				PaymentKey: payments.NewMockKey(o.OrderNumber, amount),
				OrderID:    o.OrderNumber,
				Amount:     amount.String(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s is %s\n", paid.OrderNumber, paid.Status)
			return nil
		},
	})
	return cmd
}
