package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shelfly/shelfly-backend/internal/config"
	"github.com/shelfly/shelfly-backend/internal/database"
	"github.com/shelfly/shelfly-backend/internal/observability"
	"github.com/shelfly/shelfly-backend/internal/tools/common"
	"github.com/shelfly/shelfly-backend/internal/tools/ui"
)

type options struct {
	envFile   string
	demoEmail string
	ci        bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.demoEmail, "demo-email", "", "override demo account email")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply demo seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.SeedDemoEmail
				if opts.demoEmail != "" {
					email = opts.demoEmail
				}
				report, err := database.Seed(db, email)
				if err != nil {
					return nil, err
				}
				if report.Noop {
					return []string{"nothing to seed"}, nil
				}
				return []string{
					fmt.Sprintf("created users: %d", report.CreatedUsers),
					fmt.Sprintf("created products: %d", report.CreatedProducts),
					"demo account: " + email,
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.SeedDemoEmail
				if opts.demoEmail != "" {
					email = opts.demoEmail
				}
				if email == "" {
					return []string{"no demo email configured, seeding would be a no-op"}, nil
				}
				return []string{
					"would ensure demo user: " + email,
					"would create starter products: Milk, Bread, Eggs",
					"existing accounts are left untouched",
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, command string, fn func(context.Context) ([]string, error)) ([]string, error) {
	var details []string
	var err error
	if opts.ci {
		details, err = fn(context.Background())
	} else {
		details, err = ui.Run("seed "+command, fn)
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	observability.RecordToolCommandRun(context.Background(), "seed", command, status)
	return details, err
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
