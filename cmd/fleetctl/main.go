// Command fleetctl runs operator tasks against the transport database:
// migrations, account bootstrap, fleet seeding and CSV exports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/app"
	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/export"
	"github.com/spec-kit/campus-transport/internal/observability"
	"github.com/spec-kit/campus-transport/internal/seed"
	"github.com/spec-kit/campus-transport/internal/service"
)

var (
	// loadConfig is replaced in tests.
	loadConfig = config.Load
	logger     *zap.Logger

	verbose bool
	timeout time.Duration

	userName     string
	userEmail    string
	userPassword string
	userRole     string

	seedFile string

	exportOut  string
	exportFrom string
	exportTo   string
)

var rootCmd = &cobra.Command{
	Use:           "fleetctl",
	Short:         "Operator tooling for the campus transport service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := observability.NewLogger(config.LoggerConfig{Level: level, Service: "fleetctl"})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account of any role",
	Args:  cobra.NoArgs,
	RunE:  runCreateUser,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users, vehicles and drivers from a YAML file",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var exportCmd = &cobra.Command{
	Use:       "export <kind>",
	Short:     "Write a CSV export (trips, vehicles, drivers, maintenance, audit)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"trips", "vehicles", "drivers", "maintenance", "audit"},
	RunE:      runExport,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	createUserCmd.Flags().StringVar(&userName, "name", "", "Display name")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Login email")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Initial password (min 8 characters)")
	createUserCmd.Flags().StringVar(&userRole, "role", string(domain.RoleAdmin), "ADMIN, DRIVER or FACULTY")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "configs/seed.example.yaml", "Seed file path")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, - for stdout")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Range start (RFC3339)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Range end (RFC3339)")

	rootCmd.AddCommand(migrateCmd, createUserCmd, seedCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openContainer(ctx context.Context, opts app.Options) (*app.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts.SkipRedis = true
	return app.New(ctx, *cfg, logger, opts)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	container, err := openContainer(ctx, app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer container.Close()
	if !container.Postgres.Enabled() {
		return fmt.Errorf("POSTGRES_DSN is not set; nothing to migrate")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	container, err := openContainer(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer container.Close()

	user, err := container.Services.Users.CreateUser(ctx, service.SystemUser, service.UserCreateInput{
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
		Role:     domain.Role(userRole),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	file, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	container, err := openContainer(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer container.Close()

	svc := container.Services
	seeder := seed.NewSeeder(svc.Users, svc.Vehicles, svc.Drivers, container.Repos.Users, logger)
	res, err := seeder.Apply(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seed: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, err := export.ParseKind(args[0])
	if err != nil {
		return err
	}
	filter := service.ExportFilter{}
	if filter.From, err = parseFlagTime("from", exportFrom); err != nil {
		return err
	}
	if filter.To, err = parseFlagTime("to", exportTo); err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	container, err := openContainer(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer container.Close()

	var out io.Writer = cmd.OutOrStdout()
	if exportOut != "-" && exportOut != "" {
		fh, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer fh.Close()
		out = fh
	}

	rows, err := container.Services.Reports.Export(ctx, service.SystemUser, kind, filter, out)
	if err != nil {
		return err
	}
	if out != cmd.OutOrStdout() {
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s rows to %s\n", rows, kind, exportOut)
	}
	return nil
}

func parseFlagTime(name, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fmt.Errorf("--%s must be RFC3339: %w", name, err)
	}
	return &t, nil
}
