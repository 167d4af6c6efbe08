// Command crmadmin runs maintenance operations against the CRM database
// without going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/formula-lab/crm-api/internal/app"
	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is populated by the root command before any subcommand runs
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	infra *app.Infra
	svc   *app.Services
}

var current env

// offlineAnnotation marks commands that run without database connections
const offlineAnnotation = "offline"

var rootCmd = &cobra.Command{
	Use:           "crmadmin",
	Short:         "CRM maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithSecrets(cmd.Context(), zap.NewNop())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		if cmd.Annotations[offlineAnnotation] == "true" {
			current = env{cfg: cfg, log: log}
			return nil
		}
		infra, err := app.Connect(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		current = env{cfg: cfg, log: log, infra: infra, svc: app.NewServices(cfg, infra, log)}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.infra != nil {
			current.infra.Close(context.Background(), current.log)
		}
		if current.log != nil {
			_ = current.log.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, duplicatesCmd, mergeCmd, recalculateCmd, sequencesCmd, resetCmd, tokenCmd)
}

func main() {
	// Changes made from the CLI are attributed to the system operator
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      auth.SystemUserID,
		DisplayName: "crmadmin",
		Roles:       []domain.UserRoleType{domain.RoleSuperAdmin},
	})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
