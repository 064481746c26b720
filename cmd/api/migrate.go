package main

import (
	"authsvc/internal/config"
	"authsvc/internal/infra/db"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// テーブル作成（users, refresh_sessions, audit_logs）
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return oops.Code("CONFIG_INVALID").Errorf("migrate needs STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	cmd.Println("Connecting to database...")
	gormDB, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	cmd.Println("Running migrations...")
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
