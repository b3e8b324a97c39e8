package cmd

import (
	"fmt"
	"os"

	"user-service/internal/app"
	"user-service/internal/config"
	"user-service/internal/infrastructure/database"
	"user-service/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long:  "Manage the SQL migrations embedded in the user-service binary",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	Long:  "Execute all pending database migrations",
	Run:   runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  "Display the status of all migrations",
	Run:   runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func connectForMigrations() *gorm.DB {
	db, err := database.NewConnection(app.DatabaseConfig(config.Get()))
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	return db
}

func runMigrateUp(cmd *cobra.Command, args []string) {
	db := connectForMigrations()
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logger.Error("Migration failed: %v", err)
		os.Exit(1)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully!")
}

func runMigrateStatus(cmd *cobra.Command, args []string) {
	db := connectForMigrations()
	defer database.Close(db)

	migrationRunner := database.NewMigrationRunner(db, nil)
	migrations, err := migrationRunner.GetMigrationStatus()
	if err != nil {
		logger.Error("Failed to get migration status: %v", err)
		os.Exit(1)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Migration Status:")
	fmt.Fprintln(out, "================")
	for _, migration := range migrations {
		status := "Pending"
		if migration.AppliedAt != nil {
			status = fmt.Sprintf("Applied at %s", migration.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "%s - %s [%s]\n", migration.ID, migration.Description, status)
	}
}
