package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database/mariadb"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the legacy MariaDB register into PostgreSQL",
	Long: `Import documents from the legacy MariaDB register into PostgreSQL.

Every document from the legacy register is copied into the local register.
Existing documents are not deduplicated; run the import against an empty
register or accept duplicates.

Examples:
  # Import from the DSN in LEGACY_MARIADB_DSN
  id-verifier import

  # Explicit DSN
  id-verifier import --mariadb-dsn "register:register@tcp(mariadb:3306)/register"

  # Count only, import nothing
  id-verifier import --dry-run`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("mariadb-dsn", "", "Legacy MariaDB DSN (defaults to LEGACY_MARIADB_DSN)")
	importCmd.Flags().Bool("dry-run", false, "Count legacy documents without importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	dsn := mustGetString(cmd, "mariadb-dsn")
	dryRun := mustGetBool(cmd, "dry-run")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if dsn == "" {
		dsn = a.cfg.Legacy.MariaDBDSN
	}
	if dsn == "" {
		return errors.New("legacy DSN is required (--mariadb-dsn or LEGACY_MARIADB_DSN)")
	}

	ctx := context.Background()

	fmt.Println("Running database migrations...")
	if err := a.pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Println("Connecting to legacy MariaDB register...")
	legacy, err := mariadb.NewPool(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to MariaDB: %w", err)
	}
	defer legacy.Close()

	count, err := legacy.CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count legacy documents: %w", err)
	}
	fmt.Printf("Legacy register holds %d document(s)\n", count)

	if dryRun {
		return nil
	}
	if count == 0 {
		fmt.Println("Nothing to import")
		return nil
	}

	docs, err := legacy.FetchDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch legacy documents: %w", err)
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	imported, failed := 0, 0
	for i := range docs {
		doc := docs[i]
		doc.ID = 0 // local register assigns its own ids
		if _, err := a.documents.Create(ctx, &doc); err != nil {
			failed++
			fmt.Printf("\nWarning: failed to import document %s: %v\n", doc.Number, err)
		} else {
			imported++
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	a.index.Invalidate()

	fmt.Printf("Imported %d document(s), %d failure(s)\n", imported, failed)
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to import", failed)
	}
	return nil
}
