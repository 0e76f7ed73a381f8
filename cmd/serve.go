package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/id-verifier/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification web server",
	Long: `Start the ID Verifier web server.
The server exposes the verification API (face match, document match, external
extraction), register and enrollment management, and verification statistics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	fmt.Println("Running database migrations...")
	if err := a.pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if port := mustGetInt(cmd, "port"); port != 0 {
		a.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		a.cfg.Web.Host = host
	}

	provider, err := a.newProvider(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Recognition backend: %s\n", provider.Name())

	if count, err := a.store.Count(ctx); err != nil {
		fmt.Printf("Warning: failed to load enrolled faces: %v\n", err)
	} else {
		fmt.Printf("Enrolled identities: %d\n", count)
	}
	if snap, err := a.index.Snapshot(ctx); err != nil {
		fmt.Printf("Warning: failed to load document register: %v\n", err)
	} else {
		fmt.Printf("Register documents: %d\n", len(snap.Documents))
	}

	server, err := web.NewServer(a.cfg, web.Deps{
		Verifier: a.newVerifier(provider),
		Store:    a.store,
		Index:    a.index,
		Provider: provider,

		Documents:     a.documents,
		DocumentTypes: a.docTypes,
		Places:        a.places,
		EnrolledFaces: a.enrolled,
		OCRRecords:    a.ocrRecords,
		Verifications: a.verifications,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting ID Verifier on http://%s:%d\n", a.cfg.Web.Host, a.cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
