package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <image>",
	Short: "Enroll a face image under an identity label",
	Long: `Enroll a reference face image under an identity label.

The image is embedded by the configured recognition backend and stored in
the enrolled set. Enrolling an existing label replaces its embedding.

Examples:
  # Enroll a new identity
  id-verifier enroll jean-dupont photo.jpg

  # List and audit the enrolled set
  id-verifier enroll audit`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

var enrollAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report enrolled identities with suspiciously close embeddings",
	Long: `Audit the enrolled set for duplicate identities.

Builds a similarity graph over all enrolled embeddings and reports label
pairs closer than the distance cutoff, usually the same person enrolled
twice under different names.`,
	Args: cobra.NoArgs,
	RunE: runEnrollAudit,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.AddCommand(enrollAuditCmd)

	enrollAuditCmd.Flags().Float64("max-distance", 0.6, "Distance cutoff for reporting a pair as duplicate")
	enrollAuditCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	label, imagePath := args[0], args[1]

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	provider, err := a.newProvider(ctx)
	if err != nil {
		return err
	}

	embedding, err := provider.DetectAndEmbed(ctx, imageData)
	if err != nil {
		if errors.Is(err, recognizer.ErrNoFace) {
			return fmt.Errorf("no face detected in %s", imagePath)
		}
		return fmt.Errorf("failed to embed face: %w", err)
	}
	if len(embedding) != a.cfg.Matching.EmbeddingDim {
		return fmt.Errorf("backend returned a %d-dimensional embedding, expected %d",
			len(embedding), a.cfg.Matching.EmbeddingDim)
	}

	err = a.enrolled.Save(ctx, database.EnrolledFace{
		Label:     label,
		Embedding: embedding,
		Model:     provider.Name(),
		Dim:       len(embedding),
	})
	if err != nil {
		return fmt.Errorf("failed to save enrollment: %w", err)
	}
	a.store.Invalidate()

	fmt.Printf("Enrolled %q (%d dimensions, %s)\n", label, len(embedding), provider.Name())
	return nil
}

func runEnrollAudit(cmd *cobra.Command, args []string) error {
	maxDistance := mustGetFloat64(cmd, "max-distance")
	jsonOutput := mustGetBool(cmd, "json")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	duplicates, err := a.store.AuditDuplicates(ctx, maxDistance)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(duplicates)
	}

	if len(duplicates) == 0 {
		fmt.Printf("No enrolled pairs closer than %.2f\n", maxDistance)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tOTHER\tDISTANCE")
	for _, d := range duplicates {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", d.Label, d.Other, d.Distance)
	}
	w.Flush()
	fmt.Printf("\n%d suspicious pair(s)\n", len(duplicates))
	return nil
}
