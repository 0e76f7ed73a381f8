package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage the document register",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents in the register",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsListCmd)

	documentsListCmd.Flags().Bool("json", false, "Output as JSON")
}

// DocumentListEntry is the JSON shape printed by documents list.
type DocumentListEntry struct {
	ID          int64  `json:"id"`
	Number      string `json:"numero_document"`
	Surname     string `json:"nom"`
	GivenName   string `json:"prenom"`
	Nationality string `json:"nationalite,omitempty"`
	ExpiryDate  string `json:"date_d_expiration,omitempty"`
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.documents.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	entries := make([]DocumentListEntry, 0, len(docs))
	for _, doc := range docs {
		entry := DocumentListEntry{
			ID:          doc.ID,
			Number:      doc.Number,
			Surname:     doc.Surname,
			GivenName:   doc.GivenName,
			Nationality: doc.Nationality,
		}
		if doc.ExpiryDate != nil {
			entry.ExpiryDate = doc.ExpiryDate.Format(time.DateOnly)
		}
		entries = append(entries, entry)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("The register is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tSURNAME\tGIVEN NAME\tNATIONALITY\tEXPIRES")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Number, e.Surname, e.GivenName, orDash(e.Nationality), orDash(e.ExpiryDate))
	}
	w.Flush()
	fmt.Printf("\n%d document(s)\n", len(entries))
	return nil
}
