package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/kozaktomas/id-verifier/internal/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <image>",
	Short: "Verify a document image against the register",
	Long: `Verify a single document image from the command line.

The image goes through the same pipeline as the web API: text recognition,
weighted scoring against the register, and heuristic field extraction when
requested. With --face the image is additionally matched against the
enrolled face set.

Examples:
  # Verify a scanned document
  id-verifier verify scan.jpg

  # Also run the face match
  id-verifier verify photo.jpg --face

  # Skip the register and extract fields directly
  id-verifier verify foreign-id.jpg --external

  # JSON output for scripting
  id-verifier verify scan.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Bool("face", false, "Also match the image against enrolled faces")
	verifyCmd.Flags().Bool("external", false, "Skip register matching and extract fields heuristically")
	verifyCmd.Flags().Bool("json", false, "Output as JSON")
}

// VerifyCLIResult is the JSON shape printed by the verify command.
type VerifyCLIResult struct {
	Image   string         `json:"image"`
	Result  string         `json:"result"`
	Outcome verify.Outcome `json:"outcome"`
	Face    *FaceCLIResult `json:"face,omitempty"`
}

// FaceCLIResult summarizes the face match portion.
type FaceCLIResult struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Matched  bool    `json:"matched"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	withFace := mustGetBool(cmd, "face")
	external := mustGetBool(cmd, "external")
	jsonOutput := mustGetBool(cmd, "json")

	imageData, err := os.ReadFile(args[0])
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
	verifier := a.newVerifier(provider)

	opts := verify.Options{ImageName: filepath.Base(args[0])}

	var outcome verify.Outcome
	if external {
		outcome, err = verifier.VerifyExternal(ctx, imageData, opts)
	} else {
		outcome, err = verifier.VerifyDocument(ctx, imageData, opts)
	}
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	result := VerifyCLIResult{
		Image:   args[0],
		Result:  outcome.DataResult(),
		Outcome: outcome,
	}

	if withFace {
		face, err := verifier.VerifyFace(ctx, imageData)
		if err != nil {
			return fmt.Errorf("face match failed: %w", err)
		}
		result.Face = &FaceCLIResult{Label: face.Label, Distance: face.Distance, Matched: face.Matched}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printVerifyResult(&result)
	return nil
}

func printVerifyResult(result *VerifyCLIResult) {
	fmt.Printf("Image:  %s\n", result.Image)
	fmt.Printf("Result: %s\n", result.Result)

	switch o := result.Outcome.(type) {
	case verify.Matched:
		fmt.Printf("Match:  document %d (%s)\n", o.DocumentID, o.Strength)
		if len(o.Candidates) > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DOCUMENT\tNUMBER\tSURNAME\tSCORE")
			for _, c := range o.Candidates {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\n", c.DocumentID, c.Number, c.Surname, c.GlobalScore)
			}
			w.Flush()
		}
	case verify.NotMatched:
		fmt.Println("Match:  no register document cleared the threshold")
	case verify.External:
		fmt.Println("Extracted fields:")
		fmt.Printf("  Surname:    %s\n", orDash(o.Fields.Surname))
		fmt.Printf("  Given name: %s\n", orDash(o.Fields.GivenName))
		fmt.Printf("  Number:     %s\n", orDash(o.Fields.Number))
	case verify.Failed:
		fmt.Printf("Failed: %s\n", o.Reason)
	}

	if result.Face != nil {
		if result.Face.Matched {
			fmt.Printf("Face:   %s (distance %.4f)\n", result.Face.Label, result.Face.Distance)
		} else {
			fmt.Printf("Face:   %s\n", result.Face.Label)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
