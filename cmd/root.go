package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "id-verifier",
	Short: "Identity verification against a document register",
	Long: `ID Verifier matches probe face images against enrolled identities and
scores recognized document text against a reference register. It serves a
web API for verification points and ships operator commands for enrollment,
register import and statistics.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
