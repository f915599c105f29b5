// Package cmd implements the smart-album command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smart-album",
	Short: "A self-hosted photo album with semantic search and face clustering",
	Long: `Smart Album is a personal photo album backend. Uploaded photos are
embedded with CLIP-style models, clustered by the faces they contain and
optionally described by a vision LLM, so the album can be searched by
text, by example image or by person.`,
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
