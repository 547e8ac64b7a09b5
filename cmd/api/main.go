package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reliefnet-api",
	Short: "Disaster relief coordination API",
	Long: `reliefnet-api serves the REST and WebSocket API used to report incidents,
request aid and coordinate the volunteers and NGOs who respond to them.`,
	SilenceUsage: true,
	// serve is the default command
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file (env vars and .env take precedence)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
