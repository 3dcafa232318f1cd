package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/staylink_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/staylink_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "staylink",
	Short: "Staylink booking settlement backend.",
	Long: `Staylink settles guest bookings between the platform, the host that
referred the guest and the vendor that provides the experience. It records a
settlement plan per booking and opens a Stripe checkout session for it.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
