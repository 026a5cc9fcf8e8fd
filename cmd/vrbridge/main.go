// Command vrbridge drives and inspects the tracker bridge socket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "vrbridge",
		Short: "Stream tracker events over the driver bridge socket",
		Long: `vrbridge speaks the length-prefixed protobuf protocol used between an
external tracking driver and its consumer over a Unix socket.

  driver   accept one consumer and stream a demo tracker
  peer     connect to a driver and print what it sends`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVarP(&flags.socketPath, "socket", "s", "", "Socket path (default: $XDG_RUNTIME_DIR/SlimeVRDriver)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		driverCmd(&flags),
		peerCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vrbridge %s (%s)\n", version, commit)
		},
	}
}
