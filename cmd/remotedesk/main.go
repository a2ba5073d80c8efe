package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanujdesk/remotedesk/internal/config"
	"github.com/tanujdesk/remotedesk/internal/logging"
)

var (
	version = "0.1.0"

	cfgFile    string
	bindAddr   string
	listenPort int
	hostMode   bool
	connectID  string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "remotedesk",
	Short: "RemoteDesk peer-to-peer remote desktop",
	Long:  `RemoteDesk - a peer-to-peer remote desktop agent with mDNS discovery and a QUIC transport`,
	Run: func(cmd *cobra.Command, args []string) {
		run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remotedesk v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the per-user config dir's config.toml)")
	rootCmd.PersistentFlags().StringVar(&bindAddr, "addr", "", "address to bind the local QUIC endpoint to (default 0.0.0.0:<port>)")
	rootCmd.PersistentFlags().IntVar(&listenPort, "port", 0, "local listen port (overrides config.toml)")
	rootCmd.Flags().BoolVar(&hostMode, "host", false, "print the host-mode startup banner (inbound connections are accepted in every mode)")
	rootCmd.Flags().StringVar(&connectID, "connect", "", "connect to this device id immediately on startup")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads configuration, brings up the local endpoint/discovery/manager,
// and drops into the interactive command loop. It is deliberately thin: all
// behavior lives in the packages it wires together.
func run() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	log = logging.L("main")

	if listenPort != 0 {
		cfg.ListenPort = listenPort
	}
	if bindAddr == "" {
		bindAddr = fmt.Sprintf("0.0.0.0:%d", cfg.ListenPort)
	}

	app, err := newApp(cfg, bindAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	fmt.Printf("Device ID: %s\n", app.deviceID.FormatWithSpaces())

	if err := app.Start(hostMode); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if connectID != "" {
		if err := app.connect(connectID, ""); err != nil {
			fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		}
	}

	runInteractive(app)
}
