package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwv/nautilus/pilot"
)

// Version is set at build time via -ldflags
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "nautilus",
	Short: "nautilus - drop your waypoints onto a 3D map",
	Long: `nautilus keeps a local store of waypoints and routes, compiles them to KML
and drops the file onto a browser-hosted 3D map.

Quick start:
  nautilus add Lighthouse 48.3583 -4.7710          # Free point
  nautilus add --route Approach Buoy 48.36 -4.76   # Append to a route
  nautilus list                                    # Show the store
  nautilus push                                    # Update the map once
  nautilus sail                                    # Interactive wheelhouse`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", pilot.DefaultConfigPath, "Path to configuration file")

	rootCmd.AddCommand(
		addCmd,
		removeCmd,
		listCmd,
		compileCmd,
		geojsonCmd,
		previewCmd,
		pushCmd,
		calibrateCmd,
		serveCmd,
		importCmd,
		sailCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
