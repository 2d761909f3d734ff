package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwv/nautilus/pilot"
)

var (
	flagRoute        string
	flagOutput       string
	flagFormat       string
	flagHidePrevious bool
	flagVerify       bool
	flagLogical      bool
	flagRetries      int
	flagFetchTimeout time.Duration
)

var addCmd = &cobra.Command{
	Use:   "add [--route <route>] <name> <latitude> <longitude>",
	Short: "Add a point, optionally appending it to a route",
	Long: `Add a point, optionally appending it to a route.

Flags go before the name; everything after it is positional, so negative
coordinates such as -4.7710 are read as numbers.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		startFeed(app)
		defer app.Close()

		msg, err := app.AddPoint(args[0], flagRoute, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a point (the most recent one when no name is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		startFeed(app)
		defer app.Close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		ok, msg, err := app.RemovePoint(name, flagRoute)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s", msg)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the stored points and routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		c, err := app.Store.Load()
		if err != nil {
			return err
		}
		printCollection(cmd.OutOrStdout(), c)
		return nil
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the store to KML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		c, err := app.Store.Load()
		if err != nil {
			return err
		}
		if flagOutput == "" {
			data, err := pilot.CompileKML(c)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := pilot.WriteKML(flagOutput, c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flagOutput)
		return nil
	},
}

var geojsonCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Export the store as a GeoJSON feature collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		c, err := app.Store.Load()
		if err != nil {
			return err
		}
		data, err := pilot.CompileGeoJSON(c)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), flagOutput, data)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the store as an SVG or PNG chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		c, err := app.Store.Load()
		if err != nil {
			return err
		}

		output := flagOutput
		if output == "" {
			output = "preview." + flagFormat
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()

		renderer := pilot.NewPreviewRenderer()
		switch flagFormat {
		case "svg":
			err = renderer.RenderToSVG(f, c)
		case "png":
			err = renderer.RenderToPNG(f, c)
		default:
			return fmt.Errorf("unknown format %q (want svg or png)", flagFormat)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Open the map, drop the compiled store onto it and close the browser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		startFeed(app)
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Opening %s...\n", app.Config.App.URL)
		if err := app.Connect(ctx); err != nil {
			return err
		}

		report, err := app.Push(ctx, pilot.UpdateOptions{
			HidePrevious: flagHidePrevious,
			VerifyIngest: flagVerify,
		})
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		return app.Disconnect()
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Capture the map, locate every control and write an annotated PNG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := app.Connect(ctx); err != nil {
			return err
		}

		cal, err := app.Session.Calibrate(ctx)
		if err != nil {
			return err
		}

		output := flagOutput
		if output == "" {
			output = "calibration.png"
		}
		img := pilot.Annotate(cal.Raster, cal.Markers)
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		if flagLogical {
			err = pilot.WritePNG(f, pilot.ScaleToCanvas(img, cal.Geometry))
		} else {
			err = pilot.WritePNG(f, img)
		}
		if err != nil {
			return err
		}

		printCalibration(cmd.OutOrStdout(), cal)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store over HTTP and publish it to MQTT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		return app.RunServe()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Fetch a waypoint collection (JSON or KML) and append it to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		startFeed(app)
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		fetched, err := pilot.FetchCollection(ctx, args[0],
			pilot.WithMaxRetries(flagRetries),
			pilot.WithTimeout(flagFetchTimeout),
		)
		if err != nil {
			return err
		}

		c, err := app.Store.Load()
		if err != nil {
			return err
		}
		c.Merge(fetched)
		if err := app.Store.Save(c); err != nil {
			return err
		}
		if err := app.afterChange(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d points in %d routes\n", fetched.Len(), len(fetched.Routes))
		return nil
	},
}

var sailCmd = &cobra.Command{
	Use:   "sail",
	Short: "Open the interactive wheelhouse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(configFile)
		if err != nil {
			return err
		}
		startFeed(app)
		defer app.Close()
		return runWheelhouse(app)
	},
}

func init() {
	addCmd.Flags().StringVarP(&flagRoute, "route", "r", "", "Append the point to this route")
	addCmd.Flags().SetInterspersed(false)
	removeCmd.Flags().StringVarP(&flagRoute, "route", "r", "", "Remove from this route instead of the free points")

	compileCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write KML to this file instead of stdout")
	geojsonCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write GeoJSON to this file instead of stdout")
	previewCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default preview.<format>)")
	previewCmd.Flags().StringVar(&flagFormat, "format", "svg", "Render format: svg or png")

	pushCmd.Flags().BoolVar(&flagHidePrevious, "hide-previous", false, "Hide the previously loaded file before dropping")
	pushCmd.Flags().BoolVar(&flagVerify, "verify", false, "Check the results panel after dropping")

	calibrateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Annotated PNG path (default calibration.png)")
	calibrateCmd.Flags().BoolVar(&flagLogical, "logical", false, "Scale the snapshot to logical canvas pixels")

	importCmd.Flags().IntVar(&flagRetries, "retries", 3, "Maximum fetch attempts")
	importCmd.Flags().DurationVar(&flagFetchTimeout, "timeout", 10*time.Second, "Per-attempt timeout")
}

// startFeed connects MQTT for commands that mutate the store. A broker that
// cannot be reached only costs the feed.
func startFeed(app *App) {
	if err := app.StartMQTT(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if app.MQTTClient != nil && !app.MQTTClient.WaitConnected(connectWait) {
		fmt.Fprintln(os.Stderr, "Warning: MQTT broker not reachable, waypoints will not be published")
	}
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func printCollection(w io.Writer, c *pilot.WaypointCollection) {
	fmt.Fprintf(w, "Points: %d\n", len(c.Points))
	for _, p := range c.Points {
		fmt.Fprintf(w, "  %-20s %10.5f %11.5f\n", p.Name, p.Latitude, p.Longitude)
	}

	fmt.Fprintf(w, "Routes: %d\n", len(c.Routes))
	for _, r := range c.Routes {
		fmt.Fprintf(w, "  %s (%d points, %.2f km)\n", r.Name, len(r.Points), r.Length()/1000)
		for _, p := range r.Points {
			fmt.Fprintf(w, "    %-18s %10.5f %11.5f\n", p.Name, p.Latitude, p.Longitude)
		}
	}
}

func printReport(w io.Writer, r *pilot.UpdateReport) {
	fmt.Fprintf(w, "Dropped %s (%d bytes)\n", r.FileName, r.Bytes)
	if r.SidebarWasOpen {
		fmt.Fprintln(w, "  Sidebar was already open")
	}
	if r.HideGlyph != nil {
		fmt.Fprintf(w, "  Hid previous file at %+d,%+d\n", r.HideGlyph.ColumnOffset, r.HideGlyph.RowOffset)
	}
	if r.ResultsIcon != nil {
		fmt.Fprintf(w, "  Results panel confirmed at %+d,%+d\n", r.ResultsIcon.ColumnOffset, r.ResultsIcon.RowOffset)
	}
}

func printCalibration(w io.Writer, cal *pilot.Calibration) {
	fmt.Fprintf(w, "Canvas: %.0fx%.0f, capture %dx%d\n",
		cal.Geometry.Width, cal.Geometry.Height, cal.Raster.Width(), cal.Raster.Height())

	if _, failed := cal.Errors["sidebar"]; !failed {
		state := "closed"
		if cal.Controls.SidebarOpen {
			state = "open"
		}
		fmt.Fprintf(w, "  sidebar:     %+d,%+d (%s)\n",
			cal.Controls.Sidebar.ColumnOffset, cal.Controls.Sidebar.RowOffset, state)
	}
	if loc := cal.Controls.HideGlyph; loc != nil {
		fmt.Fprintf(w, "  hideGlyph:   %+d,%+d\n", loc.ColumnOffset, loc.RowOffset)
	}
	if loc := cal.Controls.ResultsIcon; loc != nil {
		fmt.Fprintf(w, "  resultsIcon: %+d,%+d\n", loc.ColumnOffset, loc.RowOffset)
	}

	names := make([]string, 0, len(cal.Errors))
	for name := range cal.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %v\n", name, cal.Errors[name])
	}
}
