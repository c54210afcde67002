package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/delivery"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/lst"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/notification"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/properties"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/ui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type runFlags struct {
	project    string
	year       int
	output     string
	interval   time.Duration
	cloudCover float64
	stats      bool
	timelapse  bool
	workers    int
	thumbSize  int
}

func authConfig(project string) earthengine.AuthConfig {
	return earthengine.AuthConfig{
		Project:           project,
		BaseURL:           properties.EarthEngineAPIURL(),
		CredentialsPath:   properties.EarthEngineCredentialsPath(),
		OAuthClientID:     properties.OAuthClientID(),
		OAuthClientSecret: properties.OAuthClientSecret(),
	}
}

func (f *runFlags) options() delivery.Options {
	opts := delivery.DefaultOptions()
	opts.Year = f.year
	opts.OutputDir = f.output
	opts.CacheDir = properties.CachePath()
	opts.Interval = f.interval
	opts.MaxCloudCover = f.cloudCover
	opts.Statistics = f.stats
	opts.Timelapse = f.timelapse
	opts.Concurrency = f.workers
	opts.ThumbnailSize = f.thumbSize
	return opts
}

func runMap(cmd *cobra.Command, flags *runFlags) error {
	ui.PrintBanner()
	ctx := cmd.Context()
	initializer := &earthengine.Initializer{Config: authConfig(flags.project)}
	session, err := initializer.InitializeWithFallback(ctx)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Earth Engine initialized for project %s", session.Project()))

	result, err := delivery.BuildMonthlyLST(ctx, session, flags.options())
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Monthly LST %d ready.\nImages: %d\nMap: %s", flags.year, result.ImageCount, result.MapPath)
	if result.StatisticsPath != "" {
		message += "\nStatistics: " + result.StatisticsPath
	}
	if result.TimelapsePath != "" {
		message += "\nTime-lapse: " + result.TimelapsePath
	}
	if err := notification.SendDiscordSuccessNotification(message); err != nil {
		ui.PrintWarning("Failed to send notification: " + err.Error())
	}
	return nil
}

func newRootCommand() *cobra.Command {
	flags := &runFlags{}
	root := &cobra.Command{
		Use:           "lstmap",
		Short:         "Monthly Landsat land surface temperature map",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.project, "project", properties.EarthEngineProject(), "Earth Engine cloud project")
	pf.IntVar(&flags.year, "year", 2024, "calendar year to map")
	pf.Float64Var(&flags.cloudCover, "cloud-cover", lst.DefaultMaxCloudCover, "keep scenes with cloud cover strictly below this percentage")

	f := root.Flags()
	f.StringVar(&flags.output, "output", properties.OutputPath(), "output directory")
	f.DurationVar(&flags.interval, "interval", 2*time.Second, "time slider interval per month")
	f.BoolVar(&flags.stats, "stats", false, "write monthly region statistics as CSV")
	f.BoolVar(&flags.timelapse, "timelapse", false, "write an MJPEG video of the monthly products")
	f.IntVar(&flags.workers, "workers", 4, "concurrent Earth Engine requests")
	f.IntVar(&flags.thumbSize, "thumbnail-size", 512, "longer side of time-lapse frames in pixels")

	root.AddCommand(newAuthCommand(flags), newPlanCommand(flags))
	return root
}

func newAuthCommand(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Earth Engine access and store the credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := authConfig(flags.project)
			if _, err := os.Stat(cfg.CredentialsPath); err == nil {
				if !ui.Confirm(fmt.Sprintf("Credentials already exist at %s. Replace them?", cfg.CredentialsPath)) {
					return nil
				}
			}
			return earthengine.InteractiveAuthenticate(cmd.Context(), cfg)
		},
	}
}

func newPlanCommand(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the Earth Engine expression of the monthly collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, collection := lst.BuildCollection(lst.Isfahan, lst.MonthlyWindows(flags.year), flags.cloudCover)
			expr, err := earthengine.Serialize(collection)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(expr)
		},
	}
}

func loadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			ui.PrintWarning("No .env file found, using the process environment")
		}
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			ui.PrintError(fmt.Sprintf("PANIC: %v", r))
			errMessage := fmt.Sprintf("LST map panic:\n\n%v\n\nStack trace:\n%s", r, debug.Stack())
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				ui.PrintError("Failed to send notification: " + err.Error())
			}
			os.Exit(2)
		}
	}()

	loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		if err := notification.SendDiscordErrorNotification(err.Error()); err != nil {
			ui.PrintError("Failed to send notification: " + err.Error())
		}
		stop()
		os.Exit(1)
	}
}
