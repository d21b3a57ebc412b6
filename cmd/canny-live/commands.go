package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/canny-live/internal/config"
	"github.com/ironsheep/canny-live/internal/imaging"
	"github.com/ironsheep/canny-live/internal/logger"
	"github.com/ironsheep/canny-live/internal/server"
	"github.com/ironsheep/canny-live/internal/stream"
)

// addDetectorFlags registers the flags shared by run and detect.
func addDetectorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("low", 0, "weak edge threshold")
	f.Float64("high", 0, "strong edge threshold")
	f.Float64("scale", 0, "downscale factor applied before detection")
	f.String("overlay", "", "paint edges over the source in this hex colour")
	f.String("output", "", "output directory (run) or file (detect)")
}

// loadConfig builds the configuration from the file, the environment and
// any flags the user set, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Lookup(name) != nil && f.Changed(name) {
			apply()
		}
	}

	set("log-level", func() { cfg.Log.Level, err = f.GetString("log-level") })
	set("low", func() { cfg.Detector.Low, err = f.GetFloat64("low") })
	set("high", func() { cfg.Detector.High, err = f.GetFloat64("high") })
	set("scale", func() { cfg.Driver.Scale, err = f.GetFloat64("scale") })
	set("overlay", func() { cfg.Driver.Overlay, err = f.GetString("overlay") })
	set("fps", func() { cfg.Driver.FPS, err = f.GetFloat64("fps") })
	set("frames", func() { cfg.Driver.Frames, err = f.GetInt("frames") })
	set("capture-fps", func() { cfg.Source.CaptureFPS, err = f.GetFloat64("capture-fps") })
	set("output", func() { cfg.Sink.Output, err = f.GetString("output") })
	set("input", func() { cfg.Source.Input, err = f.GetString("input") })
	set("pattern", func() {
		var size string
		if size, err = f.GetString("pattern"); err == nil {
			cfg.Source.Input = ""
			cfg.Source.PatternWidth, cfg.Source.PatternHeight, err = parseSize(size)
		}
	})
	return err
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	var w, h int
	if n, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || n != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("invalid size %q, want positive dimensions", s)
	}
	return w, h, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return logger.Console(lvl), nil
}

func settingsFrom(cfg *config.Config) stream.Settings {
	return stream.Settings{
		Low:     cfg.Detector.Low,
		High:    cfg.Detector.High,
		Scale:   cfg.Driver.Scale,
		Overlay: cfg.Driver.Overlay,
	}
}

func newSource(cfg *config.Config) (stream.Source, error) {
	if cfg.Source.Input == "" {
		return stream.NewPatternSource(cfg.Source.PatternWidth, cfg.Source.PatternHeight)
	}
	paths, err := imaging.ListImages(cfg.Source.Input)
	if err != nil {
		return nil, err
	}
	return stream.NewSequenceSource(paths, imaging.NewImageCache(), cfg.Source.CaptureFPS)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the edge detector over a frame stream",
		Long: `Run the edge detector over a frame stream and write every result as a PNG.

With --config, sending SIGHUP reloads thresholds, scale and overlay from the
file without restarting.`,
		Args: cobra.NoArgs,
		RunE: runStream,
	}
	addDetectorFlags(cmd)
	f := cmd.Flags()
	f.Float64("fps", 0, "target processing rate")
	f.Int("frames", 0, "stop after this many frames (0 runs until interrupted)")
	f.String("input", "", "directory of images to play back")
	f.Float64("capture-fps", 0, "nominal rate of the image directory")
	f.String("pattern", "", "use the generated test pattern at this size (WxH)")
	cmd.MarkFlagsMutuallyExclusive("input", "pattern")
	return cmd
}

func runStream(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	sink, err := stream.NewPNGSink(cfg.Sink.Output)
	if err != nil {
		return err
	}

	driverLog := logger.Component(log, "driver")
	d, err := stream.NewDriver(src, sink, stream.Options{
		FPS:       cfg.Driver.FPS,
		Scales:    cfg.Driver.Scales,
		MaxFrames: cfg.Driver.Frames,
		Tuning:    cfg.Tuning,
		Logger:    &driverLog,
	}, settingsFrom(cfg))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go watchReload(ctx, cmd, d, log, hup)
	}

	log.Info().
		Str("version", Version).
		Str("input", cfg.Source.Input).
		Str("output", cfg.Sink.Output).
		Msg("starting")

	if err := d.Run(ctx); err != nil {
		return err
	}

	s := d.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames written to %s (avg %s, %d overruns, %d source failures)\n",
		s.Frames, cfg.Sink.Output, s.Average(), s.Overruns, s.SourceFailures)
	return nil
}

// watchReload applies the configuration file again every time hup fires.
// The caller registers hup for SIGHUP before starting it.
func watchReload(ctx context.Context, cmd *cobra.Command, d *stream.Driver, log zerolog.Logger, hup <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := loadConfig(cmd)
			if err != nil {
				log.Error().Err(err).Msg("reload failed, keeping current settings")
				continue
			}
			if err := d.Apply(settingsFrom(cfg)); err != nil {
				log.Error().Err(err).Msg("reload rejected, keeping current settings")
			}
		}
	}
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect IMAGE",
		Short: "Detect edges in a single image",
		Args:  cobra.ExactArgs(1),
		RunE:  detectImage,
	}
	addDetectorFlags(cmd)
	return cmd
}

func detectImage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return errors.New("--output is required")
	}

	img, err := imaging.NewImageCache().Load(args[0])
	if err != nil {
		return err
	}
	result, edges, err := imaging.RenderEdges(img, imaging.EdgeOptions{
		Params:  cfg.Detector.Params(),
		Tuning:  cfg.Tuning,
		Scale:   cfg.Driver.Scale,
		Overlay: cfg.Driver.Overlay,
	})
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(out, result); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d edge pixels (%s)\n", out, edges, cfg.Detector.Params())
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve edge detection tools over stdio (JSON-RPC)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			serverLog := logger.Component(log, "server")
			defaults := cfg.Detector.Params()

			srv := server.New(server.Options{
				Tuning:   cfg.Tuning,
				Scales:   cfg.Driver.Scales,
				Defaults: &defaults,
				Version:  Version,
				Logger:   &serverLog,
			})
			return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
