// Command cylroi places a cylindrical region of interest at every control
// point of a markup file and records the result in a scene database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/cylinder.roi/internal/api"
	"github.com/banshee-data/cylinder.roi/internal/config"
	"github.com/banshee-data/cylinder.roi/internal/db"
	"github.com/banshee-data/cylinder.roi/internal/export"
	"github.com/banshee-data/cylinder.roi/internal/fsutil"
	"github.com/banshee-data/cylinder.roi/internal/landmark"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
	"github.com/banshee-data/cylinder.roi/internal/preview"
	"github.com/banshee-data/cylinder.roi/internal/roi"
	"github.com/banshee-data/cylinder.roi/internal/scene"
	"github.com/banshee-data/cylinder.roi/internal/scene/sqlite"
	"github.com/banshee-data/cylinder.roi/internal/version"
)

// options holds the parsed command line.
type options struct {
	markups    string
	configPath string
	dbPath     string
	outDir     string
	world      bool
	preview    string
	listen     string
	quiet      bool
	version    bool

	// overrides are applied on top of the config file for flags the user set.
	overrides config.CylinderConfig
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("cylroi", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.markups, "markups", "", "Markup file with control points (.mrk.json or .fcsv)")
	fs.StringVar(&o.configPath, "config", "", "Path to cylinder config JSON (defaults built in)")
	fs.StringVar(&o.dbPath, "db", "", "Scene database path (overrides database_path)")
	fs.StringVar(&o.outDir, "out", "", "Directory for STL export and manifest (overrides output_dir)")
	fs.BoolVar(&o.world, "world", false, "Export surfaces with placement applied")
	fs.StringVar(&o.preview, "preview", "", "Write a footprint plot to this .png or .svg file")
	fs.StringVar(&o.listen, "listen", "", "Serve the inspection API on this address after the run")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress diagnostic logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	radius := fs.Float64("radius", config.DefaultRadiusMM, "Cylinder radius in mm")
	height := fs.Float64("height", config.DefaultHeightMM, "Cylinder height in mm")
	resolution := fs.Int("resolution", config.DefaultCylinderConfig().GetResolution(), "Number of facets around the cylinder")
	oriented := fs.Bool("oriented", false, "Align cylinders with the direction to the next point")
	workers := fs.Int("workers", 0, "Parallel workers for building ROIs (0 = sequential)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cylroi -markups FILE [options]\n")
		fmt.Fprintf(stderr, "       cylroi migrate <command> [-db FILE]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "radius":
			o.overrides.RadiusMM = radius
		case "height":
			o.overrides.HeightMM = height
		case "resolution":
			o.overrides.Resolution = resolution
		case "oriented":
			o.overrides.UseComputedOrientation = oriented
		case "workers":
			o.overrides.Workers = workers
		case "db":
			o.overrides.DatabasePath = &o.dbPath
		case "out":
			o.overrides.OutputDir = &o.outDir
		}
	})
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (o *options) loadConfig() (*config.CylinderConfig, error) {
	cfg := config.DefaultCylinderConfig()
	if o.configPath != "" {
		loaded, err := config.LoadCylinderConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	ov := o.overrides
	if ov.RadiusMM != nil {
		cfg.RadiusMM = ov.RadiusMM
	}
	if ov.HeightMM != nil {
		cfg.HeightMM = ov.HeightMM
	}
	if ov.Resolution != nil {
		cfg.Resolution = ov.Resolution
	}
	if ov.UseComputedOrientation != nil {
		cfg.UseComputedOrientation = ov.UseComputedOrientation
	}
	if ov.Workers != nil {
		cfg.Workers = ov.Workers
	}
	if ov.DatabasePath != nil {
		cfg.DatabasePath = ov.DatabasePath
	}
	if ov.OutputDir != nil {
		cfg.OutputDir = ov.OutputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runMigrate handles "cylroi migrate ...". A -db flag may follow the
// subcommand arguments.
func runMigrate(args []string, stdout io.Writer) error {
	dbPath := config.DefaultCylinderConfig().GetDatabasePath()
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-db" || args[i] == "--db" {
			if i+1 >= len(args) {
				return errors.New("-db requires a path")
			}
			dbPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return db.RunMigrateCommand(rest, dbPath, stdout)
}

// summary is what a generation run produced.
type summary struct {
	results  []roi.Result
	created  int
	database *db.DB
	store    *sqlite.Store
	cfg      *config.CylinderConfig
}

// generate loads the markups, builds the ROIs and writes every requested
// output. The caller owns summary.database.
func generate(ctx context.Context, fsys fsutil.FileSystem, o *options, cfg *config.CylinderConfig, stdout io.Writer) (*summary, error) {
	if o.markups == "" {
		return nil, errors.New("-markups is required")
	}

	seq, err := landmark.Load(fsys, o.markups)
	if err != nil {
		return nil, err
	}

	spec := cfg.CylinderSpec()
	results, err := roi.NewGenerator(cfg.GeneratorOptions()).Generate(seq, spec)
	if err != nil {
		return nil, err
	}

	database, err := db.NewDB(cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := sqlite.NewStore(database.DB)

	created, err := scene.Apply(ctx, store, results)
	if err != nil {
		database.Close()
		return nil, err
	}

	run := &sqlite.Run{
		SourceName:             seq.Name,
		PointCount:             seq.Count(),
		RadiusMM:               spec.Radius,
		HeightMM:               spec.Height,
		Resolution:             spec.Resolution,
		UseComputedOrientation: cfg.GetUseComputedOrientation(),
	}
	if err := store.InsertRun(ctx, run); err != nil {
		database.Close()
		return nil, err
	}

	if dir := cfg.GetOutputDir(); dir != "" {
		if _, err := export.Write(fsys, dir, seq.Name, spec, results, export.Options{World: o.world}); err != nil {
			database.Close()
			return nil, err
		}
	}

	if o.preview != "" {
		if err := preview.WriteFootprintFile(fsys, o.preview, results, preview.TopView, cfg.GetHeightMM()/2); err != nil {
			database.Close()
			return nil, err
		}
		monitoring.Logf("[preview] wrote %s", o.preview)
	}

	fmt.Fprintf(stdout, "Created %d SegmentationNode(s).\n", created)
	return &summary{results: results, created: created, database: database, store: store, cfg: cfg}, nil
}

// serve runs the inspection server until ctx is cancelled.
func serve(ctx context.Context, addr string, sum *summary) error {
	srv := api.NewServer(sum.store, sum.store, sum.cfg)
	srv.SetResults(sum.results)

	mux := srv.ServeMux()
	if err := sum.database.AttachAdminRoutes(mux); err != nil {
		return fmt.Errorf("failed to attach admin routes: %w", err)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving cylinder ROIs on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func run(ctx context.Context, fsys fsutil.FileSystem, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "migrate" {
		return runMigrate(args[1:], stdout)
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if o.quiet {
		monitoring.SetLogger(nil)
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	sum, err := generate(ctx, fsys, o, cfg, stdout)
	if err != nil {
		return err
	}
	defer sum.database.Close()

	if o.listen == "" {
		return nil
	}
	return serve(ctx, o.listen, sum)
}

func main() {
	log.SetPrefix(filepath.Base(os.Args[0]) + ": ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, fsutil.OSFileSystem{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
