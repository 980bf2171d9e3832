package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/ocr"
	"github.com/ironsheep/image-regions/internal/pipeline"
	"github.com/ironsheep/image-regions/internal/server"
	"github.com/ironsheep/image-regions/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-regions %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			if v := ocr.Version(); v != "" {
				fmt.Printf("  Tesseract:  %s\n", v)
			}
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "detect" {
		if err := runDetect(ctx, cfg, os.Args[2:]); err != nil {
			logger.WithError(err).Error("detect failed")
			os.Exit(1)
		}
		return
	}

	logger.WithField("version", Version).Debug("starting MCP server")
	server.Version = Version
	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("server error")
	}
}

func printHelp() {
	fmt.Println("image-regions - region detection for scanned documents and design images")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-regions                               Serve MCP over stdin/stdout")
	fmt.Println("  image-regions detect [options] files...     Detect regions in images or PDFs")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Detect options:")
	fmt.Println("  --dpi N          PDF rasterization resolution (default from config)")
	fmt.Println("  --workers N      Pages processed concurrently (default from config)")
	fmt.Println("  --overlay DIR    Write each page with its regions drawn on it into DIR")
	fmt.Println("  --log-level L    Override the log level for this run")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Log level (debug, info, warn, error)\n", logger.LevelEnv)
	fmt.Printf("  %s         YAML configuration file\n", config.EnvConfigFile)
	fmt.Printf("  %s    Segmentation inference endpoint\n", config.EnvSegmentURL)
	fmt.Printf("  %s       OCR language (default eng)\n", config.EnvOCRLanguage)
	fmt.Printf("  %s              Tesseract data directory\n", config.EnvTessdataPrefix)
}

// runDetect writes one JSON result per page to stdout.
func runDetect(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	dpi := fs.Int("dpi", cfg.Batch.DPI, "PDF rasterization resolution")
	workers := fs.Int("workers", cfg.Batch.Workers, "pages processed concurrently")
	overlay := fs.String("overlay", "", "directory to write annotated page images into")
	level := fs.String("log-level", "", "override "+logger.LevelEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *level != "" {
		logger.SetLevel(*level)
	}
	if fs.NArg() == 0 {
		return errors.New("detect needs at least one file")
	}

	cache := imaging.NewImageCache()
	var pages []pipeline.Page
	for _, path := range fs.Args() {
		src, err := source.Open(path, *dpi, cache)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer src.Close()
		logger.Debugf("opened %s: %d page(s)", path, src.PageCount())
		pages = append(pages, pipeline.Pages(src)...)
	}

	detector := pipeline.NewDetector(cfg, ocr.NewEngine(cfg.OCR))
	results, err := detector.DetectBatch(ctx, pages, *workers)
	if err != nil {
		return err
	}

	failed := 0
	enc := json.NewEncoder(os.Stdout)
	for i, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
		if r.Error != "" {
			failed++
		} else if *overlay != "" {
			if err := writeOverlay(*overlay, pages[i], r); err != nil {
				logger.WithError(err).Warn("overlay skipped")
			}
		}
		// Image pages are decoded through the cache; PDF pages never are.
		cache.Evict(pages[i].Source)
	}
	if failed > 0 {
		logger.Warnf("%d of %d page(s) failed", failed, len(results))
	} else {
		logger.Infof("detected regions on %d page(s)", len(results))
	}
	return nil
}

func writeOverlay(dir string, page pipeline.Page, r pipeline.PageResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	buf, err := page.Load()
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(page.Source), filepath.Ext(page.Source))
	return imaging.SaveAnnotated(buf.Image(), r.Regions, filepath.Join(dir, fmt.Sprintf("%s-p%d.png", base, page.Index+1)))
}
