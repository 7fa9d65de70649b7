// Package main provides a command-line pitch analyzer. It runs the full
// pipeline over one or more video files and prints one JSON result per
// line, suitable for batch runs over a directory of clips.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fastball-data/pitch.report/internal/config"
	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/security"
	"github.com/fastball-data/pitch.report/internal/vision"
)

var (
	modelFile  = flag.String("model", "yolov8n.onnx", "Path to the YOLOv8 ONNX model")
	tuningFile = flag.String("tuning", "", "Path to a JSON tuning overlay")
	plotDir    = flag.String("plot-dir", "", "Directory for diagnostic speed plots (empty: disabled)")
	inputDir   = flag.String("dir", "", "Require input videos to live inside this directory (empty: no restriction)")
	pretty     = flag.Bool("pretty", false, "Indent the JSON output")
)

func main() {
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] video [video...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := validateInputs(paths, *inputDir); err != nil {
		log.Fatal(err)
	}

	cfg := pitch.DefaultAnalyzerConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning.ApplyTo(&cfg)
	}

	det, err := vision.NewYOLODetector(*modelFile)
	if err != nil {
		log.Fatalf("failed to load detection model: %v", err)
	}
	defer det.Close()

	analyzer := pitch.NewAnalyzer(vision.FileOpener{}, det, vision.NewFarnebackFlow(), cfg, nil)
	if *plotDir != "" {
		plotter, err := pitch.NewPNGSpeedPlotter(*plotDir)
		if err != nil {
			log.Fatalf("failed to prepare plot directory: %v", err)
		}
		analyzer.SetPlotter(plotter)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	failed := false
	for _, path := range paths {
		res, err := analyzer.AnalyzeFile(context.Background(), path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			failed = true
			continue
		}
		res.Source = filepath.Base(path)
		if err := enc.Encode(res); err != nil {
			log.Fatalf("failed to write result: %v", err)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// validateInputs rejects paths that are not readable video files. When dir
// is non-empty, every path must also resolve inside it, which keeps batch
// manifests assembled from untrusted listings from reaching outside the clip
// directory.
func validateInputs(paths []string, dir string) error {
	for _, path := range paths {
		if err := security.ValidateVideoFilename(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if dir != "" {
			if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
	}
	return nil
}
