package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fastball-data/pitch.report/internal/api"
	"github.com/fastball-data/pitch.report/internal/config"
	"github.com/fastball-data/pitch.report/internal/db"
	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/version"
	"github.com/fastball-data/pitch.report/internal/vision"
)

var (
	devMode     = flag.Bool("dev", false, "Analyze a synthetic pitch instead of running the OpenCV pipeline")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "pitch_data.db", "Path to the sqlite database")
	migrations  = flag.String("migrations", "internal/db/migrations", "Path to the migrations directory")
	modelFile   = flag.String("model", "yolov8n.onnx", "Path to the YOLOv8 ONNX model (ignored in dev mode)")
	uploadDir   = flag.String("upload-dir", "", "Directory for staged uploads (default: system temp dir)")
	maxUploadMB = flag.Int64("max-upload-mb", api.DefaultMaxUploadMB, "Maximum accepted video size in MB")
	plotDir     = flag.String("plot-dir", "", "Directory for diagnostic speed plots (empty: disabled)")
	tuningFile  = flag.String("tuning", "", "Path to a JSON tuning overlay")
)

// Main
func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("pitch.report %s", version.String())

	cfg := pitch.DefaultAnalyzerConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning.ApplyTo(&cfg)
		log.Printf("applied tuning overlay from %s", *tuningFile)
	}

	var opener pitch.VideoOpener
	var detector pitch.Detector
	var flow pitch.FlowEstimator
	if *devMode {
		// The scripted pipeline ignores the uploaded bytes and replays a
		// clean synthetic flight, which exercises the whole HTTP and
		// persistence path without a model file or real footage.
		flight := pitch.NewLinearFlight()
		video, scriptedDet, scriptedFlow := flight.Build()
		opener = &pitch.ScriptedOpener{Video: video}
		detector = scriptedDet
		flow = scriptedFlow
		log.Print("dev mode: every upload analyzes a synthetic pitch")
	} else {
		det, err := vision.NewYOLODetector(*modelFile)
		if err != nil {
			log.Fatalf("failed to load detection model: %v", err)
		}
		defer det.Close()
		opener = vision.FileOpener{}
		detector = det
		flow = vision.NewFarnebackFlow()
	}

	analyzer := pitch.NewAnalyzer(opener, detector, flow, cfg, nil)
	if *plotDir != "" {
		plotter, err := pitch.NewPNGSpeedPlotter(*plotDir)
		if err != nil {
			log.Fatalf("failed to prepare plot directory: %v", err)
		}
		analyzer.SetPlotter(plotter)
		log.Printf("writing speed plots to %s", *plotDir)
	}

	dbInst, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbInst.Close()
	if err := dbInst.MigrateUp(*migrations); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store := pitch.NewAnalysisStore(dbInst.DB, nil)
	server := api.NewServer(analyzer, store, nil, *uploadDir, *maxUploadMB<<20)

	// Create a wait group for the HTTP server routine
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(server.ServeMux()),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("HTTP server listening on %s", *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a shorter timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
