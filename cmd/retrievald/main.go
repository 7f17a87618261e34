// Command retrievald is the demo HTTP surface over the retrieval engine:
// it wires config, the collection registry, and the ingest dispatcher into
// a gin router and serves it with a graceful-shutdown HTTP server.
// Modeled on the teacher's cmd/search_engine/main.go: flag-parsed options,
// gin.Default(), timeout-bounded http.Server, SIGINT/SIGTERM-triggered
// Shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/docretrieval/api"
	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/internal/ingest"
	"github.com/gcbaptista/docretrieval/internal/registry"
)

func main() {
	var (
		help       = flag.Bool("help", false, "Show help message")
		port       = flag.String("port", "8080", "Port to run the server on")
		dataDir    = flag.String("data-dir", "./retrieval_data", "Directory to store collection data")
		maxWorkers = flag.Int("max-workers", 4, "Maximum concurrent write-operation applies across all collections")
	)
	flag.Parse()

	if *help {
		fmt.Printf("docretrieval - a two-tier BM25/vector/hybrid document retrieval engine\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		flag.PrintDefaults()
		return
	}

	settings := config.DefaultSettings(*dataDir)
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid engine settings: %v", err)
	}

	log.Printf("Using data directory: %s", *dataDir)
	embedder := embedding.NewDeterministic(nil)

	reg, err := registry.Open(settings, embedder)
	if err != nil {
		log.Fatalf("Failed to open collection registry: %v", err)
	}

	dispatcher := ingest.NewDispatcher(reg, *maxWorkers)

	router := gin.Default()
	api.SetupRoutes(router, reg, dispatcher)

	srv := &http.Server{
		Addr:           ":" + *port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on port %s...", *port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if errs := reg.CommitAll(); len(errs) > 0 {
		for id, err := range errs {
			log.Printf("Warning: failed to commit collection %q during shutdown: %v", id, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
