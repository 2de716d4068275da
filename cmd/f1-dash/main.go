package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andrelan/f1-telemetry-relay/internal/dash"
)

func main() {
	var (
		pinotBrokers = flag.String("pinot-brokers", "localhost:8099", "Comma-separated Pinot broker addresses")
		table        = flag.String("table", "carData", "Pinot table holding car telemetry")
		refresh      = flag.Duration("refresh", 3*time.Second, "Refresh interval")
		limit        = flag.Int("limit", 20, "Maximum rows per query")
		driver       = flag.String("driver", "", "Focus on a single driver number")
		once         = flag.Bool("once", false, "Render one frame and exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Printf("📄 Loaded environment from .env")
	}

	poller, err := dash.NewPoller(strings.Split(*pinotBrokers, ","), *table, *limit)
	if err != nil {
		log.Fatalf("❌ Failed to create Pinot poller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	renderOnce(poller, *driver)
	if *once {
		return
	}

	ticker := time.NewTicker(*refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n🛑 Dashboard stopped")
			return
		case <-ticker.C:
			renderOnce(poller, *driver)
		}
	}
}

func renderOnce(poller *dash.Poller, driver string) {
	rows, err := poller.Fetch()
	if err != nil {
		log.Printf("⚠️ Failed to fetch telemetry: %v", err)
		return
	}
	fmt.Print(dash.RenderFrame(rows, driver, time.Now()))
}
