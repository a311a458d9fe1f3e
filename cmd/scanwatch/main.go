// scanwatch tails the results of a running go-scan dashboard
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-scan/internal/config"
	"github.com/teslashibe/go-scan/internal/httpc"
	"github.com/teslashibe/go-scan/pkg/history"
	"github.com/teslashibe/go-scan/pkg/hub"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

// historyPage is the /api/history response.
type historyPage struct {
	Records []history.Record `json:"records"`
	Count   int              `json:"count"`
}

func main() {
	host := flag.String("host", "localhost", "Dashboard host")
	port := flag.String("port", config.Port(), "Dashboard port (SCAN_PORT)")
	recent := flag.Int("recent", 5, "Print this many stored scans before tailing")
	search := flag.String("search", "", "Only print stored scans containing this text")
	resume := flag.Duration("resume", 0, "Ask the scanner to resume this long after each result (0 disables)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	base := config.DashboardURL(*host, *port)

	if *recent > 0 {
		if err := printHistory(ctx, base, *search, *recent); err != nil {
			fmt.Printf("⚠️  History unavailable: %v\n", err)
		}
	}

	wsURL := config.ResultsSocketURL(*host, *port)
	fmt.Printf("🔌 Connecting to %s... ", wsURL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		fmt.Println("❌")
		log.Fatalf("❌ Dial failed: %v", err)
	}
	defer conn.Close()
	fmt.Println("✅")
	fmt.Println("👀 Waiting for scans (Ctrl+C to exit)")

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("❌ Connection lost: %v", err)
			}
			return
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Kind != "scan" {
			continue
		}
		var scan scanner.Scan
		if err := json.Unmarshal(env.Data, &scan); err != nil {
			log.Printf("⚠️  Bad scan message: %v", err)
			continue
		}
		printScan(scan)

		if *resume > 0 {
			go resumeAfter(ctx, base, *resume)
		}
	}
}

func printHistory(ctx context.Context, base, search string, n int) error {
	endpoint := base + "/api/history"
	if search != "" {
		endpoint += "?q=" + url.QueryEscape(search)
	}

	var page historyPage
	if err := httpc.GetJSON(ctx, endpoint, &page); err != nil {
		return err
	}

	fmt.Printf("📚 %d stored scans\n", page.Count)
	if len(page.Records) > n {
		page.Records = page.Records[:n]
	}
	for _, rec := range page.Records {
		fmt.Printf("   %s  %-12s %s\n", rec.ScannedAt.Local().Format("2006-01-02 15:04:05"), rec.Format, rec.Text)
	}
	return nil
}

func printScan(scan scanner.Scan) {
	fmt.Printf("📦 %s  %-12s %s\n", scan.Result.DecodedAt.Local().Format("15:04:05"), scan.Result.Format, scan.Result.Text)
	if scan.Snapshot != nil {
		fmt.Printf("   🖼  %dx%d thumbnail\n", scan.Snapshot.Width, scan.Snapshot.Height)
	}
}

func resumeAfter(ctx context.Context, base string, delay time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	var reply struct {
		Resumed bool   `json:"resumed"`
		State   string `json:"state"`
	}
	if err := httpc.PostJSON(ctx, base+"/api/resume", nil, &reply); err != nil {
		log.Printf("⚠️  Resume failed: %v", err)
		return
	}
	if reply.Resumed {
		fmt.Println("🔄 Scanner resumed")
	}
}
