// bridge_tester stands in for the browser camera page. It connects to a
// running camera bridge and answers every capture command by posting an
// image file as the frame.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/fitfinder/fitfinder/config"
	"github.com/fitfinder/fitfinder/pkg/photo"
	"github.com/gorilla/websocket"
)

type command struct {
	Type string `json:"type"`
}

func main() {
	addr := flag.String("addr", fmt.Sprintf("127.0.0.1:%d", config.DefaultBridgePort), "camera bridge address")
	file := flag.String("image", "", "image sent for each capture command")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	mimeType := photo.ContentType(*file, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	if err := run(ctx, *addr, data, mimeType, client); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// run listens for capture commands until ctx is done or the bridge goes away.
func run(ctx context.Context, addr string, data []byte, mimeType string, client *http.Client) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", u.String(), err)
	}
	defer conn.Close()
	log.Printf("Connected to %s, waiting for capture commands", addr)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading command: %w", err)
		}
		if cmd.Type != "capture" {
			continue
		}
		status, err := postFrame(ctx, client, addr, data, mimeType)
		if err != nil {
			log.Printf("Frame post failed: %v", err)
			continue
		}
		log.Printf("Frame posted: %d %s", status, http.StatusText(status))
	}
}

func postFrame(ctx context.Context, client *http.Client, addr string, data []byte, mimeType string) (int, error) {
	u := url.URL{Scheme: "http", Host: addr, Path: "/frame"}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
