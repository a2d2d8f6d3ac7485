package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ndrandal/simviz/internal/session"
)

// displayMessage is any message a display endpoint sends.
type displayMessage struct {
	Type     string          `json:"type"`
	Target   string          `json:"target"`
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Targets  []string        `json:"targets"`
	All      bool            `json:"all"`
	Figure   json.RawMessage `json:"figure"`
	Rendered time.Time       `json:"rendered"`
}

func newWatchCmd() *cobra.Command {
	var (
		url           string
		targets       string
		statsInterval int
		raw           bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to display targets and print every render",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			log.Info("connecting", "url", url)
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return fmt.Errorf("dial: %w", err)
			}
			defer conn.Close()

			sub := session.ControlMessage{Action: "subscribe", Targets: strings.Split(targets, ",")}
			if err := conn.WriteJSON(sub); err != nil {
				return fmt.Errorf("send control: %w", err)
			}

			var msgCount uint64
			if statsInterval > 0 {
				go func() {
					ticker := time.NewTicker(time.Duration(statsInterval) * time.Second)
					defer ticker.Stop()
					var last uint64
					for range ticker.C {
						cur := atomic.LoadUint64(&msgCount)
						log.Info("stats", "total", cur, "per_sec", float64(cur-last)/float64(statsInterval))
						last = cur
					}
				}()
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			go func() {
				<-sigCh
				log.Info("shutting down")
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				time.Sleep(200 * time.Millisecond)
				os.Exit(0)
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return fmt.Errorf("read: %w", err)
				}
				atomic.AddUint64(&msgCount, 1)
				if raw {
					fmt.Println(string(data))
					continue
				}
				fmt.Println(describe(data))
			}
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8200/display", "Display WebSocket endpoint")
	cmd.Flags().StringVar(&targets, "targets", session.Wildcard, "Comma-separated targets or * for all")
	cmd.Flags().IntVar(&statsInterval, "stats", 0, "Print message rate stats every N seconds (0 = off)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print messages as received")
	return cmd
}

// describe renders a display message as one line.
func describe(data []byte) string {
	var m displayMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Sprintf("?? undecodable message (%d bytes): %v", len(data), err)
	}
	switch m.Type {
	case "render":
		return fmt.Sprintf("%s RENDER   target=%s kind=%s id=%s figure=%dB",
			m.Rendered.Format("15:04:05.000"), m.Target, m.Kind, m.ID, len(m.Figure))
	case "subscribed", "unsubscribed":
		if m.All {
			return fmt.Sprintf("%-12s all targets", strings.ToUpper(m.Type))
		}
		return fmt.Sprintf("%-12s %s", strings.ToUpper(m.Type), strings.Join(m.Targets, ","))
	case "targets":
		return fmt.Sprintf("TARGETS      %s", strings.Join(m.Targets, ","))
	default:
		return fmt.Sprintf("?? type=%q (%d bytes)", m.Type, len(data))
	}
}
