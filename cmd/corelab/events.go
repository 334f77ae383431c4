package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"corelab/internal/commands"
	"corelab/pkg/coretypes"
)

const eventsRequestTimeout = 10 * time.Second

func newEventsCmd() *cobra.Command {
	var (
		limit  int
		server string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events of a running server, newest first",
		Long: `Show the event log of a running "corelab serve". The log lives in the
server process, so this asks the server at the configured listen address
(or --server) through POST /api/event_log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := newPrinter(outputFmt)
			if err != nil {
				return err
			}
			if server == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				server = "http://" + cfg.Listen
			}

			evts, err := fetchEventLog(cmd.Context(), server, limit)
			if err != nil {
				return err
			}
			return out.print(cmd.OutOrStdout(), evts, func(w io.Writer) error {
				if len(evts) == 0 {
					_, err := fmt.Fprintln(w, "No events yet.")
					return err
				}
				rows := make([][]string, 0, len(evts))
				for _, e := range evts {
					rows = append(rows, []string{e.Timestamp.Local().Format("15:04:05.000"), e.Key(), e.Source})
				}
				_, err := fmt.Fprintln(w, renderTable([]string{"Time", "Event", "Source"}, rows))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", commands.DefaultEventLogLimit, "Maximum number of events")
	cmd.Flags().StringVar(&server, "server", "", "Server base URL [default: http://<listen>]")
	return cmd
}

// fetchEventLog calls the event_log command on the server at baseURL.
func fetchEventLog(ctx context.Context, baseURL string, limit int) ([]coretypes.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, eventsRequestTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]int{"limit": limit})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(baseURL, "/") + "/api/event_log"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid server address %s: %w", baseURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("no corelab server reachable at %s (start one with \"corelab serve\"): %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ce commands.CommandError
		if err := json.NewDecoder(resp.Body).Decode(&ce); err != nil || ce.Kind == "" {
			return nil, fmt.Errorf("server at %s answered %s", baseURL, resp.Status)
		}
		return nil, &ce
	}

	var evts []coretypes.Event
	if err := json.NewDecoder(resp.Body).Decode(&evts); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}
	return evts, nil
}
