package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"convrev/internal/catalog"
)

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show convrev system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Catalog", "%s", cfg.Catalog.Path)
	printStatus("Backend", "%s", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case "csv":
		printStatus("Review file", "%s", cfg.Store.CSVPath)
	case "sqlite":
		printStatus("Data dir", "%s", cfg.Store.DataDir)
	case "sheets":
		printStatus("Spreadsheet", "%s", cfg.Store.Sheets.SpreadsheetID)
	}

	// Item count comes from the server when it is up, otherwise from reading
	// the catalog directly.
	if resp != nil && resp.StatusCode == 200 && cfg.Server.Token != "" {
		apiCli := &apiClient{
			baseURL:    serverURL,
			token:      cfg.Server.Token,
			httpClient: client,
		}
		itemsResp, err := apiCli.get(context.Background(), "/items?limit=1")
		if err == nil {
			var listing struct {
				Total int `json:"total"`
			}
			if decodeJSON(itemsResp, &listing) == nil {
				printStatus("Items", "%d", listing.Total)
			}
		}

		ratingsResp, err := apiCli.get(context.Background(), "/ratings")
		if err == nil {
			var ratings []struct {
				Reviewer string `json:"reviewer"`
			}
			if decodeJSON(ratingsResp, &ratings) == nil {
				counts := make(map[string]int)
				for _, r := range ratings {
					counts[r.Reviewer]++
				}
				for reviewer, n := range counts {
					printStatus("Reviews by "+reviewer, "%d", n)
				}
			}
		}
		return nil
	}

	if cat, err := catalog.Load(cfg.Catalog.Path); err == nil {
		printStatus("Items", "%d", cat.Len())
	}
	return nil
}

// --- items ---

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List or inspect catalog items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/items?limit=%d&offset=%d", limit, offset)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var listing struct {
			Total int            `json:"total"`
			Items []catalog.Item `json:"items"`
		}
		if err := decodeJSON(resp, &listing); err != nil {
			return err
		}

		for _, item := range listing.Items {
			scenario := item.Scenario
			if len(scenario) > 60 {
				scenario = scenario[:60] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-12s %-20s %s\n", item.ID, item.BullyingType, scenario)
		}
		fmt.Fprintf(os.Stdout, "%d of %d items\n", len(listing.Items), listing.Total)
		return nil
	},
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/items/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var item catalog.Item
		if err := decodeJSON(resp, &item); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	},
}

func init() {
	itemsListCmd.Flags().Int("limit", 20, "maximum items to list")
	itemsListCmd.Flags().Int("offset", 0, "items to skip")
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsShowCmd)
}

// --- progress ---

var progressCmd = &cobra.Command{
	Use:   "progress <reviewer>",
	Short: "Show review progress for a reviewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/progress?reviewer="+url.QueryEscape(args[0]))
		if err != nil {
			return err
		}

		var progress struct {
			Reviewer string `json:"reviewer"`
			Total    int    `json:"total"`
			Reviewed int    `json:"reviewed"`
			Percent  int    `json:"percent"`
			Complete bool   `json:"complete"`
		}
		if err := decodeJSON(resp, &progress); err != nil {
			return err
		}

		printStatus("Reviewer", "%s", progress.Reviewer)
		printStatus("Reviewed", "%d/%d (%d%%)", progress.Reviewed, progress.Total, progress.Percent)
		if progress.Complete {
			printSuccess("All items reviewed")
		}
		return nil
	},
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		reviewer, _ := cmd.Flags().GetString("reviewer")

		var path string
		switch format {
		case "csv":
			path = "/export/csv"
		case "json":
			path = "/export/json"
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", format)
		}
		if reviewer != "" {
			path += "?reviewer=" + url.QueryEscape(reviewer)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		dest := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			dest = f
		}

		n, err := io.Copy(dest, resp.Body)
		if err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		if out != "" {
			printSuccess("Wrote %d bytes to %s", n, out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "export format: csv or json")
	exportCmd.Flags().String("out", "", "output file (defaults to stdout)")
	exportCmd.Flags().String("reviewer", "", "only export reviews by this reviewer")
}
