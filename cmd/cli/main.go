package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string

	audioOnly    bool
	maxFilesize  int64
	maxDownloads int

	historyLimit int
	historyURL   string
)

var rootCmd = &cobra.Command{
	Use:   "media-grab",
	Short: "Client for the media-grab download server",
	Long:  `Command-line client that talks to a running media-grab server to download media, inspect download history and show usage stats.`,
}

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download media from a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]interface{}{
			"url":        args[0],
			"audio_only": audioOnly,
		}
		if maxFilesize > 0 {
			payload["max_filesize"] = maxFilesize
		}
		if maxDownloads > 0 {
			payload["max_downloads"] = maxDownloads
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 10 * time.Minute}
		resp, err := client.Post(serverURL+"/api/v1/media", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var result struct {
			Media []struct {
				Number     int    `json:"number"`
				Title      string `json:"title"`
				FileName   string `json:"file_name"`
				FilePath   string `json:"file_path"`
				FileSize   int64  `json:"file_size"`
				Resolution string `json:"resolution"`
				Codec      string `json:"codec"`
			} `json:"media"`
			Errors []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
				Details string `json:"details"`
			} `json:"errors"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unexpected response from server: %s", truncate(string(data), 200))
		}

		if resp.StatusCode != http.StatusOK && len(result.Media) == 0 {
			if result.Error != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", e.Code, e.Message)
				if e.Details != "" {
					fmt.Fprintf(os.Stderr, "  %s\n", e.Details)
				}
			}
			return fmt.Errorf("download failed (HTTP %d)", resp.StatusCode)
		}

		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "Warning [%s]: %s\n", e.Code, e.Message)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tSIZE\tRESOLUTION\tCODEC\tPATH")
		for _, m := range result.Media {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				m.Number, truncate(m.Title, 40), formatSize(m.FileSize), m.Resolution, m.Codec, m.FilePath)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if historyURL != "" {
			q.Set("url", historyURL)
		} else if historyLimit > 0 {
			q.Set("limit", fmt.Sprintf("%d", historyLimit))
		}

		endpoint := serverURL + "/api/v1/media/history"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}

		resp, err := http.Get(endpoint)
		if err != nil {
			return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
		}

		var result struct {
			History []struct {
				SourceURL string    `json:"source_url"`
				Title     string    `json:"title"`
				FileSize  int64     `json:"file_size"`
				Extractor string    `json:"extractor"`
				CreatedAt time.Time `json:"created_at"`
			} `json:"history"`
			Count int `json:"count"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return err
		}

		if result.Count == 0 {
			fmt.Println("No downloads recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tEXTRACTOR\tSIZE\tTITLE\tURL")
		for _, r := range result.History {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Extractor,
				formatSize(r.FileSize), truncate(r.Title, 40), truncate(r.SourceURL, 60))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(serverURL + "/api/v1/media/stats")
		if err != nil {
			return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
		}

		var stats struct {
			Total       int64            `json:"total"`
			TotalBytes  int64            `json:"total_bytes"`
			ByExtractor map[string]int64 `json:"by_extractor"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return err
		}

		fmt.Printf("Total downloads: %d\n", stats.Total)
		fmt.Printf("Total size:      %s\n", formatSize(stats.TotalBytes))
		if len(stats.ByExtractor) > 0 {
			fmt.Println("\nBy extractor:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for name, count := range stats.ByExtractor {
				fmt.Fprintf(w, "  %s\t%d\n", name, count)
			}
			w.Flush()
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")

	getCmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Extract audio only")
	getCmd.Flags().Int64Var(&maxFilesize, "max-filesize", 0, "Per-file size budget in bytes")
	getCmd.Flags().IntVar(&maxDownloads, "max-downloads", 0, "Maximum items to fetch from a playlist")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of records to show")
	historyCmd.Flags().StringVar(&historyURL, "url", "", "Only show records for this source URL")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
