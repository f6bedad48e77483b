package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/calltiming/internal/config"
	"github.com/psantana5/calltiming/pkg/timing"
)

var (
	sitesServer string
	sitesJSON   bool
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List call sites",
	Long: `Without --server, lists the site overrides from the configuration file.
With --server, fetches the live snapshot from a running "calltiming serve".`,
	RunE: runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.Flags().StringVar(&sitesServer, "server", "", "base URL of a running calltiming serve")
	sitesCmd.Flags().BoolVar(&sitesJSON, "json", false, "print JSON instead of a table")
}

func runSites(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if sitesServer == "" {
		return printConfiguredSites(out, cfg.Sites)
	}

	stats, err := fetchSites(sitesServer)
	if err != nil {
		return err
	}
	if sitesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	printSiteStats(out, stats)
	return nil
}

func fetchSites(server string) ([]timing.SiteStats, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(server, "/") + "/sites")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sites: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch sites: %s", resp.Status)
	}
	var stats []timing.SiteStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode sites: %w", err)
	}
	return stats, nil
}

func printSiteStats(w io.Writer, stats []timing.SiteStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No call sites registered")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Site", "Category", "Mode", "Active", "Count", "Cumulative", "Rate")
	for _, s := range stats {
		rate := "-"
		if s.Mode == timing.ModeCumulative.String() && s.Count > 0 {
			rate = timing.FormatRate(timing.Rate(s.Count, s.Cumulative)) + "/s"
		}
		table.Append(
			s.DisplayName,
			s.Category,
			s.Mode,
			timing.FormatFriendly(s.Active),
			fmt.Sprintf("%d", s.Count),
			timing.FormatFriendly(s.Cumulative),
			rate,
		)
	}
	table.Render()
}

func printConfiguredSites(w io.Writer, sites []config.SiteSpec) error {
	if len(sites) == 0 {
		fmt.Fprintln(w, "No site overrides configured")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Site", "Mode", "Active", "Category", "Depth")
	for _, s := range sites {
		c := timing.NewSiteConfig(timing.SiteIdentity{}, func(timing.SiteIdentity, bool) string { return s.Name }, s.Options()...)
		table.Append(
			c.DisplayName,
			c.Mode.String(),
			timing.FormatFriendly(c.Active()),
			c.Category,
			fmt.Sprintf("%t", c.TrackDepth),
		)
	}
	table.Render()
	return nil
}
