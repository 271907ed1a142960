package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"trendgraph/internal/annotations"
	"trendgraph/internal/fetchers"
	"trendgraph/internal/models"
)

func newAnnotationsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "annotations",
		Aliases: []string{"annotation"},
		Short:   "List, add, import and commit date annotations",
		Long: `Manage the annotations drawn on trend charts.

Annotations of a saved dashboard item are written straight to the backend.
Annotations made before the item was saved are staged, and can be committed
later from a snapshot's panel.json with the commit subcommand.`,
	}
	cmd.PersistentFlags().String("dashboard-item", "", "Dashboard item the annotations belong to (global when empty)")

	cmd.AddCommand(
		newListAnnotationsCmd(c),
		newAddAnnotationCmd(c),
		newImportFeedCmd(c),
		&cobra.Command{
			Use:   "commit <panel.json>",
			Short: "Write the staged annotations saved in a snapshot",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runCommitAnnotations,
		},
	)
	return cmd
}

func newListAnnotationsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the annotations of a dashboard item",
		Args:  cobra.NoArgs,
		RunE:  c.runListAnnotations,
	}
	cmd.Flags().String("granularity", string(annotations.Day), "Bucket unit shown in the Bucket column: year, month, week, day, hour or minute")
	return cmd
}

func newAddAnnotationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Annotate one day of a dashboard item",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runAddAnnotation,
	}
	cmd.Flags().String("date", "", "Day to annotate, e.g. 2021-01-02")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newImportFeedCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-feed <url>",
		Short: "Annotate the release dates of an RSS or Atom feed",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runImportFeed,
	}
	cmd.Flags().String("since", "", "Skip items published before this day")
	return cmd
}

// model loads the annotations of the --dashboard-item scope
func (c *cli) model(cmd *cobra.Command) (*annotations.Registry, *annotations.Model, error) {
	item, _ := cmd.Flags().GetString("dashboard-item")
	registry, err := c.registry(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	m, err := registry.For(cmd.Context(), annotations.Scope{DashboardItem: item})
	if err != nil {
		registry.Close()
		return nil, nil, err
	}
	return registry, m, nil
}

func (c *cli) runListAnnotations(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("granularity")
	granularity, err := annotations.ParseGranularity(raw)
	if err != nil {
		return err
	}

	registry, m, err := c.model(cmd)
	if err != nil {
		return err
	}
	defer registry.Close()

	list := m.List()
	viewer := registry.Viewer()
	data := make([][]string, 0, len(list))
	for _, a := range list {
		data = append(data, []string{
			models.FormatDay(a.DateMarker),
			models.FormatDay(annotations.Floor(a.DateMarker, granularity)),
			annotations.AuthorName(a, viewer),
			strings.ReplaceAll(a.Content, "\n", " "),
			a.ID,
		})
	}

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Date", "Bucket", "Author", "Content", "ID"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d annotations in %s\n", len(list), m.Scope().Key())
	return err
}

func (c *cli) runAddAnnotation(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("date")
	date, err := models.ParseDay(raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}

	registry, m, err := c.model(cmd)
	if err != nil {
		return err
	}
	defer registry.Close()

	// staged annotations would die with the process
	created, err := m.CreateNow(cmd.Context(), args[0], date)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created annotation %s on %s\n", created.ID, models.FormatDay(created.DateMarker))
	return err
}

func (c *cli) runImportFeed(cmd *cobra.Command, args []string) error {
	var since time.Time
	if raw, _ := cmd.Flags().GetString("since"); raw != "" {
		day, err := models.ParseDay(raw)
		if err != nil {
			return fmt.Errorf("invalid --since %q: %w", raw, err)
		}
		since = day
	}

	items, err := fetchers.NewDataFetcher().FetchReleases(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	registry, m, err := c.model(cmd)
	if err != nil {
		return err
	}
	defer registry.Close()

	imported, err := annotations.ImportFeed(cmd.Context(), m, items, since)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d feed items\n", imported, len(items))
	return err
}

func (c *cli) runCommitAnnotations(cmd *cobra.Command, args []string) error {
	pending, err := readStaged(args[0])
	if err != nil {
		return err
	}

	registry, m, err := c.model(cmd)
	if err != nil {
		return err
	}
	defer registry.Close()
	if !m.Scope().Persisted() {
		return fmt.Errorf("commit needs the --dashboard-item the annotations were saved to")
	}

	for _, a := range pending {
		if _, err := m.CreateStaged(a.Content, a.DateMarker); err != nil {
			return err
		}
	}
	committed, err := m.Commit(cmd.Context())
	if err != nil {
		return fmt.Errorf("committed %d of %d: %w", committed, len(pending), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Committed %d annotations to %s\n", committed, m.Scope().Key())
	return err
}

// readStaged returns the staged annotations of a snapshot panel.json or of a
// bare JSON array of annotations
func readStaged(path string) ([]models.Annotation, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged annotations: %w", err)
	}

	var list []models.Annotation
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		err = json.Unmarshal(body, &list)
	} else {
		var snapshot struct {
			Annotations []models.Annotation `json:"annotations"`
		}
		err = json.Unmarshal(body, &snapshot)
		list = snapshot.Annotations
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	staged := list[:0]
	for _, a := range list {
		if a.ID == "" || annotations.IsStaged(a) {
			staged = append(staged, a)
		}
	}
	return staged, nil
}
