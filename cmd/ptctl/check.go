package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/powertimer"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	groupStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

var errChecksFailed = errors.New("checks failed")

func newCheckCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run an end-to-end check against a running server",
		Long: `check exercises every endpoint of a running server: health, timer CRUD,
status transitions, templates, statistics and error handling. Timers it creates
are deleted afterwards. It exits non-zero if any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newChecker(client(), cmd.OutOrStdout())
			return c.run(cmd.Context())
		},
	}
}

type checkResult struct {
	group  string
	name   string
	err    error
	detail string
}

type checker struct {
	client  *Client
	out     io.Writer
	group   string
	results []checkResult
	created []powertimer.TimerID
}

func newChecker(client *Client, out io.Writer) *checker {
	return &checker{
		client: client,
		out:    out,
	}
}

// check runs fn as a named check and prints its outcome. fn returns a detail
// line shown on success.
func (c *checker) check(name string, fn func() (string, error)) bool {
	detail, err := fn()
	r := checkResult{group: c.group, name: name, err: err, detail: detail}
	c.results = append(c.results, r)

	if err != nil {
		fmt.Fprintf(c.out, "  %s %s %s\n", failStyle.Render("✗"), name, failStyle.Render(err.Error()))
		return false
	}
	line := fmt.Sprintf("  %s %s", passStyle.Render("✓"), name)
	if detail != "" {
		line += " " + detailStyle.Render(detail)
	}
	fmt.Fprintln(c.out, line)
	return true
}

func (c *checker) section(name string) {
	c.group = name
	fmt.Fprintln(c.out, groupStyle.Render(name))
}

func (c *checker) run(ctx context.Context) error {
	defer c.cleanup(ctx)

	c.section("Health")
	ok := c.check("api root", func() (string, error) {
		msg, err := c.client.Health(ctx)
		if err != nil {
			return "", err
		}
		if msg != "Power Timer API Ready!" {
			return "", fmt.Errorf("unexpected message %q", msg)
		}
		return msg, nil
	})
	if !ok {
		c.summary()
		return errChecksFailed
	}

	c.checkTimers(ctx)
	c.checkTemplates(ctx)
	c.checkStats(ctx)
	c.checkEdgeCases(ctx)

	if c.summary() > 0 {
		return errChecksFailed
	}
	return nil
}

func (c *checker) checkTimers(ctx context.Context) {
	c.section("Timers")

	var timer powertimer.ExistingTimerRecord
	ok := c.check("create timer", func() (string, error) {
		var err error
		timer, err = c.client.CreateTimer(ctx, CreateTimer{
			Name:            "Test Focus Session",
			DurationSeconds: 1500,
			Category:        "work",
		})
		if err != nil {
			return "", err
		}
		c.created = append(c.created, timer.ID)
		if timer.Status != powertimer.TimerStopped || timer.RemainingSeconds != 1500 {
			return "", fmt.Errorf("unexpected initial state %s/%d", timer.Status, timer.RemainingSeconds)
		}
		return string(timer.ID), nil
	})
	if !ok {
		return
	}

	c.check("list timers", func() (string, error) {
		timers, err := c.client.ListTimers(ctx)
		if err != nil {
			return "", err
		}
		if !containsTimer(timers, timer.ID) {
			return "", errors.New("created timer missing from list")
		}
		return fmt.Sprintf("%d active", len(timers)), nil
	})

	c.check("get timer", func() (string, error) {
		got, err := c.client.GetTimer(ctx, timer.ID)
		if err != nil {
			return "", err
		}
		if got.Name != timer.Name {
			return "", fmt.Errorf("unexpected name %q", got.Name)
		}
		return "", nil
	})

	c.check("start timer", func() (string, error) {
		got, err := c.setStatus(ctx, timer.ID, powertimer.TimerRunning, nil)
		if err != nil {
			return "", err
		}
		if got.StartedAt == nil {
			return "", errors.New("started_at not set")
		}
		return "", nil
	})

	remaining := 1200
	c.check("pause timer", func() (string, error) {
		got, err := c.setStatus(ctx, timer.ID, powertimer.TimerPaused, &remaining)
		if err != nil {
			return "", err
		}
		if got.PausedAt == nil || got.RemainingSeconds != remaining {
			return "", errors.New("paused_at or remaining_seconds not updated")
		}
		return "", nil
	})

	c.check("complete timer", func() (string, error) {
		zero := 0
		got, err := c.setStatus(ctx, timer.ID, powertimer.TimerCompleted, &zero)
		if err != nil {
			return "", err
		}
		if got.CompletedAt == nil {
			return "", errors.New("completed_at not set")
		}
		return "", nil
	})

	c.check("completed timer hidden from list", func() (string, error) {
		timers, err := c.client.ListTimers(ctx)
		if err != nil {
			return "", err
		}
		if containsTimer(timers, timer.ID) {
			return "", errors.New("completed timer still listed")
		}
		return "", nil
	})

	c.check("delete timer", func() (string, error) {
		temp, err := c.client.CreateTimer(ctx, CreateTimer{Name: "Temp Timer", DurationSeconds: 60, Category: "test"})
		if err != nil {
			return "", err
		}
		if err := c.client.DeleteTimer(ctx, temp.ID); err != nil {
			return "", err
		}
		if _, err := c.client.GetTimer(ctx, temp.ID); !isStatus(err, http.StatusNotFound) {
			return "", fmt.Errorf("deleted timer still readable: %v", err)
		}
		return "", nil
	})
}

func (c *checker) checkTemplates(ctx context.Context) {
	c.section("Templates")

	c.check("seed default templates", func() (string, error) {
		created, err := c.client.SeedTemplates(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d created", created), nil
	})

	c.check("seeding is idempotent", func() (string, error) {
		created, err := c.client.SeedTemplates(ctx)
		if err != nil {
			return "", err
		}
		if created != 0 {
			return "", fmt.Errorf("second seed created %d templates", created)
		}
		return "", nil
	})

	var templates []powertimer.ExistingTemplateRecord
	ok := c.check("list templates", func() (string, error) {
		var err error
		templates, err = c.client.ListTemplates(ctx)
		if err != nil {
			return "", err
		}
		if len(templates) < len(powertimer.DefaultTemplates) {
			return "", fmt.Errorf("expected at least %d templates, got %d", len(powertimer.DefaultTemplates), len(templates))
		}
		return fmt.Sprintf("%d templates", len(templates)), nil
	})
	if !ok || len(templates) == 0 {
		return
	}

	c.check("create timer from template", func() (string, error) {
		template := templates[0]
		timer, err := c.client.Instantiate(ctx, template.ID, "")
		if err != nil {
			return "", err
		}
		c.created = append(c.created, timer.ID)
		if timer.DurationSeconds != template.DurationMinutes*60 {
			return "", fmt.Errorf("expected %ds, got %ds", template.DurationMinutes*60, timer.DurationSeconds)
		}
		if timer.TemplateID == nil || *timer.TemplateID != template.ID {
			return "", errors.New("template_id not linked")
		}
		return template.Name, nil
	})
}

func (c *checker) checkStats(ctx context.Context) {
	c.section("Statistics")

	c.check("get stats", func() (string, error) {
		stats, err := c.client.Stats(ctx)
		if err != nil {
			return "", err
		}
		if stats.TotalSessions < 1 {
			return "", errors.New("completed session not counted")
		}
		return fmt.Sprintf("%d sessions, %s total", stats.TotalSessions, formatSeconds(stats.TotalTimeSeconds)), nil
	})
}

func (c *checker) checkEdgeCases(ctx context.Context) {
	c.section("Edge cases")

	c.check("unknown timer id is 404", func() (string, error) {
		_, err := c.client.GetTimer(ctx, "invalid-id")
		return "", expectStatus(err, http.StatusNotFound)
	})

	c.check("unknown template id is 404", func() (string, error) {
		_, err := c.client.Instantiate(ctx, "invalid-id", "")
		return "", expectStatus(err, http.StatusNotFound)
	})

	c.check("zero duration timer", func() (string, error) {
		timer, err := c.client.CreateTimer(ctx, CreateTimer{Name: "Zero Duration Timer", DurationSeconds: 0, Category: "test"})
		if err != nil {
			return "", err
		}
		c.created = append(c.created, timer.ID)
		if timer.DurationSeconds != 0 || timer.RemainingSeconds != 0 {
			return "", errors.New("unexpected durations")
		}
		return "", nil
	})

	c.check("missing duration is 422", func() (string, error) {
		status, err := c.client.post(ctx, "/timers", map[string]any{"name": "Incomplete Timer"})
		if err != nil {
			return "", err
		}
		if status != http.StatusUnprocessableEntity {
			return "", fmt.Errorf("expected 422, got %d", status)
		}
		return "", nil
	})
}

func (c *checker) cleanup(ctx context.Context) {
	for _, id := range c.created {
		_ = c.client.DeleteTimer(ctx, id)
	}
	c.created = nil
}

// summary prints the pass/fail totals and returns the failure count.
func (c *checker) summary() int {
	var failed []string
	for _, r := range c.results {
		if r.err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", r.group, r.name))
		}
	}
	passed := len(c.results) - len(failed)

	lines := []string{
		fmt.Sprintf("%s  %s",
			passStyle.Render(fmt.Sprintf("%d passed", passed)),
			failStyle.Render(fmt.Sprintf("%d failed", len(failed)))),
	}
	for _, f := range failed {
		lines = append(lines, failStyle.Render("✗ "+f))
	}
	fmt.Fprintln(c.out, summaryStyle.Render(strings.Join(lines, "\n")))
	return len(failed)
}

func (c *checker) setStatus(ctx context.Context, id powertimer.TimerID, status powertimer.TimerStatus, remaining *int) (powertimer.ExistingTimerRecord, error) {
	got, err := c.client.UpdateTimer(ctx, id, UpdateTimer{Status: &status, RemainingSeconds: remaining})
	if err != nil {
		return got, err
	}
	if got.Status != status {
		return got, fmt.Errorf("expected status %s, got %s", status, got.Status)
	}
	return got, nil
}

func containsTimer(timers []powertimer.ExistingTimerRecord, id powertimer.TimerID) bool {
	for _, t := range timers {
		if t.ID == id {
			return true
		}
	}
	return false
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func expectStatus(err error, status int) error {
	if isStatus(err, status) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected %d, got success", status)
	}
	return fmt.Errorf("expected %d: %w", status, err)
}
