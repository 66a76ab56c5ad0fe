package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/powertimer"
)

const (
	urlEnv     = "POWERTIMER_URL"
	defaultURL = "http://localhost:8001/api"
)

func newRootCmd() *cobra.Command {
	var baseURL string
	client := func() *Client {
		return NewClient(baseURL)
	}

	root := &cobra.Command{
		Use:          "ptctl",
		Short:        "Command-line client for the Power Timer API",
		SilenceUsage: true,
	}
	defaultBase := os.Getenv(urlEnv)
	if defaultBase == "" {
		defaultBase = defaultURL
	}
	root.PersistentFlags().StringVar(&baseURL, "url", defaultBase, "API base URL (env "+urlEnv+")")

	root.AddCommand(
		newTimersCmd(client),
		newTemplatesCmd(client),
		newStatsCmd(client),
		newSessionsCmd(client),
		newCheckCmd(client),
	)
	return root
}

func newTimersCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timers",
		Aliases: []string{"timer", "t"},
		Short:   "Manage timers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List timers that are not completed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timers, err := client().ListTimers(cmd.Context())
			if err != nil {
				return err
			}
			if len(timers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No timers found.")
				return nil
			}
			printTimers(cmd.OutOrStdout(), timers...)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [timer-id]",
		Short: "Show a timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, err := client().GetTimer(cmd.Context(), powertimer.TimerID(args[0]))
			if err != nil {
				return err
			}
			printTimers(cmd.OutOrStdout(), timer)
			return nil
		},
	})

	var category string
	create := &cobra.Command{
		Use:   "create [name] [duration]",
		Short: "Create a stopped timer",
		Long:  "Create a stopped timer. Duration is a Go duration such as 25m or 90s.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := parseSeconds(args[1])
			if err != nil {
				return err
			}
			timer, err := client().CreateTimer(cmd.Context(), CreateTimer{
				Name:            args[0],
				DurationSeconds: seconds,
				Category:        category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created timer %s\n", timer.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&category, "category", "c", "", "timer category")
	cmd.AddCommand(create)

	for _, status := range []struct {
		use    string
		short  string
		status powertimer.TimerStatus
	}{
		{"start", "Start or resume a timer", powertimer.TimerRunning},
		{"pause", "Pause a timer", powertimer.TimerPaused},
		{"stop", "Stop a timer", powertimer.TimerStopped},
		{"complete", "Complete a timer and record a session", powertimer.TimerCompleted},
	} {
		var remaining int
		c := &cobra.Command{
			Use:   status.use + " [timer-id]",
			Short: status.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u := UpdateTimer{Status: &status.status}
				if cmd.Flags().Changed("remaining") {
					u.RemainingSeconds = &remaining
				}
				timer, err := client().UpdateTimer(cmd.Context(), powertimer.TimerID(args[0]), u)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Timer %s is %s\n", timer.ID, timer.Status)
				return nil
			},
		}
		c.Flags().IntVarP(&remaining, "remaining", "r", 0, "remaining seconds to record")
		cmd.AddCommand(c)
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "rm [timer-id]",
		Aliases: []string{"delete"},
		Short:   "Delete a timer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().DeleteTimer(cmd.Context(), powertimer.TimerID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted timer %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newTemplatesCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage timer templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := client().ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates found. Use 'ptctl templates seed' to add the defaults.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMINUTES\tCATEGORY\tDESCRIPTION")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", t.ID, t.Name, t.DurationMinutes, t.Category, t.Description)
			}
			return w.Flush()
		},
	})

	var description, category string
	create := &cobra.Command{
		Use:   "create [name] [minutes]",
		Short: "Create a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid minutes %q", args[1])
			}
			template, err := client().CreateTemplate(cmd.Context(), powertimer.TemplateRecord{
				Name:            args[0],
				DurationMinutes: minutes,
				Description:     description,
				Category:        category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s\n", template.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "template description")
	create.Flags().StringVarP(&category, "category", "c", powertimer.DefaultCategory, "template category")
	cmd.AddCommand(create)

	var name string
	use := &cobra.Command{
		Use:   "use [template-id]",
		Short: "Create a timer from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, err := client().Instantiate(cmd.Context(), powertimer.TemplateID(args[0]), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created timer %s\n", timer.ID)
			return nil
		},
	}
	use.Flags().StringVarP(&name, "name", "n", "", "timer name (defaults to the template name)")
	cmd.AddCommand(use)

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the default templates that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := client().SeedTemplates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d default templates\n", created)
			return nil
		},
	})

	return cmd
}

func newStatsCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show session statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total sessions:   %d\n", stats.TotalSessions)
			fmt.Fprintf(out, "Total time:       %s\n", formatSeconds(stats.TotalTimeSeconds))
			fmt.Fprintf(out, "Today sessions:   %d\n", stats.TodaySessions)
			fmt.Fprintf(out, "Today time:       %s\n", formatSeconds(stats.TodayTimeSeconds))
			fmt.Fprintf(out, "Average session:  %s\n", formatSeconds(int(stats.AverageSessionDuration)))
			for category, seconds := range stats.Categories {
				fmt.Fprintf(out, "  %-16s%s\n", category, formatSeconds(seconds))
			}
			return nil
		},
	}
}

func newSessionsCmd(client func() *Client) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent completed sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := client().Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTIMER\tCATEGORY\tCOMPLETED")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.SessionDate.Local().Format(time.DateTime), s.TimerName, s.Category, formatSeconds(s.CompletedSeconds))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum sessions to list")
	return cmd
}

func printTimers(out io.Writer, timers ...powertimer.ExistingTimerRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tREMAINING\tDURATION\tCATEGORY")
	for _, t := range timers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Status,
			formatSeconds(t.RemainingSeconds), formatSeconds(t.DurationSeconds), t.Category)
	}
	_ = w.Flush()
}

// parseSeconds accepts a Go duration or a plain number of seconds.
func parseSeconds(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return int(d.Seconds()), nil
}

func formatSeconds(n int) string {
	return (time.Duration(n) * time.Second).String()
}
