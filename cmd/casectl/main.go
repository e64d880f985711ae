package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/client"
	"github.com/hongminglow/casetrack-be/internal/logging"
	"github.com/hongminglow/casetrack-be/internal/pagination"
)

type options struct {
	baseURL     string
	sessionPath string
	verbose     bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "casectl",
		Short:         "Command line client for the case tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("CASECTL_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.sessionPath, "session", os.Getenv("CASECTL_SESSION"), "session file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(logoutCmd(opts))
	rootCmd.AddCommand(whoamiCmd(opts))
	rootCmd.AddCommand(useCmd(opts))
	rootCmd.AddCommand(casesCmd(opts))
	rootCmd.AddCommand(usersCmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger := logging.NewWithWriter(os.Stderr, "info", true)
		if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, client.ErrNotSignedIn) {
			logger.Error().Msg(err.Error() + " (run: casectl login)")
		} else {
			logger.Error().Err(err).Msg("command failed")
		}
		os.Exit(1)
	}
}

// connect builds a client and restores the stored session.
func connect(ctx context.Context, opts *options) (*client.Client, zerolog.Logger, error) {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(os.Stderr, level, true)

	path := opts.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return nil, logger, err
		}
	}
	logger.Debug().Str("url", opts.baseURL).Str("session", path).Msg("connecting")
	c := client.New(opts.baseURL, client.NewFileStore(path))
	if err := c.Restore(ctx); err != nil {
		return nil, logger, fmt.Errorf("restore session: %w", err)
	}
	return c, logger, nil
}

func loginCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("CASECTL_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			c, logger, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			s, err := c.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			logger.Debug().Int64("user_id", s.User.ID).Msg("session stored")
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", s.User.Username, s.User.Role)
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "password (or CASECTL_PASSWORD, or prompt)")
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and accessible dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			s, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> role=%s\n", s.User.Username, s.User.Email, s.User.Role)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tDASHBOARD\tMODULES")
			for _, a := range s.Dashboards {
				marker := ""
				if a.Dashboard.Key == s.CurrentDashboard {
					marker = "*"
				}
				keys := make([]string, 0, len(a.Modules))
				for _, m := range a.Modules {
					k := m.Key
					if marker != "" && k == s.CurrentModule {
						k = "[" + k + "]"
					}
					keys = append(keys, k)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, a.Dashboard.Key, strings.Join(keys, ", "))
			}
			return tw.Flush()
		},
	}
}

func useCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "use <dashboard> [module]",
		Short: "Switch the current dashboard and module",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			module := ""
			if len(args) == 2 {
				module = args[1]
			}
			s, err := c.SelectDashboard(cmd.Context(), args[0], module)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "using %s/%s\n", s.CurrentDashboard, s.CurrentModule)
			return nil
		},
	}
}

func casesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Browse and manage surgical cases",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags(cmd)
			if err != nil {
				return err
			}
			sortField, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			page, err := c.ListCases(cmd.Context(), client.CaseListOptions{
				Filter: filter,
				Order:  cases.Order{Field: sortField, Desc: desc},
				Page:   pagination.Params{Limit: limit, Offset: offset},
			})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CASE\tOP DATE\tTYPE\tSURGEON\tSPECIALTY\tEXT\tSTATUS\tREGION\tNERVES\tDAYS")
			for _, k := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					k.CaseNumber, k.OpDate.Format(cases.DateLayout), k.CaseType, k.Surgeon, k.Specialty,
					k.Extremity, k.UserStatus, k.Region, k.NervesTreated, k.SurvivalDays)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d-%d of %d\n", min(page.Offset+1, page.Total), page.Offset+len(page.Items), page.Total)
			return nil
		},
	}
	addFilterFlags(listCmd)
	listCmd.Flags().String("sort", cases.SortOpDate, "sort field")
	listCmd.Flags().Bool("desc", true, "sort descending")
	listCmd.Flags().Int("limit", pagination.DefaultLimit, "page size")
	listCmd.Flags().Int("offset", 0, "page offset")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags(cmd)
			if err != nil {
				return err
			}
			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			s, err := c.CaseStats(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cases=%d nerves=%d neuroma=%d studies=%d\n", s.TotalCases, s.TotalNerves, s.NeuromaCases, s.CaseStudies)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SURGEON\tCASES\tNERVES\tNEUROMA")
			for _, row := range s.Surgeons {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", row.Surgeon, row.Cases, row.Nerves, row.NeuromaCases)
			}
			fmt.Fprintln(tw, "\t\t\t")
			fmt.Fprintln(tw, "MONTH\tCASES\tNERVES\t")
			for _, m := range s.Monthly {
				fmt.Fprintf(tw, "%s\t%d\t%d\t\n", m.Month, m.Cases, m.Nerves)
			}
			return tw.Flush()
		},
	}
	addFilterFlags(statsCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <case-number>",
		Short: "Delete a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := c.DeleteCase(cmd.Context(), args[0]); err != nil {
				return err
			}
			logger.Debug().Str("case_number", args[0]).Msg("deleted")
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, statsCmd, deleteCmd)
	return cmd
}

func usersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			c, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			page, err := c.ListUsers(cmd.Context(), pagination.Params{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tDASHBOARDS")
			for _, u := range page.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, strings.Join(u.Dashboards, ","))
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().Int("limit", pagination.DefaultLimit, "page size")
	listCmd.Flags().Int("offset", 0, "page offset")
	cmd.AddCommand(listCmd)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	for _, name := range []string{"type", "specialty", "region", "extremity", "status", "surgeon", "q", "from", "to"} {
		cmd.Flags().String(name, "", "filter by "+name)
	}
}

// filterFlags reads the filter flags through the same parser the API uses.
func filterFlags(cmd *cobra.Command) (cases.Filter, error) {
	q := url.Values{}
	for _, name := range []string{"type", "specialty", "region", "extremity", "status", "surgeon", "q", "from", "to"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			q.Set(name, v)
		}
	}
	return cases.FilterFromQuery(q)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
