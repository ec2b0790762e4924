package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matthewsawatzky/filelist/internal/auth"
	"github.com/matthewsawatzky/filelist/internal/config"
	"github.com/matthewsawatzky/filelist/internal/db"
	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/render"
	"github.com/matthewsawatzky/filelist/internal/syntax"
	"github.com/matthewsawatzky/filelist/internal/util"
	"github.com/matthewsawatzky/filelist/internal/wiki"
)

// downloadBase is the link target one-shot commands render with. It matches
// the server's route when no base path is configured.
func downloadBase(cfg config.Config) string {
	base := config.NormalizeBasePath(cfg.BasePath)
	if base == "/" {
		return "/file"
	}
	return base + "/file"
}

func buildListCommand(state *rootState) *cobra.Command {
	var (
		asJSON   bool
		flat     bool
		showURLs bool
		noColor  bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "ls <path/pattern[&flag=value...]>",
		Short: "Render a listing in the terminal",
		Long: "Renders the same listing a {{filelist>...}} directive would produce.\n" +
			"Example: filelist ls '/srv/files/*.pdf&sort=mtime&order=desc&showsize=1'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg, downloadBase(cfg), stderrLogger(verbose))
			if err != nil {
				return err
			}
			d, err := syntax.Parse("{{filelist>"+args[0]+"}}", cfg.Defaults)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				l, err := engine.List(d.Base, d.Pattern, d.Params)
				if err != nil {
					return err
				}
				entries := l.Entries
				if flat {
					entries = listing.Flatten(entries, "")
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			colored := false
			if f, ok := out.(*os.File); ok && !noColor {
				colored = term.IsTerminal(int(f.Fd()))
			}
			tr := render.NewTextRenderer(out, colored, showURLs)
			res := engine.RenderDirective(tr, d)
			if res.Status != wiki.StatusOK {
				// inline markers are written without a line break
				fmt.Fprintln(out)
			}
			switch res.Status {
			case wiki.StatusNotAllowed, wiki.StatusBadStyle:
				return fmt.Errorf("listing %s: %s", args[0], res.Status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the crawl result as JSON")
	cmd.Flags().BoolVar(&flat, "flat", false, "with --json, flatten the tree into leaf paths")
	cmd.Flags().BoolVar(&showURLs, "urls", false, "print link targets next to file names")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log skipped entries and rejected paths")
	return cmd
}

func buildRenderCommand(state *rootState) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "render <page.md>",
		Short: "Render a markdown page with its listings to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg, downloadBase(cfg), stderrLogger(false))
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			page, err := engine.RenderPage(src)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), page.HTML)
				return err
			}
			if err := os.WriteFile(outPath, []byte(page.HTML), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d directives, cacheable=%v\n", outPath, len(page.Results), page.Cacheable)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write HTML to this file instead of stdout")
	return cmd
}

func buildResolveCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show which configured root a path falls under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			info, err := pathres.Parse(cfg.Paths, downloadBase(cfg)).Resolve(args[0], true)
			if err != nil {
				return err
			}
			jail := pathres.NewJail(cfg.DataDir, cfg.PagesDir, installDir())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "root\t%s\n", info.Root)
			if info.Alias != "" {
				fmt.Fprintf(w, "alias\t%s\n", info.Alias)
			}
			fmt.Fprintf(w, "local\t%s\n", info.Local)
			fmt.Fprintf(w, "path\t%s\n", info.Path)
			fmt.Fprintf(w, "web\t%s\n", info.Web)
			fmt.Fprintf(w, "host-controlled\t%v\n", jail.IsWikiControlled(info.Path))
			return w.Flush()
		},
	}
}

func buildPathsCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List configured roots with their aliases and link templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			r := pathres.Parse(cfg.Paths, downloadBase(cfg))
			if r.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no paths configured")
				return nil
			}
			rules := r.Rules()
			roots := uniqueRoots(rules)
			sort.Strings(roots)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROOT\tALIAS\tWEB")
			for _, root := range roots {
				rule := rules[root]
				alias := rule.Alias
				if alias == "" {
					alias = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", rule.Root, alias, rule.Web)
			}
			return w.Flush()
		},
	}
}

func buildPasswdCommand(state *rootState) *cobra.Command {
	var (
		username  string
		clearPass bool
		generate  bool
	)
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set or clear the download password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case clearPass:
				cfg.PasswordHash = ""
				fmt.Fprintln(out, "download password cleared")
			default:
				var pass string
				if generate {
					pass, err = util.RandomToken(12)
				} else {
					pass, err = newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).newPassword("New password")
				}
				if err != nil {
					return err
				}
				hash, err := auth.HashPassword(pass)
				if err != nil {
					return err
				}
				cfg.PasswordHash = hash
				if cmd.Flags().Changed("username") {
					cfg.Username = strings.TrimSpace(username)
				}
				name := firstNonEmpty(cfg.Username, auth.DefaultUsername)
				if generate {
					fmt.Fprintf(out, "username: %s\npassword: %s\n", name, pass)
				} else {
					fmt.Fprintf(out, "password set for %s\n", name)
				}
			}
			return config.Save(cfgPath, cfg)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "basic auth username (default "+auth.DefaultUsername+")")
	cmd.Flags().BoolVar(&clearPass, "clear", false, "remove the password and serve without authentication")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random password and print it")
	cmd.MarkFlagsMutuallyExclusive("clear", "generate")
	return cmd
}

func buildAuditCommands(state *rootState) *cobra.Command {
	auditCmd := &cobra.Command{Use: "audit", Short: "Inspect the download audit log"}

	var (
		limit  int
		action string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(state)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.ListAudit(limit, action)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tACTION\tSTATUS\tCLIENT\tACTOR\tTARGET")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					humanize.Time(e.CreatedAt), e.Action, e.Status, e.RemoteIP, firstNonEmpty(e.Actor, "-"), e.Target)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	listCmd.Flags().StringVar(&action, "action", "", "only show this action (e.g. "+db.ActionDenied+")")

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, err := openStore(state)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.PruneAudit(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s entries\n", humanize.Comma(n))
			return nil
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove entries older than this")

	lockoutsCmd := &cobra.Command{
		Use:   "lockouts",
		Short: "Show clients with failed password attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(state)
			if err != nil {
				return err
			}
			defer store.Close()
			attempts, err := store.ListAttempts()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CLIENT\tFAILED\tLOCKED UNTIL")
			for _, a := range attempts {
				until := "-"
				if a.LockedUntil != nil && a.LockedUntil.After(time.Now()) {
					until = a.LockedUntil.Local().Format(render.DateFormat)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", a.Key, a.Failed, until)
			}
			return w.Flush()
		},
	}

	auditCmd.AddCommand(listCmd, pruneCmd, lockoutsCmd)
	return auditCmd
}

func openStore(state *rootState) (*db.Store, error) {
	_, cfg, err := loadConfig(state)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, db.FileName)); err != nil {
		return nil, fmt.Errorf("no audit database in %s; has the server run yet?", cfg.DataDir)
	}
	return db.Open(cfg.DataDir)
}
