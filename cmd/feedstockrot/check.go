package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/obentoo/feedstockrot/internal/common/config"
	"github.com/obentoo/feedstockrot/internal/common/github"
	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/common/output"
	"github.com/obentoo/feedstockrot/internal/common/version"
	"github.com/obentoo/feedstockrot/internal/rot"
	"github.com/obentoo/feedstockrot/internal/sources"
	"github.com/spf13/cobra"
)

var (
	// checkGitHub adds the user's pushable GitHub repositories
	checkGitHub bool
	// checkFiles are TOML package lists
	checkFiles []string
	// checkJobs overrides the configured concurrency
	checkJobs int
	// configPath overrides config file discovery
	configPath string
)

func init() {
	rootCmd.Flags().BoolVar(&checkGitHub, "github", false,
		"Check your GitHub repositories with push access (token from "+config.GitHubTokenEnv+")")
	rootCmd.Flags().StringArrayVarP(&checkFiles, "file", "f", nil, "Read package names from a TOML package list")
	rootCmd.Flags().IntVarP(&checkJobs, "jobs", "j", 0, "Number of packages checked concurrently (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

// checkOptions collects what a check run was asked to do
type checkOptions struct {
	Names      []string
	Files      []string
	GitHub     bool
	Jobs       int
	ConfigPath string
}

// empty reports whether no package source was given
func (o checkOptions) empty() bool {
	return len(o.Names) == 0 && len(o.Files) == 0 && !o.GitHub
}

func runCheck(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := check(ctx, checkOptions{
		Names:      args,
		Files:      checkFiles,
		GitHub:     checkGitHub,
		Jobs:       checkJobs,
		ConfigPath: configPath,
	}, cmd.OutOrStdout())
	if err != nil {
		output.PrintError(cmd.ErrOrStderr(), "%v", err)
		os.Exit(1)
	}
}

// check builds the package set, resolves it and writes the report to w.
func check(ctx context.Context, opts checkOptions, w io.Writer) error {
	if opts.empty() {
		logger.Debug("no packages given, nothing to do")
		return nil
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine := rot.NewEngine(newFactory(cfg))
	engine.Add(opts.Names...)
	logger.Debug("added %d packages from the command line", len(opts.Names))

	for _, path := range opts.Files {
		names, err := config.LoadPackageList(path)
		if err != nil {
			return err
		}
		engine.Add(names...)
		logger.Debug("added %d packages from %s", len(names), path)
	}

	if opts.GitHub {
		names, err := githubRepositories(ctx, cfg, w)
		if err != nil {
			return err
		}
		engine.AddRepositories(names...)
		logger.Debug("added %d repositories as packages", len(names))
	}

	if len(engine.Packages()) == 0 {
		fmt.Fprintln(w, "No packages")
		return nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = cfg.Jobs
	}
	if err := engine.Resolve(ctx, jobs); err != nil {
		return err
	}

	printReport(w, engine.Report(ctx))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// newFactory creates the run's source factory from the configuration.
func newFactory(cfg *config.Config) *sources.Factory {
	clientConfig := sources.DefaultClientConfig()
	clientConfig.Timeout = cfg.HTTP.Timeout
	clientConfig.MaxRetries = cfg.HTTP.Retries
	clientConfig.RateLimit = cfg.HTTP.RateLimit
	clientConfig.UserAgent = cfg.HTTP.UserAgent
	if clientConfig.UserAgent == "" {
		clientConfig.UserAgent = version.UserAgent()
	}

	endpoints := sources.Endpoints{
		Owner:       cfg.Channel.Owner,
		Platforms:   cfg.Channel.Platforms,
		Branches:    cfg.Channel.Branches,
		RepodataURL: cfg.Channel.RepodataURL,
		RecipeURL:   cfg.Channel.RecipeURL,
		PyPIURL:     cfg.Registries.PyPI,
		NpmURL:      cfg.Registries.Npm,
		CratesURL:   cfg.Registries.Crates,
	}

	return sources.NewFactory(sources.NewHTTPClientWithConfig(clientConfig), endpoints)
}

// githubRepositories returns the names of the repositories the configured
// token can push to.
func githubRepositories(ctx context.Context, cfg *config.Config, w io.Writer) ([]string, error) {
	if cfg.GitHub.Token == "" {
		return nil, github.ErrMissingToken
	}

	client := github.NewClient(cfg.GitHub.Token)
	client.BaseURL = strings.TrimRight(cfg.GitHub.APIURL, "/")
	client.UserAgent = version.UserAgent()

	user, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return nil, err
	}
	output.PrintSuccess(w, "Authenticated to GitHub as %s", user.Login)

	names, err := client.PushableRepositoryNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	return names, nil
}

// reportSections is the order buckets are printed in
var reportSections = []struct {
	status rot.Status
	title  string
}{
	{rot.StatusUpToDate, "Up-to-date:"},
	{rot.StatusUnknown, "Unknown (check these manually):"},
	{rot.StatusUpgradeable, "Upgradeable:"},
	{rot.StatusNotFound, "Not found (no feedstock found, check for typos):"},
}

// printReport writes every non-empty bucket
func printReport(w io.Writer, report map[rot.Status][]rot.Result) {
	for _, section := range reportSections {
		results := report[section.status]
		if len(results) == 0 {
			continue
		}
		output.Section(w, section.status.String(), section.title)
		for _, r := range results {
			fmt.Fprintf(w, "- %s\n", formatResult(r))
		}
	}
}

func formatResult(r rot.Result) string {
	name := output.FormatPackage(r.Name)

	switch r.Status {
	case rot.StatusUnknown:
		return fmt.Sprintf("%s: %s", name, r.FeedstockVersion)
	case rot.StatusUpgradeable:
		line := fmt.Sprintf("%s: %s", name, output.FormatUpgrade(r.FeedstockVersion, r.ExternalVersion))
		// registry name differs from the feedstock's
		if r.ExternalName != "" {
			line += output.Dim.Sprintf(" (%s: %s)", r.ExternalSource, r.ExternalName)
		}
		return line
	default:
		return name
	}
}
