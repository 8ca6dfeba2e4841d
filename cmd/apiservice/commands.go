package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	apiservice "github.com/cineverse/apiservice-sdk-go/sdk"
	"github.com/cineverse/apiservice-sdk-go/sdk/config"
	"github.com/cineverse/apiservice-sdk-go/sdk/gateway"
	"github.com/cineverse/apiservice-sdk-go/sdk/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalFlags struct {
	configPath string
	baseURL    string
	logLevel   string
	retryMax   int
	verbose    bool
}

type requestFlags struct {
	headers []string
	params  []string
	data    string
}

func newRootCommand(out io.Writer) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "apiservice",
		Short:         "Send authenticated requests through the API gateway",
		SilenceUsage:  true,
		Example: strings.TrimSpace(`
  TMDB_API_KEY_AUTH=<token> apiservice get /movie/popular --param page=2
  apiservice post /list --data '{"name":"favorites"}'
  apiservice movies search "blade runner"`),
	}
	bindGlobalFlags(root.PersistentFlags(), &g)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		root.AddCommand(newRequestCommand(out, &g, method))
	}
	root.AddCommand(newMoviesCommand(out, &g))
	return root
}

func bindGlobalFlags(fs *pflag.FlagSet, g *globalFlags) {
	fs.StringVar(&g.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&g.baseURL, "base-url", "", "override the configured base URL")
	fs.StringVar(&g.logLevel, "log-level", "", "override the configured log level")
	fs.IntVar(&g.retryMax, "retry", -1, "retry transient failures up to N times")
	fs.BoolVar(&g.verbose, "verbose", false, "log every request and response (implies --log-level debug)")
}

// resolveConfig loads configuration and applies flag overrides.
func resolveConfig(g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.retryMax >= 0 {
		cfg.RetryMax = g.retryMax
	}
	if g.verbose {
		cfg.LogHTTP = true
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// buildSDK resolves the configuration and runs the startup sequence.
func buildSDK(g *globalFlags) (*apiservice.SDK, error) {
	cfg, err := resolveConfig(g)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	return apiservice.NewSDK(apiservice.Params{Config: cfg, Logger: log})
}

func newRequestCommand(out io.Writer, g *globalFlags, method string) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: "Send a " + method + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDescriptor(method, args[0], rf)
			if err != nil {
				return err
			}
			sdk, err := buildSDK(g)
			if err != nil {
				return err
			}
			resp, err := sdk.Gateway.Request(cmd.Context(), d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(resp.Data))
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&rf.headers, "header", "H", nil, "extra header as Key: Value")
	cmd.Flags().StringArrayVarP(&rf.params, "param", "p", nil, "query parameter as key=value")
	if method == http.MethodPost || method == http.MethodPut {
		cmd.Flags().StringVarP(&rf.data, "data", "d", "", "raw request body")
	}
	return cmd
}

func buildDescriptor(method, rawURL string, rf requestFlags) (gateway.Descriptor, error) {
	d := gateway.Descriptor{Method: method, URL: rawURL}
	if rf.data != "" {
		d.Body = rf.data
	}
	if len(rf.headers) > 0 {
		d.Header = make(http.Header)
		for _, h := range rf.headers {
			key, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(key) == "" {
				return d, fmt.Errorf("invalid header %q, want Key: Value", h)
			}
			d.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}
	if len(rf.params) > 0 {
		d.Params = make(map[string]any, len(rf.params))
		for _, p := range rf.params {
			key, value, ok := strings.Cut(p, "=")
			if !ok || key == "" {
				return d, fmt.Errorf("invalid param %q, want key=value", p)
			}
			d.Params[key] = value
		}
	}
	return d, nil
}

func newMoviesCommand(out io.Writer, g *globalFlags) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Browse the movie database",
	}
	cmd.PersistentFlags().IntVar(&page, "page", 1, "result page")

	cmd.AddCommand(&cobra.Command{
		Use:   "popular",
		Short: "List popular movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk, err := buildSDK(g)
			if err != nil {
				return err
			}
			p, err := sdk.Movies.Popular(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printPage(out, p.Page, p.TotalPages, p.Results)
		},
	}, &cobra.Command{
		Use:   "top-rated",
		Short: "List top rated movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk, err := buildSDK(g)
			if err != nil {
				return err
			}
			p, err := sdk.Movies.TopRated(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printPage(out, p.Page, p.TotalPages, p.Results)
		},
	}, &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk, err := buildSDK(g)
			if err != nil {
				return err
			}
			p, err := sdk.Movies.Search(cmd.Context(), strings.Join(args, " "), page)
			if err != nil {
				return err
			}
			return printPage(out, p.Page, p.TotalPages, p.Results)
		},
	}, &cobra.Command{
		Use:   "details <id>",
		Short: "Show one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			sdk, err := buildSDK(g)
			if err != nil {
				return err
			}
			m, err := sdk.Movies.Details(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%d\t%s (%s)\t%.1f\n%s\n", m.ID, m.Title, m.ReleaseDate, m.VoteAverage, m.Overview)
			return err
		},
	})
	return cmd
}
