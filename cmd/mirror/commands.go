package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dataspace/mirror"
	"github.com/dataspace/mirror/pkg/config"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/spf13/cobra"
)

// app is the state shared by subcommands once the root command ran.
type app struct {
	configPath string
	serverURL  string
	verbose    bool

	cfg    *config.Config
	log    logger.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mirror",
		Short:         "Browse and search a dataspace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "backend URL, overrides the configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.spacesCmd(),
		a.datasetsCmd(),
		a.loadCmd(),
		a.searchCmd(),
		a.watchCmd(),
		parseIDCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "parse-id" {
		return nil
	}
	if a.serverURL != "" {
		// Environment wins over the file in config.Load, so the flag goes there.
		if err := os.Setenv("MIRROR_SERVER_URL", a.serverURL); err != nil {
			return err
		}
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	if cfg.Log.Path != "" {
		data, err := logger.NewZerolog().FromPath(cfg.Log.Path).WithLevel(cfg.Log.Level).Make()
		if err != nil {
			return err
		}
		a.log, a.closer = data, data
		return nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return err
	}
	a.log = logger.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) client(ctx context.Context) (*mirror.Client, error) {
	return mirror.Connect(ctx, a.cfg, mirror.WithLogger(a.log))
}

// datasetArg accepts "d/<space>/<dataset>" or "<space>/<dataset>".
func datasetArg(arg string) (models.ID, error) {
	id := models.Parse(arg)
	if !id.Valid() {
		id = models.Parse("d/" + arg)
	}
	if id.Kind() != models.KindDataset {
		return models.ID{}, fmt.Errorf("%q is not a dataset id", arg)
	}
	return id, nil
}

func (a *app) spacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spaces",
		Short: "List spaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			spaces, err := c.LoadSpaces(ctx)
			if err != nil {
				return err
			}
			for _, s := range spaces {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.Name, s.Owner)
			}
			return nil
		},
	}
}

func (a *app) datasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets <space-id>",
		Short: "List the datasets of a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			space := models.Parse(args[0])
			if !space.Valid() {
				space = models.NewSpaceID(args[0])
			}
			datasets, err := c.LoadDatasets(ctx, space)
			if err != nil {
				return err
			}
			for _, d := range datasets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.ID, d.Name, strings.Join(d.Tags, ","))
			}
			return nil
		},
	}
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <dataset-id>",
		Short: "Download a dataset, expand its archives and list the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := datasetArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			res, err := c.LoadDataset(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range res.Files {
				fmt.Fprintf(out, "%s\t%s\t%d\n", f.ID, f.Name, f.Size)
			}
			fmt.Fprintf(out, "%d files, %d archives expanded, %d failed, %d annotations dropped\n",
				len(res.Files), len(res.Archives), len(res.Failed), len(res.Dropped))
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <dataset-id> <query>...",
		Short: "Load a dataset and search its text files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := datasetArg(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			if _, err := c.LoadDataset(ctx, id); err != nil {
				return err
			}
			hits, err := c.Search(id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			for _, h := range hits {
				lines := make([]string, len(h.Lines))
				for i, l := range h.Lines {
					lines[i] = fmt.Sprint(l + 1)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tlines %s\n", h.Name, strings.Join(lines, ","))
			}
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the live change feed until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer c.Close(context.Background())

			feed, err := c.Live(ctx)
			if err != nil {
				return err
			}
			cancel := c.Subscribe(func(s *store.Store) {
				fmt.Fprintf(cmd.OutOrStdout(), "version %d: %d spaces\n", s.Version, len(s.Spaces()))
			})
			defer cancel()

			if err := c.Watch(ctx, feed); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func parseIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-id <token>...",
		Short: "Decode identifier tokens such as f/s1/d1/f1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				id := models.Parse(arg)
				if !id.Valid() {
					return fmt.Errorf("%q: %w", arg, constants.ErrInvalidID)
				}
				fmt.Fprintf(out, "%s\t%s", id, id.Kind())
				f := id.Fields()
				for _, name := range id.Tag().Fields() {
					fmt.Fprintf(out, "\t%s=%s", name, f[name])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
