package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famgraph"
	"famgraph/config"
	"famgraph/internal/logging"
	"famgraph/network"
	"famgraph/server"
	"famgraph/sheet"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every command needs once the root command has run.
type app struct {
	configFile string
	logLevel   string
	dsn        string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "famgraph",
		Short:         "Rebuild a family graph from a genealogy sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		a.buildCmd(),
		a.serveCmd(),
		a.migrateCmd(),
		a.saveCmd(),
		a.buildsCmd(),
		a.lineageCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// ingest reads the sheet and builds its graph.
func (a *app) ingest(path string) (*famgraph.FamilyGraph, error) {
	rows, err := sheet.Read(path, a.cfg.Sheet.Name)
	if err != nil {
		return nil, err
	}
	rootA, rootB := a.cfg.RootAncestors()

	res, err := famgraph.Ingest(rows, rootA, rootB, a.cfg.Sheet.GroupOptions(), famgraph.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if w := res.Warning(); w != nil {
		a.logger.Warn("Sheet has no data rows", zap.String("sheet", path), zap.Error(w))
	}
	a.logger.Info("Built family graph",
		zap.String("sheet", path),
		zap.Int("rows", res.Grouping.Rows),
		zap.Int("groups", len(res.Grouping.Groups)),
		zap.Int("people", res.Graph.Len()),
		zap.Int("relationships", len(res.Graph.Edges())),
	)
	return res.Graph, nil
}

func (a *app) store() (*famgraph.Store, error) {
	dsn := a.dsn
	if dsn == "" {
		dsn = a.cfg.DatabaseURL
	}
	return famgraph.NewStore(dsn)
}

func (a *app) buildCmd() *cobra.Command {
	var (
		out    string
		indent bool
	)
	cmd := &cobra.Command{
		Use:   "build SHEET",
		Short: "Build the graph and print its network view as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.ingest(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return writeJSON(w, network.Project(g, network.DefaultStyle()), indent)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to FILE instead of stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve SHEET",
		Short: "Serve the graph over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.ingest(args[0])
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.ServerAddress
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      server.New(g, network.DefaultStyle(), a.cfg.CORSOrigins, a.logger).Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Starting server",
					zap.String("address", addr),
					zap.String("environment", a.cfg.Environment),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the snapshot tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("Schema is up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&a.dsn, "dsn", "", "Postgres DSN (default DATABASE_URL)")
	return cmd
}

func (a *app) saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save SHEET",
		Short: "Build the graph and store it as a new snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.ingest(args[0])
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := st.Save(cmd.Context(), g)
			if err != nil {
				return err
			}
			a.logger.Info("Saved family graph", zap.String("build", id.String()))
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.dsn, "dsn", "", "Postgres DSN (default DATABASE_URL)")
	return cmd
}

func (a *app) buildsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()

			builds, err := st.Builds(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range builds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d people\t%d relationships\n",
					b.ID, b.CreatedAt.Format(time.RFC3339), b.NodeCount, b.EdgeCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a.dsn, "dsn", "", "Postgres DSN (default DATABASE_URL)")
	return cmd
}

func (a *app) lineageCmd() *cobra.Command {
	var descendants bool
	cmd := &cobra.Command{
		Use:   "lineage BUILD PERSON",
		Short: "Print the ancestors or descendants of a person in a stored snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid build id %q: %w", args[0], err)
			}
			id, err := network.ParseNodeID(args[1])
			if err != nil {
				return err
			}

			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()

			person, err := st.Person(cmd.Context(), build, id)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("person %s not found in build %s", args[1], build)
			}

			var nodes []famgraph.Node
			if descendants {
				nodes, err = st.Descendants(cmd.Context(), build, id)
			} else {
				nodes, err = st.Ancestors(cmd.Context(), build, id)
			}
			if err != nil {
				return err
			}
			return printLineage(cmd.OutOrStdout(), *person, nodes)
		},
	}
	cmd.Flags().StringVar(&a.dsn, "dsn", "", "Postgres DSN (default DATABASE_URL)")
	cmd.Flags().BoolVar(&descendants, "descendants", false, "list descendants instead of ancestors")
	return cmd
}

func printLineage(w io.Writer, person famgraph.Node, nodes []famgraph.Node) error {
	if _, err := fmt.Fprintf(w, "%s\t%s\n", network.NodeID(person.ID), person.Person.Name); err != nil {
		return err
	}
	for _, n := range nodes {
		if _, err := fmt.Fprintf(w, "  %s\t%s\t%d\n", network.NodeID(n.ID), n.Person.Name, n.Person.Generation); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
