// Package cli implements the contexa command line.
package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/contexa"
	"github.com/hupe1980/contexa/config"
)

// RuntimeFactory builds the runtime a command works against.
type RuntimeFactory func(ctx context.Context, cfg *config.Config) (*contexa.Runtime, error)

type globalFlags struct {
	configPath string
	logLevel   string
	store      string
}

type app struct {
	flags      globalFlags
	newRuntime RuntimeFactory
}

// NewRootCmd returns the contexa command tree. A nil factory uses
// contexa.FromConfig.
func NewRootCmd(factory RuntimeFactory) *cobra.Command {
	if factory == nil {
		factory = contexa.FromConfig
	}
	a := &app{newRuntime: factory}

	root := &cobra.Command{
		Use:   "contexa",
		Short: "Hand context between agents built on different AI SDKs",
		Long: `contexa converts one agent definition into the shapes of several vendor
SDKs (genai, adk, openai, anthropic, langchain, crewai), runs it there, and
records agent-to-agent handoffs on a shared message channel.

Configuration is read from --config (YAML) and CONTEXA_* environment
variables. Use a redis channel store to keep mail between invocations.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "contexa.yaml", "Path to the configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.store, "store", "", "Override channel store (memory, redis)")

	root.AddCommand(a.mailCmd())
	root.AddCommand(a.convertCmd())
	root.AddCommand(a.runCmd())
	root.AddCommand(a.handoffCmd())
	root.AddCommand(a.toolsCmd())

	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().
		WithConfigPath(a.flags.configPath).
		WithOverride(func(c *config.Config) {
			if a.flags.logLevel != "" {
				c.Log.Level = a.flags.logLevel
			}
			if a.flags.store != "" {
				c.Channel.Store = a.flags.store
			}
		}).
		Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRuntime loads configuration, builds the runtime, serves metrics when
// configured and runs fn.
func (a *app) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *contexa.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	rt, err := a.newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	stop, err := serveMetrics(rt)
	if err != nil {
		return err
	}
	defer stop()

	return fn(ctx, rt)
}

func serveMetrics(rt *contexa.Runtime) (func(), error) {
	if rt.Registry == nil || rt.Config.Metrics.Addr == "" {
		return func() {}, nil
	}

	ln, err := net.Listen("tcp", rt.Config.Metrics.Addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("metrics.serve.failed", "error", err.Error())
		}
	}()
	rt.Logger.Info("metrics.listening", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	dimColor = color.New(color.Faint)
	hdrColor = color.New(color.Bold)
)
