package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wilhg/statebox/examples/todo"
	"github.com/wilhg/statebox/pkg/config"
	"github.com/wilhg/statebox/pkg/errmodel"
	"github.com/wilhg/statebox/pkg/observability"
	otto "github.com/wilhg/statebox/pkg/otel"
	"github.com/wilhg/statebox/pkg/store"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, errmodel.JSON(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		showVersion  bool
		configPath   string
		verbose      bool
		stdoutTraces bool
	)
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&configPath, "config", getEnv("STATEBOX_CONFIG", "statebox.json"), "path to a JSON config file")
	fs.BoolVar(&verbose, "verbose", false, "log store events to stderr")
	fs.BoolVar(&stdoutTraces, "stdout-traces", false, "export spans to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Fprintf(stdout, "todo %s (commit=%s, date=%s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		if err := observability.RegisterObserver("verbose", observability.NewSlogObserver(logger)); err != nil {
			return err
		}
		cfg.Observer = "verbose"
	}
	cfg.StdoutTraces = cfg.StdoutTraces || stdoutTraces

	shutdown, err := otto.Init(ctx, otto.Config{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.ServiceVersion,
		UseStdout:      cfg.StdoutTraces,
		Writer:         stderr,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	st, err := store.NewFromConfig(*cfg, store.WithInitialState(todo.New()))
	if err != nil {
		return err
	}
	unsubscribe := st.Subscribe(func(s *todo.State) {
		fmt.Fprintf(stdout, "open=%s done=%d\n", strings.Join(s.Open(), ","), s.Done())
	})
	defer unsubscribe()

	return demo(ctx, st, stdout)
}

// demo walks through every action kind.
func demo(ctx context.Context, st *store.Store[*todo.State], stdout io.Writer) error {
	for _, a := range []store.Action[*todo.State]{
		todo.Add("read the docs"),
		todo.Add("write a reducer"),
		todo.Complete("read the docs"),
		store.Seq[*todo.State](todo.Add("add middleware"), todo.Add("subscribe")),
	} {
		if err := st.Dispatch(ctx, a); err != nil {
			return err
		}
	}

	imp := todo.Import(func(ctx context.Context) ([]string, error) {
		time.Sleep(10 * time.Millisecond)
		return []string{"review", "release"}, nil
	})
	if err := st.Dispatch(ctx, imp); err != nil {
		return err
	}
	if err := imp.Wait(ctx); err != nil {
		return err
	}

	titles := make(chan string)
	feed := todo.Feed(titles)
	if err := st.Dispatch(ctx, feed); err != nil {
		return err
	}
	for _, t := range []string{"celebrate", "rest"} {
		titles <- t
	}
	close(titles)
	if err := feed.Wait(ctx); err != nil {
		return err
	}

	if err := st.Dispatch(ctx, todo.CompleteAll()); err != nil {
		return err
	}
	if err := st.Dispatch(ctx, todo.ClearCompleted()); err != nil {
		return err
	}

	out, err := json.Marshal(st.GetState())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "final %s\n", out)
	return nil
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
