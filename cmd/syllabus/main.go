// Command syllabus runs the course materials assistant.
//
// Usage:
//
//	syllabus serve --config config.yaml
//	syllabus index --folder ./docs --clear
//	syllabus ask "What is covered in lesson 2 of the MCP course?"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/syllabuslabs/syllabus/config"
	"github.com/syllabuslabs/syllabus/docs"
	"github.com/syllabuslabs/syllabus/rag"
	"github.com/syllabuslabs/syllabus/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP API server."`
	Index   IndexCmd   `cmd:"" help:"Index course transcripts into the vector store."`
	Ask     AskCmd     `cmd:"" help:"Ask a single question from the command line."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config   string `short:"c" help:"Path to config file." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// setupLogging configures the default slog logger.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadSystem loads configuration and assembles the system.
func loadSystem(configPath string) (*config.Config, *rag.System, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	system, err := rag.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, system, nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("syllabus version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct {
	Port    int   `short:"p" help:"HTTP port (overrides config)."`
	NoIndex bool  `help:"Skip indexing the docs folder on startup."`
	Watch   *bool `default:"true" negatable:"" help:"Watch the docs folder and re-index on changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, system, err := loadSystem(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.NoIndex {
		courses, chunks, err := system.AddCourseFolder(ctx, cfg.Search.DocsFolder, false)
		if err != nil {
			slog.Warn("Startup indexing failed", "folder", cfg.Search.DocsFolder, "error", err)
		} else {
			slog.Info("Startup indexing complete", "courses", courses, "chunks", chunks)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if c.Watch == nil || *c.Watch {
		watcher, err := docs.NewWatcher(cfg.Search.DocsFolder, 0)
		if err != nil {
			slog.Warn("Docs watcher unavailable", "error", err)
		} else {
			events, err := watcher.Start(gctx)
			if err != nil {
				slog.Warn("Docs watcher unavailable", "error", err)
			} else {
				g.Go(func() error {
					defer watcher.Stop() //nolint:errcheck
					for {
						select {
						case <-gctx.Done():
							return nil
						case path, ok := <-events:
							if !ok {
								return nil
							}
							course, chunks, err := system.AddCourseDocument(gctx, path)
							if err != nil {
								slog.Warn("Re-indexing failed", "path", path, "error", err)
								continue
							}
							slog.Info("Re-indexed course", "course", course.Title, "chunks", chunks)
						}
					}
				})
			}
		}
	}

	srv := server.New(cfg.Server, system)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	return g.Wait()
}

// IndexCmd indexes course transcripts.
type IndexCmd struct {
	Folder string `short:"f" help:"Folder containing course transcripts (overrides config)." type:"path"`
	Clear  bool   `help:"Clear existing data before indexing."`
}

func (c *IndexCmd) Run(cli *CLI) error {
	cfg, system, err := loadSystem(cli.Config)
	if err != nil {
		return err
	}

	folder := c.Folder
	if folder == "" {
		folder = cfg.Search.DocsFolder
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	courses, chunks, err := system.AddCourseFolder(ctx, folder, c.Clear)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d courses (%d chunks)\n", courses, chunks)
	return nil
}

// AskCmd answers a single question.
type AskCmd struct {
	Question string `arg:"" help:"The question to answer."`
	NoIndex  bool   `help:"Skip indexing the docs folder first."`
}

func (c *AskCmd) Run(cli *CLI) error {
	cfg, system, err := loadSystem(cli.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.NoIndex {
		if _, _, err := system.AddCourseFolder(ctx, cfg.Search.DocsFolder, false); err != nil {
			slog.Warn("Indexing failed", "folder", cfg.Search.DocsFolder, "error", err)
		}
	}

	sessionID := system.Sessions().CreateSession()
	answer, sources, err := system.Query(ctx, c.Question, sessionID)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if len(sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range sources {
			if src.URL != "" {
				fmt.Printf("  - %s (%s)\n", src.Text, src.URL)
			} else {
				fmt.Printf("  - %s\n", src.Text)
			}
		}
	}
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("syllabus"),
		kong.Description("Course materials assistant with semantic search."),
		kong.UsageOnError(),
	)

	setupLogging(cli.LogLevel)

	if err := kctx.Run(&cli); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
