// Command echopilot is a terminal client for the Codessa AI Workbench:
// an interactive chat TUI, a policy checker, a playbook runner, and a
// local mock backend for development.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/codessa-ai/echopilot/internal/app"
	"github.com/codessa-ai/echopilot/internal/config"
	"github.com/codessa-ai/echopilot/internal/messages"
	"github.com/codessa-ai/echopilot/internal/mock"
	"github.com/codessa-ai/echopilot/internal/playbook"
	"github.com/codessa-ai/echopilot/internal/policy"
	"github.com/codessa-ai/echopilot/internal/workspace"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

func main() {
	cliApp := &cli.App{
		Name:  "echopilot",
		Usage: "Terminal client for the Codessa AI Workbench",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Backend endpoint URL",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "Backend credential (prefer CODESSA_API_KEY)",
			},
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "Disable streaming responses",
			},
			&cli.StringFlag{
				Name:  "settings",
				Usage: "Settings file path",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this dotenv file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Open the interactive chat TUI",
				Action: runChat,
			},
			{
				Name:      "check",
				Usage:     "Check files against the backend policy engine",
				ArgsUsage: "FILE...",
				Action:    runCheck,
			},
			{
				Name:      "play",
				Usage:     "Run a markdown playbook step by step",
				ArgsUsage: "PLAYBOOK.md",
				Action:    runPlay,
			},
			{
				Name:  "mock",
				Usage: "Run a local mock backend",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: ":8787",
						Usage: "Listen address",
					},
					&cli.DurationFlag{
						Name:  "delay",
						Value: 30 * time.Millisecond,
						Usage: "Delay between streamed tokens",
					},
				},
				Action: runMock,
			},
		},
		Action: func(c *cli.Context) error {
			return runChat(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newClient builds the provider from the global flags and returns a
// configured client.
func newClient(c *cli.Context) (*codessa.Client, *config.Provider) {
	provider := config.NewProvider()
	provider.Path = c.String("settings")
	provider.EnvFile = c.String("env-file")
	provider.Overrides.Endpoint = c.String("endpoint")
	provider.Overrides.APIKey = c.String("api-key")
	if c.Bool("no-stream") {
		off := false
		provider.Overrides.Streaming = &off
	}

	logger := codessa.NewLoggerFromEnv()
	client := codessa.NewClient(provider, codessa.WithLogger(logger))
	return client, provider
}

func runChat(c *cli.Context) error {
	client, _ := newClient(c)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	applier, err := workspace.NewApplier(cwd, codessa.NewLoggerFromEnv())
	if err != nil {
		return err
	}

	model := app.New(client, applier)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	model.SetProgram(p)

	// SIGHUP re-reads the settings; streams already in flight keep
	// the connection they dialed.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			client.RefreshConfiguration()
			p.Send(messages.ConfigRefreshedMsg{})
		}
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runCheck(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: echopilot check FILE...")
	}

	client, _ := newClient(c)
	runner := policy.NewRunner(client, codessa.NewLoggerFromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	findings, err := runner.ScanFiles(ctx, c.Args().Slice())
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println(policy.FormatReport(findings))
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted; report is partial")
	}

	if policy.HasErrors(findings) {
		return cli.Exit("", 1)
	}
	return nil
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: echopilot play PLAYBOOK.md")
	}

	source, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("read playbook: %w", err)
	}

	pb, err := playbook.Parse(source)
	if err != nil {
		return fmt.Errorf("parse playbook: %w", err)
	}
	if len(pb.Cells) == 0 {
		return fmt.Errorf("no step cells in %s", c.Args().First())
	}

	client, _ := newClient(c)
	runner := playbook.NewRunner(client, codessa.NewLoggerFromEnv())
	runner.OnStepStart = func(step *codessa.PlaybookStep) {
		fmt.Printf("→ %s: %s\n", step.Kind, step.Description)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runner.Run(ctx, pb)
	if err != nil && ctx.Err() == nil {
		return err
	}

	report := playbook.FormatReport(pb, results)
	if rendered, rerr := renderMarkdown(report); rerr == nil {
		fmt.Print(rendered)
	} else {
		fmt.Print(report)
	}

	for _, res := range results {
		if res.Err != nil {
			return cli.Exit("", 1)
		}
	}
	return nil
}

func runMock(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := codessa.NewLogger(codessa.LevelInfo, os.Stderr)
	server := mock.NewServer(c.String("addr"), c.Duration("delay"), logger)
	fmt.Printf("Mock backend starting on http://localhost%s\n", c.String("addr"))
	return server.Start(ctx)
}

func renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}
