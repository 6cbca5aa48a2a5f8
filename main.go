package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deskmate/assistant"
	"deskmate/config"
	"deskmate/conversation"
	"deskmate/ui"
)

const Version = "v0.01.00"

var (
	useProxy  bool
	userEmail string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "deskmate",
	Short: "Deskmate - terminal workplace assistant",
	Long: `Deskmate is a terminal chat client for the executive assistant backend.

When the backend is unreachable or answers with something unusable, replies
come from built-in local rules so the conversation always continues.

Run without arguments to start the interactive chat interface.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctrl, err := setup()
		if err != nil {
			return err
		}
		defer closeSession(ctrl)

		p := tea.NewProgram(
			ui.NewAppView(ctrl, cfg.UserEmail, config.Log),
			tea.WithAltScreen(),
		)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a single message and print the reply",
	Long: `Sends one message through the same path as the chat interface and prints
the reply. The last line reports whether the backend (live) or the local
rules (degraded) answered.

Example:
  deskmate ask "what are my P0 tasks?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctrl, err := setup()
		if err != nil {
			return err
		}
		defer closeSession(ctrl)

		reply, err := ctrl.Submit(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Content)
		fmt.Fprintf(out, "\n[%s · %s · %.0f%%]\n", ctrl.Mode(), reply.Intent, reply.Confidence*100)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useProxy, "proxy", false, "route assistant calls through the web app proxy")
	rootCmd.PersistentFlags().StringVar(&userEmail, "user", "", "user email (overrides settings and DESKMATE_USER_EMAIL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log to <data_directory>/debug.log")

	rootCmd.AddCommand(askCmd)
}

// setup loads configuration, starts logging and builds the controller.
func setup() (*config.Config, *conversation.Controller, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if useProxy {
		cfg.UseProxy = true
	}
	if userEmail != "" {
		cfg.UserEmail = userEmail
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	config.InitLogger(cfg.DataDir(), debug)

	client, err := assistant.NewClient(cfg.AssistantBaseURL(), cfg.APIKey, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create assistant client: %w", err)
	}

	config.Log.Info("starting",
		zap.String("version", Version),
		zap.String("assistant_url", client.BaseURL()),
		zap.Bool("proxy", cfg.UseProxy))

	ctrl := conversation.New(client, cfg.UserEmail, conversation.Options{
		Logger:        config.Log.Named("conversation"),
		Timeout:       cfg.RequestTimeout,
		RetryAttempts: cfg.RetryAttempts,
	})
	return cfg, ctrl, nil
}

func closeSession(ctrl *conversation.Controller) {
	ctrl.Close(context.Background())
	_ = config.Log.Sync()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
