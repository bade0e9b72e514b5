package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"personachat/internal/agents"
	"personachat/internal/config"
	"personachat/internal/media"
	"personachat/internal/models"
	"personachat/internal/ui"
)

var (
	askAgent     string
	askImage     string
	askFollowUps bool

	feedbackAgent string
	feedbackLimit int

	configForce bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a single message to a persona and print the reply",
	Long: `Sends one message to the chosen persona and prints the reply.

Example:
  personachat ask --agent q "Optimize this prompt: summarize the article"
  personachat ask --agent jarvis --image receipt.png "What did I spend?"`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the available personas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tMODEL")
		for _, a := range agents.Default() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Role, a.ModelConfig.Model)
		}
		return w.Flush()
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Show saved ratings for persona replies",
	Args:  cobra.NoArgs,
	RunE:  runFeedback,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Long: `Writes the effective settings (defaults, file and environment overrides)
to the config file. The API key is never written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := writeConfig(path, cfg, configForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	askCmd.Flags().StringVarP(&askAgent, "agent", "a", "", "persona id (default from config)")
	askCmd.Flags().StringVar(&askImage, "image", "", "attach an image file")
	askCmd.Flags().BoolVar(&askFollowUps, "follow-ups", false, "also print suggested follow-up questions")

	feedbackCmd.Flags().StringVarP(&feedbackAgent, "agent", "a", "", "only show ratings for this persona")
	feedbackCmd.Flags().IntVarP(&feedbackLimit, "limit", "n", 20, "maximum number of ratings")
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && askImage == "" {
		return errors.New("nothing to send: pass a message or --image")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if askAgent != "" {
		if err := a.store.SelectAgent(askAgent); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if askImage != "" {
		url, err := media.LoadImage(askImage)
		if err != nil {
			return err
		}
		err = a.store.SendImageMessage(ctx, text, url)
		if err != nil {
			return err
		}
	} else if err := a.store.SendMessage(ctx, models.PlainText(text)); err != nil {
		return err
	}

	state := a.store.Snapshot()
	if state.HasError() {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", state.Error)
	}
	reply, ok := lastReply(state)
	if !ok {
		return errors.New("no reply received")
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)

	if askFollowUps {
		a.store.Wait()
		state = a.store.Snapshot()
		if len(state.FollowUps) > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
			for i, f := range state.FollowUps {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, f.Text)
			}
		}
	}
	return nil
}

func writeConfig(path string, c *config.Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return c.Save(path)
}

func lastReply(state models.State) (string, bool) {
	if state.ActiveConversation == nil {
		return "", false
	}
	msgs := state.ActiveConversation.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return msgs[i].Content.Text(), true
		}
	}
	return "", false
}

func runFeedback(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.repo.Feedback(feedbackAgent, feedbackLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No feedback yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tAGENT\tRATING\tCOMMENT")
	for _, f := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			f.Timestamp.Format(time.DateTime),
			f.AgentID,
			strings.Repeat("★", f.Rating),
			ui.TruncateRunes(f.Comment, 60))
	}
	return w.Flush()
}
