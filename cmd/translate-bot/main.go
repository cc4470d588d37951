// Command translate-bot is a Discord front end for the translation fabric:
// a single "/translate" slash command, demonstrating the core embedded in a
// chat surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/bergamot-go/bergamot/internal/app"
	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/response"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "translate-bot: %v\n", err)
		return 1
	}
	if cfg.Discord.Token == "" {
		fmt.Fprintln(os.Stderr, "translate-bot: discord.token must be set")
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := config.NewRegistry()
	app.RegisterDefaultProviders(reg)

	application, err := app.New(ctx, cfg, reg, slog.Default())
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	bot, err := newBot(cfg.Discord, application)
	if err != nil {
		slog.Error("failed to create discord bot", "err", err)
		return 1
	}
	defer bot.Close()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("bot run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("app shutdown error", "err", err)
		return 1
	}
	return 0
}

// translateCommand is the registered "/translate" application command.
var translateCommand = &discordgo.ApplicationCommand{
	Name:        "translate",
	Description: "Translate text with the translation fabric",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "model",
			Description: "registered model name, e.g. en-de",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "text",
			Description: "text to translate",
			Required:    true,
		},
	},
}

// bot owns the Discord gateway connection and the single "/translate"
// slash command handler.
type bot struct {
	session *discordgo.Session
	app     *app.App
	guildID string
	command *discordgo.ApplicationCommand
}

// newBot creates a Bot and connects to Discord, but does not yet register
// commands — that happens in Run.
func newBot(cfg config.DiscordConfig, a *app.App) (*bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("translate-bot: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("translate-bot: open session: %w", err)
	}

	b := &bot{session: session, app: a, guildID: cfg.GuildID}
	session.AddHandler(b.handleInteraction)
	return b, nil
}

// Run registers the slash command and blocks until ctx is cancelled.
func (b *bot) Run(ctx context.Context) error {
	appID := b.session.State.User.ID
	cmd, err := b.session.ApplicationCommandCreate(appID, b.guildID, translateCommand)
	if err != nil {
		return fmt.Errorf("translate-bot: register command: %w", err)
	}
	b.command = cmd
	slog.Info("discord bot ready", "command", cmd.Name)

	<-ctx.Done()
	return ctx.Err()
}

// Close unregisters the slash command and disconnects.
func (b *bot) Close() error {
	if b.command != nil {
		appID := b.session.State.User.ID
		if err := b.session.ApplicationCommandDelete(appID, b.guildID, b.command.ID); err != nil {
			slog.Warn("translate-bot: failed to delete command", "err", err)
		}
	}
	return b.session.Close()
}

// handleInteraction dispatches the "/translate" slash command. Discord
// requires an initial response within 3 seconds, so it defers immediately
// and sends the real result as a follow-up once translation completes.
func (b *bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.ApplicationCommandData().Name != "translate" {
		return
	}

	opts := i.ApplicationCommandData().Options
	var modelName, text string
	for _, o := range opts {
		switch o.Name {
		case "model":
			modelName = o.StringValue()
		case "text":
			text = o.StringValue()
		}
	}

	deferReply(s, i)

	m, ok := b.app.Lookup(modelName)
	if !ok {
		followUp(s, i, fmt.Sprintf("unknown model %q", modelName))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := make(chan *response.Response, 1)
	err := b.app.Service.Translate(m, text, textproc.OneSentencePerLine, request.Options{}, func(r *response.Response) {
		out <- r
	})
	if err != nil {
		followUp(s, i, fmt.Sprintf("translation failed: %v", err))
		return
	}

	select {
	case r := <-out:
		followUp(s, i, r.Target.Text)
	case <-ctx.Done():
		followUp(s, i, "translation timed out")
	}
}

func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		slog.Warn("translate-bot: failed to defer reply", "err", err)
	}
}

func followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content})
	if err != nil {
		slog.Warn("translate-bot: failed to send follow-up", "err", err)
	}
}
