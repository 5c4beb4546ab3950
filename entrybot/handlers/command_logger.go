package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/config"
)

const slowThreshold = 2 * time.Second

type interaction struct {
	kind      string
	label     string
	name      string
	user      discord.User
	guildID   *snowflake.ID
	channelID snowflake.ID
}

func (i interaction) attrs() []any {
	return []any{
		slog.String("type", i.kind),
		slog.String("name", i.name),
		slog.String("user_id", i.user.ID.String()),
		slog.String("user_name", i.user.Username),
	}
}

// run executes fn and logs its start, completion, slowness, failure or timeout.
func run(i interaction, timeout time.Duration, fn func() error) error {
	start := time.Now()

	guild := ""
	if i.guildID != nil {
		guild = i.guildID.String()
	}
	slog.Info(i.label+" started", append(i.attrs(),
		slog.String("guild_id", guild),
		slog.String("channel_id", i.channelID.String()),
	)...)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		duration := time.Since(start)
		attrs := append(i.attrs(), slog.Duration("took", duration))

		switch {
		case err != nil:
			slog.Error(i.label+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case duration > slowThreshold:
			slog.Warn(i.label+" executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info(i.label+" completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(timeout):
		slog.Error(i.label+" timed out", append(i.attrs(),
			slog.String("status", "timeout"),
			slog.Duration("timeout", timeout),
		)...)
		return fmt.Errorf("%s timed out after %s", i.name, timeout)
	}
}

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return WrapWithLoggingTimeout(name, config.CommandExecutionTimeout, h)
}

// WrapWithLoggingTimeout is WrapWithLogging for commands that defer and run long.
func WrapWithLoggingTimeout(name string, timeout time.Duration, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return run(interaction{
			kind:      "cmd",
			label:     "Command",
			name:      name,
			user:      e.User(),
			guildID:   e.GuildID(),
			channelID: e.ChannelID(),
		}, timeout, func() error { return h(e) })
	}
}

// WrapComponentWithLogging wraps a component handler with logging functionality
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return run(interaction{
			kind:      "component",
			label:     "Component interaction",
			name:      name,
			user:      e.User(),
			guildID:   e.GuildID(),
			channelID: e.ChannelID(),
		}, config.CommandExecutionTimeout, func() error { return h(e) })
	}
}

// WrapModalWithLogging wraps a modal submit handler with logging functionality
func WrapModalWithLogging(name string, h handler.ModalHandler) handler.ModalHandler {
	return func(e *handler.ModalEvent) error {
		return run(interaction{
			kind:      "modal",
			label:     "Modal submission",
			name:      name,
			user:      e.User(),
			guildID:   e.GuildID(),
			channelID: e.ChannelID(),
		}, config.CommandExecutionTimeout, func() error { return h(e) })
	}
}
