package utils

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"

	"github.com/disgoorg/entry-bot/entrybot/config"
)

// Responder is any interaction event that can send its first reply.
type Responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// FollowupSender is any deferred interaction event.
type FollowupSender interface {
	CreateFollowupMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// ResponseHandler provides standardized replies. Every reply is ephemeral
// unless stated otherwise.
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	UserError ErrorType = iota
	SystemError
	NotFoundError
	PermissionError
	BusinessLogicError
)

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "⏰"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ErrorMessage builds the ephemeral embed for a classified error.
func ErrorMessage(errorType ErrorType, message string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
		Flags: discord.MessageFlagEphemeral,
	}
}

func (h *ResponseHandler) CreateClassifiedError(e Responder, errorType ErrorType, message string) error {
	return e.CreateMessage(ErrorMessage(errorType, message))
}

func (h *ResponseHandler) CreateUserError(e Responder, message string) error {
	return h.CreateClassifiedError(e, UserError, message)
}

func (h *ResponseHandler) CreateSystemError(e Responder, message string) error {
	return h.CreateClassifiedError(e, SystemError, message)
}

// CreateNotFoundError creates an error response for resources that don't exist
func (h *ResponseHandler) CreateNotFoundError(e Responder, resource, identifier string) error {
	return h.CreateClassifiedError(e, NotFoundError, fmt.Sprintf("%s '%s' not found", resource, identifier))
}

// CreatePermissionError creates an error response for unauthorized actions
func (h *ResponseHandler) CreatePermissionError(e Responder, action string) error {
	return h.CreateClassifiedError(e, PermissionError, fmt.Sprintf("You don't have permission to %s", action))
}

func (h *ResponseHandler) CreateBusinessLogicError(e Responder, message string) error {
	return h.CreateClassifiedError(e, BusinessLogicError, message)
}

func (h *ResponseHandler) CreateSuccessEmbed(e Responder, message string) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: "✅ " + message,
			Color:       config.SuccessColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

func (h *ResponseHandler) CreateInfoEmbed(e Responder, message string) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// CreateEmbed sends a prepared embed ephemerally.
func (h *ResponseHandler) CreateEmbed(e Responder, embed discord.Embed) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// FollowupError reports a failure after the reply was deferred.
func (h *ResponseHandler) FollowupError(e FollowupSender, errorType ErrorType, message string) error {
	_, err := e.CreateFollowupMessage(ErrorMessage(errorType, message))
	return err
}

// CreateSmartError classifies message by its wording and replies with it.
func (h *ResponseHandler) CreateSmartError(e Responder, message string) error {
	return h.CreateClassifiedError(e, ClassifyErrorMessage(message), message)
}

// ClassifyErrorMessage attempts to classify error type based on message content
func ClassifyErrorMessage(message string) ErrorType {
	lowerMsg := strings.ToLower(message)

	switch {
	case containsAny(lowerMsg, "not found", "no visits", "doesn't exist", "not registered"):
		return NotFoundError
	case containsAny(lowerMsg, "invalid", "must be", "required", "please provide", "nothing to"):
		return UserError
	case containsAny(lowerMsg, "already", "limit", "no free"):
		return BusinessLogicError
	case containsAny(lowerMsg, "permission", "unauthorized", "only the owner"):
		return PermissionError
	}
	return SystemError
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
