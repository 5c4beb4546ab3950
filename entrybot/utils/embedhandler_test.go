package utils

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/config"
)

type captureResponder struct {
	sent []discord.MessageCreate
}

func (c *captureResponder) CreateMessage(mc discord.MessageCreate, _ ...rest.RequestOpt) error {
	c.sent = append(c.sent, mc)
	return nil
}

func TestClassifyErrorMessage(t *testing.T) {
	tests := map[string]ErrorType{
		"Venue '07' not found":            NotFoundError,
		"Invalid date, must be YYYYMMDD":  UserError,
		"You have already checked in":     BusinessLogicError,
		"You don't have permission to do": PermissionError,
		"failed to reach storage":         SystemError,
	}
	for msg, want := range tests {
		assert.Equal(t, want, ClassifyErrorMessage(msg), msg)
	}
}

func TestResponsesAreEphemeral(t *testing.T) {
	r := &captureResponder{}
	require.NoError(t, EH.CreatePermissionError(r, "delete this venue"))
	require.NoError(t, EH.CreateSuccessEmbed(r, "done"))

	require.Len(t, r.sent, 2)
	assert.Equal(t, discord.MessageFlagEphemeral, r.sent[0].Flags)
	assert.Equal(t, config.ErrorColor, r.sent[0].Embeds[0].Color)
	assert.Contains(t, r.sent[0].Embeds[0].Description, "delete this venue")
	assert.Equal(t, "✅ done", r.sent[1].Embeds[0].Description)
}
