package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
)

func TestToUpdate(t *testing.T) {
	tests := []struct {
		name     string
		in       telego.Update
		wantText string
		wantNil  bool
	}{
		{
			name: "text message",
			in: telego.Update{UpdateID: 11, Message: &telego.Message{
				Chat: telego.Chat{ID: 7},
				From: &telego.User{ID: 70, Username: "alice"},
				Text: "/goals",
			}},
			wantText: "/goals",
		},
		{
			name: "caption used when text empty",
			in: telego.Update{UpdateID: 12, Message: &telego.Message{
				Chat:    telego.Chat{ID: 7},
				Caption: "Buy milk",
			}},
			wantText: "Buy milk",
		},
		{
			name:    "media without caption",
			in:      telego.Update{UpdateID: 13, Message: &telego.Message{Chat: telego.Chat{ID: 7}}},
			wantNil: true,
		},
		{
			name:    "edited message",
			in:      telego.Update{UpdateID: 14, EditedMessage: &telego.Message{Text: "x"}},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toUpdate(tt.in)
			assert.Equal(t, tt.in.UpdateID, got.UpdateID)
			if tt.wantNil {
				assert.Nil(t, got.Message)
				return
			}
			require.NotNil(t, got.Message)
			assert.Equal(t, int64(7), got.Message.ChatID)
			assert.Equal(t, tt.wantText, got.Message.Text)
		})
	}
}

func TestToUpdate_Sender(t *testing.T) {
	got := toUpdate(telego.Update{UpdateID: 1, Message: &telego.Message{
		Chat: telego.Chat{ID: -100},
		From: &telego.User{ID: 55, Username: "bob"},
		Text: "hi",
	}})
	require.NotNil(t, got.Message)
	assert.Equal(t, int64(55), got.Message.UserID)
	assert.Equal(t, "bob", got.Message.Username)
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitText("short", 10))

	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	assert.Equal(t, []string{"aaaaaa", "bbbbbb"}, splitText(text, 10))

	chunks := splitText(strings.Repeat("c", 25), 10)
	assert.Equal(t, []string{"cccccccccc", "cccccccccc", "ccccc"}, chunks)
}

func TestSplitText_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("ы", 15) // 30 bytes, no line breaks
	chunks := splitText(text, 11)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q", c)
		assert.LessOrEqual(t, len(c), 11)
	}
}

func TestNew_RateLimitDefaults(t *testing.T) {
	c, err := New(config.TelegramConfig{Token: "123456789:" + strings.Repeat("A", 35)})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSendBurst, c.limiter.Burst())
	assert.Equal(t, rate.Limit(config.DefaultSendRPS), c.limiter.Limit())

	c, err = New(config.TelegramConfig{Token: "123456789:" + strings.Repeat("A", 35), SendRPS: 2, SendBurst: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, c.limiter.Burst())
	assert.Equal(t, rate.Limit(2), c.limiter.Limit())
}

func TestDefaultMenuCommands(t *testing.T) {
	var names []string
	for _, c := range DefaultMenuCommands() {
		names = append(names, c.Command)
	}
	assert.Equal(t, []string{"goals", "create", "cancel", "help"}, names)
}
