package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplates(t *testing.T) {
	require.NoError(t, parseTemplates())

	for _, name := range []string{"welcome", "password_reset", "badge_awarded"} {
		tmplMu.RLock()
		entry, ok := templates[name]
		tmplMu.RUnlock()
		require.True(t, ok, name)
		assert.Contains(t, entry, ".txt", name)
		assert.Contains(t, entry, ".gohtml", name)
	}
	_, ok := templates["_base"]
	assert.False(t, ok)
}

func TestEmailMessage_Render(t *testing.T) {
	badgeData := map[string]interface{}{
		"Name":        "Alice",
		"BadgeName":   "First steps",
		"Tier":        "bronze",
		"Description": "Complete a lesson",
	}

	tests := []struct {
		name     string
		msg      EmailMessage
		wantErr  bool
		wantText []string
		wantHTML []string
	}{
		{
			name:     "plain body",
			msg:      EmailMessage{BodyStr: "hello"},
			wantText: []string{"hello"},
		},
		{
			name:     "template with base layout",
			msg:      EmailMessage{TemplateName: "badge_awarded", TemplateData: badgeData},
			wantText: []string{`"First steps" badge (bronze)`, "The " + Conf.AppName + " team"},
			wantHTML: []string{"<strong>First steps</strong>"},
		},
		{
			name:    "unknown template",
			msg:     EmailMessage{TemplateName: "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Render()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.wantText {
				assert.Contains(t, msg.TextContent, s)
			}
			for _, s := range tt.wantHTML {
				assert.Contains(t, msg.HTMLContent, s)
			}
		})
	}
}
