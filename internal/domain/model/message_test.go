package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_UnmarshalText(t *testing.T) {
	var c Channel
	require.NoError(t, c.UnmarshalText([]byte(" WhatsApp ")))
	assert.Equal(t, ChannelWhatsApp, c)

	require.Error(t, c.UnmarshalText([]byte("carrier_pigeon")))
}

func TestMessageStatus_Terminal(t *testing.T) {
	assert.True(t, MessageStatusSent.Terminal())
	assert.True(t, MessageStatusFailed.Terminal())
	assert.False(t, MessageStatusPending.Terminal())
	assert.False(t, MessageStatusSending.Terminal())
}

func TestEnqueueMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     EnqueueMessage
		wantErr string
	}{
		{
			name: "valid",
			msg:  EnqueueMessage{JobID: "job-1", Channel: ChannelEmail, Recipient: "a@example.com"},
		},
		{
			name:    "missing job id",
			msg:     EnqueueMessage{Channel: ChannelEmail, Recipient: "a@example.com"},
			wantErr: "job id is required",
		},
		{
			name:    "invalid channel",
			msg:     EnqueueMessage{JobID: "job-1", Channel: "fax", Recipient: "a@example.com"},
			wantErr: "invalid channel",
		},
		{
			name:    "blank recipient",
			msg:     EnqueueMessage{JobID: "job-1", Channel: ChannelEmail, Recipient: "   "},
			wantErr: "recipient is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMessageStats_Total(t *testing.T) {
	stats := MessageStats{Sent: 3, Failed: 1, Pending: 2}
	assert.Equal(t, 6, stats.Total())
	assert.Equal(t, 0, MessageStats{}.Total())
}
