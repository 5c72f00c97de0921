package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

func msgView(id, listing, from, to uint, body string, read bool, at time.Time) models.MessageView {
	names := map[uint][2]string{1: {"Ann", "Lee"}, 2: {"Bob", "Ray"}, 3: {"Cid", "Moe"}}
	return models.MessageView{
		Message: models.Message{
			ID: id, ListingID: listing, SenderID: from, ReceiverID: to,
			Body: body, IsRead: read, CreatedAt: at,
		},
		SenderFirstName:   names[from][0],
		SenderLastName:    names[from][1],
		ReceiverFirstName: names[to][0],
		ReceiverLastName:  names[to][1],
		ListingTitle:      map[uint]string{10: "Bike", 20: "Desk"}[listing],
	}
}

func TestGroupConversations(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// newest first, as the repository query returns them
	msgs := []models.MessageView{
		msgView(6, 20, 3, 1, "still available?", false, base.Add(5*time.Minute)),
		msgView(5, 10, 1, 2, "deal", false, base.Add(4*time.Minute)),
		msgView(4, 10, 2, 1, "how about 40?", false, base.Add(3*time.Minute)),
		msgView(3, 10, 2, 1, "hello?", false, base.Add(2*time.Minute)),
		msgView(2, 10, 2, 1, "hi", true, base.Add(1*time.Minute)),
		msgView(1, 20, 1, 3, "desk for sale", true, base),
	}

	got := groupConversations(1, msgs)

	require.Len(t, got, 2)

	assert.Equal(t, models.Conversation{
		OtherUserID:     3,
		OtherUserName:   "Cid Moe",
		ListingID:       20,
		ListingTitle:    "Desk",
		LastMessage:     "still available?",
		LastMessageDate: base.Add(5 * time.Minute),
		UnreadCount:     1,
	}, got[0])

	assert.Equal(t, models.Conversation{
		OtherUserID:     2,
		OtherUserName:   "Bob Ray",
		ListingID:       10,
		ListingTitle:    "Bike",
		LastMessage:     "deal",
		LastMessageDate: base.Add(4 * time.Minute),
		UnreadCount:     2,
	}, got[1])
}

func TestGroupConversations_SeparatesCounterpartsOnSameListing(t *testing.T) {
	at := time.Now()
	msgs := []models.MessageView{
		msgView(2, 10, 3, 1, "me too", false, at),
		msgView(1, 10, 2, 1, "interested", false, at.Add(-time.Minute)),
	}

	got := groupConversations(1, msgs)

	require.Len(t, got, 2)
	assert.Equal(t, uint(3), got[0].OtherUserID)
	assert.Equal(t, uint(2), got[1].OtherUserID)
}

func TestGroupConversations_Empty(t *testing.T) {
	assert.Empty(t, groupConversations(1, nil))
}
