package repositories

import "github.com/anonto42/bsg-marketplace/backend/internal/models"

type conversationKey struct {
	listingID   uint
	otherUserID uint
}

// groupConversations folds messages, newest first, into one summary per
// (listing, counterpart). Output keeps the order of each group's newest message.
func groupConversations(userID uint, msgs []models.MessageView) []models.Conversation {
	index := map[conversationKey]int{}
	out := []models.Conversation{}

	for _, m := range msgs {
		other, otherName := m.ReceiverID, m.ReceiverFirstName+" "+m.ReceiverLastName
		if m.SenderID != userID {
			other, otherName = m.SenderID, m.SenderFirstName+" "+m.SenderLastName
		}

		key := conversationKey{listingID: m.ListingID, otherUserID: other}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.Conversation{
				OtherUserID:     other,
				OtherUserName:   otherName,
				ListingID:       m.ListingID,
				ListingTitle:    m.ListingTitle,
				LastMessage:     m.Body,
				LastMessageDate: m.CreatedAt,
			})
		}
		if m.ReceiverID == userID && !m.IsRead {
			out[i].UnreadCount++
		}
	}
	return out
}
