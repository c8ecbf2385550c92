package threads

import (
	"time"

	"github.com/zjregee/crmdesk/internal/models"
)

// DemoThreads returns the dataset used when nothing has been persisted yet.
func DemoThreads() []*models.Thread {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2023, time.July, day, hour, minute, 0, 0, time.UTC)
	}

	return []*models.Thread{
		{
			ID:         "1",
			CustomerID: "1",
			Subject:    "Marketing Campaign Discussion",
			Messages: []*models.Message{
				{
					ID:        "m1",
					SenderID:  models.SystemSenderID,
					Text:      "Hello Alex, I wanted to discuss the upcoming marketing campaign for Q3. Do you have some time this week?",
					Timestamp: at(20, 10, 30),
					IsRead:    true,
				},
				{
					ID:        "m2",
					SenderID:  "1",
					Text:      "Hi there! Yes, I would be happy to discuss. How about Thursday afternoon?",
					Timestamp: at(20, 11, 45),
					IsRead:    true,
				},
			},
			LastUpdated: at(20, 11, 45),
			UnreadCount: 0,
		},
		{
			ID:         "2",
			CustomerID: "2",
			Subject:    "Demo Request",
			Messages: []*models.Message{
				{
					ID:        "m3",
					SenderID:  "2",
					Text:      "Hello, I am interested in seeing a demo of your product. Is there a time we could schedule that?",
					Timestamp: at(21, 9, 15),
					IsRead:    false,
				},
			},
			LastUpdated: at(21, 9, 15),
			UnreadCount: 1,
		},
	}
}
