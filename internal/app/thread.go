package app

import (
	"fmt"

	"github.com/zjregee/crmdesk/internal/models"
)

func (a *App) ListThreads(search string, unreadOnly bool) []*models.ThreadSummary {
	if a.inbox == nil {
		return []*models.ThreadSummary{}
	}

	summaries := a.inbox.ListThreads(models.ThreadFilter{
		Search:     search,
		UnreadOnly: unreadOnly,
	})

	now := a.now()
	for _, summary := range summaries {
		summary.DisplayTime = formatThreadTime(summary.LastUpdated, now)
		summary.Preview = formatMessagePreview(summary.Preview)
	}

	return summaries
}

func (a *App) GetSelectedThread() (*models.ThreadDetail, error) {
	if a.inbox == nil {
		return nil, fmt.Errorf("inbox not initialized")
	}

	hadSelection := a.inbox.SelectedThreadID() != ""
	detail, err := a.inbox.SelectedThread(a.requestContext())
	if err != nil {
		return nil, err
	}

	// selecting the first thread implicitly marks it read
	if detail != nil && !hadSelection {
		a.emitChanged()
	}

	return detail, nil
}

func (a *App) SelectThread(threadID string) (*models.ThreadDetail, error) {
	if a.inbox == nil {
		return nil, fmt.Errorf("inbox not initialized")
	}
	if threadID == "" {
		return nil, fmt.Errorf("thread ID is required")
	}

	detail, err := a.inbox.SelectThread(a.requestContext(), threadID)
	if err != nil {
		return nil, err
	}

	a.emitChanged()
	return detail, nil
}

func (a *App) SendMessage(threadID string, text string) error {
	if a.inbox == nil {
		return fmt.Errorf("inbox not initialized")
	}
	if threadID == "" {
		return fmt.Errorf("thread ID is required")
	}

	if _, err := a.inbox.SendMessage(a.requestContext(), threadID, text); err != nil {
		return err
	}

	a.emitChanged()
	return nil
}

func (a *App) CreateThread(customerID, subject, text string) (string, error) {
	if a.inbox == nil {
		return "", fmt.Errorf("inbox not initialized")
	}

	thread, err := a.inbox.CreateThread(a.requestContext(), models.ComposeInput{
		CustomerID: customerID,
		Subject:    subject,
		Message:    text,
	})
	if err != nil {
		return "", err
	}

	a.emitChanged()
	return thread.ID, nil
}

func (a *App) UnreadTotal() int {
	if a.inbox == nil {
		return 0
	}
	return a.inbox.UnreadTotal()
}
