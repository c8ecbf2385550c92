package app

import (
	"github.com/zjregee/crmdesk/internal/models"
)

func (a *App) ListCustomers() []*models.Customer {
	if a.inbox == nil {
		return []*models.Customer{}
	}

	return a.inbox.Customers()
}
