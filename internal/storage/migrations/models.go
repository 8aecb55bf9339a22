package migrations

import (
	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
)

// AllModels returns every table model in dependency order: parents before
// the tables that reference them.
func AllModels() []interface{} {
	return []interface{}{
		&event.Event{},
		&registry.Member{},
		&guest.Guest{},
		&reminder.Reminder{},
		&staff.User{},
		&account.Account{},
		&account.RevokedToken{},
		&importbatch.Batch{},
	}
}
