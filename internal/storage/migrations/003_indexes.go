package migrations

import "gorm.io/gorm"

// migration003Up creates lookup indexes and the per-event national ID guard
func migration003Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_registry_name ON registry(name)",

		"CREATE INDEX IF NOT EXISTS idx_guests_created_at ON guests(created_at DESC, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_guests_registry_latest ON guests(registry_id, created_at DESC, id DESC) WHERE registry_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_guests_pending ON guests(event_id) WHERE checked_in = false",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_guests_event_national_id ON guests(event_id, national_id) WHERE national_id <> ''",

		"CREATE INDEX IF NOT EXISTS idx_reminders_created_at ON reminders(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_import_batches_event_created ON import_batches(event_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration003Down drops the indexes created by migration003Up
func migration003Down(db *gorm.DB) error {
	indexes := []string{
		"idx_events_created_at",
		"idx_registry_name",
		"idx_guests_created_at",
		"idx_guests_registry_latest",
		"idx_guests_pending",
		"uq_guests_event_national_id",
		"idx_reminders_created_at",
		"idx_import_batches_event_created",
	}

	for _, index := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + index).Error; err != nil {
			return err
		}
	}

	return nil
}
