package migrations

import "gorm.io/gorm"

// migration004Up adds foreign keys, the check-in state invariant and the
// trigger that freezes ticket payloads
func migration004Up(db *gorm.DB) error {
	constraints := []string{
		"ALTER TABLE guests ADD CONSTRAINT fk_guests_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE",
		"ALTER TABLE guests ADD CONSTRAINT fk_guests_registry FOREIGN KEY (registry_id) REFERENCES registry(id) ON DELETE SET NULL",
		"ALTER TABLE import_batches ADD CONSTRAINT fk_import_batches_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE",

		`ALTER TABLE guests ADD CONSTRAINT valid_check_in_state CHECK (
            (checked_in = false AND check_in_time IS NULL AND check_in_method IS NULL AND authorized_by IS NULL)
            OR
            (checked_in = true AND check_in_time IS NOT NULL AND check_in_method IS NOT NULL)
        )`,
		"ALTER TABLE guests ADD CONSTRAINT valid_qr_code_data CHECK (LENGTH(qr_code_data) > 0)",
		"ALTER TABLE registry ADD CONSTRAINT valid_national_id CHECK (LENGTH(national_id) > 0)",
		"ALTER TABLE reminders ADD CONSTRAINT valid_reminder_text CHECK (LENGTH(TRIM(text)) > 0)",
	}

	for _, constraint := range constraints {
		if err := db.Exec(constraint).Error; err != nil {
			return err
		}
	}

	if err := db.Exec(`CREATE OR REPLACE FUNCTION freeze_qr_code_data()
        RETURNS TRIGGER AS $$
        BEGIN
            IF NEW.qr_code_data IS DISTINCT FROM OLD.qr_code_data THEN
                RAISE EXCEPTION 'qr_code_data of guest % is immutable', OLD.id;
            END IF;
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`).Error; err != nil {
		return err
	}

	return db.Exec("CREATE TRIGGER trigger_freeze_qr_code_data BEFORE UPDATE OF qr_code_data ON guests FOR EACH ROW EXECUTE FUNCTION freeze_qr_code_data()").Error
}

// migration004Down removes constraints, triggers and functions
func migration004Down(db *gorm.DB) error {
	db.Exec("DROP TRIGGER IF EXISTS trigger_freeze_qr_code_data ON guests CASCADE")
	if err := db.Exec("DROP FUNCTION IF EXISTS freeze_qr_code_data() CASCADE").Error; err != nil {
		return err
	}

	constraints := map[string][]string{
		"guests":         {"fk_guests_event", "fk_guests_registry", "valid_check_in_state", "valid_qr_code_data"},
		"import_batches": {"fk_import_batches_event"},
		"registry":       {"valid_national_id"},
		"reminders":      {"valid_reminder_text"},
	}

	for table, names := range constraints {
		for _, name := range names {
			if err := db.Exec("ALTER TABLE " + table + " DROP CONSTRAINT IF EXISTS " + name).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
