package migrations

import "gorm.io/gorm"

// migration001Up creates extensions and custom types
func migration001Up(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return err
	}

	if err := db.Exec(`
        CREATE TYPE check_in_method AS ENUM (
            'QR',
            'MANUAL'
        )
    `).Error; err != nil {
		return err
	}

	if err := db.Exec(`
        CREATE TYPE staff_role AS ENUM (
            'ADMIN',
            'STAFF'
        )
    `).Error; err != nil {
		return err
	}

	return nil
}

// migration001Down drops custom types
func migration001Down(db *gorm.DB) error {
	if err := db.Exec("DROP TYPE IF EXISTS staff_role CASCADE").Error; err != nil {
		return err
	}

	if err := db.Exec("DROP TYPE IF EXISTS check_in_method CASCADE").Error; err != nil {
		return err
	}

	// NOTE: the uuid extension may be shared with other schemas, so it stays
	return nil
}
