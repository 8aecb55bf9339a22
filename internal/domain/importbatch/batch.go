package importbatch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Batch records one bulk import run against an event.
type Batch struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID         `json:"event_id" gorm:"type:uuid;not null;index"`
	Filename    string            `json:"filename"`
	Mapping     datatypes.JSONMap `json:"mapping" gorm:"type:jsonb"`
	RowsRead    int               `json:"rows_read"`
	RowsSkipped int               `json:"rows_skipped"`
	Created     int               `json:"created"`
	ImportedBy  string            `json:"imported_by"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Batch) TableName() string {
	return "import_batches"
}

// BeforeCreate sets a UUID before creating the record
func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
