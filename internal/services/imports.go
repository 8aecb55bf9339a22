package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/importer"
	"github.com/gravadigital/eventmaster-api/internal/locker"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// PreviewRows is how many data rows a preview returns.
const PreviewRows = 5

// Preview is what the import dialog shows before committing.
type Preview struct {
	Headers   []string         `json:"headers"`
	Mapping   importer.Mapping `json:"mapping"`
	Rows      []importer.Row   `json:"rows"`
	TotalRows int              `json:"total_rows"`
}

// ImportRequest describes one spreadsheet import into an event.
type ImportRequest struct {
	EventID    uuid.UUID
	Filename   string
	File       io.Reader
	Mapping    importer.Mapping
	ImportedBy string
}

// ImportService reconciles spreadsheet rows into the registry and an
// event's participations.
type ImportService struct {
	repos  postgres.RepositoryContainer
	reader importer.Reader
	locks  locker.Locker
	log    *log.Logger
}

// NewImportService creates an import service. A nil locker serializes
// imports within this process only.
func NewImportService(repos postgres.RepositoryContainer, reader importer.Reader, locks locker.Locker) *ImportService {
	if locks == nil {
		locks = locker.NewLocal()
	}
	return &ImportService{
		repos:  repos,
		reader: reader,
		locks:  locks,
		log:    logger.Service("import"),
	}
}

func (s *ImportService) parse(filename string, r io.Reader) (*importer.Table, error) {
	table, err := s.reader.Parse(filename, r)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return nil, common.NewValidationError("file", "must be an .xlsx or .csv spreadsheet")
	}
	if err != nil {
		return nil, common.NewValidationError("file", err.Error())
	}
	return table, nil
}

// Preview parses the file and proposes a column mapping.
func (s *ImportService) Preview(filename string, r io.Reader) (*Preview, error) {
	table, err := s.parse(filename, r)
	if err != nil {
		return nil, err
	}

	rows := table.Rows
	if len(rows) > PreviewRows {
		rows = rows[:PreviewRows]
	}
	return &Preview{
		Headers:   table.Headers,
		Mapping:   importer.DetectColumns(table.Headers),
		Rows:      rows,
		TotalRows: len(table.Rows),
	}, nil
}

// Import parses the file, applies the given mapping (auto-detected when
// empty) and reconciles the rows. The run is recorded as a batch.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*importbatch.Batch, error) {
	table, err := s.parse(req.Filename, req.File)
	if err != nil {
		return nil, err
	}

	mapping := req.Mapping
	if mapping.IsZero() {
		mapping = importer.DetectColumns(table.Headers)
	}
	if mapping.IsZero() {
		return nil, common.NewValidationError("mapping", "no column could be matched to name, national ID or phone")
	}
	if err := checkColumns(table.Headers, mapping); err != nil {
		return nil, err
	}

	extraction := importer.ExtractRows(table, mapping)
	batch := &importbatch.Batch{
		EventID:     req.EventID,
		Filename:    req.Filename,
		Mapping:     mapping.AsMap(),
		RowsRead:    extraction.Read,
		RowsSkipped: extraction.Skipped,
		ImportedBy:  strings.TrimSpace(req.ImportedBy),
	}

	created, err := s.reconcile(ctx, req.EventID, extraction.Rows, batch)
	if err != nil {
		return nil, err
	}
	batch.Created = created
	return batch, nil
}

// Reconcile merges rows into the registry and creates the participations
// missing from eventID. It returns how many participations were created.
func (s *ImportService) Reconcile(ctx context.Context, eventID uuid.UUID, rows []guest.Identity) (int, error) {
	return s.reconcile(ctx, eventID, rows, nil)
}

func (s *ImportService) reconcile(ctx context.Context, eventID uuid.UUID, rows []guest.Identity, batch *importbatch.Batch) (int, error) {
	unlock, err := s.locks.Lock(ctx, "import:"+eventID.String())
	if err != nil {
		return 0, err
	}
	defer unlock()

	identities := make([]guest.Identity, 0, len(rows))
	members := make([]*registry.Member, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		id := row.Trimmed()
		id.NationalID = registry.NormalizeNationalID(id.NationalID)
		identities = append(identities, id)
		if id.NationalID != "" {
			members = append(members, registry.NewMember(id.Name, id.NationalID, id.Phone, id.Email))
		}
	}

	var created int
	err = s.repos.WithinTransaction(ctx, func(tx postgres.Repositories) error {
		if _, err := tx.Events().GetByID(ctx, eventID); err != nil {
			return err
		}

		ids := map[string]uuid.UUID{}
		if len(members) > 0 {
			var err error
			if ids, err = tx.Registry().BulkUpsertByNaturalKey(ctx, members); err != nil {
				return err
			}
		}

		stored, err := registryRows(ctx, tx.Registry(), ids)
		if err != nil {
			return err
		}

		guests := make([]*guest.Guest, 0, len(identities))
		for _, id := range identities {
			var registryID *uuid.UUID
			if m, ok := stored[id.NationalID]; ok {
				registryID = &m.ID
				id = identityOf(m)
			}
			g := guest.NewGuest(eventID, registryID, id)
			g.QRCodeData = ticket.Encode(eventID, g.ID)
			guests = append(guests, g)
		}

		inserted, err := tx.Guests().BulkCreate(ctx, eventID, guests)
		if err != nil {
			return err
		}
		created = len(inserted)

		if batch != nil {
			batch.Created = created
			if err := tx.ImportBatches().Create(ctx, batch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("Import failed", "event_id", eventID, "rows", len(identities), "error", err)
		return 0, err
	}

	s.log.Info("Import reconciled", "event_id", eventID, "rows", len(identities), "created", created)
	return created, nil
}

// registryRows loads the upserted registry rows so participations copy the
// merged identity, not the raw row that produced them.
func registryRows(ctx context.Context, members postgres.RegistryRepository, ids map[string]uuid.UUID) (map[string]*registry.Member, error) {
	out := make(map[string]*registry.Member, len(ids))
	for nationalID, id := range ids {
		m, err := members.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[nationalID] = m
	}
	return out, nil
}

// History lists the recorded imports of an event.
func (s *ImportService) History(ctx context.Context, eventID uuid.UUID) ([]*importbatch.Batch, error) {
	if _, err := s.repos.Events().GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repos.ImportBatches().ListByEvent(ctx, eventID)
}

func checkColumns(headers []string, m importer.Mapping) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for field, column := range map[string]string{"mapping.name": m.Name, "mapping.national_id": m.NationalID, "mapping.phone": m.Phone} {
		if column != "" && !known[column] {
			return common.NewValidationError(field, "column "+column+" is not in the file")
		}
	}
	return nil
}
