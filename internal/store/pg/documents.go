package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"adala.org/internal/review"
)

// DocumentStore implements review.Store and review.Loader.
type DocumentStore struct {
	db *sql.DB
}

var (
	_ review.Store  = (*DocumentStore)(nil)
	_ review.Loader = (*DocumentStore)(nil)
)

const documentColumns = `id, name, case_number, upload_date, language, document_type, status,
	ai_score, ai_confidence, redacted_areas, sensitive_data_found, priority, upload_source,
	pages, size, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (review.Document, error) {
	var (
		d         review.Document
		sensitive []byte
	)
	if err := row.Scan(&d.ID, &d.Name, &d.CaseNumber, &d.UploadDate, &d.Language, &d.DocumentType, &d.Status,
		&d.AIScore, &d.AIConfidence, &d.RedactedAreas, &sensitive, &d.Priority, &d.UploadSource,
		&d.Pages, &d.Size, &d.Version); err != nil {
		return review.Document{}, err
	}
	d.SensitiveDataFound = []string{}
	if len(sensitive) > 0 {
		if err := json.Unmarshal(sensitive, &d.SensitiveDataFound); err != nil {
			return review.Document{}, fmt.Errorf("decode sensitive_data_found: %w", err)
		}
	}
	d.UploadDate = d.UploadDate.UTC()
	return d, nil
}

func (s *DocumentStore) List(ctx context.Context) ([]review.Document, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `select `+documentColumns+` from documents order by seq asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []review.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (review.Document, error) {
	if s.db == nil {
		return review.Document{}, errNoDB
	}
	d, err := scanDocument(s.db.QueryRowContext(ctx, `select `+documentColumns+` from documents where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return review.Document{}, review.ErrNotFound
	}
	return d, err
}

// UpdateStatus uses the version column as an optimistic lock.
func (s *DocumentStore) UpdateStatus(ctx context.Context, id string, expected int64, status review.Status) (review.Document, error) {
	if s.db == nil {
		return review.Document{}, errNoDB
	}
	d, err := scanDocument(s.db.QueryRowContext(ctx, `
		update documents
		set status = $3, version = version + 1, updated_at = now()
		where id = $1 and version = $2
		returning `+documentColumns, id, expected, string(status)))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return review.Document{}, err
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `select exists(select 1 from documents where id = $1)`, id).Scan(&exists); err != nil {
		return review.Document{}, err
	}
	if !exists {
		return review.Document{}, review.ErrNotFound
	}
	return review.Document{}, review.ErrConflict
}

// Upsert inserts d or replaces the row with the same id, bumping its version.
func (s *DocumentStore) Upsert(ctx context.Context, d review.Document) (review.Document, error) {
	if s.db == nil {
		return review.Document{}, errNoDB
	}
	d, err := review.Normalize(d)
	if err != nil {
		return review.Document{}, err
	}
	sensitive, err := json.Marshal(d.SensitiveDataFound)
	if err != nil {
		return review.Document{}, err
	}
	return scanDocument(s.db.QueryRowContext(ctx, `
		insert into documents (id, name, case_number, upload_date, language, document_type, status,
			ai_score, ai_confidence, redacted_areas, sensitive_data_found, priority, upload_source, pages, size)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		on conflict (id) do update set
			name = excluded.name, case_number = excluded.case_number, upload_date = excluded.upload_date,
			language = excluded.language, document_type = excluded.document_type, status = excluded.status,
			ai_score = excluded.ai_score, ai_confidence = excluded.ai_confidence,
			redacted_areas = excluded.redacted_areas, sensitive_data_found = excluded.sensitive_data_found,
			priority = excluded.priority, upload_source = excluded.upload_source, pages = excluded.pages,
			size = excluded.size, version = documents.version + 1, updated_at = now()
		returning `+documentColumns,
		d.ID, d.Name, d.CaseNumber, d.UploadDate, d.Language, string(d.DocumentType), string(d.Status),
		d.AIScore, d.AIConfidence, d.RedactedAreas, sensitive, string(d.Priority), string(d.UploadSource), d.Pages, d.Size))
}
