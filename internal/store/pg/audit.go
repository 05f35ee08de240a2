package pg

import (
	"context"
	"database/sql"
	"errors"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
)

// AuditStore implements audit.Store on an append-only table.
type AuditStore struct {
	db *sql.DB
}

var _ audit.Store = (*AuditStore)(nil)

const auditColumns = `id, ts, user_name, coalesce(user_role, ''), action, action_type,
	coalesce(document_id, ''), coalesce(document_name, ''), details_en, details_ar,
	coalesce(ip_address, ''), coalesce(session_id, '')`

func scanEntry(row rowScanner) (audit.Entry, error) {
	var (
		e    audit.Entry
		role string
	)
	if err := row.Scan(&e.ID, &e.Timestamp, &e.User, &role, &e.Action, &e.ActionType,
		&e.DocumentID, &e.DocumentName, &e.Details.EN, &e.Details.AR, &e.IPAddress, &e.SessionID); err != nil {
		return audit.Entry{}, err
	}
	e.UserRole = auth.Role(role)
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

func (s *AuditStore) Append(ctx context.Context, e audit.Entry) error {
	if s.db == nil {
		return errNoDB
	}
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_entries (id, ts, user_name, user_role, action, action_type,
			document_id, document_name, details_en, details_ar, ip_address, session_id)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, e.ID, e.Timestamp.UTC(), e.User, nullIfEmpty(string(e.UserRole)), e.Action, string(e.ActionType),
		nullIfEmpty(e.DocumentID), nullIfEmpty(e.DocumentName), e.Details.EN, e.Details.AR,
		nullIfEmpty(e.IPAddress), nullIfEmpty(e.SessionID))
	if isUniqueViolation(err) {
		return audit.ErrDuplicate
	}
	return err
}

func (s *AuditStore) List(ctx context.Context) ([]audit.Entry, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `select `+auditColumns+` from audit_entries order by ts desc, seq desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AuditStore) Get(ctx context.Context, id string) (audit.Entry, error) {
	if s.db == nil {
		return audit.Entry{}, errNoDB
	}
	e, err := scanEntry(s.db.QueryRowContext(ctx, `select `+auditColumns+` from audit_entries where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Entry{}, audit.ErrNotFound
	}
	return e, err
}
