package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"adala.org/internal/keywords"
)

// KeywordStore implements keywords.Store. Uniqueness of (lower(keyword),
// language) is enforced by an index.
type KeywordStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ keywords.Store = (*KeywordStore)(nil)

const keywordColumns = `id, keyword, language, is_regex, category, created_by, created_at, last_modified`

func scanKeyword(row rowScanner) (keywords.Keyword, error) {
	var k keywords.Keyword
	if err := row.Scan(&k.ID, &k.Keyword, &k.Language, &k.IsRegex, &k.Category, &k.CreatedBy, &k.CreatedAt, &k.LastModified); err != nil {
		return keywords.Keyword{}, err
	}
	k.CreatedAt = k.CreatedAt.UTC()
	k.LastModified = k.LastModified.UTC()
	return k, nil
}

func (s *KeywordStore) List(ctx context.Context) ([]keywords.Keyword, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `select `+keywordColumns+` from masking_keywords order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []keywords.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *KeywordStore) Get(ctx context.Context, id string) (keywords.Keyword, error) {
	if s.db == nil {
		return keywords.Keyword{}, errNoDB
	}
	k, err := scanKeyword(s.db.QueryRowContext(ctx, `select `+keywordColumns+` from masking_keywords where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return keywords.Keyword{}, keywords.ErrNotFound
	}
	return k, err
}

func (s *KeywordStore) Create(ctx context.Context, d keywords.Draft) (keywords.Keyword, error) {
	if s.db == nil {
		return keywords.Keyword{}, errNoDB
	}
	k, err := keywords.Build(d, s.now())
	if err != nil {
		return keywords.Keyword{}, err
	}
	if err := s.insert(ctx, k, false); err != nil {
		return keywords.Keyword{}, err
	}
	return k, nil
}

// Seed stores k with its preset id and timestamps, replacing the row with the same id.
func (s *KeywordStore) Seed(ctx context.Context, k keywords.Keyword) error {
	if s.db == nil {
		return errNoDB
	}
	k.Keyword = strings.TrimSpace(k.Keyword)
	if err := keywords.Validate(k); err != nil {
		return err
	}
	return s.insert(ctx, k, true)
}

func (s *KeywordStore) insert(ctx context.Context, k keywords.Keyword, replace bool) error {
	q := `
		insert into masking_keywords (` + keywordColumns + `)
		values ($1,$2,$3,$4,$5,$6,$7,$8)`
	if replace {
		q += `
		on conflict (id) do update set keyword = excluded.keyword, language = excluded.language,
			is_regex = excluded.is_regex, category = excluded.category, last_modified = excluded.last_modified`
	}
	_, err := s.db.ExecContext(ctx, q, k.ID, k.Keyword, string(k.Language), k.IsRegex, string(k.Category),
		k.CreatedBy, k.CreatedAt.UTC(), k.LastModified.UTC())
	if isUniqueViolation(err) {
		return keywords.ErrAlreadyExists
	}
	return err
}

// Update reads, validates and writes the patched keyword in one transaction.
func (s *KeywordStore) Update(ctx context.Context, id string, p keywords.Patch) (keywords.Keyword, error) {
	if s.db == nil {
		return keywords.Keyword{}, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return keywords.Keyword{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanKeyword(tx.QueryRowContext(ctx, `select `+keywordColumns+` from masking_keywords where id = $1 for update`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return keywords.Keyword{}, keywords.ErrNotFound
	}
	if err != nil {
		return keywords.Keyword{}, err
	}
	if p.Empty() {
		return cur, nil
	}
	next := p.Apply(cur)
	next.Keyword = strings.TrimSpace(next.Keyword)
	if err := keywords.Validate(next); err != nil {
		return keywords.Keyword{}, err
	}
	next.LastModified = s.now().UTC()

	if _, err := tx.ExecContext(ctx, `
		update masking_keywords
		set keyword = $2, language = $3, is_regex = $4, category = $5, last_modified = $6
		where id = $1
	`, id, next.Keyword, string(next.Language), next.IsRegex, string(next.Category), next.LastModified); err != nil {
		if isUniqueViolation(err) {
			return keywords.Keyword{}, keywords.ErrAlreadyExists
		}
		return keywords.Keyword{}, err
	}
	if err := tx.Commit(); err != nil {
		return keywords.Keyword{}, err
	}
	return next, nil
}

func (s *KeywordStore) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from masking_keywords where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return keywords.ErrNotFound
	}
	return nil
}
