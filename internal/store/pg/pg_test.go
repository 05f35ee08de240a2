package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"adala.org/internal/audit"
	"adala.org/internal/keywords"
	"adala.org/internal/locale"
	"adala.org/internal/review"
	"adala.org/internal/settings"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var docCols = []string{"id", "name", "case_number", "upload_date", "language", "document_type", "status",
	"ai_score", "ai_confidence", "redacted_areas", "sensitive_data_found", "priority", "upload_source",
	"pages", "size", "version"}

func docRow(id, status string, version int64) []driver.Value {
	return []driver.Value{id, "Contract.pdf", "CASE-1", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), "ar", "PDF", status,
		82, 91, 4, []byte(`["national_id","iban"]`), "high", "court_portal", 12, "1.2 MB", version}
}

func TestDocumentListScansRows(t *testing.T) {
	s, mock := newMock(t)
	rows := sqlmock.NewRows(docCols).AddRow(docRow("1", "pending", 1)...).AddRow(docRow("2", "approved", 3)...)
	mock.ExpectQuery(regexp.QuoteMeta("from documents order by seq asc")).WillReturnRows(rows)

	docs, err := s.Documents().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[1].Status != review.StatusApproved || docs[1].Version != 3 {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if got := docs[0].SensitiveDataFound; len(got) != 2 || got[1] != "iban" {
		t.Fatalf("sensitive data = %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDocumentGetNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("from documents where id").WithArgs("9").WillReturnError(sql.ErrNoRows)

	if _, err := s.Documents().Get(context.Background(), "9"); !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentUpdateStatus(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("update documents").
		WithArgs("1", int64(1), "approved").
		WillReturnRows(sqlmock.NewRows(docCols).AddRow(docRow("1", "approved", 2)...))

	d, err := s.Documents().UpdateStatus(context.Background(), "1", 1, review.StatusApproved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if d.Status != review.StatusApproved || d.Version != 2 {
		t.Fatalf("unexpected doc: %+v", d)
	}
}

func TestDocumentUpdateStatusStaleVersion(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("update documents").WithArgs("1", int64(1), "rejected").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select exists").WithArgs("1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.Documents().UpdateStatus(context.Background(), "1", 1, review.StatusRejected)
	if !errors.Is(err, review.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDocumentUpdateStatusMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("update documents").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select exists").WithArgs("x").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.Documents().UpdateStatus(context.Background(), "x", 1, review.StatusRejected)
	if !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentUpsertRejectsUnknownStatus(t *testing.T) {
	s, _ := newMock(t)
	_, err := s.Documents().Upsert(context.Background(), review.Document{ID: "1", Status: "archived"})
	if !errors.Is(err, review.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestDocumentUpsertRejectsOutOfRangeConfidenceBeforeQuery(t *testing.T) {
	s, mock := newMock(t)
	_, err := s.Documents().Upsert(context.Background(), review.Document{ID: "1", AIConfidence: 120, AIScore: 50})
	if !errors.Is(err, review.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuditAppendDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("insert into audit_entries").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	e := audit.Entry{
		ID:         "aud_1",
		Timestamp:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		User:       "reviewer",
		Action:     "Approved",
		ActionType: audit.ActionApprove,
		Details:    locale.Text{EN: "ok", AR: "حسنا"},
	}
	if err := s.Audit().Append(context.Background(), e); !errors.Is(err, audit.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAuditListNewestFirst(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"id", "ts", "user_name", "user_role", "action", "action_type", "document_id",
		"document_name", "details_en", "details_ar", "ip_address", "session_id"}
	ts := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(cols).
		AddRow("aud_2", ts.Add(time.Hour), "admin", "admin", "Login", "login", "", "", "Signed in", "تسجيل دخول", "10.0.0.1", "s1").
		AddRow("aud_1", ts, "reviewer", "reviewer", "Approved", "approve", "1", "Contract.pdf", "ok", "حسنا", "", "")
	mock.ExpectQuery(regexp.QuoteMeta("order by ts desc")).WillReturnRows(rows)

	got, err := s.Audit().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "aud_2" || got[1].ActionType != audit.ActionApprove {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestAuditGetNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("from audit_entries where id").WithArgs("nope").WillReturnError(sql.ErrNoRows)
	if _, err := s.Audit().Get(context.Background(), "nope"); !errors.Is(err, audit.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var kwCols = []string{"id", "keyword", "language", "is_regex", "category", "created_by", "created_at", "last_modified"}

func TestKeywordCreateDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("insert into masking_keywords").WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := s.Keywords().Create(context.Background(), keywords.Draft{Keyword: "IBAN", Language: keywords.LangEnglish})
	if !errors.Is(err, keywords.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestKeywordCreateInvalidRegexSkipsDatabase(t *testing.T) {
	s, mock := newMock(t)
	_, err := s.Keywords().Create(context.Background(), keywords.Draft{Keyword: "([", IsRegex: true})
	if !errors.Is(err, keywords.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestKeywordUpdateInTransaction(t *testing.T) {
	s, mock := newMock(t)
	fixed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	ks := s.Keywords()
	ks.now = func() time.Time { return fixed }

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("kw_1").
		WillReturnRows(sqlmock.NewRows(kwCols).AddRow("kw_1", "IBAN", "en", false, "financial", "System", created, created))
	mock.ExpectExec("update masking_keywords").
		WithArgs("kw_1", "IBAN", "both", false, "financial", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lang := keywords.LangBoth
	k, err := ks.Update(context.Background(), "kw_1", keywords.Patch{Language: &lang})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if k.Language != keywords.LangBoth || !k.LastModified.Equal(fixed) || !k.CreatedAt.Equal(created) {
		t.Fatalf("unexpected keyword: %+v", k)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestKeywordUpdateMissingRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs("kw_9").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	lang := keywords.LangArabic
	if _, err := s.Keywords().Update(context.Background(), "kw_9", keywords.Patch{Language: &lang}); !errors.Is(err, keywords.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestKeywordDeleteMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("delete from masking_keywords").WithArgs("kw_9").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.Keywords().Delete(context.Background(), "kw_9"); !errors.Is(err, keywords.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var settingsCols = []string{"ai_threshold", "auto_publish", "strict_mode", "updated_by", "updated_at"}

func TestSettingsGetFallsBackToDefaults(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("from system_settings where id = 1").WillReturnError(sql.ErrNoRows)

	got, err := s.Settings().Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != settings.Defaults() {
		t.Fatalf("got %+v, want defaults", got)
	}
}

func TestSettingsUpdateInTransaction(t *testing.T) {
	s, mock := newMock(t)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ss := s.Settings()
	ss.now = func() time.Time { return fixed }

	mock.ExpectBegin()
	mock.ExpectQuery("for update").
		WillReturnRows(sqlmock.NewRows(settingsCols).AddRow(70, false, true, "", fixed.Add(-time.Hour)))
	mock.ExpectExec("insert into system_settings").
		WithArgs(85, false, true, "Sara", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	threshold := 85
	got, err := ss.Update(context.Background(), settings.Patch{AIThreshold: &threshold}, "Sara")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.AIThreshold != 85 || !got.StrictMode || got.UpdatedBy != "Sara" || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSettingsUpdateInvalidRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("for update").
		WillReturnRows(sqlmock.NewRows(settingsCols).AddRow(70, false, true, "", time.Now()))
	mock.ExpectRollback()

	threshold := 0
	_, err := s.Settings().Update(context.Background(), settings.Patch{AIThreshold: &threshold}, "Sara")
	if !errors.Is(err, settings.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
