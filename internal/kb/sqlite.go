package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	company    TEXT NOT NULL,
	role       TEXT NOT NULL,
	industry   TEXT NOT NULL,
	seniority  TEXT NOT NULL,
	summary    TEXT NOT NULL,
	profile    TEXT NOT NULL,
	messages   TEXT,
	url        TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'Sent',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prospects_identity ON prospects(LOWER(name), LOWER(company));
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProspect(ctx context.Context, rec *model.ProfileRecord, msgs *model.MessageBundle, url string) (*model.Prospect, error) {
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal profile")
	}
	var messagesJSON sql.NullString
	if msgs != nil {
		buf, err := json.Marshal(msgs)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal messages")
		}
		messagesJSON = sql.NullString{String: string(buf), Valid: true}
	}

	p := &model.Prospect{
		ID:        uuid.New().String(),
		Name:      rec.Name,
		Company:   rec.Company,
		Role:      rec.Role,
		Industry:  rec.Industry,
		Seniority: rec.Seniority,
		Summary:   BuildSummary(rec),
		Profile:   *rec,
		Messages:  msgs,
		URL:       url,
		Status:    model.ProspectStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Same (name, company) means the same person: keep the existing
	// row's id and status instead of creating a duplicate.
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, created_at FROM prospects
		 WHERE LOWER(name) = LOWER(?) AND LOWER(company) = LOWER(?) LIMIT 1`,
		rec.Name, rec.Company,
	)
	var existingID, existingStatus string
	var createdAt time.Time
	switch err := row.Scan(&existingID, &existingStatus, &createdAt); {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO prospects (id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Company, p.Role, p.Industry, p.Seniority, p.Summary,
			string(profileJSON), messagesJSON, p.URL, string(p.Status), now, now,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert prospect")
		}
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: lookup prospect identity")
	default:
		p.ID = existingID
		p.Status = model.ProspectStatus(existingStatus)
		p.CreatedAt = createdAt
		_, err = s.db.ExecContext(ctx,
			`UPDATE prospects SET name = ?, company = ?, role = ?, industry = ?, seniority = ?,
			 summary = ?, profile = ?, messages = ?, url = ?, updated_at = ? WHERE id = ?`,
			p.Name, p.Company, p.Role, p.Industry, p.Seniority, p.Summary,
			string(profileJSON), messagesJSON, p.URL, now, p.ID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: update prospect %s", p.ID)
		}
	}
	return p, nil
}

func (s *SQLiteStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at
		 FROM prospects WHERE id = ?`, id,
	)
	p, err := scanProspect(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get prospect %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) ListProspects(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at
		 FROM prospects ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "sqlite: list prospects iterate")
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.ProspectStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prospects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update prospect status %s", id)
	}
	return checkRowsAffected(res, "prospect", id)
}

func (s *SQLiteStore) DeleteProspect(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prospects WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete prospect %s", id)
	}
	return checkRowsAffected(res, "prospect", id)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.KBStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT CASE WHEN company != '' AND company != 'Unknown' THEN LOWER(company) END),
		        COUNT(DISTINCT CASE WHEN industry != '' AND industry != 'Unknown' THEN LOWER(industry) END)
		 FROM prospects`,
	)
	var st model.KBStats
	if err := row.Scan(&st.Total, &st.Companies, &st.Industries); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &st, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProspect(row scannable) (*model.Prospect, error) {
	var p model.Prospect
	var profileJSON string
	var messagesJSON sql.NullString
	var status string

	err := row.Scan(&p.ID, &p.Name, &p.Company, &p.Role, &p.Industry, &p.Seniority,
		&p.Summary, &profileJSON, &messagesJSON, &p.URL, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("prospect not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prospect")
	}

	p.Status = model.ProspectStatus(status)
	if err := json.Unmarshal([]byte(profileJSON), &p.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	if messagesJSON.Valid {
		p.Messages = &model.MessageBundle{}
		if err := json.Unmarshal([]byte(messagesJSON.String), p.Messages); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal messages")
		}
	}
	return &p, nil
}
