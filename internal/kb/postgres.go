package kb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection
// for the hot store operations.
var preparedStatements = map[string]string{
	"find_identity":   `SELECT id, status, created_at FROM prospects WHERE LOWER(name) = LOWER($1) AND LOWER(company) = LOWER($2) LIMIT 1`,
	"insert_prospect": `INSERT INTO prospects (id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
	"update_prospect": `UPDATE prospects SET name = $1, company = $2, role = $3, industry = $4, seniority = $5, summary = $6, profile = $7, messages = $8, url = $9, updated_at = $10 WHERE id = $11`,
	"update_status":   `UPDATE prospects SET status = $1, updated_at = $2 WHERE id = $3`,
	"delete_prospect": `DELETE FROM prospects WHERE id = $1`,
	"get_prospect":    `SELECT id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at FROM prospects WHERE id = $1`,
	"list_prospects":  `SELECT id, name, company, role, industry, seniority, summary, profile, messages, url, status, created_at, updated_at FROM prospects ORDER BY created_at ASC, id ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	company    TEXT NOT NULL,
	role       TEXT NOT NULL,
	industry   TEXT NOT NULL,
	seniority  TEXT NOT NULL,
	summary    TEXT NOT NULL,
	profile    JSONB NOT NULL,
	messages   JSONB,
	url        TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'Sent',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prospects_identity ON prospects(LOWER(name), LOWER(company));
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveProspect(ctx context.Context, rec *model.ProfileRecord, msgs *model.MessageBundle, url string) (*model.Prospect, error) {
	now := time.Now().UTC()

	profileJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal profile")
	}
	var messagesJSON []byte
	if msgs != nil {
		messagesJSON, err = json.Marshal(msgs)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal messages")
		}
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

	row := s.pool.QueryRow(ctx, "find_identity", rec.Name, rec.Company)
	var existingID, existingStatus string
	var createdAt time.Time
	switch err := row.Scan(&existingID, &existingStatus, &createdAt); {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = s.pool.Exec(ctx, "insert_prospect",
			p.ID, p.Name, p.Company, p.Role, p.Industry, p.Seniority, p.Summary,
			profileJSON, messagesJSON, p.URL, string(p.Status), now, now,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert prospect")
		}
	case err != nil:
		return nil, eris.Wrap(err, "postgres: lookup prospect identity")
	default:
		p.ID = existingID
		p.Status = model.ProspectStatus(existingStatus)
		p.CreatedAt = createdAt
		_, err = s.pool.Exec(ctx, "update_prospect",
			p.Name, p.Company, p.Role, p.Industry, p.Seniority, p.Summary,
			profileJSON, messagesJSON, p.URL, now, p.ID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: update prospect %s", p.ID)
		}
	}
	return p, nil
}

func (s *PostgresStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx, "get_prospect", id)

	var p model.Prospect
	var profileJSON, messagesJSON []byte
	var status string
	err := row.Scan(&p.ID, &p.Name, &p.Company, &p.Role, &p.Industry, &p.Seniority,
		&p.Summary, &profileJSON, &messagesJSON, &p.URL, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("prospect not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get prospect %s", id)
	}
	p.Status = model.ProspectStatus(status)
	if err := json.Unmarshal(profileJSON, &p.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	if len(messagesJSON) > 0 {
		p.Messages = &model.MessageBundle{}
		if err := json.Unmarshal(messagesJSON, p.Messages); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal messages")
		}
	}
	return &p, nil
}

func (s *PostgresStore) ListProspects(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.pool.Query(ctx, "list_prospects")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		var p model.Prospect
		var profileJSON, messagesJSON []byte
		var status string
		if err := rows.Scan(&p.ID, &p.Name, &p.Company, &p.Role, &p.Industry, &p.Seniority,
			&p.Summary, &profileJSON, &messagesJSON, &p.URL, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		p.Status = model.ProspectStatus(status)
		if err := json.Unmarshal(profileJSON, &p.Profile); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal profile")
		}
		if len(messagesJSON) > 0 {
			p.Messages = &model.MessageBundle{}
			if err := json.Unmarshal(messagesJSON, p.Messages); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal messages")
			}
		}
		prospects = append(prospects, p)
	}
	return prospects, eris.Wrap(rows.Err(), "postgres: list prospects iterate")
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.ProspectStatus) error {
	tag, err := s.pool.Exec(ctx, "update_status", string(status), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update prospect status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("prospect not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteProspect(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "delete_prospect", id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete prospect %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("prospect not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.KBStats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT CASE WHEN company != '' AND company != 'Unknown' THEN LOWER(company) END),
		        COUNT(DISTINCT CASE WHEN industry != '' AND industry != 'Unknown' THEN LOWER(industry) END)
		 FROM prospects`,
	)
	var st model.KBStats
	if err := row.Scan(&st.Total, &st.Companies, &st.Industries); err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &st, nil
}
