package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/requill-tracker/internal/config"
)

// ErrNotFound is returned by writes that matched no row.
var ErrNotFound = errors.New("not found")

type Database struct {
	*sqlx.DB
}

func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	return &Database{DB: db}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.DB.Close()
}

func (d *Database) RunMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			api_key VARCHAR(64) UNIQUE,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			extracted_skills TEXT[] NOT NULL DEFAULT '{}',
			source_url TEXT NOT NULL DEFAULT '',
			platform VARCHAR(100) NOT NULL DEFAULT '',
			is_remote BOOLEAN NOT NULL DEFAULT false,
			salary DOUBLE PRECISION,
			applicants INTEGER,
			status VARCHAR(20) NOT NULL DEFAULT 'applied',
			description_length INTEGER NOT NULL DEFAULT 0,
			skills_count INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			views INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS import_tasks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			schedule VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'enabled',
			urls JSONB NOT NULL DEFAULT '[]',
			exclude_keywords TEXT[] NOT NULL DEFAULT '{}',
			webhook_url TEXT NOT NULL DEFAULT '',
			last_run_at TIMESTAMP WITH TIME ZONE,
			next_run_at TIMESTAMP WITH TIME ZONE,
			created_by UUID REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			task_id UUID REFERENCES import_tasks(id) ON DELETE CASCADE,
			task_name VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			started_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP WITH TIME ZONE,
			duration_ms BIGINT,
			imported INTEGER NOT NULL DEFAULT 0,
			step_results JSONB,
			error TEXT,
			triggered_by VARCHAR(100) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS url_cache (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			url_hash VARCHAR(64) NOT NULL,
			url TEXT NOT NULL,
			job_id UUID REFERENCES jobs(id) ON DELETE SET NULL,
			task_id UUID REFERENCES import_tasks(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(url_hash, task_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_user_status ON jobs(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_user_source ON jobs(user_id, source_url)`,
		`CREATE INDEX IF NOT EXISTS idx_import_tasks_status ON import_tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_import_tasks_next_run ON import_tasks(next_run_at)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_task_id ON executions(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_url_cache_task ON url_cache(task_id)`,
	}

	for _, migration := range migrations {
		if _, err := d.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
