package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/rahul3002/Time-Travel-Booking/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS capsules (
			id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			file_name VARCHAR(255),
			file_size BIGINT,
			file_mime VARCHAR(100),
			priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
			target_delivery_date TIMESTAMP NOT NULL,
			actual_delivery_date TIMESTAMP,
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_capsules_user_id ON capsules(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_capsules_status ON capsules(status)`,
		`CREATE INDEX IF NOT EXISTS idx_capsules_target_date ON capsules(target_delivery_date)`,
		`CREATE INDEX IF NOT EXISTS idx_capsules_user_target_date ON capsules(user_id, target_delivery_date)`,

		// Defense in depth against concurrent creators landing on the same
		// day; the scheduling logic still resolves conflicts procedurally.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_capsules_user_day_scheduled
			ON capsules(user_id, (target_delivery_date::date))
			WHERE status = 'scheduled'`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
