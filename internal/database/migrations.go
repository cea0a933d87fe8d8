package database

import (
	"fmt"
	"log"
	"strings"
)

// migration is one schema step with a variant per supported dialect
type migration struct {
	name     string
	sqlite   string
	mysql    string
	postgres string
}

var migrations = []migration{
	{
		name: "001_create_users",
		sqlite: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				timer_mode INTEGER NOT NULL DEFAULT 0,
				default_examboard_id INTEGER,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);`,
		mysql: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(70) UNIQUE NOT NULL,
				password_hash VARCHAR(100) NOT NULL DEFAULT '',
				timer_mode INT NOT NULL DEFAULT 0,
				default_examboard_id BIGINT,
				created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
			);`,
		postgres: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				timer_mode INT NOT NULL DEFAULT 0,
				default_examboard_id BIGINT,
				created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
			);`,
	},
	{
		name: "002_create_subjects_examboards",
		sqlite: `
			CREATE TABLE IF NOT EXISTS subjects (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT UNIQUE NOT NULL
			);
			CREATE TABLE IF NOT EXISTS examboards (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT UNIQUE NOT NULL
			);`,
		mysql: `
			CREATE TABLE IF NOT EXISTS subjects (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(100) UNIQUE NOT NULL
			);
			CREATE TABLE IF NOT EXISTS examboards (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(100) UNIQUE NOT NULL
			);`,
		postgres: `
			CREATE TABLE IF NOT EXISTS subjects (
				id BIGSERIAL PRIMARY KEY,
				name TEXT UNIQUE NOT NULL
			);
			CREATE TABLE IF NOT EXISTS examboards (
				id BIGSERIAL PRIMARY KEY,
				name TEXT UNIQUE NOT NULL
			);`,
	},
	{
		name: "003_create_quizzes_questions",
		sqlite: `
			CREATE TABLE IF NOT EXISTS quizzes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				subject_id INTEGER REFERENCES subjects(id),
				examboard_id INTEGER REFERENCES examboards(id),
				question_count INTEGER NOT NULL,
				tags TEXT NOT NULL DEFAULT '',
				difficulty INTEGER NOT NULL,
				hash TEXT NOT NULL DEFAULT ''
			);
			CREATE TABLE IF NOT EXISTS questions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
				question TEXT NOT NULL,
				correct_answer TEXT NOT NULL,
				answer2 TEXT NOT NULL,
				answer3 TEXT,
				answer4 TEXT,
				hint TEXT NOT NULL DEFAULT '',
				help TEXT NOT NULL DEFAULT ''
			);`,
		mysql: `
			CREATE TABLE IF NOT EXISTS quizzes (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(70) NOT NULL,
				subject_id BIGINT,
				examboard_id BIGINT,
				question_count INT NOT NULL,
				tags VARCHAR(150) NOT NULL DEFAULT '',
				difficulty INT NOT NULL,
				hash VARCHAR(32) NOT NULL DEFAULT ''
			);
			CREATE TABLE IF NOT EXISTS questions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				quiz_id BIGINT NOT NULL,
				question VARCHAR(300) NOT NULL,
				correct_answer VARCHAR(150) NOT NULL,
				answer2 VARCHAR(150) NOT NULL,
				answer3 VARCHAR(150),
				answer4 VARCHAR(150),
				hint VARCHAR(400) NOT NULL DEFAULT '',
				help TEXT NOT NULL,
				FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
			);`,
		postgres: `
			CREATE TABLE IF NOT EXISTS quizzes (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				subject_id BIGINT REFERENCES subjects(id),
				examboard_id BIGINT REFERENCES examboards(id),
				question_count INT NOT NULL,
				tags TEXT NOT NULL DEFAULT '',
				difficulty INT NOT NULL,
				hash TEXT NOT NULL DEFAULT ''
			);
			CREATE TABLE IF NOT EXISTS questions (
				id BIGSERIAL PRIMARY KEY,
				quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
				question TEXT NOT NULL,
				correct_answer TEXT NOT NULL,
				answer2 TEXT NOT NULL,
				answer3 TEXT,
				answer4 TEXT,
				hint TEXT NOT NULL DEFAULT '',
				help TEXT NOT NULL DEFAULT ''
			);`,
	},
	{
		name: "004_create_results",
		sqlite: `
			CREATE TABLE IF NOT EXISTS results (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
				score REAL NOT NULL,
				date_completed DATETIME NOT NULL,
				average_answer_time REAL NOT NULL,
				total_duration REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_results_user_date ON results(user_id, date_completed);`,
		mysql: `
			CREATE TABLE IF NOT EXISTS results (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				quiz_id BIGINT NOT NULL,
				score DOUBLE NOT NULL,
				date_completed DATETIME(6) NOT NULL,
				average_answer_time DOUBLE NOT NULL,
				total_duration DOUBLE NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE,
				INDEX idx_results_user_date (user_id, date_completed)
			);`,
		postgres: `
			CREATE TABLE IF NOT EXISTS results (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
				score DOUBLE PRECISION NOT NULL,
				date_completed TIMESTAMPTZ NOT NULL,
				average_answer_time DOUBLE PRECISION NOT NULL,
				total_duration DOUBLE PRECISION NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_results_user_date ON results(user_id, date_completed);`,
	},
}

// RunMigrations executes all pending schema migrations in order
func (db *DB) RunMigrations() error {
	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		hasRun, err := db.hasMigrationRun(m.name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		if err := db.executeMigration(m); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
		}

		if err := db.recordMigration(m.name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}

		log.Printf("Migration completed: %s", m.name)
	}

	return nil
}

// createMigrationsTable creates the table to track completed migrations
func (db *DB) createMigrationsTable() error {
	_, err := db.DB.Exec(db.Dialect.CreateMigrationsTableQuery())
	return err
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE name = ?"
	err := db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeMigration runs the dialect's variant of a migration
func (db *DB) executeMigration(m migration) error {
	var statement string
	switch db.Dialect.DriverName() {
	case "mysql":
		statement = m.mysql
	case "postgres":
		statement = m.postgres
	default:
		statement = m.sqlite
	}
	// The MySQL driver rejects multi-statement Exec by default, so run
	// each statement separately.
	for _, stmt := range strings.Split(statement, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// recordMigration marks a migration as completed
func (db *DB) recordMigration(name string) error {
	_, err := db.Exec("INSERT INTO migrations (name) VALUES (?)", name)
	return err
}
