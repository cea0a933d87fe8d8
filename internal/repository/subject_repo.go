package repository

import (
	"database/sql"
	"fmt"

	"quizzable/internal/database"
)

// NamedRecord is a row from one of the subject or exam board lookup tables
type NamedRecord struct {
	ID   int64
	Name string
}

// SubjectRepository handles database operations for the subjects lookup table
type SubjectRepository struct {
	db    *database.DB
	table string
}

// NewSubjectRepository creates a repository over the subjects table
func NewSubjectRepository(db *database.DB) *SubjectRepository {
	return &SubjectRepository{db: db, table: "subjects"}
}

// NewExamBoardRepository creates a repository over the examboards table,
// which has the identical shape
func NewExamBoardRepository(db *database.DB) *SubjectRepository {
	return &SubjectRepository{db: db, table: "examboards"}
}

// Create inserts a new named record and returns its generated id
func (r *SubjectRepository) Create(name string) (int64, error) {
	id, err := r.db.ExecReturningID("INSERT INTO "+r.table+" (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s record: %w", r.table, err)
	}
	return id, nil
}

// List retrieves all records ordered by name
func (r *SubjectRepository) List() ([]NamedRecord, error) {
	rows, err := r.db.Query("SELECT id, name FROM " + r.table + " ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	var records []NamedRecord
	for rows.Next() {
		var record NamedRecord
		if err := rows.Scan(&record.ID, &record.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", r.table, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetByName finds a record by case-insensitive name match; returns 0 when
// not found
func (r *SubjectRepository) GetByName(name string) (int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM "+r.table+" WHERE LOWER(name) = LOWER(?)", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s record: %w", r.table, err)
	}
	return id, nil
}

// Delete removes a record. Quizzes referencing it keep their stale id, which
// the browser treats as matching no filter.
func (r *SubjectRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM "+r.table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s record: %w", r.table, err)
	}
	return nil
}
