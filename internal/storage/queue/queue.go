// Package queue хранит отложенные операции над записями в локальной
// SQLite базе. Операции, добавленные офлайн, позже отправляются на сервер
// одной транзакцией.
package queue

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/trailbaseio/trailbase-go/pkg/api"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Entry - одна отложенная операция в очереди.
type Entry struct {
	ID        string
	Op        api.Operation
	CreatedAt time.Time
}

// Queue represents the SQLite-backed operation queue
type Queue struct {
	db *sql.DB
}

// New creates a new operation queue instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string) (*Queue, error) {
	// Открываем соединение с БД
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite с WAL mode может поддерживать несколько читателей, но только одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Включаем WAL mode и другие оптимизации
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	queue := &Queue{db: db}

	// Запускаем миграции
	if err := queue.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return queue, nil
}

// Close closes the database connection
func (q *Queue) Close() error {
	return q.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (q *Queue) runMigrations() error {
	goose.SetDialect("sqlite3")
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(q.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// Enqueue добавляет операцию в конец очереди и возвращает ее id.
func (q *Queue) Enqueue(ctx context.Context, op api.Operation) (string, error) {
	if !op.Valid() {
		return "", fmt.Errorf("operation must have exactly one variant set")
	}

	payload, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("failed to marshal operation: %w", err)
	}

	id := uuid.New().String()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO operations (id, api_name, payload, created_at) VALUES (?, ?, ?, ?)`,
		id, op.APIName(), payload, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue operation: %w", err)
	}

	return id, nil
}

// List возвращает все отложенные операции в порядке добавления.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, payload, created_at FROM operations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Op); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operation %s: %w", entry.ID, err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return entries, nil
}

// Delete удаляет одну операцию из очереди.
func (q *Queue) Delete(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("operation %s not found", id)
	}
	return nil
}

// Clear удаляет все операции. Вызывается после успешной отправки очереди
// на сервер.
func (q *Queue) Clear(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM operations`); err != nil {
		return fmt.Errorf("failed to clear operations: %w", err)
	}
	return nil
}

// Len возвращает количество отложенных операций.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return count, nil
}
