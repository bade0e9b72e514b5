package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"personachat/internal/models"
)

const settingAPIKey = "api_key"

// DefaultPath is personachat.db under the user config directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "personachat", "personachat.db"), nil
}

// Open opens (and migrates) the database at path. An empty path means DefaultPath.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_agent ON feedback(agent_id, created_at DESC);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

func SaveSetting(db *sql.DB, key, value string, nowUnix int64) error {
	_, err := db.Exec(
		`INSERT INTO settings(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		nowUnix,
	)
	return err
}

// LoadSetting returns "" when key was never saved.
func LoadSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func DeleteSetting(db *sql.DB, key string) error {
	_, err := db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

func InsertFeedback(db *sql.DB, f models.Feedback) error {
	_, err := db.Exec(
		"INSERT INTO feedback(id, conversation_id, message_id, agent_id, rating, comment, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		f.ID,
		f.ConversationID,
		f.MessageID,
		f.AgentID,
		f.Rating,
		f.Comment,
		f.Timestamp.Unix(),
	)
	return err
}

// GetFeedback returns the newest feedback first. An empty agentID matches every agent.
func GetFeedback(db *sql.DB, agentID string, limit int) ([]models.Feedback, error) {
	rows, err := db.Query(
		`SELECT id, conversation_id, message_id, agent_id, rating, comment, created_at
		FROM feedback WHERE (? = '' OR agent_id = ?) ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		agentID,
		agentID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Feedback{}
	for rows.Next() {
		var (
			f       models.Feedback
			created int64
		)
		if err := rows.Scan(&f.ID, &f.ConversationID, &f.MessageID, &f.AgentID, &f.Rating, &f.Comment, &created); err != nil {
			return nil, err
		}
		f.Timestamp = time.Unix(created, 0)
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Repository adapts a connection to the store's credential and feedback sinks.
type Repository struct {
	conn *sql.DB
	now  func() time.Time
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{conn: conn, now: time.Now}
}

// SaveAPIKey forgets the stored key when key is empty.
func (r *Repository) SaveAPIKey(key string) error {
	if key == "" {
		return DeleteSetting(r.conn, settingAPIKey)
	}
	return SaveSetting(r.conn, settingAPIKey, key, r.now().Unix())
}

func (r *Repository) LoadAPIKey() (string, error) {
	return LoadSetting(r.conn, settingAPIKey)
}

func (r *Repository) SaveFeedback(f models.Feedback) error {
	return InsertFeedback(r.conn, f)
}

func (r *Repository) Feedback(agentID string, limit int) ([]models.Feedback, error) {
	return GetFeedback(r.conn, agentID, limit)
}
