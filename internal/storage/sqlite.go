// Package storage persists users, conversations, messages, images, and
// sessions in SQLite.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "jewelryd.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Users ---

func (s *Store) CreateUser(u User) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO users (id, email, hashed_password, name, gender, age, marital_status, segment, region, nationality, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.HashedPassword, u.Name, u.Gender, u.Age,
		u.MaritalStatus, u.Segment, u.Region, u.Nationality, boolToInt(u.IsActive), now, now,
	)
	return err
}

func (s *Store) GetUser(id string) (User, error) {
	return s.scanUser(s.db.QueryRow(userSelect+" WHERE id = ?", id))
}

func (s *Store) GetUserByEmail(email string) (User, error) {
	return s.scanUser(s.db.QueryRow(userSelect+" WHERE email = ?", email))
}

const userSelect = `
	SELECT id, email, hashed_password, name, gender, age, marital_status, segment, region, nationality, is_active, created_at, updated_at
	FROM users`

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var active int
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.Gender, &u.Age,
		&u.MaritalStatus, &u.Segment, &u.Region, &u.Nationality, &active, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.IsActive = active != 0
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(u User) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE users SET name = ?, gender = ?, age = ?, marital_status = ?, segment = ?, region = ?, nationality = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Gender, u.Age, u.MaritalStatus, u.Segment, u.Region, u.Nationality, boolToInt(u.IsActive), now, u.ID,
	)
	return affected(res, err)
}

func (s *Store) DeleteUser(id string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return affected(res, err)
}

// --- Conversations ---

func (s *Store) CreateConversation(c Conversation) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO conversations (id, user_id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, c.Description, now, now,
	)
	return err
}

func (s *Store) GetConversation(id string) (Conversation, error) {
	var c Conversation
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, title, description, created_at, updated_at
		FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Conversation{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (s *Store) ListConversations(userID string) ([]Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, description, created_at, updated_at
		FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Conversation
	for rows.Next() {
		var c Conversation
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// TouchConversation bumps the conversation's updated_at to now.
func (s *Store) TouchConversation(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, id)
	return affected(res, err)
}

// DeleteConversation removes the conversation and, via cascade, its messages
// and images.
func (s *Store) DeleteConversation(id string) error {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	return affected(res, err)
}

// --- Messages ---

// AppendMessage stores a message and bumps the conversation timestamp.
// Messages are append-only; there is no update or delete.
func (s *Store) AppendMessage(m Message) error {
	images, err := json.Marshal(m.Images)
	if err != nil {
		return fmt.Errorf("encoding image ids: %w", err)
	}
	now := time.Now().UTC()
	if !m.CreatedAt.IsZero() {
		now = m.CreatedAt.UTC()
	}
	_, err = s.db.Exec(`
		INSERT INTO messages (id, conversation_id, role, content, images, tool_calls, artifact, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Role, m.Content, string(images),
		nullableJSON(m.ToolCalls), nullableJSON(m.Artifact), nullableJSON(m.Meta),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	return s.TouchConversation(m.ConversationID)
}

func (s *Store) ListMessages(conversationID string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, role, content, images, tool_calls, artifact, meta, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Message
	for rows.Next() {
		var m Message
		var images string
		var toolCalls, artifact, meta sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &images, &toolCalls, &artifact, &meta, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(images), &m.Images); err != nil {
			return nil, fmt.Errorf("decoding image ids for message %s: %w", m.ID, err)
		}
		m.ToolCalls = rawJSON(toolCalls)
		m.Artifact = rawJSON(artifact)
		m.Meta = rawJSON(meta)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// --- Images ---

func (s *Store) SaveImage(img Image) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO images (id, user_id, filename, content_type, image_data, conversation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.UserID, img.Filename, img.ContentType, img.Data,
		nullableString(img.ConversationID), now,
	)
	return err
}

func (s *Store) GetImage(id string) (Image, error) {
	var img Image
	var conversationID sql.NullString
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, filename, content_type, image_data, conversation_id, created_at
		FROM images WHERE id = ?`, id,
	).Scan(&img.ID, &img.UserID, &img.Filename, &img.ContentType, &img.Data, &conversationID, &createdAt)
	if err == sql.ErrNoRows {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, err
	}
	img.ConversationID = conversationID.String
	if img.CreatedAt, err = parseTime(createdAt); err != nil {
		return Image{}, err
	}
	return img, nil
}

// ListImages returns image metadata for a user, newest first. Data is left
// empty; fetch individual images for the bytes.
func (s *Store) ListImages(userID string) ([]Image, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, filename, content_type, conversation_id, created_at
		FROM images WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Image
	for rows.Next() {
		var img Image
		var conversationID sql.NullString
		var createdAt string
		if err := rows.Scan(&img.ID, &img.UserID, &img.Filename, &img.ContentType, &conversationID, &createdAt); err != nil {
			return nil, err
		}
		img.ConversationID = conversationID.String
		if img.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, img)
	}
	return results, rows.Err()
}

func (s *Store) DeleteImage(id string) error {
	res, err := s.db.Exec(`DELETE FROM images WHERE id = ?`, id)
	return affected(res, err)
}

// --- Sessions ---

func (s *Store) CreateSession(sess Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID,
		sess.CreatedAt.UTC().Format(time.RFC3339), sess.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSession(tokenHash string) (Session, error) {
	var sess Session
	var createdAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT token_hash, user_id, created_at, expires_at
		FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&sess.Token, &sess.UserID, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return Session{}, err
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Store) DeleteSession(tokenHash string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return affected(res, err)
}

func (s *Store) DeleteExpiredSessions() error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now)
	return err
}

// --- helpers ---

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", v, err)
	}
	return t, nil
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.RawMessage(v.String)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
