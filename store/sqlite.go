package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focus-server/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		fire_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_fire_at ON reminders(fire_at);

	CREATE TABLE IF NOT EXISTS tracking (
		day TEXT NOT NULL,
		domain TEXT NOT NULL,
		visits INTEGER NOT NULL DEFAULT 0,
		time_spent INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day, domain)
	);

	CREATE TABLE IF NOT EXISTS focus_stats (
		day TEXT PRIMARY KEY,
		minutes INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS blocks_count (
		day TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	-- Key-value settings; values are JSON encoded
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS playlist_tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		src TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reminder operations

func (s *Store) AddReminder(r models.Reminder) (*models.Reminder, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO reminders (id, title, body, fire_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, body = excluded.body, fire_at = excluded.fire_at
	`, r.ID, r.Title, r.Body, r.FireAt.UnixNano(), r.CreatedAt.UnixNano())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetReminder(id string) (*models.Reminder, error) {
	var r models.Reminder
	var fireAt, createdAt int64
	err := s.db.QueryRow(`
		SELECT id, title, body, fire_at, created_at FROM reminders WHERE id = ?
	`, id).Scan(&r.ID, &r.Title, &r.Body, &fireAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.FireAt = time.Unix(0, fireAt)
	r.CreatedAt = time.Unix(0, createdAt)
	return &r, nil
}

func (s *Store) ListReminders() ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, title, body, fire_at, created_at
		FROM reminders
		ORDER BY fire_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var r models.Reminder
		var fireAt, createdAt int64
		if err := rows.Scan(&r.ID, &r.Title, &r.Body, &fireAt, &createdAt); err != nil {
			return nil, err
		}
		r.FireAt = time.Unix(0, fireAt)
		r.CreatedAt = time.Unix(0, createdAt)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *Store) RemoveReminder(id string) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	return err
}

// Tracking operations

func (s *Store) IncrementVisits(day, domain string, n int) error {
	_, err := s.db.Exec(`
		INSERT INTO tracking (day, domain, visits, time_spent) VALUES (?, ?, ?, 0)
		ON CONFLICT(day, domain) DO UPDATE SET visits = visits + excluded.visits
	`, day, domain, n)
	return err
}

func (s *Store) AddTimeSpent(day, domain string, seconds int64) error {
	_, err := s.db.Exec(`
		INSERT INTO tracking (day, domain, visits, time_spent) VALUES (?, ?, 0, ?)
		ON CONFLICT(day, domain) DO UPDATE SET time_spent = time_spent + excluded.time_spent
	`, day, domain, seconds)
	return err
}

func (s *Store) GetTrackingDay(day string) (models.TrackingDay, error) {
	rows, err := s.db.Query(`SELECT domain, visits, time_spent FROM tracking WHERE day = ?`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.TrackingDay{}
	for rows.Next() {
		var domain string
		var st models.SiteStats
		if err := rows.Scan(&domain, &st.Visits, &st.TimeSpent); err != nil {
			return nil, err
		}
		result[domain] = st
	}
	return result, rows.Err()
}

func (s *Store) GetTrackingData() (models.TrackingData, error) {
	rows, err := s.db.Query(`SELECT day, domain, visits, time_spent FROM tracking`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.TrackingData{}
	for rows.Next() {
		var day, domain string
		var st models.SiteStats
		if err := rows.Scan(&day, &domain, &st.Visits, &st.TimeSpent); err != nil {
			return nil, err
		}
		if result[day] == nil {
			result[day] = models.TrackingDay{}
		}
		result[day][domain] = st
	}
	return result, rows.Err()
}

// TrackingDaysBefore returns every stored day strictly older than cutoff (2006-01-02 keys sort lexically).
func (s *Store) TrackingDaysBefore(cutoff string) (models.TrackingData, error) {
	rows, err := s.db.Query(`SELECT day, domain, visits, time_spent FROM tracking WHERE day < ?`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.TrackingData{}
	for rows.Next() {
		var day, domain string
		var st models.SiteStats
		if err := rows.Scan(&day, &domain, &st.Visits, &st.TimeSpent); err != nil {
			return nil, err
		}
		if result[day] == nil {
			result[day] = models.TrackingDay{}
		}
		result[day][domain] = st
	}
	return result, rows.Err()
}

func (s *Store) DeleteTrackingBefore(cutoff string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tracking WHERE day < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Focus stats and block counters

func (s *Store) SetFocusMinutes(day string, minutes int) error {
	_, err := s.db.Exec(`
		INSERT INTO focus_stats (day, minutes) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET minutes = excluded.minutes
	`, day, minutes)
	return err
}

func (s *Store) GetFocusStats() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT day, minutes FROM focus_stats`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var day string
		var minutes int
		if err := rows.Scan(&day, &minutes); err != nil {
			return nil, err
		}
		stats[day] = minutes
	}
	return stats, rows.Err()
}

func (s *Store) IncrementBlocks(day string) error {
	_, err := s.db.Exec(`
		INSERT INTO blocks_count (day, count) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET count = count + 1
	`, day)
	return err
}

func (s *Store) GetBlocksCount(day string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT count FROM blocks_count WHERE day = ?`, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// Settings

func (s *Store) GetSetting(key string, dest interface{}) error {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) SetSetting(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(data))
	return err
}

// Playlist

func (s *Store) AddTrack(title, artist, icon, src string) (*models.Track, error) {
	track := &models.Track{
		ID:     uuid.New().String(),
		Title:  title,
		Artist: artist,
		Icon:   icon,
		Src:    src,
		Custom: true,
	}

	_, err := s.db.Exec(`
		INSERT INTO playlist_tracks (id, title, artist, icon, src) VALUES (?, ?, ?, ?, ?)
	`, track.ID, track.Title, track.Artist, track.Icon, track.Src)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (s *Store) ListTracks() ([]models.Track, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, icon, src FROM playlist_tracks ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		t := models.Track{Custom: true}
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Icon, &t.Src); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *Store) RemoveTrack(id string) error {
	_, err := s.db.Exec("DELETE FROM playlist_tracks WHERE id = ?", id)
	return err
}
