package store

import (
	"errors"
	"time"

	"focus-server/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const passphraseHashKey = "auth.passphraseHash"

// SetPassphrase stores the bcrypt hash of the pairing passphrase.
func (s *Store) SetPassphrase(passphrase string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.SetSetting(passphraseHashKey, string(hash))
}

// ClearPassphrase opens pairing to every client.
func (s *Store) ClearPassphrase() error {
	return s.SetSetting(passphraseHashKey, "")
}

func (s *Store) HasPassphrase() bool {
	var hash string
	return s.GetSetting(passphraseHashKey, &hash) == nil && hash != ""
}

// ValidatePassphrase reports whether passphrase matches the stored hash.
// With no passphrase configured every pairing attempt is accepted.
func (s *Store) ValidatePassphrase(passphrase string) bool {
	var hash string
	err := s.GetSetting(passphraseHashKey, &hash)
	if errors.Is(err, ErrNotFound) || (err == nil && hash == "") {
		return true
	}
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)) == nil
}

func (s *Store) CreateClient(name string) (*models.Client, error) {
	client := &models.Client{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
		LastSeen:  time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO clients (id, name, created_at, last_seen) VALUES (?, ?, ?, ?)
	`, client.ID, client.Name, client.CreatedAt, client.LastSeen)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) TouchClient(id string) error {
	_, err := s.db.Exec("UPDATE clients SET last_seen = ? WHERE id = ?", time.Now(), id)
	return err
}
