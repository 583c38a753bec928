package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"focus-server/store"

	"go.uber.org/zap"
)

const maxUploadSize = 32 << 20

// MusicHandler stores uploaded audio files and serves them to the media element.
type MusicHandler struct {
	store    *store.Store
	musicDir string
	logger   *zap.Logger
}

func NewMusicHandler(s *store.Store, musicDir string, logger *zap.Logger) (*MusicHandler, error) {
	if err := os.MkdirAll(musicDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create music directory: %w", err)
	}
	return &MusicHandler{store: s, musicDir: musicDir, logger: logger.With(zap.String("component", "music"))}, nil
}

// Upload saves the "file" form field and adds it to the playlist as a custom track.
func (h *MusicHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "File too large (max 32MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = extensionFromMime(contentType)
	}
	if mimeFromExtension(ext) == "" {
		http.Error(w, "File type not allowed. Supported: mp3, ogg, wav, m4a, webm", http.StatusBadRequest)
		return
	}

	randBytes := make([]byte, 16)
	rand.Read(randBytes)
	filename := hex.EncodeToString(randBytes) + ext

	path := filepath.Join(h.musicDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		h.logger.Error("create music file failed", zap.Error(err))
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	icon := r.FormValue("icon")
	if icon == "" {
		icon = "🎵"
	}

	track, err := h.store.AddTrack(title, r.FormValue("artist"), icon, "/api/music/"+filename)
	if err != nil {
		os.Remove(path)
		h.logger.Error("add uploaded track failed", zap.Error(err))
		http.Error(w, "Failed to add track", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(track)
}

// Serve is public: the media element cannot attach a bearer token.
func (h *MusicHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" {
		http.Error(w, "Filename required", http.StatusBadRequest)
		return
	}

	// Prevent directory traversal
	filename = filepath.Base(filename)
	path := filepath.Join(h.musicDir, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if ct := mimeFromExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, path)
}

func extensionFromMime(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	case "audio/webm":
		return ".webm"
	default:
		return ""
	}
}

func mimeFromExtension(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	default:
		return ""
	}
}
