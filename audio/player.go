// Package audio keeps the background-music playlist state. Playback itself
// happens on a Backend, normally the extension's offscreen document.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"focus-server/models"

	"go.uber.org/zap"
)

var (
	ErrBadIndex      = errors.New("track index out of range")
	ErrEmptyPlaylist = errors.New("playlist is empty")
)

const DefaultVolume = 0.7

var DefaultPlaylist = []models.Track{
	{Title: "Coffee Shop", Artist: "Lofi Beats", Icon: "☕", Src: "https://files.freemusicarchive.org/storage-freemusicarchive-org/music/no_curator/Kevin_MacLeod/Jazz_Sampler/Kevin_MacLeod_-_Local_Forecast_Slower.mp3"},
	{Title: "Jazz Lofi", Artist: "Relax Vibes", Icon: "🎷", Src: "https://files.freemusicarchive.org/storage-freemusicarchive-org/music/no_curator/Kevin_MacLeod/Calming/Kevin_MacLeod_-_Porch_Swing_Days_-_slower.mp3"},
	{Title: "Lofi Chill", Artist: "Study Flow", Icon: "🎧", Src: "https://files.freemusicarchive.org/storage-freemusicarchive-org/music/no_curator/Kevin_MacLeod/Jazz_Sampler/Kevin_MacLeod_-_Backed_Vibes_Clean.mp3"},
	{Title: "Rain Lofi", Artist: "Ambient Relax", Icon: "🌧", Src: "https://files.freemusicarchive.org/storage-freemusicarchive-org/music/no_curator/Kevin_MacLeod/Calming/Kevin_MacLeod_-_At_Rest.mp3"},
}

// Playlist returns the default tracks followed by the user's custom ones.
func Playlist(custom []models.Track) []models.Track {
	out := make([]models.Track, 0, len(DefaultPlaylist)+len(custom))
	out = append(out, DefaultPlaylist...)
	return append(out, custom...)
}

// Backend drives an actual media element.
type Backend interface {
	Load(ctx context.Context, track models.Track) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
}

type Player struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	playlist []models.Track
	current  int
	playing  bool
	volume   float64
}

func NewPlayer(backend Backend, logger *zap.Logger) *Player {
	return &Player{
		backend:  backend,
		logger:   logger.With(zap.String("component", "audio")),
		playlist: Playlist(nil),
		current:  -1,
		volume:   DefaultVolume,
	}
}

// Init replaces the playlist and volume. An empty playlist means the defaults;
// a nil volume keeps DefaultVolume. Nothing changes if the backend rejects the volume.
func (p *Player) Init(ctx context.Context, playlist []models.Track, volume *float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := DefaultVolume
	if volume != nil {
		v = *volume
	}
	if err := p.setVolumeLocked(ctx, v); err != nil {
		return err
	}

	if len(playlist) == 0 {
		playlist = Playlist(nil)
	}
	p.playlist = append([]models.Track(nil), playlist...)
	if p.current >= len(p.playlist) {
		p.current = -1
		p.playing = false
	}
	return nil
}

func (p *Player) PlayIndex(ctx context.Context, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.playlist) == 0 {
		return ErrEmptyPlaylist
	}
	if index < 0 || index >= len(p.playlist) {
		return fmt.Errorf("%w: %d of %d", ErrBadIndex, index, len(p.playlist))
	}
	return p.playLocked(ctx, index)
}

// Toggle pauses or resumes. With nothing selected it starts the first track.
func (p *Player) Toggle(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.playlist) == 0 {
		return ErrEmptyPlaylist
	}
	if p.current < 0 {
		return p.playLocked(ctx, 0)
	}
	if p.playing {
		if err := p.backend.Pause(ctx); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		p.playing = false
		return nil
	}
	if err := p.backend.Play(ctx); err != nil {
		p.logger.Warn("resume failed, reloading track", zap.Error(err))
		return p.playLocked(ctx, p.current)
	}
	p.playing = true
	return nil
}

func (p *Player) Next(ctx context.Context) error {
	return p.step(ctx, 1)
}

func (p *Player) Prev(ctx context.Context) error {
	return p.step(ctx, -1)
}

// Ended is called when the current track finishes; playback advances with wrap.
func (p *Player) Ended(ctx context.Context) error {
	return p.step(ctx, 1)
}

func (p *Player) step(ctx context.Context, delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.playlist)
	if n == 0 {
		return ErrEmptyPlaylist
	}
	next := p.current + delta
	if p.current < 0 && delta < 0 {
		next = n - 1
	}
	next = ((next % n) + n) % n
	return p.playLocked(ctx, next)
}

// SetVolume clamps volume to [0, 1].
func (p *Player) SetVolume(ctx context.Context, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setVolumeLocked(ctx, volume)
}

func (p *Player) setVolumeLocked(ctx context.Context, volume float64) error {
	volume = Clamp(volume)
	if err := p.backend.SetVolume(ctx, volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	p.volume = volume
	return nil
}

func (p *Player) State() models.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := models.PlayerState{
		Current:   p.current,
		IsPlaying: p.playing,
		Volume:    p.volume,
	}
	if p.current >= 0 && p.current < len(p.playlist) {
		track := p.playlist[p.current]
		state.Track = &track
	}
	return state
}

func (p *Player) Tracks() []models.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Track(nil), p.playlist...)
}

// playLocked loads and plays index, retrying the pair once.
func (p *Player) playLocked(ctx context.Context, index int) error {
	track := p.playlist[index]
	p.current = index

	err := p.loadAndPlay(ctx, track)
	if err != nil {
		p.logger.Warn("playback failed, retrying", zap.String("track", track.Title), zap.Error(err))
		err = p.loadAndPlay(ctx, track)
	}
	if err != nil {
		p.playing = false
		return fmt.Errorf("play %q: %w", track.Title, err)
	}

	p.playing = true
	p.logger.Debug("playing", zap.Int("index", index), zap.String("track", track.Title))
	return nil
}

func (p *Player) loadAndPlay(ctx context.Context, track models.Track) error {
	if err := p.backend.Load(ctx, track); err != nil {
		return err
	}
	return p.backend.Play(ctx)
}

func Clamp(volume float64) float64 {
	switch {
	case volume < 0:
		return 0
	case volume > 1:
		return 1
	}
	return volume
}
