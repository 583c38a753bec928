package audio

import (
	"context"
	"errors"
	"testing"

	"focus-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	calls     []string
	loaded    []string
	volume    float64
	failPlays int
	volumeErr error
}

func (f *fakeBackend) Load(_ context.Context, track models.Track) error {
	f.calls = append(f.calls, "load")
	f.loaded = append(f.loaded, track.Title)
	return nil
}

func (f *fakeBackend) Play(context.Context) error {
	f.calls = append(f.calls, "play")
	if f.failPlays > 0 {
		f.failPlays--
		return errors.New("autoplay blocked")
	}
	return nil
}

func (f *fakeBackend) Pause(context.Context) error {
	f.calls = append(f.calls, "pause")
	return nil
}

func (f *fakeBackend) SetVolume(_ context.Context, v float64) error {
	f.calls = append(f.calls, "volume")
	if f.volumeErr != nil {
		return f.volumeErr
	}
	f.volume = v
	return nil
}

func newTestPlayer() (*Player, *fakeBackend) {
	b := &fakeBackend{}
	return NewPlayer(b, zap.NewNop()), b
}

func TestToggleWithNothingSelectedPlaysFirst(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	require.NoError(t, p.Toggle(ctx))
	state := p.State()
	assert.Equal(t, 0, state.Current)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, []string{"Coffee Shop"}, b.loaded)

	require.NoError(t, p.Toggle(ctx))
	assert.False(t, p.State().IsPlaying)
	assert.Equal(t, "pause", b.calls[len(b.calls)-1])

	require.NoError(t, p.Toggle(ctx))
	assert.True(t, p.State().IsPlaying)
	assert.Equal(t, "play", b.calls[len(b.calls)-1])
}

func TestNextPrevWrap(t *testing.T) {
	p, _ := newTestPlayer()
	ctx := context.Background()
	n := len(DefaultPlaylist)

	require.NoError(t, p.Prev(ctx))
	assert.Equal(t, n-1, p.State().Current, "prev with nothing selected goes to last")

	require.NoError(t, p.Next(ctx))
	assert.Equal(t, 0, p.State().Current)

	require.NoError(t, p.Prev(ctx))
	assert.Equal(t, n-1, p.State().Current)

	require.NoError(t, p.Ended(ctx))
	assert.Equal(t, 0, p.State().Current)
}

func TestPlayIndex(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	require.NoError(t, p.PlayIndex(ctx, 2))
	assert.Equal(t, "Lofi Chill", p.State().Track.Title)

	err := p.PlayIndex(ctx, 9)
	assert.ErrorIs(t, err, ErrBadIndex)
	assert.ErrorIs(t, p.PlayIndex(ctx, -1), ErrBadIndex)
	assert.Equal(t, []string{"Lofi Chill"}, b.loaded)
}

func TestPlaybackRetriesOnce(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	b.failPlays = 1
	require.NoError(t, p.PlayIndex(ctx, 1))
	assert.Equal(t, []string{"load", "play", "load", "play"}, b.calls)
	assert.True(t, p.State().IsPlaying)

	b.calls = nil
	b.failPlays = 2
	err := p.PlayIndex(ctx, 0)
	require.Error(t, err)
	assert.Len(t, b.calls, 4)
	assert.False(t, p.State().IsPlaying)
}

func TestSetVolumeClamps(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	assert.Equal(t, DefaultVolume, p.State().Volume)

	require.NoError(t, p.SetVolume(ctx, 1.7))
	assert.Equal(t, 1.0, p.State().Volume)
	assert.Equal(t, 1.0, b.volume)

	require.NoError(t, p.SetVolume(ctx, -0.2))
	assert.Equal(t, 0.0, p.State().Volume)
}

func TestInit(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	custom := []models.Track{{Title: "Mine", Src: "file:///a.mp3"}}
	v := 0.3
	require.NoError(t, p.Init(ctx, custom, &v))
	assert.Len(t, p.Tracks(), 1)
	assert.Equal(t, 0.3, b.volume)

	require.NoError(t, p.Init(ctx, nil, nil))
	assert.Len(t, p.Tracks(), len(DefaultPlaylist))
	assert.Equal(t, DefaultVolume, p.State().Volume)
}

func TestInitEmptyPlaylistUsesDefaults(t *testing.T) {
	p, _ := newTestPlayer()
	require.NoError(t, p.Init(context.Background(), []models.Track{}, nil))
	require.NoError(t, p.Toggle(context.Background()))
	assert.Equal(t, "Coffee Shop", p.State().Track.Title)
}

func TestPlaylistMergesCustom(t *testing.T) {
	out := Playlist([]models.Track{{Title: "Mine", Custom: true}})
	require.Len(t, out, len(DefaultPlaylist)+1)
	assert.Equal(t, "Mine", out[len(out)-1].Title)
}

type sentCommands []models.AudioCommand

func (s *sentCommands) SendAudioCommand(cmd models.AudioCommand) error {
	*s = append(*s, cmd)
	return nil
}

func TestRemoteBackend(t *testing.T) {
	var sent sentCommands
	p := NewPlayer(NewRemote(&sent), zap.NewNop())

	require.NoError(t, p.PlayIndex(context.Background(), 0))
	require.Len(t, sent, 2)
	assert.Equal(t, models.AudioCommandLoad, sent[0].Command)
	assert.Equal(t, "Coffee Shop", sent[0].Track.Title)
	assert.Equal(t, models.AudioCommandPlay, sent[1].Command)
}

func TestInitLeavesStateOnBackendFailure(t *testing.T) {
	p, b := newTestPlayer()
	ctx := context.Background()

	require.NoError(t, p.PlayIndex(ctx, 3))
	before := p.State()

	b.volumeErr = errors.New("no extension client connected")
	v := 0.2
	err := p.Init(ctx, []models.Track{{Title: "Only", Src: "file:///only.mp3"}}, &v)
	require.Error(t, err)

	assert.Equal(t, before, p.State())
	assert.Len(t, p.Tracks(), len(DefaultPlaylist))
}
