package audio

import (
	"context"

	"focus-server/models"
)

// Sender pushes a command to the connected extension clients.
type Sender interface {
	SendAudioCommand(cmd models.AudioCommand) error
}

// Remote is a Backend whose media element lives in the extension.
type Remote struct {
	sender Sender
}

func NewRemote(sender Sender) *Remote {
	return &Remote{sender: sender}
}

func (r *Remote) Load(_ context.Context, track models.Track) error {
	return r.sender.SendAudioCommand(models.AudioCommand{Command: models.AudioCommandLoad, Track: &track})
}

func (r *Remote) Play(context.Context) error {
	return r.sender.SendAudioCommand(models.AudioCommand{Command: models.AudioCommandPlay})
}

func (r *Remote) Pause(context.Context) error {
	return r.sender.SendAudioCommand(models.AudioCommand{Command: models.AudioCommandPause})
}

func (r *Remote) SetVolume(_ context.Context, volume float64) error {
	return r.sender.SendAudioCommand(models.AudioCommand{Command: models.AudioCommandVolume, Volume: volume})
}
