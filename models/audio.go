package models

type Track struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Src    string `json:"src"`
	Custom bool   `json:"custom,omitempty"`
}

type PlayerState struct {
	Current   int     `json:"current"`
	IsPlaying bool    `json:"isPlaying"`
	Volume    float64 `json:"volume"`
	Track     *Track  `json:"track,omitempty"`
}

// AudioCommand is pushed to the extension's offscreen document, which owns the media element.
type AudioCommand struct {
	Command string  `json:"command"` // load, play, pause, volume
	Track   *Track  `json:"track,omitempty"`
	Volume  float64 `json:"volume"`
}

type CreateTrackRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Icon   string `json:"icon"`
	Src    string `json:"src"`
}

const (
	AudioCommandLoad   = "load"
	AudioCommandPlay   = "play"
	AudioCommandPause  = "pause"
	AudioCommandVolume = "volume"
)

const (
	WSTypeAudio      = "audio"
	WSTypeAudioEnded = "audio:ended"
	WSTypeAudioReady = "audio:ready" // sent by the client that owns the media element
)
