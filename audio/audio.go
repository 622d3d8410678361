// Package audio describes the output device the playback session plays PCM
// through. The device is created lazily by the playback controller because
// most platforms only allow audio output after a user gesture.
package audio

import "io"

const (
	SampleRate   = 44100
	ChannelCount = 2
)

// Context plays 16-bit little-endian stereo PCM.
type Context interface {
	NewPlayer(r io.Reader) Player
	Suspended() bool
	Resume() error
}

type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Factory constructs the Context on first use.
type Factory func() (Context, error)
