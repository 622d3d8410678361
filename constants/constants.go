package constants

import (
	"os"
	"time"
)

const Version = "v1.0"

func GetTunesPath() string {
	path := os.Getenv("CEOL_TUNES")
	if path != "" {
		return path
	}
	return "data/tunes.json"
}

// GetSoundFontPath returns "" when no SoundFont is configured. Rendering still
// works without one, playback does not.
func GetSoundFontPath() string {
	return os.Getenv("CEOL_SOUNDFONT")
}

func GetAddr() string {
	addr := os.Getenv("CEOL_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetDynamoDBEndpoint() string {
	return os.Getenv("CEOL_DYNAMODB_ENDPOINT")
}

func GetAWSRegion() string {
	region := os.Getenv("AWS_REGION")
	if region != "" {
		return region
	}
	return "us-east-1"
}

const (
	DefaultTitle = "Untitled"
	DefaultType  = "Tune"

	ParseErrorNotice  = "ABC parse error."
	NoTuneNotice      = "No tune loaded."
	EngineDownNotice  = "Notation engine unavailable. Rendering and playback are disabled."
	SampleFragment    = "X:1\nT:Preview\nM:6/8\nL:1/8\nK:D\n|:A|dfa afd|"
	EmptyPosition     = "1 / 0"
	DefaultMeasures   = 4
	FlipDuration      = 820 * time.Millisecond
	PreviewDebounce   = 150 * time.Millisecond
	DefaultVelocity   = 90
	MaxTuneFetchBytes = 8 << 20
)
