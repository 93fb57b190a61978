package profile

import "image"

// Level names one of the three fixed compression presets.
type Level string

const (
	Extreme Level = "extreme"
	Medium  Level = "medium"
	Basic   Level = "basic"
)

// Profile is an immutable tuple of JPEG encoding parameters. New profiles
// are a code change, not configuration: their tuning is a domain decision.
type Profile struct {
	Level        Level
	JPEGQuality  int
	MaxDimension int
	Subsampling  image.YCbCrSubsampleRatio
}

var profiles = map[Level]Profile{
	Extreme: {Level: Extreme, JPEGQuality: 45, MaxDimension: 1024, Subsampling: image.YCbCrSubsampleRatio422},
	Medium:  {Level: Medium, JPEGQuality: 70, MaxDimension: 1600, Subsampling: image.YCbCrSubsampleRatio420},
	Basic:   {Level: Basic, JPEGQuality: 85, MaxDimension: 2400, Subsampling: image.YCbCrSubsampleRatio444},
}

// Get returns the profile for a level.
func Get(l Level) (Profile, bool) {
	p, ok := profiles[l]
	return p, ok
}

// Levels returns all levels in their canonical reporting order.
func Levels() []Level {
	return []Level{Extreme, Medium, Basic}
}
