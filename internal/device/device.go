// Package device lists audio input devices through PortAudio.
package device

import (
	"github.com/gordonklaus/portaudio"

	"github.com/skillsenselab/scribe/internal/apperr"
)

// Device describes one audio input source.
type Device struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	MaxInputChannels int     `json:"channels"`
	SampleRate       float64 `json:"sample_rate"`
}

// Registry enumerates input-capable audio devices.
type Registry interface {
	List() ([]Device, error)
}

// PortAudioRegistry lists devices via the PortAudio host API.
type PortAudioRegistry struct{}

// NewPortAudioRegistry creates a PortAudio-backed device registry.
func NewPortAudioRegistry() *PortAudioRegistry {
	return &PortAudioRegistry{}
}

// List returns the input-capable devices known to PortAudio, in host
// order. An empty list means no usable input, which is not an error.
func (r *PortAudioRegistry) List() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperr.DeviceEnumeration(err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperr.DeviceEnumeration(err)
	}

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			ID:               i,
			Name:             info.Name,
			MaxInputChannels: info.MaxInputChannels,
			SampleRate:       info.DefaultSampleRate,
		})
	}
	return devices, nil
}

var _ Registry = (*PortAudioRegistry)(nil)
