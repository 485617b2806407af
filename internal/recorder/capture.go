package recorder

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/skillsenselab/scribe/internal/config"
)

// CaptureStream delivers interleaved int16 sample chunks until closed.
type CaptureStream interface {
	// ReadChunk blocks until the next chunk of samples is available.
	ReadChunk() ([]int16, error)
	Close() error
}

// CaptureDevice opens capture streams on audio input devices.
type CaptureDevice interface {
	Open(deviceID int, cfg config.AudioConfig) (CaptureStream, error)
}

// PortAudioCapture opens microphone streams through PortAudio.
type PortAudioCapture struct{}

// NewPortAudioCapture creates a PortAudio-backed capture device.
func NewPortAudioCapture() *PortAudioCapture {
	return &PortAudioCapture{}
}

// Open starts a capture stream on the device with the given index.
func (p *PortAudioCapture) Open(deviceID int, cfg config.AudioConfig) (CaptureStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	infos, err := portaudio.Devices()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}
	if deviceID < 0 || deviceID >= len(infos) {
		portaudio.Terminate()
		return nil, fmt.Errorf("no device with index %d", deviceID)
	}
	info := infos[deviceID]
	if info.MaxInputChannels < 1 {
		portaudio.Terminate()
		return nil, fmt.Errorf("device %q has no input channels", info.Name)
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.FramesPerBuffer

	in := make([]int16, cfg.FramesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	return &portAudioStream{stream: stream, in: in}, nil
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16
}

func (s *portAudioStream) ReadChunk() ([]int16, error) {
	err := s.stream.Read()
	if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	// Overflowed reads still fill the buffer; dropped samples are lost anyway.
	out := make([]int16, len(s.in))
	copy(out, s.in)
	return out, nil
}

func (s *portAudioStream) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	portaudio.Terminate()
	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

var _ CaptureDevice = (*PortAudioCapture)(nil)
