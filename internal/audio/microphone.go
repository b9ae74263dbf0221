// Package audio provides the malgo-backed microphone source and WAV
// encoding for session recordings.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/scribeapp/scribe/internal/capture"
)

// Microphone opens capture streams on the default input device.
type Microphone struct {
	sampleRate uint32
	channels   uint32
}

// NewMicrophone creates a microphone source with the given format.
func NewMicrophone(sampleRate, channels uint32) *Microphone {
	return &Microphone{sampleRate: sampleRate, channels: channels}
}

// Open acquires the default input device and starts capturing.
// malgo does not distinguish a denied device from a missing one, so any
// acquisition failure is reported as a permission problem.
func (m *Microphone) Open() (capture.AudioStream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context (%v): %w", err, capture.ErrPermissionDenied)
	}

	st := &stream{
		ctx:      ctx,
		channels: m.channels,
		frames:   make(chan []float32, 64),
	}

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = m.channels
	deviceCfg.SampleRate = m.sampleRate

	device, err := malgo.InitDevice(ctx.Context, deviceCfg, malgo.DeviceCallbacks{Data: st.onData})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: initializing capture device (%v): %w", err, capture.ErrPermissionDenied)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: starting capture device (%v): %w", err, capture.ErrPermissionDenied)
	}

	st.device = device
	return st, nil
}

// stream is one live capture run on the default device.
type stream struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	channels uint32

	frames chan []float32

	mu     sync.Mutex
	closed bool
}

func (s *stream) Frames() <-chan []float32 {
	return s.frames
}

// Close stops the device and releases the audio context. The frames
// channel is closed so consumers drain and exit.
func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	close(s.frames)

	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			s.ctx.Free()
			return fmt.Errorf("audio: uninitializing context: %w", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

// onData is the malgo callback invoked when audio data is available.
// pSample contains the captured frames as raw bytes (float32 format).
func (s *stream) onData(_, pSample []byte, frameCount uint32) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	samples := bytesToFloat32(pSample, frameCount*s.channels)

	// Drop frames rather than block the device callback.
	select {
	case s.frames <- samples:
	default:
	}
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
