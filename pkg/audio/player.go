package audio

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// maxQueued is the amount of audio (in bytes) the player lets build
// up before dropping frames, about 4 frames of stereo at 48 kHz.
const maxQueued = 4 * 3214

// Player queues samples to an SDL audio device. Unlike a callback
// driven device, the emulator stays in charge of timing and simply
// pushes each frame's samples as they are produced.
type Player struct {
	dev      sdl.AudioDeviceID
	channels int
	dropped  int
}

// NewPlayer opens the default audio device for signed 16-bit samples
// at the given rate.
func NewPlayer(rate int, stereo bool) (*Player, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("audio: initialising sdl: %w", err)
	}

	channels := 1
	if stereo {
		channels = 2
	}
	var obtained sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     int32(rate),
		Format:   sdl.AUDIO_S16SYS,
		Channels: uint8(channels),
		Samples:  1024,
	}, &obtained, 0)
	if err != nil {
		return nil, fmt.Errorf("audio: opening device: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)

	return &Player{dev: dev, channels: channels}, nil
}

// Queue pushes samples to the device. If the device has fallen too far
// behind the samples are dropped instead.
func (p *Player) Queue(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if sdl.GetQueuedAudioSize(p.dev) > maxQueued*uint32(p.channels) {
		p.dropped++
		return nil
	}
	return sdl.QueueAudio(p.dev, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2))
}

// Dropped returns the number of frames that were dropped.
func (p *Player) Dropped() int {
	return p.dropped
}

// Close closes the audio device.
func (p *Player) Close() {
	sdl.CloseAudioDevice(p.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
