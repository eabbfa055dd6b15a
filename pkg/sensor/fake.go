package sensor

import (
	"math/rand"
	"sync"

	"github.com/ericogr/rs500-logger/pkg/config"
)

// FakeDevice answers inquiries with generated frames. Channels listed in
// dropped are reported absent.
type FakeDevice struct {
	mu       sync.Mutex
	channels int
	dropped  map[int]bool
	pending  []byte
	rnd      *rand.Rand
}

// NewFakeOpener returns an Opener whose devices simulate cfg.Channels probes.
// Channels in cfg.SimulatedAbsent never answer.
func NewFakeOpener(cfg config.Config) Opener {
	rnd := rand.New(rand.NewSource(rand.Int63()))
	dropped := make(map[int]bool, len(cfg.SimulatedAbsent))
	for _, ch := range cfg.SimulatedAbsent {
		dropped[ch] = true
	}
	return func() (Device, error) {
		return &FakeDevice{channels: cfg.Channels, dropped: dropped, rnd: rnd}, nil
	}
}

func (f *FakeDevice) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	groups := make(map[int][3]byte, MaxChannels)
	for c := 1; c <= f.channels; c++ {
		if f.dropped[c] {
			continue
		}
		tenths := int16(180 + f.rnd.Intn(80))
		hu := byte(35 + f.rnd.Intn(30))
		groups[c] = [3]byte{byte(uint16(tenths) >> 8), byte(tenths), hu}
	}
	f.pending = EncodeFrame(groups)
	return len(p), nil
}

func (f *FakeDevice) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *FakeDevice) Close() error { return nil }

// EncodeFrame builds a response frame carrying the given raw channel groups.
// Channels without a group are marked absent.
func EncodeFrame(groups map[int][3]byte) []byte {
	buf := make([]byte, FrameSize)
	for c := 1; c <= MaxChannels; c++ {
		i := groupOffset + groupStride*(c-1)
		g, ok := groups[c]
		if !ok {
			g = [3]byte{0x7f, 0xff, 0xff}
		}
		copy(buf[i:i+3], g[:])
	}
	return buf
}
