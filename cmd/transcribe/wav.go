package main

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

const wantSampleRate = 16000

// loadWAV decodes a 16 kHz mono WAV file into float32 samples.
func loadWAV(path string) ([]float32, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	dec := wav.NewDecoder(fh)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if dec.NumChans != 1 {
		return nil, fmt.Errorf("%s: expected mono audio, got %d channels", path, dec.NumChans)
	}
	if dec.SampleRate != wantSampleRate {
		return nil, fmt.Errorf("%s: expected %d Hz audio, got %d Hz", path, wantSampleRate, dec.SampleRate)
	}
	return buf.AsFloat32Buffer().Data, nil
}
