// Package flac decodes complete FLAC streams into PCM, wiring the metadata
// parser and frame decoder behind a single entry point.
package flac

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/Hangman/TuningFork/frame"
	"github.com/Hangman/TuningFork/meta"
	"github.com/Hangman/TuningFork/pcm"
)

// Decode parses a complete FLAC stream (starting with "fLaC") and returns
// its audio as an interleaved PCM record. ctx is checked once per frame, so
// cancelling it stops decoding at the next frame boundary.
func Decode(ctx context.Context, data []byte, log *slog.Logger) (*pcm.Record, error) {
	r := bytes.NewReader(data)
	si, err := meta.Parse(r)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Debug("stream info", "sample_rate", si.SampleRate, "channels", si.NumChannels, "bits_per_sample", si.BitsPerSample, "total_samples", si.NumSamples)
	}

	dec := frame.NewDecoder(si, log)
	var out bytes.Buffer
	for {
		samples, _, ok, err := dec.Next(ctx, r)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		packed, err := pcm.Interleave(samples, si.BitsPerSample)
		if err != nil {
			return nil, err
		}
		out.Write(packed)
	}

	return &pcm.Record{
		Data:          out.Bytes(),
		SampleRate:    si.SampleRate,
		BitsPerSample: si.BitsPerSample,
		NumChannels:   si.NumChannels,
		BlockSize:     uint32(si.MaxBlockSize),
	}, nil
}
