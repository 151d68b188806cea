// flacpcm decodes a FLAC file to a WAV file, mirroring the teacher's
// cmd/wav2flac front-end but for decoding rather than encoding.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"

	"github.com/Hangman/TuningFork"
)

func main() {
	var force bool
	flag.BoolVar(&force, "f", false, "force overwrite")
	flag.Parse()

	log := slog.Default()
	ctx := context.Background()
	for _, path := range flag.Args() {
		if err := decodeOne(ctx, path, force, log); err != nil {
			log.Error("decode failed", "path", path, "error", err)
			os.Exit(1)
		}
	}
}

func decodeOne(ctx context.Context, flacPath string, force bool, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	data, err := os.ReadFile(flacPath)
	if err != nil {
		return errors.WithStack(err)
	}

	rec, err := flac.Decode(ctx, data, log)
	if err != nil {
		return errors.WithStack(err)
	}

	wavPath := pathutil.TrimExt(flacPath) + ".wav"
	if !force && osutil.Exists(wavPath) {
		return errors.Errorf("WAV file %q already present; use -f flag to force overwrite", wavPath)
	}
	w, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()

	enc := wav.NewEncoder(w, int(rec.SampleRate), int(rec.BitsPerSample), int(rec.NumChannels), 1)
	defer enc.Close()

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: int(rec.NumChannels), SampleRate: int(rec.SampleRate)},
		SourceBitDepth: int(rec.BitsPerSample),
	}
	buf.Data = bytesToInts(rec.Data, int(rec.BitsPerSample))
	if err := enc.Write(buf); err != nil {
		return errors.WithStack(err)
	}
	log.Debug("wrote wav file", "path", wavPath, "samples", len(buf.Data))
	return nil
}

// bytesToInts unpacks little-endian packed PCM samples of the given bit
// depth into one int per sample, the shape go-audio/audio.IntBuffer wants.
func bytesToInts(data []byte, bitsPerSample int) []int {
	bytesPerSample := (bitsPerSample + 7) / 8
	if bytesPerSample == 0 {
		return nil
	}
	out := make([]int, len(data)/bytesPerSample)
	for i := range out {
		var v uint32
		for b := 0; b < bytesPerSample; b++ {
			v |= uint32(data[i*bytesPerSample+b]) << (8 * b)
		}
		// Sign-extend from bitsPerSample bits.
		signBit := uint32(1) << (bitsPerSample - 1)
		if v&signBit != 0 {
			v |= ^uint32(0) << bitsPerSample
		}
		out[i] = int(int32(v))
	}
	return out
}
