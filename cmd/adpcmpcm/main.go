// adpcmpcm decodes a WAVE file containing IMA ADPCM audio to a 16-bit PCM
// WAV file.
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

	"github.com/Hangman/TuningFork/adpcm"
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

func decodeOne(ctx context.Context, inPath string, force bool, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return errors.WithStack(err)
	}

	rec, err := adpcm.DecodeWaveFile(ctx, data, log)
	if err != nil {
		return errors.WithStack(err)
	}

	outPath := pathutil.TrimExt(inPath) + ".pcm.wav"
	if !force && osutil.Exists(outPath) {
		return errors.Errorf("WAV file %q already present; use -f flag to force overwrite", outPath)
	}
	w, err := os.Create(outPath)
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
	buf.Data = bytesToInts16(rec.Data)
	if err := enc.Write(buf); err != nil {
		return errors.WithStack(err)
	}
	log.Debug("wrote wav file", "path", outPath, "samples", len(buf.Data))
	return nil
}

func bytesToInts16(data []byte) []int {
	out := make([]int, len(data)/2)
	for i := range out {
		v := uint16(data[2*i]) | uint16(data[2*i+1])<<8
		out[i] = int(int16(v))
	}
	return out
}
