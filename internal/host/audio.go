package host

import (
	"context"
	"math"
)

const (
	audioSampleRate = 44100
	audioFrames     = 5000
	audioFrequency  = 10000

	compressorThresholdDB = -50
	compressorKneeDB      = 40
	compressorRatio       = 12
	compressorReleaseSec  = 0.25
)

// renderOscillator renders a triangle oscillator through a dynamics
// compressor in float32, the same graph browsers use for audio probing.
func renderOscillator(ctx context.Context) ([]float32, error) {
	out := make([]float32, audioFrames)
	releaseCoef := float32(math.Exp(-1 / (compressorReleaseSec * audioSampleRate)))

	var phase, envelope float32
	step := float32(audioFrequency) / audioSampleRate
	for i := range out {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		// Triangle wave in [-1, 1].
		sample := 4*float32(math.Abs(float64(phase-float32(math.Floor(float64(phase+0.5)))))) - 1
		phase += step
		if phase >= 1 {
			phase -= 1
		}

		level := float32(math.Abs(float64(sample)))
		if level > envelope {
			envelope = level // zero attack
		} else {
			envelope = releaseCoef*envelope + (1-releaseCoef)*level
		}

		out[i] = sample * compressorGain(envelope)
	}
	return out, nil
}

// compressorGain returns the linear gain for an envelope level using a soft
// knee centred on the threshold.
func compressorGain(envelope float32) float32 {
	if envelope <= 0 {
		return 1
	}
	inDB := 20 * math.Log10(float64(envelope))
	over := inDB - compressorThresholdDB

	var reductionDB float64
	switch {
	case 2*over < -compressorKneeDB:
		reductionDB = 0
	case 2*math.Abs(over) <= compressorKneeDB:
		k := over + compressorKneeDB/2
		reductionDB = (1/float64(compressorRatio) - 1) * k * k / (2 * compressorKneeDB)
	default:
		reductionDB = (1/float64(compressorRatio) - 1) * over
	}
	return float32(math.Pow(10, reductionDB/20))
}
