package dsp

// ASREnvelope builds a three-segment attack-sustain-release amplitude
// envelope: a linear ramp 0→1 over the attack span, 1.0 for the sustain span,
// and a linear ramp 1→0 over the release span. If attack plus release exceed
// the total length the sustain span floors at zero and the ramps clip rather
// than error.
func ASREnvelope(numSamples int, attackMS, releaseMS float64, sampleRate int) []float64 {
	env := make([]float64, numSamples)
	attack := int(float64(sampleRate) * attackMS / 1000.0)
	release := int(float64(sampleRate) * releaseMS / 1000.0)
	sustain := numSamples - attack - release
	if sustain < 0 {
		sustain = 0
	}
	for i := 0; i < attack && i < numSamples; i++ {
		env[i] = float64(i) / float64(attack)
	}
	for i := 0; i < sustain && attack+i < numSamples; i++ {
		env[attack+i] = 1.0
	}
	for i := 0; i < release && attack+sustain+i < numSamples; i++ {
		env[attack+sustain+i] = 1.0 - float64(i)/float64(release)
	}
	return env
}

// Normalize scales buf in place so its peak absolute amplitude equals
// targetPeak. An all-zero buffer is left untouched.
func Normalize(buf []float64, targetPeak float64) {
	peak := Peak(buf)
	if peak == 0 {
		return
	}
	gain := targetPeak / peak
	for i := range buf {
		buf[i] *= gain
	}
}

// Peak returns the maximum absolute amplitude in buf.
func Peak(buf []float64) float64 {
	var max float64
	for _, s := range buf {
		if s < 0 {
			s = -s
		}
		if s > max {
			max = s
		}
	}
	return max
}

// Crossfade joins clips into one buffer, blending the last overlap samples of
// the running output with the head of each incoming clip using complementary
// linear ramps. The overlap region is blended rather than duplicated, so the
// result is shorter than the naive concatenation by one overlap per boundary.
func Crossfade(clips [][]float64, overlap int) []float64 {
	if len(clips) == 0 {
		return nil
	}
	total := 0
	for _, clip := range clips {
		total += len(clip)
	}
	out := make([]float64, total)
	pos := 0
	for _, clip := range clips {
		blendStart := pos - overlap
		if blendStart < 0 {
			blendStart = 0
		}
		blendEnd := blendStart + overlap
		if blendEnd > pos {
			blendEnd = pos
		}
		for j := blendStart; j < blendEnd; j++ {
			ratio := float64(j-blendStart) / float64(overlap)
			if idx := j - blendStart; idx < len(clip) {
				out[j] = out[j]*(1-ratio) + clip[idx]*ratio
			}
		}
		copyStart := blendEnd - blendStart
		remaining := len(clip) - copyStart
		// A clip shorter than the overlap is consumed entirely by the blend;
		// the write position never moves backwards.
		if remaining < 0 {
			remaining = 0
		}
		if remaining > 0 && pos+remaining <= len(out) {
			copy(out[pos:pos+remaining], clip[copyStart:])
		}
		pos += remaining
	}
	return out[:pos]
}
