package phoneme

// Inventory maps phoneme symbols to their acoustic parameters. The default
// inventory is hand-tuned fixture data for a General American English voice;
// treat the numbers as configuration, not derivation.
type Inventory map[string]Phoneme

// Lookup returns the entry for symbol. Symbols a transcriber can emit are
// expected to exist here; callers skip missing symbols silently.
func (inv Inventory) Lookup(symbol string) (Phoneme, bool) {
	p, ok := inv[symbol]
	return p, ok
}

func vowel(ms int, f1, f2, f3 float64) Vowel {
	return Vowel{DurationMS: ms, Start: [3]float64{f1, f2, f3}, End: [3]float64{f1, f2, f3}}
}

func glide(ms int, s1, s2, s3, e1, e2, e3 float64) Vowel {
	return Vowel{DurationMS: ms, Start: [3]float64{s1, s2, s3}, End: [3]float64{e1, e2, e3}}
}

// DefaultInventory builds the standard English phoneme table: monophthongs,
// diphthongs, sonorants, fricatives, plosives, the two affricates and the
// inter-word silence marker.
func DefaultInventory() Inventory {
	return Inventory{
		// Monophthongs (formants F1-F3 in Hz).
		"iy":      vowel(200, 270, 2290, 3010),
		"i_short": vowel(150, 390, 1990, 2550),
		"e_short": vowel(150, 530, 1840, 2480),
		"a_short": vowel(180, 660, 1720, 2410),
		"schwa":   vowel(80, 500, 1500, 2450),
		"u_short": vowel(150, 440, 1020, 2240),
		"u_long":  vowel(250, 300, 870, 2240),
		"o_short": vowel(150, 570, 840, 2410),

		// Diphthongs and r-colored glides.
		"o_long": glide(250, 570, 840, 2410, 400, 800, 2200),
		"aw":     glide(250, 660, 1720, 2410, 300, 870, 2240),
		"oy":     glide(250, 400, 850, 2300, 390, 1990, 2550),
		"ay":     glide(250, 750, 1720, 2410, 390, 1990, 2550),
		"ar":     glide(220, 660, 1220, 2410, 490, 1350, 1690),
		"er":     vowel(180, 490, 1350, 1690),
		"r":      glide(120, 500, 1500, 2450, 490, 1350, 1690),

		// Sonorants rendered as vowels.
		"l": vowel(100, 360, 1300, 2700),
		"w": vowel(80, 300, 600, 2240),
		"y": vowel(80, 270, 2000, 3010),
		"m": vowel(120, 300, 1100, 2300),
		"n": vowel(100, 300, 1400, 2500),

		// Fricatives.
		"h":  Fricative{DurationMS: 60, Amplitude: 0.2, NoiseLowHz: 500, NoiseHiHz: 10000, Q: 1.0},
		"f":  Fricative{DurationMS: 100, Amplitude: 0.4, NoiseLowHz: 4000, NoiseHiHz: 9000, Q: 1.5},
		"v":  Fricative{DurationMS: 100, Amplitude: 0.4, NoiseLowHz: 3000, NoiseHiHz: 8000, Q: 1.5, Voiced: true},
		"s":  Fricative{DurationMS: 150, Amplitude: 0.5, NoiseLowHz: 6000, NoiseHiHz: 10000, Q: 2.0},
		"z":  Fricative{DurationMS: 150, Amplitude: 0.5, NoiseLowHz: 5500, NoiseHiHz: 9500, Q: 2.0, Voiced: true},
		"sh": Fricative{DurationMS: 150, Amplitude: 0.3, NoiseLowHz: 2500, NoiseHiHz: 7000, Q: 1.2},
		"zh": Fricative{DurationMS: 150, Amplitude: 0.3, NoiseLowHz: 2000, NoiseHiHz: 6000, Q: 1.2, Voiced: true},
		"th": Fricative{DurationMS: 120, Amplitude: 0.2, NoiseLowHz: 5000, NoiseHiHz: 9000, Q: 1.8},

		// Plosives.
		"b": Plosive{DurationMS: 40, Amplitude: 0.8, BurstHz: 500, BurstQ: 1.0, Voiced: true},
		"d": Plosive{DurationMS: 40, Amplitude: 0.9, BurstHz: 3500, BurstQ: 1.5, Voiced: true},
		"g": Plosive{DurationMS: 50, Amplitude: 0.8, BurstHz: 1500, BurstQ: 1.2, Voiced: true},
		"p": Plosive{DurationMS: 40, Amplitude: 0.8, BurstHz: 700, BurstQ: 1.0},
		"t": Plosive{DurationMS: 40, Amplitude: 0.9, BurstHz: 4500, BurstQ: 1.5},
		"k": Plosive{DurationMS: 50, Amplitude: 0.9, BurstHz: 1800, BurstQ: 1.2},

		// Affricates, composed from d/t + zh/sh at generation time.
		"ch": Affricate{DurationMS: 160},
		"j":  Affricate{DurationMS: 160, Voiced: true},

		SilenceSymbol: Silence{DurationMS: 150},
	}
}
