package noise

// Octave sums count layers of f, doubling frequency and halving amplitude
// each layer. count <= 0 yields 0.
func Octave(f Field, x, y, z float64, count int) float64 {
	result := 0.0
	amp := 1.0
	for i := 0; i < count; i++ {
		result += f.Sample3(x, y, z) * amp
		x *= 2
		y *= 2
		z *= 2
		amp *= 0.5
	}
	return result
}

// OctaveNormalized applies the *0.5+0.5 remap to the final octave sum.
// The remap is not applied per octave, so with count > 1 the result can
// leave [0, 1].
func OctaveNormalized(f Field, x, y, z float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return Octave(f, x, y, z, count)*0.5 + 0.5
}
