package audio

// Downmix averages interleaved frames of ch channels in src into mono dst.
// It returns the number of frames written.
func Downmix(dst, src []float32, ch int) int {
	if ch <= 1 {
		return copy(dst, src)
	}
	n := min(len(dst), len(src)/ch)
	scale := 1 / float32(ch)
	for i := range n {
		var sum float32
		for _, v := range src[i*ch : i*ch+ch] {
			sum += v
		}
		dst[i] = sum * scale
	}
	return n
}

// Upmix writes each mono sample of src to all ch interleaved channels of
// dst. It returns the number of frames written.
func Upmix(dst, src []float32, ch int) int {
	if ch <= 1 {
		return copy(dst, src)
	}
	n := min(len(src), len(dst)/ch)
	for i, v := range src[:n] {
		frame := dst[i*ch : i*ch+ch]
		for c := range frame {
			frame[c] = v
		}
	}
	return n
}
