package feedback

import "math"

// renderFrame computes the LED colors for one animation tick of scheme,
// frame ticks since the scheme started. Pure function of (scheme, numPads,
// frame) so it can be tested without a running Controller or a Sink.
func renderFrame(scheme Scheme, numPads, frame int) []Color {
	colors := make([]Color, numPads)
	switch scheme {
	case SchemeRainbow:
		for i := range colors {
			hue := float64((i*360/maxInt(numPads, 1))+frame*6) / 360
			colors[i] = hsvToRGB(hue)
		}
	case SchemeBreathing:
		phase := float64(frame%40) / 40
		level := uint8((math.Sin(phase*2*math.Pi) + 1) / 2 * 255)
		for i := range colors {
			colors[i] = Color{R: level, G: level, B: level}
		}
	case SchemeVUMeter:
		// Without a live audio level input wired in, render a slow sweep
		// as a visible placeholder animation rather than a static screen.
		lit := (frame / 2) % maxInt(numPads, 1)
		for i := range colors {
			if i <= lit {
				colors[i] = Color{G: 255}
			}
		}
	default:
		// SchemeReactive has no animation frame; callers never reach here
		// since Controller only starts the loop for animated schemes.
	}
	return colors
}

func hsvToRGB(h float64) Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	q := 1 - f
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = 1, f, 0
	case 1:
		r, g, b = q, 1, 0
	case 2:
		r, g, b = 0, 1, f
	case 3:
		r, g, b = 0, q, 1
	case 4:
		r, g, b = f, 0, 1
	default:
		r, g, b = 1, 0, q
	}
	return Color{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255)}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
