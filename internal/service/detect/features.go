package detect

import (
	"image"
	"math"
	"sort"
)

// The detector works on a fixed-size view of the photo.
const sampleSize = 224

// Indicator color ranges in OpenCV-style HSV (H 0-180, S/V 0-255). Order:
// brown spots, yellow spots, black spots, white powder, rotting tissue.
var indicatorRanges = [5][2][3]float64{
	{{10, 100, 20}, {20, 255, 200}},
	{{20, 100, 100}, {30, 255, 255}},
	{{0, 0, 0}, {180, 255, 30}},
	{{0, 0, 200}, {180, 30, 255}},
	{{0, 50, 10}, {15, 255, 100}},
}

// features holds the color and texture measurements classify works from.
// color: five indicator ratios followed by the mean H/S/V channels scaled to
// [0,1]. texture: gradient magnitude mean, standard deviation and 90th
// percentile.
type features struct {
	color   [8]float64
	texture [3]float64
}

func extractFeatures(img image.Image) features {
	var f features

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	gray := make([][]float64, sampleSize)
	var counts [5]int
	var sumH, sumS, sumV float64

	for y := 0; y < sampleSize; y++ {
		gray[y] = make([]float64, sampleSize)
		for x := 0; x < sampleSize; x++ {
			// Nearest-neighbour sample of the source pixel.
			sx := bounds.Min.X + x*srcW/sampleSize
			sy := bounds.Min.Y + y*srcH/sampleSize
			cr, cg, cb, _ := img.At(sx, sy).RGBA()
			r := float64(cr >> 8)
			g := float64(cg >> 8)
			b := float64(cb >> 8)

			h, s, v := rgbToHSV(r, g, b)
			sumH += h
			sumS += s
			sumV += v
			for i, rng := range indicatorRanges {
				if inRange(h, s, v, rng[0], rng[1]) {
					counts[i]++
				}
			}

			gray[y][x] = 0.299*r + 0.587*g + 0.114*b
		}
	}

	total := float64(sampleSize * sampleSize)
	for i, c := range counts {
		f.color[i] = float64(c) / total
	}
	f.color[5] = sumH / total / 255.0
	f.color[6] = sumS / total / 255.0
	f.color[7] = sumV / total / 255.0

	mean, std, p90 := sobelStats(gray)
	f.texture = [3]float64{mean, std, p90}
	return f
}

// rgbToHSV converts 0-255 RGB into OpenCV-scaled HSV: hue in [0,180),
// saturation and value in [0,255].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC * 255
	}

	if delta == 0 {
		return 0, s, v
	}

	var deg float64
	switch maxC {
	case r:
		deg = 60 * (g - b) / delta
	case g:
		deg = 120 + 60*(b-r)/delta
	default:
		deg = 240 + 60*(r-g)/delta
	}
	if deg < 0 {
		deg += 360
	}
	return deg / 2, s, v
}

func inRange(h, s, v float64, lo, hi [3]float64) bool {
	return h >= lo[0] && h <= hi[0] &&
		s >= lo[1] && s <= hi[1] &&
		v >= lo[2] && v <= hi[2]
}

// sobelStats measures edge strength over the grayscale view: gradient
// magnitudes are normalized by their maximum, then summarized as mean,
// standard deviation and the 90th percentile.
func sobelStats(gray [][]float64) (mean, std, p90 float64) {
	size := len(gray)
	mags := make([]float64, 0, (size-2)*(size-2))
	maxMag := 0.0

	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			gx := gray[y-1][x+1] + 2*gray[y][x+1] + gray[y+1][x+1] -
				gray[y-1][x-1] - 2*gray[y][x-1] - gray[y+1][x-1]
			gy := gray[y+1][x-1] + 2*gray[y+1][x] + gray[y+1][x+1] -
				gray[y-1][x-1] - 2*gray[y-1][x] - gray[y-1][x+1]
			mag := math.Sqrt(gx*gx + gy*gy)
			mags = append(mags, mag)
			if mag > maxMag {
				maxMag = mag
			}
		}
	}

	if len(mags) == 0 {
		return 0, 0, 0
	}

	var sum float64
	for i := range mags {
		if maxMag > 0 {
			mags[i] /= maxMag
		}
		sum += mags[i]
	}
	mean = sum / float64(len(mags))

	var variance float64
	for _, m := range mags {
		variance += (m - mean) * (m - mean)
	}
	std = math.Sqrt(variance / float64(len(mags)))

	sorted := append([]float64(nil), mags...)
	sort.Float64s(sorted)
	p90 = sorted[int(float64(len(sorted))*0.9)]
	return mean, std, p90
}
