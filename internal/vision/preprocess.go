package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
)

// CLAHE parameters tuned for photographed answer sheets.
const (
	claheClipLimit = 2.0
	claheTiles     = 8
)

// Preprocess cleans an image for local OCR: grayscale, median-blur
// denoising, adaptive contrast enhancement, then Otsu binarization.
// Cloud backends never see this output; they get the raw image bytes.
func Preprocess(imagePath string) (*image.Gray, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "vision: open image %s", imagePath)
	}

	gray := toGray(imaging.Grayscale(img))
	gray = medianBlur3(gray)
	gray = clahe(gray, claheClipLimit, claheTiles, claheTiles)
	return otsuBinarize(gray), nil
}

// EncodePNG renders a grayscale image as PNG bytes for handing to the
// OCR engine.
func EncodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, eris.Wrap(err, "vision: encode preprocessed image")
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// Rec. 601 luma weights.
			lum := (299*r + 587*g + 114*bl) / 1000
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return out
}

// medianBlur3 applies a 3×3 median filter. Edge pixels clamp to the
// image bounds.
func medianBlur3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	window := make([]uint8, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, src.GrayAt(clamp(x+dx, w-1), clamp(y+dy, h-1)).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return out
}

// clahe performs contrast-limited adaptive histogram equalization.
// Tile histograms are clipped, the overflow is redistributed, and each
// pixel is remapped by bilinear interpolation between the mappings of
// the four surrounding tile centers.
func clahe(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	// Per-tile remapping tables.
	luts := make([][]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)

			var hist [256]int
			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[src.GrayAt(x, y).Y]++
					count++
				}
			}
			if count == 0 {
				count = 1
			}

			limit := int(clipLimit * float64(count) / 256)
			if limit < 1 {
				limit = 1
			}
			excess := 0
			for i := range hist {
				if hist[i] > limit {
					excess += hist[i] - limit
					hist[i] = limit
				}
			}
			share := excess / 256
			for i := range hist {
				hist[i] += share
			}

			lut := make([]uint8, 256)
			cum := 0
			for i := range hist {
				cum += hist[i]
				lut[i] = uint8(min(255, cum*255/count))
			}
			luts[ty*tilesX+tx] = lut
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		fy := (float64(y) - float64(tileH)/2) / float64(tileH)
		ty0 := clamp(int(fy), tilesY-1)
		if fy < 0 {
			ty0 = 0
		}
		ty1 := clamp(ty0+1, tilesY-1)
		wy := fy - float64(ty0)
		if wy < 0 {
			wy = 0
		} else if wy > 1 {
			wy = 1
		}
		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			tx0 := clamp(int(fx), tilesX-1)
			if fx < 0 {
				tx0 = 0
			}
			tx1 := clamp(tx0+1, tilesX-1)
			wx := fx - float64(tx0)
			if wx < 0 {
				wx = 0
			} else if wx > 1 {
				wx = 1
			}

			v := src.GrayAt(x, y).Y
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][v]) + wx*float64(luts[ty0*tilesX+tx1][v])
			bot := (1-wx)*float64(luts[ty1*tilesX+tx0][v]) + wx*float64(luts[ty1*tilesX+tx1][v])
			out.SetGray(x, y, color.Gray{Y: uint8((1-wy)*top + wy*bot + 0.5)})
		}
	}
	return out
}

// otsuBinarize thresholds the image at the level that maximizes
// between-class variance.
func otsuBinarize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	total := w * h
	sum := 0.0
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var (
		sumB, wB  float64
		bestVar   float64
		threshold uint8
	)
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			threshold = uint8(i)
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
