package radar

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"

	_ "image/jpeg"
	_ "image/png"
)

const (
	// frameDelay is the per-frame display duration in hundredths of a second.
	frameDelay = 100

	// barStroke is the height of the progress bar in pixels.
	barStroke = 3
)

var barColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// decodeFrame turns one tile payload into a mutable raster frame.
func decodeFrame(payload []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba, nil
}

// drawProgressBar paints a flat gray bar across the top of the frame
// spanning [0, progress*width). A progress of 0 paints nothing.
func drawProgressBar(frame *image.RGBA, progress float64) {
	b := frame.Bounds()
	barEnd := b.Min.X + int(progress*float64(b.Dx()))

	for y := b.Min.Y; y < b.Min.Y+barStroke && y < b.Max.Y; y++ {
		for x := b.Min.X; x < barEnd; x++ {
			frame.Set(x, y, barColor)
		}
	}
}

// encodeAnimation encodes the ordered frames as one looping GIF with a fixed
// per-frame delay and restore-to-background disposal.
func encodeAnimation(frames []*image.RGBA) ([]byte, error) {
	anim := &gif.GIF{LoopCount: 0}

	for _, frame := range frames {
		b := frame.Bounds()
		paletted := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, b, frame, b.Min)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, frameDelay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
