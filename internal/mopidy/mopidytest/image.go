package mopidytest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// PNG encodes a solid w×h image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 0x30, G: 0x60, B: 0x90, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Images builds a core.library.get_images result for one track.
func Images(trackURI string, imageURIs ...string) map[string]any {
	images := make([]map[string]any, 0, len(imageURIs))
	for _, uri := range imageURIs {
		images = append(images, map[string]any{"__model__": "Image", "uri": uri})
	}
	return map[string]any{trackURI: images}
}
