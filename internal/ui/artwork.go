package ui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/dolmen-go/kittyimg"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxArtworkPixels bounds the artwork box on either axis.
const maxArtworkPixels = 300

// cellSize is the pixel size of one terminal cell.
type cellSize struct {
	Width  int
	Height int
}

var fallbackCell = cellSize{Width: 8, Height: 16}

// fitWithin scales w×h down to fit inside maxW×maxH, keeping the aspect
// ratio. Images that already fit are returned unchanged.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW with h/maxH without floats.
	if w*maxH >= h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

// artworkBox returns the pixel box available to artwork on a terminal of
// cols×rows cells, leaving room for the text column and footer.
func artworkBox(cols, rows int, cell cellSize) (int, int) {
	w := min(cols/2*cell.Width, maxArtworkPixels)
	h := min((rows-4)*cell.Height, maxArtworkPixels)
	return max(w, 0), max(h, 0)
}

// cellsFor returns how many terminal cells a w×h pixel image covers.
func cellsFor(w, h int, cell cellSize) (int, int) {
	if cell.Width <= 0 || cell.Height <= 0 {
		cell = fallbackCell
	}
	return (w + cell.Width - 1) / cell.Width, (h + cell.Height - 1) / cell.Height
}

// renderedArtwork is a kitty graphics sequence ready to be placed in the view.
type renderedArtwork struct {
	uri  string
	box  image.Point
	seq  string
	cols int
	rows int
}

// encodeKitty decodes data, scales it into boxW×boxH and encodes it with the
// kitty graphics protocol.
func encodeKitty(data []byte, boxW, boxH int, cell cellSize) (renderedArtwork, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return renderedArtwork{}, fmt.Errorf("decode artwork: %w", err)
	}
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), boxW, boxH)
	if w == 0 || h == 0 {
		return renderedArtwork{}, fmt.Errorf("artwork box %dx%d too small", boxW, boxH)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := writeKitty(&buf, scaled); err != nil {
		return renderedArtwork{}, err
	}

	cols, rows := cellsFor(w, h, cell)
	return renderedArtwork{
		box:  image.Pt(boxW, boxH),
		seq:  buf.String(),
		cols: cols,
		rows: rows,
	}, nil
}

// writeKitty writes img as a kitty graphics command.
func writeKitty(w io.Writer, img image.Image) error {
	if err := kittyimg.Fprint(w, img); err != nil {
		return fmt.Errorf("encode artwork: %w", err)
	}
	return nil
}
