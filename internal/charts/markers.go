package charts

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strconv"

	"github.com/fogleman/gg"

	"trendgraph/internal/annotations"
	"trendgraph/internal/palette"
)

const markerRadius = 9

// drawMarkers stamps a numbered badge for every annotation marker onto a rendered PNG
func drawMarkers(w io.Writer, rendered []byte, markers []annotations.Marker, theme palette.Theme) error {
	img, err := png.Decode(bytes.NewReader(rendered))
	if err != nil {
		return fmt.Errorf("failed to decode chart image: %w", err)
	}

	dc := gg.NewContextForImage(img)
	badge := nrgba(parseColor(theme.Axis))
	text := nrgba(parseColor(theme.Background))
	for _, m := range markers {
		cx, cy := m.Left, m.Top+markerRadius
		dc.SetColor(badge)
		dc.DrawCircle(cx, cy, markerRadius)
		dc.Fill()

		dc.SetColor(text)
		dc.DrawStringAnchored(strconv.Itoa(m.Count), cx, cy, 0.5, 0.35)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode chart image: %w", err)
	}
	return nil
}

// blankImage renders an empty canvas in the theme background
func blankImage(w io.Writer, canvas Canvas, theme palette.Theme) error {
	dc := gg.NewContext(max(canvas.Width, 1), max(canvas.Height, 1))
	dc.SetColor(nrgba(parseColor(theme.Background)))
	dc.Clear()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode chart image: %w", err)
	}
	return nil
}
