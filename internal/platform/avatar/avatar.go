package avatar

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const Size = 512

var defaultPalette = []string{
	"#1ABC9C", "#2ECC71", "#3498DB", "#9B59B6", "#34495E",
	"#16A085", "#27AE60", "#2980B9", "#8E44AD", "#2C3E50",
	"#F39C12", "#D35400", "#C0392B", "#7F8C8D", "#E67E22",
}

// Renderer draws circular initials avatars.
type Renderer struct {
	face       font.Face
	colors     []color.NRGBA
	colorByHex map[string]color.NRGBA
}

func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse avatar font: %w", err)
	}
	r := &Renderer{
		face:       truetype.NewFace(f, &truetype.Options{Size: 206}),
		colorByHex: make(map[string]color.NRGBA, len(defaultPalette)),
	}
	for _, h := range defaultPalette {
		c, err := parseHex(h)
		if err != nil {
			return nil, err
		}
		r.colors = append(r.colors, c)
		r.colorByHex[h] = c
	}
	return r, nil
}

// ColorFor returns color when it is a palette entry, otherwise a palette entry chosen
// deterministically from seed.
func (r *Renderer) ColorFor(current, seed string) string {
	if h := NormalizeHex(current); h != "" {
		if _, ok := r.colorByHex[h]; ok {
			return h
		}
	}
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(seed))
	return toHex(r.colors[int(hasher.Sum32()%uint32(len(r.colors)))])
}

// Render returns a PNG of the initials on a filled circle.
func (r *Renderer) Render(firstName, lastName, colorHex string) ([]byte, error) {
	bg, ok := r.colorByHex[NormalizeHex(colorHex)]
	if !ok {
		bg = r.colors[0]
	}

	dc := gg.NewContext(Size, Size)
	dc.DrawCircle(Size/2, Size/2, Size/2)
	dc.Clip()
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, Size, Size)
	dc.Fill()

	initials := Initials(firstName, lastName)
	dc.SetFontFace(r.face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, Size/2, Size/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func Initials(first, last string) string {
	return firstLetter(first) + firstLetter(last)
}

func firstLetter(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

func NormalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if _, err := parseHex(s); err != nil {
		return ""
	}
	return s
}

func parseHex(s string) (color.NRGBA, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(raw) != 3 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

func toHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
