package services

import (
	"bytes"
	"encoding/base64"
	"hash/fnv"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const avatarSize = 256

// avatarPalette provides stable, readable backgrounds; the entry is picked by
// hashing the name so the same entity always renders the same color.
var avatarPalette = []color.RGBA{
	{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
	{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
	{R: 0xec, G: 0x48, B: 0x99, A: 0xff},
	{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
	{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
	{R: 0x06, G: 0xb6, B: 0xd4, A: 0xff},
	{R: 0x64, G: 0x74, B: 0x8b, A: 0xff},
}

// AvatarService renders initial-letter placeholder avatars as PNG data URLs,
// used until an entity gets a generated portrait.
type AvatarService interface {
	Placeholder(name string) string
}

type avatarService struct {
	log  *logger.Logger
	face font.Face
}

func NewAvatarService(baseLog *logger.Logger) AvatarService {
	s := &avatarService{log: baseLog.With("service", "AvatarService")}
	if f, err := truetype.Parse(gobold.TTF); err == nil {
		s.face = truetype.NewFace(f, &truetype.Options{Size: avatarSize * 0.42})
	} else {
		s.log.Warn("Falling back to default font for avatars", "error", err)
	}
	return s
}

func (s *avatarService) Placeholder(name string) string {
	initials := extractInitials(name)
	bg := avatarPalette[int(hashName(name))%len(avatarPalette)]

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.SetColor(bg)
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	if s.face != nil {
		dc.SetFontFace(s.face)
	}
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		s.log.Warn("Failed to encode avatar", "error", err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func extractInitials(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "?"
	}
	out := []rune{}
	for _, f := range fields {
		for _, r := range f {
			out = append(out, unicode.ToUpper(r))
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

func hashName(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return h.Sum32()
}
