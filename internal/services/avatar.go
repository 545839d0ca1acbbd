package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

// AvatarService renders the capy's initial on a colored disc and serves it
// from the local media directory. Avatar rendering is decoration: callers
// treat failures as non-fatal.
type AvatarService interface {
	// CreateCapyAvatar writes the PNG and sets agent.AvatarURL.
	CreateCapyAvatar(agent *types.CapyAgent) error
	// CreateProfileAvatar does the same for a user profile.
	CreateProfileAvatar(profile *types.Profile) error
}

type avatarService struct {
	log      *logger.Logger
	mediaDir string

	bgColors []color.NRGBA
	fontFace font.Face
}

var capyAvatarPalette = []color.NRGBA{
	{R: 0x8B, G: 0x5C, B: 0x2A, A: 0xFF},
	{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF},
	{R: 0x42, G: 0x86, B: 0xF4, A: 0xFF},
	{R: 0xF4, G: 0xB4, B: 0x00, A: 0xFF},
	{R: 0xDB, G: 0x44, B: 0x37, A: 0xFF},
	{R: 0x7E, G: 0x57, B: 0xC2, A: 0xFF},
}

func NewAvatarService(cfg config.MediaConfig, log *logger.Logger) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("media dir is empty")
	}
	for _, sub := range []string{"capy_avatar", "user_avatar"} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("could not create media dir: %w", err)
		}
	}

	// The font is optional; without it avatars are plain discs.
	var face font.Face
	if strings.TrimSpace(cfg.FontPath) != "" {
		loaded, err := loadFontFace(cfg.FontPath, 206)
		if err != nil {
			serviceLog.Warn("Could not load avatar font, rendering without initials", "font", cfg.FontPath, "error", err)
		} else {
			face = loaded
		}
	}

	return &avatarService{
		log:      serviceLog,
		mediaDir: cfg.Dir,
		bgColors: capyAvatarPalette,
		fontFace: face,
	}, nil
}

func (as *avatarService) CreateCapyAvatar(agent *types.CapyAgent) error {
	buf, err := as.renderDisc(agent.ID[:], agent.Name)
	if err != nil {
		return err
	}
	rel := filepath.Join("capy_avatar", agent.ID.String()+".png")
	if err := os.WriteFile(filepath.Join(as.mediaDir, rel), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	agent.AvatarURL = "/media/" + filepath.ToSlash(rel)
	return nil
}

func (as *avatarService) CreateProfileAvatar(profile *types.Profile) error {
	buf, err := as.renderDisc(profile.UserID[:], profile.Username)
	if err != nil {
		return err
	}
	rel := filepath.Join("user_avatar", profile.UserID.String()+".png")
	if err := os.WriteFile(filepath.Join(as.mediaDir, rel), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	profile.AvatarURL = "/media/" + filepath.ToSlash(rel)
	return nil
}

func (as *avatarService) renderDisc(seed []byte, name string) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	base := as.pickColor(seed)
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	if as.fontFace != nil {
		initial := capyInitial(name)
		dc.SetFontFace(as.fontFace)
		tw, th := dc.MeasureString(initial)
		cx, cy := float64(size)/2, float64(size)/2

		dc.SetColor(color.White)
		dc.DrawString(initial, cx-(tw/2), cy+(th/2)-10)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor is deterministic per agent so regenerating an avatar keeps its
// color.
func (as *avatarService) pickColor(seed []byte) color.NRGBA {
	var sum int
	for _, b := range seed {
		sum += int(b)
	}
	return as.bgColors[sum%len(as.bgColors)]
}

func capyInitial(name string) string {
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		return strings.ToUpper(string(r))
	}
	return "?"
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
