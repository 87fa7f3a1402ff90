// Package imaging wraps the raster codecs: output format resolution,
// encoding with palette quantization, and meta-tile splitting.
package imaging

import (
	"errors"
	"fmt"

	"github.com/marcjansen/mapproxy/pkg/config"
)

var ErrUnsupportedFormat = errors.New("no encoder for format")

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

// Format is a resolved output format: a concrete media type plus its
// encoding options.
type Format struct {
	Name     string
	MimeType string
	// Colors > 0 quantizes PNG output to a palette of that size.
	Colors  int
	Quality int
}

// Registry maps declared format names to resolved formats. Aliases from
// the configuration (a custom name pointing at a concrete media type)
// are flattened once at startup.
type Registry struct {
	formats map[string]Format
}

func NewRegistry(defs []config.FormatDef) (*Registry, error) {
	r := &Registry{formats: map[string]Format{
		"png":  {Name: "png", MimeType: MimePNG},
		"jpeg": {Name: "jpeg", MimeType: MimeJPEG, Quality: 90},
		"jpg":  {Name: "jpg", MimeType: MimeJPEG, Quality: 90},
	}}

	for _, def := range defs {
		f := Format{
			Name:     def.Name,
			MimeType: def.MimeType,
			Colors:   def.Colors,
			Quality:  def.Quality,
		}
		// a mime type matching a declared name is an alias; resolve
		// it to the target's concrete type, keeping local options
		if target, ok := r.formats[def.MimeType]; ok {
			f.MimeType = target.MimeType
			if f.Colors == 0 {
				f.Colors = target.Colors
			}
			if f.Quality == 0 {
				f.Quality = target.Quality
			}
		}
		if !supportedMime(f.MimeType) {
			return nil, fmt.Errorf("%w: %s resolves to %s", ErrUnsupportedFormat, def.Name, f.MimeType)
		}
		r.formats[def.Name] = f
	}

	return r, nil
}

func supportedMime(mime string) bool {
	return mime == MimePNG || mime == MimeJPEG
}

// Resolve looks up a declared format name or bare media type.
func (r *Registry) Resolve(name string) (Format, error) {
	if f, ok := r.formats[name]; ok {
		return f, nil
	}
	if supportedMime(name) {
		quality := 0
		if name == MimeJPEG {
			quality = 90
		}
		return Format{Name: name, MimeType: name, Quality: quality}, nil
	}
	return Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}
