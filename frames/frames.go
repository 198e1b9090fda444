// Package frames loads animation sources into flat RGBA frame sequences
// ready for block compression. It accepts animated GIF and APNG files as
// well as directories of still images, and composites coalesced frames so
// every frame is a full image rather than a delta region.
package frames

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kettek/apng"
	"golang.org/x/image/draw"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Frame is one fully composited animation frame.
type Frame struct {
	Image *image.RGBA

	// Delay is how long the frame is shown. Zero for still-image
	// directories, where timing is the caller's business.
	Delay time.Duration
}

// Sequence is a loaded animation. All frames share the same bounds.
type Sequence struct {
	Frames []Frame
	Width  int
	Height int
}

// Load reads an animation from path. A directory is read as an alphabetical
// sequence of still images; a file is dispatched on its extension.
func Load(path string) (*Sequence, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDirectory(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return LoadGIF(path)
	case ".png", ".apng":
		return LoadAPNG(path)
	default:
		return nil, fmt.Errorf("frames: unsupported animation format %q", filepath.Ext(path))
	}
}

var stillExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// LoadDirectory reads every still image in dir, sorted by file name. All
// images must share the same dimensions.
func LoadDirectory(dir string) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stillExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("frames: no images in %s", dir)
	}
	sort.Strings(names)

	seq := &Sequence{}
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		src, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("frames: %s: %w", name, err)
		}

		rgba := toRGBA(src)
		if len(seq.Frames) == 0 {
			seq.Width = rgba.Bounds().Dx()
			seq.Height = rgba.Bounds().Dy()
		} else if rgba.Bounds().Dx() != seq.Width || rgba.Bounds().Dy() != seq.Height {
			return nil, fmt.Errorf("frames: %s is %dx%d, want %dx%d",
				name, rgba.Bounds().Dx(), rgba.Bounds().Dy(), seq.Width, seq.Height)
		}
		seq.Frames = append(seq.Frames, Frame{Image: rgba})
	}
	return seq, nil
}

// LoadGIF reads an animated GIF and composites each frame against the
// previous canvas according to its disposal method.
func LoadGIF(path string) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("frames: %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("frames: %s: no frames", path)
	}

	width := g.Config.Width
	height := g.Config.Height
	if width == 0 || height == 0 {
		b := g.Image[0].Bounds()
		width, height = b.Dx(), b.Dy()
	}

	bounds := image.Rect(0, 0, width, height)
	canvas := image.NewRGBA(bounds)

	seq := &Sequence{Width: width, Height: height}
	for i, paletted := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, paletted.Bounds(), paletted, paletted.Bounds().Min, draw.Over)

		delay := 10 * time.Millisecond // GIF delays are centiseconds
		if i < len(g.Delay) {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		seq.Frames = append(seq.Frames, Frame{Image: cloneRGBA(canvas), Delay: delay})

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, paletted.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}
	return seq, nil
}

// LoadAPNG reads an animated PNG. Plain PNG files decode as a single frame.
func LoadAPNG(path string) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := apng.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("frames: %s: %w", path, err)
	}
	if len(a.Frames) == 0 {
		return nil, fmt.Errorf("frames: %s: no frames", path)
	}

	first := a.Frames[0].Image.Bounds()
	width, height := first.Dx(), first.Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	seq := &Sequence{Width: width, Height: height}
	for _, af := range a.Frames {
		// The default frame is the fallback still, not part of the
		// animation.
		if af.IsDefault {
			continue
		}

		region := af.Image.Bounds().Add(image.Pt(af.XOffset, af.YOffset))

		var restore *image.RGBA
		if af.DisposeOp == apng.DISPOSE_OP_PREVIOUS {
			restore = cloneRGBA(canvas)
		}

		op := draw.Over
		if af.BlendOp == apng.BLEND_OP_SOURCE {
			op = draw.Src
		}
		draw.Draw(canvas, region, af.Image, af.Image.Bounds().Min, op)

		num, den := af.DelayNumerator, af.DelayDenominator
		if den == 0 {
			den = 100
		}
		delay := time.Duration(num) * time.Second / time.Duration(den)
		seq.Frames = append(seq.Frames, Frame{Image: cloneRGBA(canvas), Delay: delay})

		switch af.DisposeOp {
		case apng.DISPOSE_OP_BACKGROUND:
			draw.Draw(canvas, region, image.Transparent, image.Point{}, draw.Src)
		case apng.DISPOSE_OP_PREVIOUS:
			canvas = restore
		}
	}

	if len(seq.Frames) == 0 {
		return nil, fmt.Errorf("frames: %s: only a default image, no animation frames", path)
	}
	return seq, nil
}

// PadToBlockGrid grows img to the next multiple of block in each dimension
// by replicating the edge texels. Returns img unchanged when it already
// fits the grid.
func PadToBlockGrid(img *image.RGBA, block int) *image.RGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	pw := (w + block - 1) / block * block
	ph := (h + block - 1) / block * block
	if pw == w && ph == h {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, pw, ph))
	for y := 0; y < ph; y++ {
		sy := y
		if sy >= h {
			sy = h - 1
		}
		for x := 0; x < pw; x++ {
			sx := x
			if sx >= w {
				sx = w - 1
			}
			out.SetRGBA(x, y, img.RGBAAt(img.Bounds().Min.X+sx, img.Bounds().Min.Y+sy))
		}
	}
	return out
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
