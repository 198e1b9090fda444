// Command bc7pack compresses an animation (GIF, APNG or a directory of
// stills) to BC7 blocks. Output is either a DDS file per frame, a single DDS
// of the first frame, or a delta sequence of the raw frames for players that
// reconstruct and re-encode each frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anibuddy/bc7-encoder/bc7"
	"github.com/anibuddy/bc7-encoder/delta"
	"github.com/anibuddy/bc7-encoder/frames"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("bc7pack: ")

	var (
		inPath     string
		outPath    string
		preset     string
		workers    int
		frameIndex int
		asDeltas   bool
		dumpInfo   bool
		configPath string
	)
	flag.StringVar(&inPath, "in", "", "input animation: gif/apng file, image directory, or configured name")
	flag.StringVar(&outPath, "out", "", "output file (.dds or .bc7d), or directory for per-frame output")
	flag.StringVar(&preset, "preset", "basic", "quality preset: ultrafast|veryfast|fast|basic|slow, with optional alpha- prefix")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "encoder goroutines")
	flag.IntVar(&frameIndex, "frame", -1, "encode only this frame index")
	flag.BoolVar(&asDeltas, "deltas", false, "write the raw frames as a zstd delta sequence")
	flag.BoolVar(&dumpInfo, "info", false, "print input info and exit")
	flag.StringVar(&configPath, "config", defaultConfigPath(), "TOML config mapping names to animation paths")
	flag.Parse()

	if inPath == "" {
		log.Println("usage: bc7pack -in <animation> -out <output> [-preset basic] [-deltas]")
		os.Exit(2)
	}

	resolved, err := resolveInput(inPath, configPath)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	settings, err := parsePreset(preset)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	seq, err := frames.Load(resolved)
	if err != nil {
		log.Fatal(err)
	}

	if dumpInfo {
		fmt.Printf("%s: %d frames, %dx%d texels, %d bytes per compressed frame\n",
			resolved, len(seq.Frames), seq.Width, seq.Height,
			bc7.BlocksByteSize(seq.Width, seq.Height))
		return
	}

	if outPath == "" {
		log.Println("missing -out")
		os.Exit(2)
	}
	if frameIndex >= len(seq.Frames) {
		log.Printf("frame %d out of range, input has %d frames", frameIndex, len(seq.Frames))
		os.Exit(2)
	}

	if asDeltas {
		// The sequence stores the raw frames; a player reconstructs each
		// frame from the deltas and encodes it to BC7 itself.
		raw, width, height := rawFrames(seq, frameIndex)
		s, err := delta.NewSequence(width, height, raw)
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := s.WriteTo(f); err != nil {
			f.Close()
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
		return
	}

	enc, err := bc7.NewEncoder(settings)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	compressed, width, height, err := encodeFrames(enc, seq, workers, frameIndex)
	if err != nil {
		log.Fatal(err)
	}

	hdr := bc7.DDSHeader{Width: uint32(width), Height: uint32(height)}

	if len(compressed) == 1 {
		out, err := bc7.MarshalDDS(hdr, compressed[0])
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Multiple frames, no deltas: one DDS per frame in the output directory.
	if err := os.MkdirAll(outPath, 0o755); err != nil {
		log.Fatal(err)
	}
	for i, blocks := range compressed {
		out, err := bc7.MarshalDDS(hdr, blocks)
		if err != nil {
			log.Fatal(err)
		}
		name := filepath.Join(outPath, fmt.Sprintf("frame_%04d.dds", i))
		if err := os.WriteFile(name, out, 0o644); err != nil {
			log.Fatal(err)
		}
	}
}

// rawFrames pads each selected frame to the block grid and returns its
// pixels as one tightly packed RGBA buffer per frame.
func rawFrames(seq *frames.Sequence, only int) ([][]byte, int, int) {
	list := seq.Frames
	if only >= 0 {
		list = seq.Frames[only : only+1]
	}

	var width, height int
	out := make([][]byte, 0, len(list))
	for _, fr := range list {
		img := frames.PadToBlockGrid(fr.Image, bc7.BlockWidth)
		b := img.Bounds()
		width, height = b.Dx(), b.Dy()
		out = append(out, tightPix(img, width, height))
	}
	return out, width, height
}

// encodeFrames compresses the selected frames. A single frame is encoded
// with the parallel block scheduler; a multi-frame animation is stacked into
// one tall buffer and each frame band encoded as a sub-image, with workers
// bounding the number of frames in flight.
func encodeFrames(enc *bc7.Encoder, seq *frames.Sequence, workers, only int) ([][]byte, int, int, error) {
	raw, width, height := rawFrames(seq, only)

	if len(raw) == 1 {
		dst := make([]byte, bc7.BlocksByteSize(width, height))
		err := enc.EncodeParallel(context.Background(), dst, raw[0], width, height, width*4, workers)
		if err != nil {
			return nil, 0, 0, err
		}
		return [][]byte{dst}, width, height, nil
	}

	stride := width * 4
	stacked := make([]byte, 0, len(raw)*height*stride)
	for _, pix := range raw {
		stacked = append(stacked, pix...)
	}

	out := make([][]byte, len(raw))
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range raw {
		g.Go(func() error {
			dst := make([]byte, bc7.BlocksByteSize(width, height))
			if err := enc.EncodeSubImage(dst, stacked, width, height, stride, i*height); err != nil {
				return err
			}
			out[i] = dst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}
	return out, width, height, nil
}

// tightPix returns the image's pixels with rows packed to width*4 bytes.
func tightPix(img *image.RGBA, width, height int) []byte {
	if img.Stride == width*4 && len(img.Pix) == width*height*4 {
		return img.Pix
	}
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		copy(out[y*width*4:(y+1)*width*4], img.Pix[y*img.Stride:y*img.Stride+width*4])
	}
	return out
}

func parsePreset(s string) (bc7.Settings, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ultrafast":
		return bc7.OpaqueUltraFast(), nil
	case "veryfast":
		return bc7.OpaqueVeryFast(), nil
	case "fast":
		return bc7.OpaqueFast(), nil
	case "basic":
		return bc7.OpaqueBasic(), nil
	case "slow":
		return bc7.OpaqueSlow(), nil
	case "alpha-ultrafast":
		return bc7.AlphaUltraFast(), nil
	case "alpha-veryfast":
		return bc7.AlphaVeryFast(), nil
	case "alpha-fast":
		return bc7.AlphaFast(), nil
	case "alpha-basic":
		return bc7.AlphaBasic(), nil
	case "alpha-slow":
		return bc7.AlphaSlow(), nil
	default:
		return bc7.Settings{}, fmt.Errorf("invalid -preset %q (want [alpha-]ultrafast|veryfast|fast|basic|slow)", s)
	}
}
