// Command bc7bench measures BC7 encoding throughput over a synthetic image.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/anibuddy/bc7-encoder/bc7"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("bc7bench: ")

	var (
		width       int
		height      int
		preset      string
		workers     int
		iters       int
		outPath     string
		checksumOpt string
		cpuprofile  string
	)
	flag.IntVar(&width, "w", 256, "width")
	flag.IntVar(&height, "h", 256, "height")
	flag.StringVar(&preset, "preset", "basic", "preset: [alpha-]ultrafast|veryfast|fast|basic|slow")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "encoder goroutines (1 = serial path)")
	flag.IntVar(&iters, "iters", 20, "iterations")
	flag.StringVar(&outPath, "out", "", "optional output .dds path (writes last iteration)")
	flag.StringVar(&checksumOpt, "checksum", "fnv", "checksum: fnv|none (for benchmarking)")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "optional CPU profile output path")
	flag.Parse()

	if width <= 0 || height <= 0 || width%4 != 0 || height%4 != 0 {
		log.Println("invalid dimensions (want positive multiples of 4)")
		os.Exit(2)
	}
	if iters <= 0 {
		log.Println("iters must be > 0")
		os.Exit(2)
	}
	if workers <= 0 {
		log.Println("workers must be > 0")
		os.Exit(2)
	}

	settings, err := parsePreset(preset)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}
	enc, err := bc7.NewEncoder(settings)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	pix := make([]byte, width*height*4)
	fillPatternRGBA8(pix, width, height)

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			log.Fatal(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	dst := make([]byte, bc7.BlocksByteSize(width, height))
	doChecksum := strings.ToLower(strings.TrimSpace(checksumOpt)) != "none"

	start := time.Now()
	var checksum uint64
	for i := 0; i < iters; i++ {
		if workers == 1 {
			err = enc.Encode(dst, pix, width, height, width*4)
		} else {
			err = enc.EncodeParallel(context.Background(), dst, pix, width, height, width*4, workers)
		}
		if err != nil {
			log.Fatal(err)
		}
		if doChecksum {
			checksum = fnv1a64(checksum, dst)
		}
	}
	dur := time.Since(start)

	if outPath != "" {
		out, err := bc7.MarshalDDS(bc7.DDSHeader{Width: uint32(width), Height: uint32(height)}, dst)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			log.Fatal(err)
		}
	}

	texels := float64(width*height) * float64(iters)
	mpixPerS := texels / dur.Seconds() / 1e6

	checksumStr := fmtChecksum(checksum)
	if !doChecksum {
		checksumStr = "none"
	}

	fmt.Printf("RESULT preset=%s size=%dx%d workers=%d iters=%d seconds=%.6f mpix/s=%.3f checksum=%s\n",
		preset,
		width, height,
		workers,
		iters,
		dur.Seconds(),
		mpixPerS,
		checksumStr,
	)
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

func fillPatternRGBA8(pix []byte, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 4
			r := uint32(x*3 + y*5)
			g := uint32(x*11 + y*13)
			b := uint32(x ^ y)
			a := 255 - uint32((x*5+y*7)&0xFF)
			pix[off+0] = uint8(r)
			pix[off+1] = uint8(g)
			pix[off+2] = uint8(b)
			pix[off+3] = uint8(a)
		}
	}
}

func fnv1a64(seed uint64, data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := seed
	if h == 0 {
		h = offset64
	}
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

func fmtChecksum(v uint64) string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> uint(i*8))
	}
	return hex.EncodeToString(b[:])
}
