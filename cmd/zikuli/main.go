// Command zikuli is a thin CLI wrapper around the zikuli library.
//
// Usage:
//
//	zikuli capture [--rect x,y,w,h] --output PATH
//	zikuli find PATTERN [--similarity S]
//	zikuli click PATTERN|x,y [--button left|right]
//	zikuli type TEXT
//	zikuli version
//
// Environment Variables:
//
//	DISPLAY - selects the display connection (X11-style).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anxuanzi/zikuli"
	"github.com/anxuanzi/zikuli/pkg/display"
	"github.com/anxuanzi/zikuli/pkg/geom"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Exit codes, per the CLI surface contract.
const (
	exitOK           = 0
	exitUsage        = 2
	exitFindFailed   = 3
	exitDisplayError = 4
	exitTimeout      = 5
	exitOther        = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}

	switch args[0] {
	case "capture":
		return runCapture(args[1:])
	case "find":
		return runFind(args[1:])
	case "click":
		return runClick(args[1:])
	case "type":
		return runType(args[1:])
	case "version":
		fmt.Printf("zikuli v%s (built: %s)\n", version, buildTime)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "zikuli: unknown subcommand %q\n", args[0])
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  zikuli capture [--rect x,y,w,h] --output PATH")
	fmt.Fprintln(os.Stderr, "  zikuli find PATTERN [--similarity S]")
	fmt.Fprintln(os.Stderr, "  zikuli click PATTERN|x,y [--button left|right]")
	fmt.Fprintln(os.Stderr, "  zikuli type TEXT")
	fmt.Fprintln(os.Stderr, "  zikuli version")
}

func runCapture(args []string) int {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	rect := fs.String("rect", "", "x,y,w,h to capture; defaults to the full virtual screen")
	output := fs.String("output", "", "PNG output path")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "zikuli: capture requires --output PATH")
		return exitUsage
	}

	disp, err := display.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitDisplayError
	}
	defer disp.Close()

	bounds := disp.VirtualScreenBounds()
	if *rect != "" {
		r, err := parseRect(*rect)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
			return exitUsage
		}
		bounds = r
	}

	img, err := disp.Capture(bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitCodeFor(err)
	}

	png, err := img.EncodePNG()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: encode: %v\n", err)
		return exitOther
	}
	if err := os.WriteFile(*output, png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: write %s: %v\n", *output, err)
		return exitOther
	}
	return exitOK
}

func runFind(args []string) int {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	similarity := fs.Float64("similarity", 0.7, "acceptance threshold in [0,1]")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "zikuli: find requires exactly one PATTERN path")
		return exitUsage
	}

	region, pattern, code := openRegionAndPattern(fs.Arg(0), *similarity)
	if region == nil {
		return code
	}
	defer region.Close()

	m, err := region.Find(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitCodeFor(err)
	}
	fmt.Printf("match at %s score=%.4f\n", m.Bounds.String(), m.Score)
	return exitOK
}

func runClick(args []string) int {
	fs := flag.NewFlagSet("click", flag.ContinueOnError)
	button := fs.String("button", "left", "left or right; middle is rejected with an error")
	similarity := fs.Float64("similarity", 0.7, "acceptance threshold in [0,1]")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "zikuli: click requires exactly one PATTERN|x,y argument")
		return exitUsage
	}

	target := fs.Arg(0)

	if x, y, ok := parsePoint(target); ok {
		disp, err := display.Open()
		if err != nil {
			fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
			return exitDisplayError
		}
		defer disp.Close()
		point := geom.NewRectangle(x, y, 1, 1)
		region := zikuli.NewRegion(point, disp)
		if err := clickButton(region, nil, *button); err != nil {
			fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
			return exitCodeFor(err)
		}
		return exitOK
	}

	region, pattern, code := openRegionAndPattern(target, *similarity)
	if region == nil {
		return code
	}
	defer region.Close()

	if err := clickButton(region, pattern, *button); err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func clickButton(region *zikuli.Region, pattern *zikuli.Pattern, button string) error {
	switch strings.ToLower(button) {
	case "right":
		return region.RightClick(pattern)
	case "middle":
		return errors.New("middle-button click is not exposed by the CLI surface")
	default:
		return region.Click(pattern)
	}
}

func runType(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "zikuli: type requires exactly one TEXT argument")
		return exitUsage
	}

	disp, err := display.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitDisplayError
	}
	defer disp.Close()

	region := zikuli.NewRegion(disp.VirtualScreenBounds(), disp)
	if err := region.Type(args[0], nil); err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func openRegionAndPattern(path string, similarity float64) (*zikuli.Region, *zikuli.Pattern, int) {
	disp, err := display.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return nil, nil, exitDisplayError
	}

	pattern, err := zikuli.NewPatternFromFile(path)
	if err != nil {
		disp.Close()
		fmt.Fprintf(os.Stderr, "zikuli: %v\n", err)
		return nil, nil, exitOther
	}
	pattern = pattern.WithSimilarity(similarity)

	region := zikuli.NewRegion(disp.VirtualScreenBounds(), disp)
	return region, pattern, exitOK
}

func parseRect(s string) (geom.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rectangle{}, fmt.Errorf("--rect wants x,y,w,h, got %q", s)
	}
	var nums [4]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return geom.Rectangle{}, fmt.Errorf("--rect: %w", err)
		}
		nums[i] = n
	}
	return geom.NewRectangle(int32(nums[0]), int32(nums[1]), uint32(nums[2]), uint32(nums[3])), nil
}

func parsePoint(s string) (x, y int32, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	xi, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
	yi, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int32(xi), int32(yi), true
}

// exitCodeFor maps a library error to the CLI's contracted exit code.
func exitCodeFor(err error) int {
	switch {
	case zikuli.IsRetryable(err):
		var ffe *zikuli.FindFailedError
		if errors.As(err, &ffe) {
			return exitFindFailed
		}
		var to *zikuli.TimeoutError
		if errors.As(err, &to) {
			return exitTimeout
		}
	case zikuli.IsFatal(err):
		return exitDisplayError
	}
	var de *zikuli.DisplayError
	if errors.As(err, &de) {
		return exitDisplayError
	}
	return exitOther
}
