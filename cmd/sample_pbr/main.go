// sample_pbr loads OBJ or COLLADA meshes and renders them with a PBR material
// fed by optional base color and packed metallic/roughness maps.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/codegangsta/cli"
)

const usageText = `SAMPLE_PBR is an example of loading PBR assets with base color + packed metallic/roughness
Usage:
    SAMPLE_PBR [options] <OBJ/FBX/COLLADA>
Options:
   --help, -h
       Prints this message

   --ibl=<path to cmgen IBL>, -i <path>
       Applies an IBL generated by cmgen's deploy option

   --split-view, -v
       Splits the window into 4 views

   --scale=[number], -s [number]
       Applies uniform scale

   --packed-map=<path to PNG/JPG/BMP/GIF/TIFF/WEBP>, -p <path>
       Metallic/roughness map to apply to the loaded meshes

   --basecolor-map=<path to PNG/JPG/BMP/GIF/TIFF/WEBP>, -c <path>
       Base color map to apply to the loaded meshes

   --width=<pixels>, --height=<pixels>
       Window size, 1280x720 by default

   --debug
       Enables debug logging

`

const (
	defaultWidth  = 1280
	defaultHeight = 720
)

// flags that consume the next argument when given without '='
var valueFlags = map[string]bool{
	"-i": true, "--ibl": true,
	"-s": true, "--scale": true,
	"-p": true, "--packed-map": true,
	"-c": true, "--basecolor-map": true,
	"--width": true, "--height": true,
}

// GLFW calls must come from the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr, startViewer))
}

func startViewer(filenames []string, config Config, pbrConfig PbrConfig) error {
	newApp(filenames, config, pbrConfig).Run()
	return nil
}

type viewerFn func(filenames []string, config Config, pbrConfig PbrConfig) error

func printUsage(w io.Writer, argv0 string) {
	fmt.Fprint(w, strings.ReplaceAll(usageText, "SAMPLE_PBR", filepath.Base(argv0)))
}

// run parses args and hands the validated mesh paths to start. It returns the
// process exit code.
func run(args []string, stdout, stderr io.Writer, start viewerFn) int {
	argv0 := "sample_pbr"
	if len(args) > 0 {
		argv0 = args[0]
	}
	exitCode := 0

	app := cli.NewApp()
	app.Name = filepath.Base(argv0)
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "help, h"},
		cli.StringFlag{Name: "ibl, i"},
		cli.BoolFlag{Name: "split-view, v"},
		cli.StringFlag{Name: "scale, s"},
		cli.StringFlag{Name: "packed-map, p"},
		cli.StringFlag{Name: "basecolor-map, c"},
		cli.IntFlag{Name: "width", Value: defaultWidth},
		cli.IntFlag{Name: "height", Value: defaultHeight},
		cli.BoolFlag{Name: "debug"},
	}
	// unknown options behave like --help
	app.OnUsageError = func(ctx *cli.Context, err error, isSubcommand bool) error {
		printUsage(stdout, argv0)
		return nil
	}
	app.Action = func(ctx *cli.Context) error {
		if ctx.Bool("help") {
			printUsage(stdout, argv0)
			return nil
		}
		if ctx.NArg() < 1 {
			printUsage(stdout, argv0)
			exitCode = 1
			return nil
		}

		filenames := make([]string, 0, ctx.NArg())
		for _, filename := range ctx.Args() {
			if _, err := os.Stat(filename); err != nil {
				fmt.Fprintf(stderr, "file %s not found!\n", filename)
				exitCode = 1
				return nil
			}
			filenames = append(filenames, filename)
		}

		config := Config{
			Title:        "PBR",
			IBLDirectory: ctx.String("ibl"),
			SplitView:    ctx.Bool("split-view"),
			Scale:        parseScale(ctx.String("scale")),
			Width:        ctx.Int("width"),
			Height:       ctx.Int("height"),
			Debug:        ctx.Bool("debug"),
		}
		pbrConfig := PbrConfig{
			MetallicRoughnessMap: ctx.String("packed-map"),
			BaseColorMap:         ctx.String("basecolor-map"),
		}
		if err := start(filenames, config, pbrConfig); err != nil {
			fmt.Fprintln(stderr, err)
			exitCode = 1
		}
		return nil
	}

	if err := app.Run(reorderArgs(args)); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return exitCode
}

// reorderArgs moves options ahead of mesh paths so that flags may follow them,
// as getopt allows. Everything after "--" stays positional.
func reorderArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	var options, positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--":
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case len(arg) > 1 && arg[0] == '-':
			split, needsValue := splitShortFlags(arg)
			options = append(options, split...)
			if needsValue && i+1 < len(rest) {
				i++
				options = append(options, rest[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	out := append([]string{args[0]}, options...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

var shortBoolFlags = map[byte]bool{'h': true, 'v': true}

// splitShortFlags expands a cluster such as "-vs2" into "-v", "-s", "2". Once
// a value flag is reached the rest of the cluster is its value. Arguments that
// are not made of known short flags are returned unchanged. needsValue reports
// whether the last flag takes its value from the next argument.
func splitShortFlags(arg string) (out []string, needsValue bool) {
	if len(arg) < 3 || arg[0] != '-' || arg[1] == '-' {
		return []string{arg}, valueFlags[arg]
	}
	for j := 1; j < len(arg); j++ {
		flag := "-" + arg[j:j+1]
		switch {
		case valueFlags[flag]:
			out = append(out, flag)
			if j+1 == len(arg) {
				return out, true
			}
			return append(out, arg[j+1:]), false
		case shortBoolFlags[arg[j]]:
			out = append(out, flag)
		default:
			return []string{arg}, valueFlags[arg]
		}
	}
	return out, false
}

var (
	leadingFloatRe = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
	leadingHexRe   = regexp.MustCompile(`^\s*([-+]?)0[xX]([0-9a-fA-F]+\.?[0-9a-fA-F]*|\.[0-9a-fA-F]+)([pP][-+]?\d+)?`)
	nonZeroDigitRe = regexp.MustCompile(`[1-9a-fA-F]`)
)

// smallest normal float32; anything below it is an underflow
const minNormalFloat32 = 0x1p-126

// parseScale reads the leading number of s, decimal or hexadecimal. Anything
// unparsable or out of float32 range keeps the default scale of 1.
func parseScale(s string) float32 {
	number, mantissa := "", ""
	if m := leadingHexRe.FindStringSubmatch(s); m != nil {
		number, mantissa = m[1]+"0x"+m[2]+m[3], m[2]
		if m[3] == "" {
			number += "p0"
		}
	} else if m := leadingFloatRe.FindStringSubmatch(s); m != nil {
		number, mantissa = strings.TrimSpace(m[0]), m[1]
	} else {
		return 1
	}
	v, err := strconv.ParseFloat(number, 32)
	if err != nil {
		return 1
	}
	if math32.Abs(float32(v)) < minNormalFloat32 && nonZeroDigitRe.MatchString(mantissa) {
		return 1
	}
	return float32(v)
}
