package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeSpec describes one interpolation encode from a keyframe sequence to
// an H.264 MP4.
type EncodeSpec struct {
	InputPattern  string
	KeyframeCount int
	DurationSec   int
	FPS           int
	Width         int
	Height        int
	OutputPath    string
}

// InputFramerate returns the framerate at which the keyframe sequence is fed
// to the encoder so the frames span the clip duration, floored at 1 fps.
func (s EncodeSpec) InputFramerate() float64 {
	dur := s.DurationSec
	if dur < 1 {
		dur = 1
	}
	rate := float64(s.KeyframeCount) / float64(dur)
	if rate < 1.0 {
		rate = 1.0
	}
	return rate
}

// FilterChain returns the -vf filter graph: scale to fit, pad to the exact
// canvas, normalize pixel format, then motion-interpolate up to the target
// fps.
func (s EncodeSpec) FilterChain() string {
	return strings.Join([]string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", s.Width, s.Height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", s.Width, s.Height),
		"format=yuv420p",
		fmt.Sprintf("minterpolate=fps=%d:mi_mode=mci:mc_mode=aobmc:vsbmc=1", s.FPS),
	}, ",")
}

// CommandBuilder assembles FFmpeg argument lists with a fluent API.
type CommandBuilder struct {
	binary     string
	globalArgs []string
	inputArgs  []string
	input      string
	filters    []string
	outputArgs []string
	output     string
	overwrite  bool
}

// NewCommandBuilder creates a new FFmpeg command builder.
func NewCommandBuilder(ffmpegPath string) *CommandBuilder {
	return &CommandBuilder{binary: ffmpegPath}
}

// Overwrite enables output file overwriting.
func (b *CommandBuilder) Overwrite() *CommandBuilder {
	b.overwrite = true
	return b
}

// InputFramerate sets the input sequence framerate.
func (b *CommandBuilder) InputFramerate(fps float64) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, "-framerate", fmt.Sprintf("%.4f", fps))
	return b
}

// Input sets the input pattern or file.
func (b *CommandBuilder) Input(input string) *CommandBuilder {
	b.input = input
	return b
}

// Filter appends a video filter to the -vf chain.
func (b *CommandBuilder) Filter(filter string) *CommandBuilder {
	b.filters = append(b.filters, filter)
	return b
}

// Duration limits the output duration in seconds.
func (b *CommandBuilder) Duration(seconds int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-t", strconv.Itoa(seconds))
	return b
}

// OutputFramerate sets the output framerate.
func (b *CommandBuilder) OutputFramerate(fps int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-r", strconv.Itoa(fps))
	return b
}

// VideoCodec sets the output video codec.
func (b *CommandBuilder) VideoCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:v", codec)
	return b
}

// PixelFormat sets the output pixel format.
func (b *CommandBuilder) PixelFormat(format string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-pix_fmt", format)
	return b
}

// Output sets the output file.
func (b *CommandBuilder) Output(output string) *CommandBuilder {
	b.output = output
	return b
}

// Args returns the assembled argument list.
func (b *CommandBuilder) Args() []string {
	args := make([]string, 0, 16)
	if b.overwrite {
		args = append(args, "-y")
	}
	args = append(args, b.globalArgs...)
	args = append(args, b.inputArgs...)
	args = append(args, "-i", b.input)
	if len(b.filters) > 0 {
		args = append(args, "-vf", strings.Join(b.filters, ","))
	}
	args = append(args, b.outputArgs...)
	args = append(args, b.output)
	return args
}

// Binary returns the configured ffmpeg binary path.
func (b *CommandBuilder) Binary() string {
	return b.binary
}

// BuildEncodeArgs assembles the full argument list for an interpolation
// encode.
func BuildEncodeArgs(spec EncodeSpec) []string {
	return NewCommandBuilder("").
		Overwrite().
		InputFramerate(spec.InputFramerate()).
		Input(spec.InputPattern).
		Filter(spec.FilterChain()).
		Duration(spec.DurationSec).
		OutputFramerate(spec.FPS).
		VideoCodec("libx264").
		PixelFormat("yuv420p").
		Output(spec.OutputPath).
		Args()
}
