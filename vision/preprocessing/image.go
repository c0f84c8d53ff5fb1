package preprocessing

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	_ "image/jpeg"
	_ "image/png"
)

// Options configures image preprocessing. Mean and Std are per-channel
// normalization statistics in RGB order; zero-value Std selects no scaling.
type Options struct {
	TargetSize int
	Mean       [3]float32
	Std        [3]float32
}

// ImageProcessor decodes and preprocesses images with buffer reuse.
type ImageProcessor struct {
	mu              sync.Mutex
	tempImageBuffer *image.RGBA
	opts            Options
}

// NewImageProcessor creates a processor for the given options.
func NewImageProcessor(opts Options) *ImageProcessor {
	if opts.Std == ([3]float32{}) {
		opts.Std = [3]float32{1, 1, 1}
	}
	return &ImageProcessor{opts: opts}
}

// ProcessedImage is image data ready for network input, in CHW layout.
type ProcessedImage struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

// DecodeAndPreprocess decodes an image (JPEG or PNG), resizes it to the
// target size, and normalizes each channel to (v - mean) / std.
func (p *ImageProcessor) DecodeAndPreprocess(reader io.Reader) (*ProcessedImage, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	size := p.opts.TargetSize

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tempImageBuffer == nil || p.tempImageBuffer.Bounds().Dx() != size {
		p.tempImageBuffer = image.NewRGBA(image.Rect(0, 0, size, size))
	}
	target := p.tempImageBuffer

	scaleX := float64(width) / float64(size)
	scaleY := float64(height) / float64(size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			srcX := bounds.Min.X + int(float64(x)*scaleX)
			srcY := bounds.Min.Y + int(float64(y)*scaleY)
			if srcX >= bounds.Max.X {
				srcX = bounds.Max.X - 1
			}
			if srcY >= bounds.Max.Y {
				srcY = bounds.Max.Y - 1
			}
			target.Set(x, y, img.At(srcX, srcY))
		}
	}

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := target.At(x, y).RGBA()
			idx := y*size + x
			data[0*plane+idx] = (float32(r)/65535.0 - p.opts.Mean[0]) / p.opts.Std[0]
			data[1*plane+idx] = (float32(g)/65535.0 - p.opts.Mean[1]) / p.opts.Std[1]
			data[2*plane+idx] = (float32(b)/65535.0 - p.opts.Mean[2]) / p.opts.Std[2]
		}
	}

	return &ProcessedImage{
		Data:     data,
		Width:    size,
		Height:   size,
		Channels: 3,
	}, nil
}

// ProcessFile decodes and preprocesses the image at path.
func (p *ImageProcessor) ProcessFile(path string) (*ProcessedImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	return p.DecodeAndPreprocess(file)
}
