package output

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/icza/mjpeg"
)

const labelBandHeight = 18

// frameTiming picks a whole frame rate for interval and how many times each
// frame is repeated so that it stays on screen for about interval.
func frameTiming(interval time.Duration) (int32, int) {
	fps := int32(1)
	if interval > 0 && interval < time.Second {
		fps = int32(math.Round(float64(time.Second) / float64(interval)))
	}
	repeats := max(1, int(math.Round(interval.Seconds()*float64(fps))))
	return fps, repeats
}

// CreateTimelapse stacks the images at imagePaths into an MJPEG AVI video,
// each frame captioned with the matching label and shown for interval.
func CreateTimelapse(imagePaths, labels []string, outputPath string, interval time.Duration) (err error) {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no images given for the time-lapse")
	}
	if len(labels) != len(imagePaths) {
		return fmt.Errorf("time-lapse has %d images but %d labels", len(imagePaths), len(labels))
	}
	if !strings.HasSuffix(outputPath, ".avi") {
		outputPath += ".avi"
	}

	first, err := loadImage(imagePaths[0])
	if err != nil {
		return err
	}
	width, height := first.Bounds().Dx(), first.Bounds().Dy()
	fps, repeats := frameTiming(interval)

	writer, err := mjpeg.New(outputPath, int32(width), int32(height+labelBandHeight), fps)
	if err != nil {
		return fmt.Errorf("failed to create time-lapse file: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finish time-lapse: %w", closeErr)
		}
	}()

	for i, path := range imagePaths {
		img := first
		if i > 0 {
			if img, err = loadImage(path); err != nil {
				return err
			}
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, captionFrame(img, labels[i], width, height), &jpeg.Options{Quality: 100}); err != nil {
			return fmt.Errorf("failed to encode frame %s: %w", labels[i], err)
		}
		for r := 0; r < repeats; r++ {
			if err := writer.AddFrame(buf.Bytes()); err != nil {
				return fmt.Errorf("failed to add frame %s: %w", labels[i], err)
			}
		}
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// captionFrame draws img on a white canvas of the first frame's size with a
// label band underneath.
func captionFrame(img image.Image, label string, width, height int) image.Image {
	dc := gg.NewContext(width, height+labelBandHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(img, 0, 0)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(label, float64(width)/2, float64(height)+labelBandHeight/2, 0.5, 0.5)
	return dc.Image()
}
