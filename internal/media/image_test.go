package media

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a gradient image of the given size and format.
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"Small JPEG", 100, 100, "jpeg"},
		{"Wide PNG", 300, 120, "png"},
		{"Tall JPEG", 90, 400, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, path, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions failed: %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, dims.Width, dims.Height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(tmpDir, "missing.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}

	bogus := filepath.Join(tmpDir, "bogus.jpg")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := GetImageDimensions(bogus); err == nil {
		t.Error("Expected error for invalid image data")
	}
}

func TestConstrainedSize(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		maxDim      int
		maxPixels   int
		wantW       int
		wantH       int
		constrained bool
	}{
		{"within limits", 800, 600, 1000, 1_000_000, 800, 600, false},
		{"wide over dimension", 2000, 1000, 1000, 10_000_000, 1000, 500, true},
		{"tall over dimension", 1000, 4000, 1000, 10_000_000, 250, 1000, true},
		{"over pixel budget", 1000, 1000, 1000, 250_000, 500, 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, c := constrainedSize(tt.w, tt.h, tt.maxDim, tt.maxPixels)
			if w != tt.wantW || h != tt.wantH || c != tt.constrained {
				t.Errorf("Expected %dx%d (%v), got %dx%d (%v)", tt.wantW, tt.wantH, tt.constrained, w, h, c)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "big.png")
	createTestImage(t, path, 400, 200, "png")

	img, err := LoadImageConstrained(path, 100, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}

	img, err = LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("Expected original size, got %dx%d", b.Dx(), b.Dy())
	}

	if _, err := LoadImageConstrained(filepath.Join(tmpDir, "none.png"), 100, 100); err == nil {
		t.Error("Expected error for missing file")
	}
}

func BenchmarkLoadImageConstrained(b *testing.B) {
	tmpDir := b.TempDir()
	path := filepath.Join(tmpDir, "bench.jpg")
	img := image.NewNRGBA(image.Rect(0, 0, 2000, 1500))
	f, err := os.Create(path)
	if err != nil {
		b.Fatal(err)
	}
	if err := jpeg.Encode(f, img, nil); err != nil {
		b.Fatal(err)
	}
	f.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadImageConstrained(path, 1024, MaxImagePixels); err != nil {
			b.Fatal(err)
		}
	}
}
