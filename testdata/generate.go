//go:build ignore

// This script generates input files for source and codec testing.
// Run with: go run testdata/generate.go
//
// Requirements: FFmpeg must be installed and available in PATH.
//
// Generated test data structure:
//   testdata/generated/
//   ├── 44100_stereo/
//   │   ├── sine1k.raw    # reference s16le PCM
//   │   ├── sine1k.flac   # lossless copy of the reference
//   │   ├── sine1k.mp3    # lossy copy of the reference
//   │   └── sine1k.json   # layout of the reference
//   ├── 16000_mono/
//   └── ...

package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
)

// InputConfig describes one generated input layout.
type InputConfig struct {
	SampleRate  int `json:"sample_rate"`
	NumChannels int `json:"num_channels"`
	Frames      int `json:"frames"`
}

var configs = []InputConfig{
	{44100, 2, 44100},
	{48000, 2, 48000},
	{44100, 1, 44100},
	{22050, 1, 22050},
	{16000, 1, 16000},
	{8000, 1, 8000},
}

var audioTypes = []string{"silence", "sine1k", "sweep", "noise", "impulse", "speech_like"}

func main() {
	if err := checkFFmpeg(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please install FFmpeg: https://ffmpeg.org/download.html\n")
		os.Exit(1)
	}

	baseDir := filepath.Join("testdata", "generated")
	for _, cfg := range configs {
		dirName := fmt.Sprintf("%d_%s", cfg.SampleRate, channelName(cfg.NumChannels))
		dir := filepath.Join(baseDir, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory %s: %v\n", dir, err)
			continue
		}

		for _, audioType := range audioTypes {
			if err := generateTestCase(dir, audioType, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %s/%s: %v\n", dirName, audioType, err)
			} else {
				fmt.Printf("Generated %s/%s\n", dirName, audioType)
			}
		}
	}

	fmt.Println("\nDone!")
}

func checkFFmpeg() error {
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

func channelName(n int) string {
	if n == 1 {
		return "mono"
	}
	return "stereo"
}

func generateTestCase(dir, audioType string, cfg InputConfig) error {
	rawPath := filepath.Join(dir, audioType+".raw")
	flacPath := filepath.Join(dir, audioType+".flac")
	mp3Path := filepath.Join(dir, audioType+".mp3")
	jsonPath := filepath.Join(dir, audioType+".json")

	if fileExists(rawPath) && fileExists(flacPath) && fileExists(mp3Path) && fileExists(jsonPath) {
		return nil
	}

	if err := writeRaw(rawPath, audioType, cfg); err != nil {
		return fmt.Errorf("writing raw: %w", err)
	}
	if err := transcode(rawPath, flacPath, cfg, "-c:a", "flac", "-sample_fmt", "s16"); err != nil {
		return fmt.Errorf("encoding FLAC: %w", err)
	}
	if err := transcode(rawPath, mp3Path, cfg, "-c:a", "libmp3lame", "-b:a", "128k"); err != nil {
		return fmt.Errorf("encoding MP3: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, data, 0o644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeRaw(path, audioType string, cfg InputConfig) error {
	samples := make([]int16, 0, cfg.Frames*cfg.NumChannels)
	for i := 0; i < cfg.Frames; i++ {
		t := float64(i) / float64(cfg.SampleRate)
		for ch := 0; ch < cfg.NumChannels; ch++ {
			var v float64
			switch audioType {
			case "sine1k":
				v = 0.8 * math.Sin(2*math.Pi*1000*t)
			case "sweep":
				maxFreq := float64(cfg.SampleRate) / 4
				freq := 20 * math.Pow(maxFreq/20, float64(i)/float64(cfg.Frames))
				v = 0.7 * math.Sin(2*math.Pi*freq*t)
			case "noise":
				v = lcg(uint32(i*cfg.NumChannels+ch+12345)) * 0.5
			case "impulse":
				if i%(cfg.SampleRate/10) == 0 {
					v = 0.9
				}
			case "speech_like":
				f0 := 150.0
				v = 0.3*math.Sin(2*math.Pi*f0*t) +
					0.2*math.Sin(2*math.Pi*2*f0*t) +
					0.15*math.Sin(2*math.Pi*3*f0*t) +
					0.1*math.Sin(2*math.Pi*4*f0*t)
				v += lcg(uint32(i*cfg.NumChannels+ch+54321)) * 0.05
				v *= 0.5 + 0.5*math.Sin(2*math.Pi*4*t)
			}

			if ch == 1 {
				v *= 0.95
			}
			samples = append(samples, int16(math.Max(-1, math.Min(1, v))*32767))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// lcg returns deterministic noise in [-1, 1].
func lcg(seed uint32) float64 {
	seed = seed*1103515245 + 12345
	return float64(int32(seed)) / float64(math.MaxInt32)
}

func transcode(rawPath, outPath string, cfg InputConfig, codecArgs ...string) error {
	args := []string{"-y", "-f", "s16le",
		"-ar", fmt.Sprint(cfg.SampleRate),
		"-ac", fmt.Sprint(cfg.NumChannels),
		"-i", rawPath}
	args = append(args, codecArgs...)
	args = append(args, outPath)

	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
