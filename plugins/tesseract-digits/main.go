// Package main provides a digit recognizer plugin.
// It runs the tesseract command line tool over the submitted image and reports
// every numeric word with its position.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Kind   string          `json:"kind"`
	Image  []byte          `json:"image"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Config json.RawMessage `json:"config"`
}

// Reading is one number found in the image.
type Reading struct {
	Value int `json:"value"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Readings []Reading `json:"readings,omitempty"`
}

// Config tunes the tesseract call.
type Config struct {
	PSM           int     `json:"psm"`
	MinConfidence float64 `json:"minConfidence"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}
	if req.Kind != "digits" {
		writeErrorResponse(fmt.Sprintf("unsupported kind: %s", req.Kind))
		return
	}
	if len(req.Image) == 0 {
		writeErrorResponse("empty image")
		return
	}

	cfg := Config{PSM: 6, MinConfidence: 40}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	readings, err := recognize(req.Image, cfg)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Readings: readings})
}

// recognize writes the image to a temp file and parses tesseract's TSV output.
func recognize(png []byte, cfg Config) ([]Reading, error) {
	dir, err := os.MkdirTemp("", "tesseract-digits")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "region.png")
	if err := os.WriteFile(path, png, 0600); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command("tesseract", path, "stdout",
		"--psm", strconv.Itoa(cfg.PSM),
		"-c", "tessedit_char_whitelist=0123456789",
		"tsv")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w: %s", err, stderr.String())
	}
	return parseTSV(stdout.String(), cfg.MinConfidence), nil
}

// parseTSV keeps word-level rows (level 5) whose text is a number.
// Columns: level page block par line word left top width height conf text.
func parseTSV(out string, minConfidence float64) []Reading {
	var readings []Reading
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < minConfidence {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(fields[11]))
		if err != nil {
			continue
		}
		x, _ := strconv.Atoi(fields[6])
		y, _ := strconv.Atoi(fields[7])
		readings = append(readings, Reading{Value: value, X: x, Y: y})
	}
	return readings
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
