package detector

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/plugin"
)

// PluginNumberRecognizer reads numbers with an external recognizer plugin.
type PluginNumberRecognizer struct {
	executor *plugin.Executor
	plugin   *plugin.Plugin
}

// NewPluginNumberRecognizer creates a recognizer that sends images to p.
func NewPluginNumberRecognizer(executor *plugin.Executor, p *plugin.Plugin) *PluginNumberRecognizer {
	return &PluginNumberRecognizer{executor: executor, plugin: p}
}

// Numbers encodes img as PNG and returns the plugin's readings.
func (r *PluginNumberRecognizer) Numbers(ctx context.Context, img gocv.Mat) ([]Number, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	defer buf.Close()

	resp, err := r.executor.Execute(ctx, r.plugin, &plugin.Request{
		Kind:   plugin.KindDigits,
		Image:  buf.GetBytes(),
		Width:  img.Cols(),
		Height: img.Rows(),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("plugin %s refused the image: %s", r.plugin.Manifest.Name, resp.Error)
	}

	numbers := make([]Number, len(resp.Readings))
	for i, reading := range resp.Readings {
		numbers[i] = Number{Value: reading.Value, Point: hud.Point{X: reading.X, Y: reading.Y}}
	}
	return numbers, nil
}
