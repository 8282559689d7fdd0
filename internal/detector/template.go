package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// ErrTemplateDirNotFound is returned when a template directory is missing.
var ErrTemplateDirNotFound = errors.New("template directory not found")

// Template is a labelled reference image in BGR channel order.
type Template struct {
	Label string
	Mat   gocv.Mat
}

// Close releases the template pixels.
func (t *Template) Close() error {
	return t.Mat.Close()
}

// Size returns the template width and height.
func (t *Template) Size() (int, int) {
	return t.Mat.Cols(), t.Mat.Rows()
}

// LoadTemplates reads every image file in dir. The file base name without its
// extension becomes the label. Images with an alpha channel are converted to
// BGR and every template is resized by scale. Templates are returned sorted by
// label.
func LoadTemplates(dir string, scale float64) ([]*Template, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateDirNotFound, dir)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrTemplateDirNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		label := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		mat, err := readTemplate(path, scale)
		if err != nil {
			CloseTemplates(templates)
			return nil, err
		}
		templates = append(templates, &Template{Label: label, Mat: mat})
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].Label < templates[j].Label })
	return templates, nil
}

func readTemplate(path string, scale float64) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("failed to decode template %s", path)
	}

	if img.Channels() == 4 {
		bgr := gocv.NewMat()
		gocv.CvtColor(img, &bgr, gocv.ColorBGRAToBGR)
		img.Close()
		img = bgr
	}

	if scale <= 0 || scale == 1 {
		return img, nil
	}
	scaled := gocv.NewMat()
	gocv.Resize(img, &scaled, image.Point{}, scale, scale, gocv.InterpolationLinear)
	img.Close()
	return scaled, nil
}

// CloseTemplates releases a set of templates.
func CloseTemplates(templates []*Template) {
	for _, t := range templates {
		t.Close()
	}
}

// WithPrefix returns the templates whose label starts with prefix.
func WithPrefix(templates []*Template, prefix string) []*Template {
	var out []*Template
	for _, t := range templates {
		if strings.HasPrefix(t.Label, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// WithSuffix returns the templates whose label ends with suffix.
func WithSuffix(templates []*Template, suffix string) []*Template {
	var out []*Template
	for _, t := range templates {
		if strings.HasSuffix(t.Label, suffix) {
			out = append(out, t)
		}
	}
	return out
}
