package capture

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
)

// HSVRange is an inclusive HSV color range in OpenCV units (H 0-180).
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

// LifeBarYellow matches the filled part of a life bar.
var LifeBarYellow = HSVRange{
	Lower: [3]float64{20, 100, 100},
	Upper: [3]float64{40, 255, 255},
}

// FillRatio returns the share of pixels in r whose color falls in the HSV
// range, between 0 and 1.
//
// Algorithm:
// 1. Crop the region
// 2. Convert to HSV
// 3. Mask pixels inside the range
// 4. Count non-zero pixels / total pixels
func FillRatio(frame *Frame, r hud.Region, rng HSVRange) (float64, error) {
	region, err := frame.Crop(r)
	if err != nil {
		region.Close()
		return 0, err
	}
	defer region.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	lower := gocv.NewScalar(rng.Lower[0], rng.Lower[1], rng.Lower[2], 0)
	upper := gocv.NewScalar(rng.Upper[0], rng.Upper[1], rng.Upper[2], 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0, nil
	}
	return float64(gocv.CountNonZero(mask)) / float64(total), nil
}

// BrightRatio returns the share of pixels in r brighter than level once
// converted to grayscale.
func BrightRatio(frame *Frame, r hud.Region, level float32) (float64, error) {
	region, err := frame.Crop(r)
	if err != nil {
		region.Close()
		return 0, err
	}
	defer region.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, level, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	if total == 0 {
		return 0, nil
	}
	return float64(gocv.CountNonZero(thresh)) / float64(total), nil
}
