package spooler

import (
	"strconv"

	"github.com/spoolgate/backend/internal/domain/printing"
)

// BuildSubmitArgs returns the lp argument list for a job. The order is fixed:
// destination, copies, color mode, landscape, media, fit-to-page, scaling,
// print quality, and finally the file path.
func BuildSubmitArgs(path, device string, opts printing.PrintOptions) []string {
	args := []string{
		"-d", device,
		"-n", strconv.Itoa(opts.Copies),
	}

	if opts.IsMonochrome() {
		args = append(args, "-o", "ColorMode=Monochrome")
	} else {
		args = append(args, "-o", "ColorMode=Color")
	}

	if opts.IsLandscape() {
		args = append(args, "-o", "landscape")
	}

	if opts.PaperSize != "" {
		args = append(args, "-o", "media="+opts.PaperSize.String())
	}

	if scaling, ok := opts.ScalingPercent(); ok {
		args = append(args, "-o", "fit-to-page")
		if scaling != 100 {
			args = append(args, "-o", "scaling="+strconv.Itoa(scaling))
		}
	}

	args = append(args, "-o", "print-quality="+opts.Quality.Effective().String())

	return append(args, path)
}
