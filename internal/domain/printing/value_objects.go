package printing

import (
	"fmt"

	"github.com/spoolgate/backend/internal/domain/shared"
)

// Scaling bounds in percent
const (
	MinScalingPercent = 25
	MaxScalingPercent = 200
)

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Validate checks that no margin is negative
func (m Margins) Validate() error {
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return shared.NewDomainError(CodeValidation, "Margins cannot be negative")
	}
	return nil
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m.Top == 0 && m.Right == 0 && m.Bottom == 0 && m.Left == 0
}

// PrintOptions is the immutable set of parameters a job is submitted with.
// Scaling and Margins are nil when unset.
type PrintOptions struct {
	Copies      int         `json:"copies"`
	ColorMode   ColorMode   `json:"color"`
	PaperSize   PaperSize   `json:"paperSize"`
	Orientation Orientation `json:"orientation"`
	Scaling     *int        `json:"scaling,omitempty"`
	Quality     Quality     `json:"quality,omitempty"`
	Margins     *Margins    `json:"margins,omitempty"`
}

// Validate checks every field and returns the first violation as a VALIDATION_ERROR
func (o PrintOptions) Validate() error {
	if o.Copies < 1 {
		return NewValidationError("copies must be at least 1")
	}
	if o.ColorMode != "" && !o.ColorMode.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid color mode %q", o.ColorMode))
	}
	if o.Orientation != "" && !o.Orientation.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid orientation %q", o.Orientation))
	}
	if o.PaperSize != "" && !o.PaperSize.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid paper size %q, common sizes are %s", o.PaperSize, commonPaperSizes()))
	}
	if o.Scaling != nil && (*o.Scaling < MinScalingPercent || *o.Scaling > MaxScalingPercent) {
		return NewValidationError(fmt.Sprintf("scaling must be between %d and %d percent", MinScalingPercent, MaxScalingPercent))
	}
	if !o.Quality.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid quality %q", o.Quality))
	}
	if o.Margins != nil {
		if err := o.Margins.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsMonochrome reports whether monochrome output was explicitly requested
func (o PrintOptions) IsMonochrome() bool {
	return o.ColorMode == ColorModeMonochrome
}

// IsLandscape reports whether landscape orientation was requested
func (o PrintOptions) IsLandscape() bool {
	return o.Orientation == OrientationLandscape
}

// ScalingPercent returns the scaling value and whether it was set
func (o PrintOptions) ScalingPercent() (int, bool) {
	if o.Scaling == nil {
		return 0, false
	}
	return *o.Scaling, true
}
