package styles

import (
	"errors"
	"fmt"
	"math"
)

// OpKind names an image operation.
type OpKind string

const (
	OpGrayscale OpKind = "grayscale"
	OpNormalize OpKind = "normalize"
	OpSharpen   OpKind = "sharpen"
	OpLinear    OpKind = "linear"
	OpNegate    OpKind = "negate"
	OpBlur      OpKind = "blur"
	OpThreshold OpKind = "threshold"
	OpMedian    OpKind = "median"
	OpModulate  OpKind = "modulate"
)

// Operation is one step of a style pipeline. The set of implementations is
// closed; executors switch on the concrete type.
type Operation interface {
	Kind() OpKind
	Validate() error
	String() string
	operation()
}

var errInvalidParam = errors.New("invalid operation parameter")

// Grayscale converts the image to luminance.
type Grayscale struct{}

// Normalize stretches luminance so the 1st and 99th percentiles span the full range.
type Normalize struct{}

// Negate inverts every color channel.
type Negate struct{}

// Sharpen applies an unsharp mask. M1 and M2 are the flat and jagged area
// gains; zero selects the defaults.
type Sharpen struct {
	Sigma float64
	M1    float64
	M2    float64
}

// Linear maps every channel value v to Slope*v + Intercept, clamped to [0, 255].
type Linear struct {
	Slope     float64
	Intercept float64
}

// Blur applies a gaussian blur.
type Blur struct {
	Sigma float64
}

// Threshold maps pixels whose luminance is at least Level to white, the rest to black.
type Threshold struct {
	Level int
}

// Median replaces each channel value with the median of a Size x Size window.
type Median struct {
	Size int
}

// Modulate scales brightness and saturation and rotates hue by Hue degrees.
type Modulate struct {
	Brightness float64
	Saturation float64
	Hue        float64
}

const (
	DefaultSharpenM1 = 1.0
	DefaultSharpenM2 = 2.0
)

func (Grayscale) Kind() OpKind { return OpGrayscale }
func (Normalize) Kind() OpKind { return OpNormalize }
func (Negate) Kind() OpKind    { return OpNegate }
func (Sharpen) Kind() OpKind   { return OpSharpen }
func (Linear) Kind() OpKind    { return OpLinear }
func (Blur) Kind() OpKind      { return OpBlur }
func (Threshold) Kind() OpKind { return OpThreshold }
func (Median) Kind() OpKind    { return OpMedian }
func (Modulate) Kind() OpKind  { return OpModulate }

func (Grayscale) operation() {}
func (Normalize) operation() {}
func (Negate) operation()    {}
func (Sharpen) operation()   {}
func (Linear) operation()    {}
func (Blur) operation()      {}
func (Threshold) operation() {}
func (Median) operation()    {}
func (Modulate) operation()  {}

func (Grayscale) Validate() error { return nil }
func (Normalize) Validate() error { return nil }
func (Negate) Validate() error    { return nil }

func (s Sharpen) Validate() error {
	if !finite(s.Sigma) || s.Sigma <= 0 || s.Sigma > 10 {
		return fmt.Errorf("%w: sharpen sigma %v outside (0, 10]", errInvalidParam, s.Sigma)
	}
	if s.M1 < 0 || s.M2 < 0 {
		return fmt.Errorf("%w: sharpen gains must not be negative", errInvalidParam)
	}
	return nil
}

// Gains returns M1 and M2 with defaults applied.
func (s Sharpen) Gains() (float64, float64) {
	m1, m2 := s.M1, s.M2
	if m1 == 0 {
		m1 = DefaultSharpenM1
	}
	if m2 == 0 {
		m2 = DefaultSharpenM2
	}
	return m1, m2
}

func (l Linear) Validate() error {
	if !finite(l.Slope) || !finite(l.Intercept) {
		return fmt.Errorf("%w: linear coefficients must be finite", errInvalidParam)
	}
	return nil
}

func (b Blur) Validate() error {
	if !finite(b.Sigma) || b.Sigma < 0.3 || b.Sigma > 1000 {
		return fmt.Errorf("%w: blur sigma %v outside [0.3, 1000]", errInvalidParam, b.Sigma)
	}
	return nil
}

func (t Threshold) Validate() error {
	if t.Level < 0 || t.Level > 255 {
		return fmt.Errorf("%w: threshold %d outside [0, 255]", errInvalidParam, t.Level)
	}
	return nil
}

func (m Median) Validate() error {
	if m.Size < 1 || m.Size > 25 {
		return fmt.Errorf("%w: median size %d outside [1, 25]", errInvalidParam, m.Size)
	}
	return nil
}

func (m Modulate) Validate() error {
	if !finite(m.Brightness) || m.Brightness < 0 {
		return fmt.Errorf("%w: brightness must be a non-negative number", errInvalidParam)
	}
	if !finite(m.Saturation) || m.Saturation < 0 {
		return fmt.Errorf("%w: saturation must be a non-negative number", errInvalidParam)
	}
	if !finite(m.Hue) {
		return fmt.Errorf("%w: hue must be finite", errInvalidParam)
	}
	return nil
}

func (Grayscale) String() string { return "grayscale" }
func (Normalize) String() string { return "normalize" }
func (Negate) String() string    { return "negate" }

func (s Sharpen) String() string {
	if s.M1 == 0 && s.M2 == 0 {
		return fmt.Sprintf("sharpen(sigma=%g)", s.Sigma)
	}
	m1, m2 := s.Gains()
	return fmt.Sprintf("sharpen(sigma=%g, m1=%g, m2=%g)", s.Sigma, m1, m2)
}

func (l Linear) String() string {
	return fmt.Sprintf("linear(slope=%g, intercept=%g)", l.Slope, l.Intercept)
}

func (b Blur) String() string      { return fmt.Sprintf("blur(sigma=%g)", b.Sigma) }
func (t Threshold) String() string { return fmt.Sprintf("threshold(level=%d)", t.Level) }
func (m Median) String() string    { return fmt.Sprintf("median(size=%d)", m.Size) }

func (m Modulate) String() string {
	return fmt.Sprintf("modulate(brightness=%g, saturation=%g, hue=%g)", m.Brightness, m.Saturation, m.Hue)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
