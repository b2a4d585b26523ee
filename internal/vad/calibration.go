package vad

// Mode selects calibration length.
type Mode int

const (
	// CalibFull is used at listening start.
	CalibFull Mode = iota
	// CalibQuick is used when resuming after a machine utterance.
	CalibQuick
)

func (m Mode) String() string {
	if m == CalibQuick {
		return "quick"
	}
	return "full"
}

// calibration accumulates ambient energy samples and derives the noise
// floor. Samples far outside the running ambient band are treated as
// outliers (door slam, keyboard hit) and skipped. If outliers dominate
// for too long, calibration completes with whatever was collected rather
// than blocking the session.
type calibration struct {
	mode          Mode
	target        int
	outlierFactor float64
	minFloor      float64

	sum      float64
	accepted int
	seen     int
}

// warmup samples are accepted unconditionally so the running mean has a
// basis before outlier rejection kicks in.
const calibWarmup = 5

func newCalibration(mode Mode, target int, outlierFactor, minFloor float64) *calibration {
	if target < 1 {
		target = 1
	}
	return &calibration{mode: mode, target: target, outlierFactor: outlierFactor, minFloor: minFloor}
}

// add consumes one sample and reports whether calibration is complete.
func (c *calibration) add(avg float64) bool {
	c.seen++
	if c.accept(avg) {
		c.sum += avg
		c.accepted++
	}
	if c.accepted >= c.target {
		return true
	}
	// Give up waiting for clean ambient audio after 3x the target; the
	// minimum floor covers the degenerate case.
	return c.seen >= c.target*3
}

func (c *calibration) accept(avg float64) bool {
	if c.accepted < calibWarmup {
		return true
	}
	mean := c.sum / float64(c.accepted)
	if mean <= 0 {
		return true
	}
	return avg <= mean*c.outlierFactor
}

// floor returns the calibrated noise floor, never below the configured
// minimum (a zero threshold in a silent room would classify everything
// as speech).
func (c *calibration) floor() float64 {
	if c.accepted == 0 {
		return c.minFloor
	}
	mean := c.sum / float64(c.accepted)
	if mean < c.minFloor {
		return c.minFloor
	}
	return mean
}
