package node

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/metrics"
)

// ParseDAC validates operator input for a DAC command. index is a channel
// number or "all"; voltage is a number in range or "random", drawn once per
// channel from draw, which must return values in [0, 1).
func ParseDAC(index, voltage string, draw func() float64) ([]DACSetting, error) {
	errFactory := errors.New()

	index = strings.TrimSpace(index)
	voltage = strings.TrimSpace(voltage)

	var channels []int
	if strings.EqualFold(index, AllDACs) {
		channels = make([]int, metrics.NumDACs)
		for i := range channels {
			channels[i] = i
		}
	} else {
		n, err := strconv.Atoi(index)
		if err != nil || n < 0 || n >= metrics.NumDACs {
			return nil, errFactory.WithMessage(ErrValidation,
				fmt.Sprintf(`DAC number must be 0-%d or "all"`, metrics.NumDACs-1)).WithData(index)
		}
		channels = []int{n}
	}

	random := strings.EqualFold(voltage, RandomVoltage)
	var fixed float64
	if !random {
		v, err := strconv.ParseFloat(voltage, 64)
		if err != nil || math.IsNaN(v) || v < MinDACVoltage || v > MaxDACVoltage {
			return nil, errFactory.WithMessage(ErrValidation,
				fmt.Sprintf(`DAC voltage must be %.1f to %.1f or "random"`, MinDACVoltage, MaxDACVoltage)).WithData(voltage)
		}
		fixed = v
	}

	settings := make([]DACSetting, len(channels))
	for i, ch := range channels {
		v := fixed
		if random {
			v = MinDACVoltage + draw()*(MaxDACVoltage-MinDACVoltage)
		}
		settings[i] = DACSetting{Index: ch, Voltage: v}
	}

	return settings, nil
}

// ParseModule validates a module id typed by the operator.
func ParseModule(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, errors.New().WithMessage(ErrValidation,
			"module id must be a non-negative integer").WithData(s)
	}
	return n, nil
}
