// Package signal drives the binary attention output (an LED or relay on the kiosk).
package signal

import (
	"fmt"
	"sync"

	"kiosk/internal/logger"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOSignal drives a GPIO pin high while attention is present.
type GPIOSignal struct {
	pin    gpio.PinOut
	level  gpio.Level
	mu     sync.Mutex
	logger *logger.Logger
}

// NewGPIOSignal initialises the host drivers and claims the named pin, driving it low.
func NewGPIOSignal(pinName string, logger *logger.Logger) (*GPIOSignal, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GPIO host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("GPIO pin %s not found", pinName)
	}

	return newGPIOSignal(pin, logger)
}

func newGPIOSignal(pin gpio.PinOut, logger *logger.Logger) (*GPIOSignal, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to drive %s low: %w", pin.Name(), err)
	}
	logger.Info("Attention signal on %s", pin.Name())
	return &GPIOSignal{pin: pin, level: gpio.Low, logger: logger}, nil
}

// Set drives the pin high when on is true and low otherwise.
func (s *GPIOSignal) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	level := gpio.Level(on)
	if level == s.level {
		return nil
	}
	if err := s.pin.Out(level); err != nil {
		return fmt.Errorf("failed to set %s %s: %w", s.pin.Name(), level, err)
	}
	s.level = level
	return nil
}

// Close drives the pin low.
func (s *GPIOSignal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = gpio.Low
	return s.pin.Out(gpio.Low)
}

// LogSignal records attention transitions in the log instead of driving hardware.
type LogSignal struct {
	on     bool
	mu     sync.Mutex
	logger *logger.Logger
}

func NewLogSignal(logger *logger.Logger) *LogSignal {
	return &LogSignal{logger: logger}
}

func (s *LogSignal) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on == s.on {
		return nil
	}
	s.on = on
	if on {
		s.logger.Info("Attention signal ON")
	} else {
		s.logger.Info("Attention signal OFF")
	}
	return nil
}

// On reports the last value passed to Set.
func (s *LogSignal) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

func (s *LogSignal) Close() error {
	return s.Set(false)
}
