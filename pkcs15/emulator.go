package pkcs15

import (
	"errors"
	"fmt"
	"sync"
)

type EmulatorFlags uint

const (
	// FlagNoCheck skips the emulator's card detection.
	FlagNoCheck EmulatorFlags = 1 << iota
)

type EmulatorOptions struct {
	Flags EmulatorFlags
}

func (o *EmulatorOptions) NoCheck() bool {
	return o != nil && o.Flags&FlagNoCheck != 0
}

// InitFunc builds the PKCS#15 objects of s. It returns ErrWrongCard when the
// card is not one it handles.
type InitFunc func(s *Session, opts *EmulatorOptions) error

type emulator struct {
	name string
	init InitFunc
}

var (
	emulatorsMu sync.RWMutex
	emulators   []emulator
)

// RegisterEmulator adds an emulator. Emulators are tried in registration order.
func RegisterEmulator(name string, init InitFunc) {
	emulatorsMu.Lock()
	defer emulatorsMu.Unlock()

	for _, e := range emulators {
		if e.name == name {
			panic(fmt.Sprintf("pkcs15: RegisterEmulator(%q) duplicate registration", name))
		}
	}

	emulators = append(emulators, emulator{name: name, init: init})
}

func Emulators() []string {
	emulatorsMu.RLock()
	defer emulatorsMu.RUnlock()

	names := make([]string, 0, len(emulators))
	for _, e := range emulators {
		names = append(names, e.name)
	}

	return names
}

func lookupEmulator(name string) (emulator, bool) {
	emulatorsMu.RLock()
	defer emulatorsMu.RUnlock()

	for _, e := range emulators {
		if e.name == name {
			return e, true
		}
	}

	return emulator{}, false
}

// Bind tries every registered emulator on s until one accepts the card and
// returns its name. A failed attempt leaves s reset.
func Bind(s *Session, opts *EmulatorOptions) (string, error) {
	emulatorsMu.RLock()
	candidates := append([]emulator(nil), emulators...)
	emulatorsMu.RUnlock()

	for _, e := range candidates {
		err := bind(s, e, opts)
		if err == nil {
			return e.name, nil
		}

		if !errors.Is(err, ErrWrongCard) {
			return "", fmt.Errorf("%s: %w", e.name, err)
		}

		logger.Debug("emulator declined card", "emulator", e.name)
	}

	return "", ErrWrongCard
}

// BindEmulator runs the named emulator on s.
func BindEmulator(s *Session, name string, opts *EmulatorOptions) error {
	e, ok := lookupEmulator(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEmulator, name)
	}

	return bind(s, e, opts)
}

func bind(s *Session, e emulator, opts *EmulatorOptions) error {
	if err := e.init(s, opts); err != nil {
		s.Reset()
		return err
	}

	s.mu.Lock()
	s.emulator = e.name
	s.mu.Unlock()

	logger.Info("card bound", "emulator", e.name, "serial", s.SerialNumber)

	return nil
}
