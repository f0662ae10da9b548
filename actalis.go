// Package actalis emulates a PKCS#15 structure for Actalis smart cards
// running CardOS M4. The cards carry no PKCS#15 directory; certificates are
// read from fixed files and the signing path is serviced by the card's
// decipher operation.
package actalis

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
	"github.com/ethereum/go-ethereum/log"
)

const (
	EmulatorName = "actalis"

	cardLabel    = "Actalis"
	manufacturer = "Actalis"

	DefaultMaxCertificateSize = 64 * 1024
)

var logger = log.New("package", "actalis")

var ErrInvalidConfig = errors.New("actalis: invalid config")

type Config struct {
	// MaxCertificateSize bounds the decompressed size of each certificate.
	MaxCertificateSize int `yaml:"max-certificate-size" mapstructure:"max-certificate-size"`
}

func (c *Config) SetDefaults() {
	if c.MaxCertificateSize == 0 {
		c.MaxCertificateSize = DefaultMaxCertificateSize
	}
}

func (c *Config) Validate() error {
	if c.MaxCertificateSize <= 0 {
		return fmt.Errorf("%w: max certificate size %d", ErrInvalidConfig, c.MaxCertificateSize)
	}

	return nil
}

// Emulator builds the Actalis object model on a session.
type Emulator struct {
	config Config
}

func NewEmulator(cfg Config) (*Emulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Emulator{config: cfg}, nil
}

var (
	defaultMu       sync.RWMutex
	defaultEmulator = &Emulator{config: Config{MaxCertificateSize: DefaultMaxCertificateSize}}
)

func init() {
	pkcs15.RegisterEmulator(EmulatorName, Init)
}

// Configure replaces the configuration used by the registered emulator.
func Configure(cfg Config) error {
	e, err := NewEmulator(cfg)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defaultEmulator = e
	defaultMu.Unlock()

	return nil
}

// Init is the pkcs15.InitFunc registered as "actalis".
func Init(s *pkcs15.Session, opts *pkcs15.EmulatorOptions) error {
	defaultMu.RLock()
	e := defaultEmulator
	defaultMu.RUnlock()

	return e.Init(s, opts)
}

// Init validates the card behind s and registers its certificates, PIN and
// private key. On success the session signer services sign requests through
// the card's decipher operation.
func (e *Emulator) Init(s *pkcs15.Session, opts *pkcs15.EmulatorOptions) (err error) {
	if !opts.NoCheck() {
		if err := detectCard(s); err != nil {
			return err
		}
	}

	s.Clear()
	defer func() {
		if err != nil {
			s.Reset()
		}
	}()

	s.UseCache = true

	serial, err := readSerial(s.Card)
	if err != nil {
		return err
	}

	s.Label = cardLabel
	s.ManufacturerID = manufacturer
	s.SerialNumber = serial

	if err := e.loadCertificates(s); err != nil {
		return err
	}

	if err := addCredentials(s); err != nil {
		return err
	}

	mf := types.Path{Value: types.MasterFile, Type: types.PathTypePath}
	if _, err := s.Card.SelectFile(mf); err != nil {
		logger.Warn("select MF failed", "error", err)
	}

	installSigner(s)

	logger.Debug("card initialized", "serial", serial, "certificates", len(s.Certificates()))

	return nil
}
