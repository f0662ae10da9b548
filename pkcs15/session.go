package pkcs15

import (
	"fmt"
	"sync"

	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/types"
	"github.com/ethereum/go-ethereum/log"
)

var logger = log.New("package", "actalis/pkcs15")

// Session is the PKCS#15 view of one connected card: its identity, the
// registered objects and a cache of file contents keyed by path.
type Session struct {
	types.CardIdentity

	Card card.Card

	// Signer services signature requests. It is the card itself unless an
	// emulator installed a replacement for this session.
	Signer card.Signer

	// UseCache serves ReadFile from cached contents when available.
	UseCache bool

	mu       sync.RWMutex
	certs    []*types.Certificate
	pins     []*types.Pin
	keys     []*types.PrivateKey
	cache    map[string][]byte
	emulator string
}

func NewSession(c card.Card) *Session {
	return &Session{
		Card:   c,
		Signer: c,
		cache:  make(map[string][]byte),
	}
}

func (s *Session) AddCertificate(cert *types.Certificate) error {
	if len(cert.ID) == 0 {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.certs {
		if c.ID.Equal(cert.ID) {
			return fmt.Errorf("%w: certificate %s", ErrDuplicateID, cert.ID)
		}
	}

	s.certs = append(s.certs, cert)
	logger.Debug("certificate added", "id", cert.ID, "label", cert.Label, "authority", cert.Authority)

	return nil
}

func (s *Session) AddPin(pin *types.Pin) error {
	if len(pin.ID) == 0 {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pins {
		if p.ID.Equal(pin.ID) {
			return fmt.Errorf("%w: pin %s", ErrDuplicateID, pin.ID)
		}
	}

	s.pins = append(s.pins, pin)
	logger.Debug("pin added", "id", pin.ID, "label", pin.Label, "reference", pin.Reference)

	return nil
}

// AddPrivateKey registers key. The key's AuthID must name a registered PIN.
func (s *Session) AddPrivateKey(key *types.PrivateKey) error {
	if len(key.ID) == 0 {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.keys {
		if k.ID.Equal(key.ID) {
			return fmt.Errorf("%w: private key %s", ErrDuplicateID, key.ID)
		}
	}

	if len(key.AuthID) > 0 && s.findPin(key.AuthID) == nil {
		return fmt.Errorf("%w: %s", ErrAuthObjectNotFound, key.AuthID)
	}

	s.keys = append(s.keys, key)
	logger.Debug("private key added", "id", key.ID, "label", key.Label, "auth", key.AuthID)

	return nil
}

func (s *Session) Certificates() []*types.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*types.Certificate(nil), s.certs...)
}

func (s *Session) Pins() []*types.Pin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*types.Pin(nil), s.pins...)
}

func (s *Session) PrivateKeys() []*types.PrivateKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*types.PrivateKey(nil), s.keys...)
}

func (s *Session) Certificate(id types.ID) (*types.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.certs {
		if c.ID.Equal(id) {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: certificate %s", ErrObjectNotFound, id)
}

func (s *Session) Pin(id types.ID) (*types.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.findPin(id); p != nil {
		return p, nil
	}

	return nil, fmt.Errorf("%w: pin %s", ErrObjectNotFound, id)
}

func (s *Session) PrivateKey(id types.ID) (*types.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.keys {
		if k.ID.Equal(id) {
			return k, nil
		}
	}

	return nil, fmt.Errorf("%w: private key %s", ErrObjectNotFound, id)
}

func (s *Session) findPin(id types.ID) *types.Pin {
	for _, p := range s.pins {
		if p.ID.Equal(id) {
			return p
		}
	}

	return nil
}

// CacheFile stores the contents of the file at path.
func (s *Session) CacheFile(path types.Path, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[path.Key()] = data
}

func (s *Session) cached(path types.Path) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.cache[path.Key()]
	return data, ok
}

// ReadFile returns the span of the file addressed by path. Cached contents
// are served from memory when UseCache is set; otherwise the file is selected
// and read from the card.
func (s *Session) ReadFile(path types.Path) ([]byte, error) {
	if s.UseCache {
		if data, ok := s.cached(path); ok {
			logger.Trace("file served from cache", "path", path)
			return span(data, path)
		}
	}

	f, err := s.Card.SelectFile(path)
	if err != nil {
		return nil, err
	}

	size := f.Size
	if size == 0 {
		if path.Count == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFileSize, path)
		}
		size = path.Index + path.Count
	}

	data, err := s.Card.ReadBinary(0, size)
	if err != nil {
		return nil, err
	}

	if s.UseCache {
		s.CacheFile(path, data)
	}

	return span(data, path)
}

func span(data []byte, path types.Path) ([]byte, error) {
	if path.Index > len(data) {
		return nil, fmt.Errorf("%w: index %d beyond %d bytes", card.ErrInvalidOffset, path.Index, len(data))
	}

	end := len(data)
	if path.Count > 0 && path.Index+path.Count < end {
		end = path.Index + path.Count
	}

	return append([]byte(nil), data[path.Index:end]...), nil
}

// Emulator returns the name of the emulator bound to the session, if any.
func (s *Session) Emulator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emulator
}

// Clear drops the identity, every registered object and cached file. The
// session signer is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
}

// Reset clears the session and restores the card's native signer.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.Signer = s.Card
}

func (s *Session) clear() {
	s.CardIdentity = types.CardIdentity{}
	s.UseCache = false
	s.certs = nil
	s.pins = nil
	s.keys = nil
	s.cache = make(map[string][]byte)
	s.emulator = ""
}

func (s *Session) Close() error {
	s.Reset()
	return nil
}
