package actalis

import (
	"fmt"

	"github.com/cardemu/actalis-go/inflate"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
	"golang.org/x/crypto/cryptobyte"
)

const (
	certHeaderOffset = 2
	certHeaderLength = 2
	certBodyOffset   = 4
)

type certificateFile struct {
	path  types.Path
	label string
}

// certificateFiles lists the certificate files in ID order. The first one
// holds the end-user certificate, the others its issuers.
var certificateFiles = []certificateFile{
	{types.MustParsePath("3F00300060006002"), "User Non-repudiation Certificate"},
	{types.MustParsePath("3F00300060006003"), "TSCA Certificate"},
	{types.MustParsePath("3F00300060006004"), "CA Certificate"},
}

func (e *Emulator) loadCertificates(s *pkcs15.Session) error {
	for i, f := range certificateFiles {
		value, err := e.readCertificate(s, f.path)
		if err != nil {
			return err
		}

		path := f.path
		path.Index = 0
		path.Count = len(value)
		s.CacheFile(path, value)

		cert := &types.Certificate{
			ID:        types.ID{byte(i + 1)},
			Label:     f.label,
			Path:      path,
			Authority: i > 0,
			Flags:     types.FlagModifiable,
			Value:     value,
		}
		if err := s.AddCertificate(cert); err != nil {
			return err
		}

		logger.Debug("certificate loaded", "id", cert.ID, "path", path, "size", len(value))
	}

	return nil
}

// readCertificate reads the zlib compressed certificate stored in the file
// at path. The file starts with a 2 byte big-endian length at offset 2,
// followed by the compressed body.
func (e *Emulator) readCertificate(s *pkcs15.Session, path types.Path) ([]byte, error) {
	if _, err := s.Card.SelectFile(path); err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", pkcs15.ErrWrongCard, path, err)
	}

	header, err := s.Card.ReadBinary(certHeaderOffset, certHeaderLength)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s header: %w", pkcs15.ErrInternal, path, err)
	}

	var compLen uint16
	in := cryptobyte.String(header)
	if !in.ReadUint16(&compLen) {
		return nil, fmt.Errorf("%w: short %s header", pkcs15.ErrInternal, path)
	}

	compressed, err := s.Card.ReadBinary(certBodyOffset, int(compLen))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", pkcs15.ErrInternal, path, err)
	}

	value, err := inflate.Inflate(compressed, e.config.MaxCertificateSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pkcs15.ErrInternal, path, err)
	}

	return value, nil
}
