package main

import (
	"errors"
	"fmt"

	actalis "github.com/cardemu/actalis-go"
	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/iso7816"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/ebfe/scard"
)

var (
	errNoReader       = errors.New("couldn't find any reader")
	errTooManyReaders = errors.New("too many readers found, select one with --reader")
)

type connection struct {
	ctx     *scard.Context
	card    *scard.Card
	session *pkcs15.Session
}

// connect opens the configured reader and binds an emulator to its card.
func connect() (*connection, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}

	conn := &connection{ctx: ctx}
	if err := conn.open(); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (c *connection) open() error {
	reader, err := c.selectReader()
	if err != nil {
		return err
	}

	logger.Debug("connecting to card", "reader", reader)
	c.card, err = c.ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return fmt.Errorf("connect %s: %w", reader, err)
	}

	status, err := c.card.Status()
	if err != nil {
		return fmt.Errorf("card status: %w", err)
	}

	cos := card.NewCardOS(iso7816.NewTransmitChannel(c.card), status.Atr)
	logger.Debug("card connected", "atr", fmt.Sprintf("%X", status.Atr), "os", cos.Name())

	c.session = pkcs15.NewSession(cos)

	if cfg.NoCheck {
		opts := &pkcs15.EmulatorOptions{Flags: pkcs15.FlagNoCheck}
		return pkcs15.BindEmulator(c.session, actalis.EmulatorName, opts)
	}

	_, err = pkcs15.Bind(c.session, nil)
	return err
}

func (c *connection) selectReader() (string, error) {
	readers, err := c.ctx.ListReaders()
	if err != nil {
		return "", fmt.Errorf("list readers: %w", err)
	}

	if cfg.Reader != "" {
		for _, r := range readers {
			if r == cfg.Reader {
				return r, nil
			}
		}
		return "", fmt.Errorf("reader %q not found", cfg.Reader)
	}

	switch len(readers) {
	case 0:
		return "", errNoReader
	case 1:
		return readers[0], nil
	default:
		return "", errTooManyReaders
	}
}

func (c *connection) Close() {
	if c.session != nil {
		_ = c.session.Close()
	}

	if c.card != nil {
		if err := c.card.Disconnect(scard.LeaveCard); err != nil {
			logger.Error("error disconnecting card", "error", err)
		}
	}

	if err := c.ctx.Release(); err != nil {
		logger.Error("error releasing context", "error", err)
	}
}
