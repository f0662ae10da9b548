package main

import (
	"bufio"
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	actalis "github.com/cardemu/actalis-go"
	"github.com/cardemu/actalis-go/card"
	"github.com/cardemu/actalis-go/pkcs15"
	"github.com/cardemu/actalis-go/types"
	"github.com/ebfe/scard"
	"github.com/spf13/cobra"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "List PC/SC readers and the cards inserted in them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, err := scard.EstablishContext()
		if err != nil {
			return err
		}
		defer ctx.Release()

		readers, err := ctx.ListReaders()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range readers {
			name := "no card"
			if c, err := ctx.Connect(r, scard.ShareShared, scard.ProtocolAny); err == nil {
				if status, err := c.Status(); err == nil {
					name = fmt.Sprintf("%s (ATR %X)", card.Identify(status.Atr), status.Atr)
				}
				_ = c.Disconnect(scard.LeaveCard)
			}
			fmt.Fprintf(out, "%s: %s\n", r, name)
		}

		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the emulated PKCS#15 objects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		format := pkcs15.Format(strings.ToLower(cfg.Format))
		data, err := conn.session.Snapshot().Marshal(format)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the PKCS#11 attribute templates of the emulated objects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		out := cmd.OutOrStdout()
		for i, tpl := range conn.session.Templates() {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := pkcs15.WriteTemplate(out, tpl); err != nil {
				return err
			}
		}

		return nil
	},
}

var (
	certID  uint8
	certOut string
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Export a certificate as PEM",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		cert, err := conn.session.Certificate(types.ID{certID})
		if err != nil {
			return err
		}

		data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Value})
		if certOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		return os.WriteFile(certOut, data, 0o644)
	},
}

var (
	signPIN string
	signIn  string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign the SHA-256 digest of a file with the authentication key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		msg, err := os.ReadFile(signIn)
		if err != nil {
			return err
		}

		conn, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		pin := signPIN
		if pin == "" {
			if pin, err = ask("Authentication PIN"); err != nil {
				return err
			}
		}

		signer, err := actalis.NewSigner(conn.session, []byte(pin))
		if err != nil {
			return err
		}

		digest := sha256.Sum256(msg)
		sig, err := signer.Sign(nil, digest[:], crypto.SHA256)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sig))
		return nil
	},
}

func init() {
	dumpCmd.Flags().String("format", string(pkcs15.FormatJSON), "output format (json, yaml, cbor)")

	certCmd.Flags().Uint8Var(&certID, "id", 1, "certificate id (1 user, 2 TSCA, 3 CA)")
	certCmd.Flags().StringVar(&certOut, "out", "", "output file (default stdout)")

	signCmd.Flags().StringVar(&signPIN, "pin", "", "authentication PIN (asked when empty)")
	signCmd.Flags().StringVar(&signIn, "in", "", "file to sign")
	_ = signCmd.MarkFlagRequired("in")
}

func ask(description string) (string, error) {
	r := bufio.NewReader(os.Stdin)
	fmt.Fprintf(os.Stderr, "%s: ", description)
	text, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}
