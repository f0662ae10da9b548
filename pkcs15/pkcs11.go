package pkcs15

import (
	"encoding/asn1"
	"fmt"
	"io"

	"github.com/cardemu/actalis-go/types"
	"github.com/miekg/pkcs11"
)

const (
	certificateCategoryUser      = 1
	certificateCategoryAuthority = 2
)

// CertificateTemplate describes cert as a PKCS#11 certificate object.
func CertificateTemplate(cert *types.Certificate) []*pkcs11.Attribute {
	category := certificateCategoryUser
	if cert.Authority {
		category = certificateCategoryAuthority
	}

	attrs := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_CERTIFICATE),
		pkcs11.NewAttribute(pkcs11.CKA_CERTIFICATE_TYPE, pkcs11.CKC_X_509),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, cert.Flags&types.FlagPrivate != 0),
		pkcs11.NewAttribute(pkcs11.CKA_MODIFIABLE, cert.Flags&types.FlagModifiable != 0),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, cert.Label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, []byte(cert.ID)),
		pkcs11.NewAttribute(pkcs11.CKA_CERTIFICATE_CATEGORY, category),
		pkcs11.NewAttribute(pkcs11.CKA_VALUE, cert.Value),
	}

	if x, err := cert.X509(); err == nil {
		attrs = append(attrs,
			pkcs11.NewAttribute(pkcs11.CKA_SUBJECT, x.RawSubject),
			pkcs11.NewAttribute(pkcs11.CKA_ISSUER, x.RawIssuer),
		)
		if serial, err := asn1.Marshal(x.SerialNumber); err == nil {
			attrs = append(attrs, pkcs11.NewAttribute(pkcs11.CKA_SERIAL_NUMBER, serial))
		}
	}

	return attrs
}

// PrivateKeyTemplate describes key as a PKCS#11 private key object. Usage
// bits without a private key counterpart (encrypt, verify) are dropped.
func PrivateKeyTemplate(key *types.PrivateKey) []*pkcs11.Attribute {
	keyType := pkcs11.CKK_RSA
	if key.Type == types.KeyTypeEC {
		keyType = pkcs11.CKK_EC
	}

	attrs := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, keyType),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, key.Flags&types.FlagPrivate != 0),
		pkcs11.NewAttribute(pkcs11.CKA_MODIFIABLE, key.Flags&types.FlagModifiable != 0),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, key.Label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, []byte(key.ID)),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, key.Usage&(types.UsageSign|types.UsageNonRepudiation) != 0),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN_RECOVER, key.Usage&types.UsageSignRecover != 0),
		pkcs11.NewAttribute(pkcs11.CKA_DECRYPT, key.Usage&types.UsageDecrypt != 0),
		pkcs11.NewAttribute(pkcs11.CKA_UNWRAP, key.Usage&types.UsageUnwrap != 0),
		pkcs11.NewAttribute(pkcs11.CKA_DERIVE, key.Usage&types.UsageDerive != 0),
	}

	if key.Type == types.KeyTypeRSA && key.ModulusBits > 0 {
		attrs = append(attrs, pkcs11.NewAttribute(pkcs11.CKA_MODULUS_BITS, key.ModulusBits))
	}

	return attrs
}

// Templates returns the PKCS#11 templates of every certificate and private
// key registered in s.
func (s *Session) Templates() [][]*pkcs11.Attribute {
	var out [][]*pkcs11.Attribute
	for _, c := range s.Certificates() {
		out = append(out, CertificateTemplate(c))
	}
	for _, k := range s.PrivateKeys() {
		out = append(out, PrivateKeyTemplate(k))
	}

	return out
}

var attributeNames = map[uint]string{
	pkcs11.CKA_CLASS:                "CKA_CLASS",
	pkcs11.CKA_TOKEN:                "CKA_TOKEN",
	pkcs11.CKA_PRIVATE:              "CKA_PRIVATE",
	pkcs11.CKA_LABEL:                "CKA_LABEL",
	pkcs11.CKA_VALUE:                "CKA_VALUE",
	pkcs11.CKA_CERTIFICATE_TYPE:     "CKA_CERTIFICATE_TYPE",
	pkcs11.CKA_ISSUER:               "CKA_ISSUER",
	pkcs11.CKA_SERIAL_NUMBER:        "CKA_SERIAL_NUMBER",
	pkcs11.CKA_CERTIFICATE_CATEGORY: "CKA_CERTIFICATE_CATEGORY",
	pkcs11.CKA_KEY_TYPE:             "CKA_KEY_TYPE",
	pkcs11.CKA_SUBJECT:              "CKA_SUBJECT",
	pkcs11.CKA_ID:                   "CKA_ID",
	pkcs11.CKA_SENSITIVE:            "CKA_SENSITIVE",
	pkcs11.CKA_DECRYPT:              "CKA_DECRYPT",
	pkcs11.CKA_UNWRAP:               "CKA_UNWRAP",
	pkcs11.CKA_SIGN:                 "CKA_SIGN",
	pkcs11.CKA_SIGN_RECOVER:         "CKA_SIGN_RECOVER",
	pkcs11.CKA_DERIVE:               "CKA_DERIVE",
	pkcs11.CKA_MODULUS_BITS:         "CKA_MODULUS_BITS",
	pkcs11.CKA_EXTRACTABLE:          "CKA_EXTRACTABLE",
	pkcs11.CKA_MODIFIABLE:           "CKA_MODIFIABLE",
}

// WriteTemplate writes attrs to w, one NAME=VALUE line per attribute. Labels
// are quoted, other values are hex encoded.
func WriteTemplate(w io.Writer, attrs []*pkcs11.Attribute) error {
	for _, a := range attrs {
		name, ok := attributeNames[a.Type]
		if !ok {
			name = fmt.Sprintf("CKA_%#x", a.Type)
		}

		var err error
		if a.Type == pkcs11.CKA_LABEL {
			_, err = fmt.Fprintf(w, "%s=%q\n", name, a.Value)
		} else {
			_, err = fmt.Fprintf(w, "%s=%X\n", name, a.Value)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
