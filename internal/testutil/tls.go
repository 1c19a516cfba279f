package testutil

import (
	"crypto/x509"
	"encoding/pem"
)

// CertPEM encodes a certificate, e.g. httptest.Server.Certificate(), as PEM.
func CertPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}
