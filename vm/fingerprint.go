package vm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// methodImage is the canonical form of a method that Fingerprint hashes.
type methodImage struct {
	Code         []uint32        `cbor:"1,keyasint"`
	Constants    []constantImage `cbor:"2,keyasint"`
	NumRegisters int             `cbor:"3,keyasint"`
}

type constantImage struct {
	Type string `cbor:"1,keyasint"`
	Text string `cbor:"2,keyasint"`
}

// EncodeMethod returns the canonical CBOR encoding of a method's code,
// constants and register count. Two methods with equal encodings behave
// identically.
func EncodeMethod(m *Method) ([]byte, error) {
	img := methodImage{
		Code:         make([]uint32, len(m.Code)),
		Constants:    make([]constantImage, len(m.Constants)),
		NumRegisters: m.NumRegisters,
	}
	for i, ins := range m.Code {
		img.Code[i] = uint32(ins)
	}
	for i, c := range m.Constants {
		img.Constants[i] = constantImage{Type: TypeOf(c).Name, Text: c.String()}
	}
	return cborEncMode.Marshal(img)
}

// Fingerprint returns a hex SHA-256 digest of the method's canonical
// encoding. Native methods fingerprint by signature.
func Fingerprint(m *Method) (string, error) {
	if m.IsNative() {
		sum := sha256.Sum256([]byte("native:" + m.Signature))
		return hex.EncodeToString(sum[:]), nil
	}
	data, err := EncodeMethod(m)
	if err != nil {
		return "", fmt.Errorf("vm: encode method %s: %w", m.Name, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
