package appcontext

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Header carries the encrypted context Zoom passes to embedded apps.
const Header = "x-zoom-app-context"

const tagSize = 16

var (
	ErrMalformedContext = errors.New("app context is malformed")
	ErrDecrypt          = errors.New("app context failed authentication")
	ErrInvalidJSON      = errors.New("app context is not valid JSON")
)

// Sealed is an AES-GCM encrypted app context split into its parts.
type Sealed struct {
	IV         []byte
	AAD        []byte
	CipherText []byte
	Tag        []byte
}

// Key derives the AES-256 key from the app's client secret.
func Key(clientSecret string) []byte {
	sum := sha256.Sum256([]byte(clientSecret))
	return sum[:]
}

// Unpack decodes a header value laid out as
// ivLen(1) | iv | aadLen(2, LE) | aad | cipherLen(4, LE) | cipherText | tag(16).
func Unpack(header string) (*Sealed, error) {
	buf, err := decodeBase64(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContext, err)
	}

	r := reader{buf: buf}
	ivLen, ok := r.uint8()
	if !ok || ivLen == 0 {
		return nil, fmt.Errorf("%w: missing iv", ErrMalformedContext)
	}
	iv, ok := r.bytes(int(ivLen))
	if !ok {
		return nil, fmt.Errorf("%w: truncated iv", ErrMalformedContext)
	}
	aadLen, ok := r.uint16()
	if !ok {
		return nil, fmt.Errorf("%w: missing aad length", ErrMalformedContext)
	}
	aad, ok := r.bytes(int(aadLen))
	if !ok {
		return nil, fmt.Errorf("%w: truncated aad", ErrMalformedContext)
	}
	cipherLen, ok := r.uint32()
	if !ok {
		return nil, fmt.Errorf("%w: missing cipher length", ErrMalformedContext)
	}
	cipherText, ok := r.bytes(int(cipherLen))
	if !ok {
		return nil, fmt.Errorf("%w: truncated cipher text", ErrMalformedContext)
	}
	tag := r.rest()
	if len(tag) != tagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedContext, tagSize, len(tag))
	}

	return &Sealed{IV: iv, AAD: aad, CipherText: cipherText, Tag: tag}, nil
}

// Pack is the inverse of Unpack.
func (s *Sealed) Pack() string {
	buf := make([]byte, 0, 1+len(s.IV)+2+len(s.AAD)+4+len(s.CipherText)+len(s.Tag))
	buf = append(buf, byte(len(s.IV)))
	buf = append(buf, s.IV...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.AAD)))
	buf = append(buf, s.AAD...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.CipherText)))
	buf = append(buf, s.CipherText...)
	buf = append(buf, s.Tag...)
	return base64.StdEncoding.EncodeToString(buf)
}

// Decrypt authenticates and decrypts s. A tag mismatch is ErrDecrypt; a
// plaintext that is not JSON is ErrInvalidJSON.
func Decrypt(s *Sealed, key []byte) (json.RawMessage, error) {
	gcm, err := newGCM(key, len(s.IV))
	if err != nil {
		return nil, err
	}
	if len(s.Tag) != tagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrMalformedContext, tagSize)
	}

	sealed := make([]byte, 0, len(s.CipherText)+len(s.Tag))
	sealed = append(sealed, s.CipherText...)
	sealed = append(sealed, s.Tag...)

	plaintext, err := gcm.Open(nil, s.IV, sealed, s.AAD)
	if err != nil {
		return nil, ErrDecrypt
	}
	if !json.Valid(plaintext) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(plaintext), nil
}

// Encrypt seals plaintext the way Zoom does. Used by tests and tooling.
func Encrypt(plaintext, key, iv, aad []byte) (*Sealed, error) {
	gcm, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}

	out := gcm.Seal(nil, iv, plaintext, aad)
	split := len(out) - tagSize
	return &Sealed{
		IV:         append([]byte(nil), iv...),
		AAD:        append([]byte(nil), aad...),
		CipherText: out[:split],
		Tag:        out[split:],
	}, nil
}

func newGCM(key []byte, ivSize int) (cipher.AEAD, error) {
	if ivSize == 0 {
		return nil, fmt.Errorf("%w: empty iv", ErrMalformedContext)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}

	var firstErr error
	for _, enc := range encodings {
		buf, err := enc.DecodeString(s)
		if err == nil {
			return buf, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, false
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, true
}

func (r *reader) uint8() (uint8, bool) {
	b, ok := r.bytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *reader) uint16() (uint16, bool) {
	b, ok := r.bytes(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (r *reader) uint32() (uint32, bool) {
	b, ok := r.bytes(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (r *reader) rest() []byte {
	return r.buf[r.off:]
}
