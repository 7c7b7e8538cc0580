// Package envelope contains authenticated encryption of claim documents at rest.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/avelichko/ssi-sim/internal/errs"
)

// Params
const (
	KeyLen   = 32
	NonceLen = 12
	TagLen   = 16
)

// Envelope is the stored form of sealed claims: three base64 strings.
type Envelope struct {
	IV      string `json:"iv"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

// valid reports whether all three envelope fields are present.
func (e Envelope) valid() bool {
	return e.IV != "" && e.Content != "" && e.Tag != ""
}

// Codec seals and opens claim documents under a key derived once at startup.
// Safe for concurrent use; the key is read-only after construction.
type Codec struct {
	aead cipher.AEAD
}

// New derives a 256-bit key from secret via HKDF-SHA256 and prepares AES-GCM.
func New(secret []byte) (*Codec, error) {
	key := make([]byte, KeyLen)
	r := hkdf.New(sha256.New, secret, nil, []byte("claims-at-rest"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts a claims object under a fresh random 96-bit nonce.
func (c *Codec) Seal(claims map[string]any) (Envelope, error) {
	plain, err := json.Marshal(claims)
	if err != nil {
		return Envelope{}, err
	}
	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, err
	}
	out := c.aead.Seal(nil, nonce, plain, nil)
	ct, tag := out[:len(out)-TagLen], out[len(out)-TagLen:]
	b64 := base64.StdEncoding
	return Envelope{
		IV:      b64.EncodeToString(nonce),
		Content: b64.EncodeToString(ct),
		Tag:     b64.EncodeToString(tag),
	}, nil
}

// Open decrypts a stored claims document. Documents that do not carry all
// three envelope fields are treated as legacy plaintext and returned as-is;
// any authentication or decoding failure of a real envelope collapses to
// errs.ErrDecryption.
func (c *Codec) Open(doc []byte) (map[string]any, error) {
	if len(doc) == 0 {
		return map[string]any{}, nil
	}

	var env Envelope
	if err := json.Unmarshal(doc, &env); err != nil || !env.valid() {
		var plain map[string]any
		if err := json.Unmarshal(doc, &plain); err != nil {
			return nil, fmt.Errorf("%w: claims document is not an object", errs.ErrValidation)
		}
		return plain, nil
	}

	b64 := base64.StdEncoding
	nonce, err := b64.DecodeString(env.IV)
	if err != nil || len(nonce) != NonceLen {
		return nil, errs.ErrDecryption
	}
	ct, err := b64.DecodeString(env.Content)
	if err != nil {
		return nil, errs.ErrDecryption
	}
	tag, err := b64.DecodeString(env.Tag)
	if err != nil || len(tag) != TagLen {
		return nil, errs.ErrDecryption
	}

	plain, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return nil, errs.ErrDecryption
	}
	var claims map[string]any
	if err := json.Unmarshal(plain, &claims); err != nil {
		return nil, errs.ErrDecryption
	}
	return claims, nil
}
