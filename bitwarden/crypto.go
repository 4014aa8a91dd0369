package bitwarden

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/jonwraymond/bwsproxy/secret"
)

// EncTypeAesCbc256HmacSha256 is the only symmetric EncString type used by
// Secrets Manager.
const EncTypeAesCbc256HmacSha256 = 2

const (
	keySize    = 32
	macSize    = sha256.Size
	ivSize     = aes.BlockSize
	accessName = "accesstoken"
	accessInfo = "sm-access-token"
)

// SymmetricKey is an AES-256 key with its HMAC-SHA256 key.
type SymmetricKey struct {
	Enc []byte
	Mac []byte
}

// SymmetricKeyFromBytes splits a 64 byte key into its encryption and MAC halves.
func SymmetricKeyFromBytes(b []byte) (*SymmetricKey, error) {
	if len(b) != keySize+macSize {
		return nil, secret.Errorf(secret.KindCrypto, "invalid key length: %d", len(b))
	}
	key := &SymmetricKey{
		Enc: make([]byte, keySize),
		Mac: make([]byte, macSize),
	}
	copy(key.Enc, b[:keySize])
	copy(key.Mac, b[keySize:])
	return key, nil
}

// deriveShareableKey stretches a short shared secret into a SymmetricKey:
// HKDF-Expand(SHA-256, PRK = HMAC-SHA256("bitwarden-"+name, secret), info).
func deriveShareableKey(shared []byte, name, info string) (*SymmetricKey, error) {
	mac := hmac.New(sha256.New, []byte("bitwarden-"+name))
	mac.Write(shared)
	prk := mac.Sum(nil)

	out := make([]byte, keySize+macSize)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, []byte(info)), out); err != nil {
		return nil, secret.NewError(secret.KindCrypto, err)
	}
	return SymmetricKeyFromBytes(out)
}

// PayloadKey derives the key that protects the login payload.
func (t *AccessToken) PayloadKey() (*SymmetricKey, error) {
	return deriveShareableKey(t.EncryptionKey, accessName, accessInfo)
}

// EncString is a parsed encrypted string, "<type>.<iv>|<data>|<mac>".
type EncString struct {
	Type int
	IV   []byte
	Data []byte
	MAC  []byte
}

// ParseEncString parses an encrypted string.
func ParseEncString(s string) (*EncString, error) {
	typ, rest, ok := strings.Cut(s, ".")
	if !ok {
		return nil, secret.Errorf(secret.KindInvalidCipherString, "missing encryption type")
	}
	encType, err := strconv.Atoi(typ)
	if err != nil {
		return nil, secret.Errorf(secret.KindInvalidCipherString, "invalid encryption type %q", typ)
	}
	if encType != EncTypeAesCbc256HmacSha256 {
		return nil, secret.Errorf(secret.KindInvalidCipherString, "unsupported encryption type %d", encType)
	}

	parts := strings.Split(rest, "|")
	if len(parts) != 3 {
		return nil, secret.Errorf(secret.KindInvalidCipherString,
			"invalid number of parts: expected 3, got %d", len(parts))
	}

	decoded := make([][]byte, len(parts))
	for i, p := range parts {
		b, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return nil, secret.NewError(secret.KindInvalidBase64, err)
		}
		decoded[i] = b
	}

	return &EncString{
		Type: encType,
		IV:   decoded[0],
		Data: decoded[1],
		MAC:  decoded[2],
	}, nil
}

// Decrypt authenticates and decrypts e with key.
func (e *EncString) Decrypt(key *SymmetricKey) ([]byte, error) {
	if key == nil || len(key.Enc) != keySize || len(key.Mac) != macSize {
		return nil, secret.Errorf(secret.KindCrypto, "missing key")
	}
	if len(e.IV) != ivSize {
		return nil, secret.Errorf(secret.KindCrypto, "invalid iv length: %d", len(e.IV))
	}

	mac := hmac.New(sha256.New, key.Mac)
	mac.Write(e.IV)
	mac.Write(e.Data)
	if !hmac.Equal(mac.Sum(nil), e.MAC) {
		return nil, secret.Errorf(secret.KindCrypto, "mac mismatch")
	}

	if len(e.Data) == 0 || len(e.Data)%aes.BlockSize != 0 {
		return nil, secret.Errorf(secret.KindCrypto, "invalid ciphertext length: %d", len(e.Data))
	}
	block, err := aes.NewCipher(key.Enc)
	if err != nil {
		return nil, secret.NewError(secret.KindCrypto, err)
	}

	plain := make([]byte, len(e.Data))
	cipher.NewCBCDecrypter(block, e.IV).CryptBlocks(plain, e.Data)
	return unpad(plain)
}

// Encrypt encrypts plain under k as a type 2 EncString with a random IV.
func (k *SymmetricKey) Encrypt(plain []byte) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", secret.NewError(secret.KindCrypto, err)
	}
	block, err := aes.NewCipher(k.Enc)
	if err != nil {
		return "", secret.NewError(secret.KindCrypto, err)
	}

	n := aes.BlockSize - len(plain)%aes.BlockSize
	data := append(append(make([]byte, 0, len(plain)+n), plain...), bytes.Repeat([]byte{byte(n)}, n)...)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(data, data)

	mac := hmac.New(sha256.New, k.Mac)
	mac.Write(iv)
	mac.Write(data)

	enc := &EncString{Type: EncTypeAesCbc256HmacSha256, IV: iv, Data: data, MAC: mac.Sum(nil)}
	return enc.String(), nil
}

// String renders e in its wire form.
func (e *EncString) String() string {
	b64 := base64.StdEncoding.EncodeToString
	return strconv.Itoa(e.Type) + "." + b64(e.IV) + "|" + b64(e.Data) + "|" + b64(e.MAC)
}

// decryptString parses and decrypts s.
func decryptString(s string, key *SymmetricKey) (string, error) {
	enc, err := ParseEncString(s)
	if err != nil {
		return "", err
	}
	plain, err := enc.Decrypt(key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// unpad strips PKCS#7 padding.
func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, secret.Errorf(secret.KindCrypto, "invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, secret.Errorf(secret.KindCrypto, "invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
