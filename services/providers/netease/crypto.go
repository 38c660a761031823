package netease

import (
	"crypto/aes"
	"encoding/hex"
	"fmt"
	"strings"
)

// eparamsSecret is the shared AES key for the linux/forward gateway,
// hex-encoded. It decodes to the 16-byte ASCII password the desktop client
// ships with.
const eparamsSecret = "7246674226682325323F5E6544673A51"

func eparamsKey() []byte {
	key, _ := hex.DecodeString(eparamsSecret)
	return key
}

// encryptEparams encrypts the serialized envelope with AES-128-ECB and PKCS7
// padding and returns the uppercase hex form the gateway expects.
func encryptEparams(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(eparamsKey())
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())

	encrypted := make([]byte, len(padded))
	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(encrypted[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}

	return strings.ToUpper(hex.EncodeToString(encrypted)), nil
}

// decryptEparams reverses encryptEparams. Only used in tests and debugging.
func decryptEparams(hexData string) ([]byte, error) {
	encrypted, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex: %w", err)
	}

	block, err := aes.NewCipher(eparamsKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(encrypted) == 0 || len(encrypted)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(encrypted))
	}

	decrypted := make([]byte, len(encrypted))
	for i := 0; i < len(encrypted); i += block.BlockSize() {
		block.Decrypt(decrypted[i:i+block.BlockSize()], encrypted[i:i+block.BlockSize()])
	}

	return pkcs7Unpad(decrypted, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding length %d", padding)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding byte")
		}
	}

	return data[:len(data)-padding], nil
}
