package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// 加密参数，与存量 .enc 文件格式保持一致，不可变更
const (
	KeyLength        = 32
	IVLength         = 16
	SaltLength       = 64
	TagLength        = 16
	PBKDF2Iterations = 100000
)

var ErrInvalidBlob = errors.New("crypto: invalid encrypted blob")

// deriveKey 由口令和盐派生对称密钥 (PBKDF2-SHA512)
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeyLength, sha512.New)
}

// Encrypt 加密明文并编码为可落盘的文本
// 每次调用使用新的随机盐与 IV，输出为 base64(salt || iv || tag || ciphertext)
func Encrypt(plaintext []byte, passphrase string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVLength)
	if err != nil {
		return "", err
	}

	// Seal 输出为 ciphertext || tag，落盘格式要求 tag 在前
	sealed := aead.Seal(nil, iv, plaintext, nil)
	ct := sealed[:len(sealed)-TagLength]
	tag := sealed[len(sealed)-TagLength:]

	blob := make([]byte, 0, SaltLength+IVLength+TagLength+len(ct))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt 解码并解密落盘文本，校验认证标签
// 任何格式损坏或标签不匹配都返回错误，由调用方决定降级策略
func Decrypt(encoded string, passphrase string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	if len(blob) < SaltLength+IVLength+TagLength {
		return nil, ErrInvalidBlob
	}

	salt := blob[:SaltLength]
	iv := blob[SaltLength : SaltLength+IVLength]
	tag := blob[SaltLength+IVLength : SaltLength+IVLength+TagLength]
	ct := blob[SaltLength+IVLength+TagLength:]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVLength)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+TagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrInvalidBlob)
	}
	return plaintext, nil
}

// GeneratePassphrase 生成随机回退口令 (32 字节的十六进制编码)
// 仅在未配置口令时使用，进程重启后历史数据将无法解密
func GeneratePassphrase() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", raw), nil
}
