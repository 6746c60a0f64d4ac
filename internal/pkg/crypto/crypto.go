package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 哈希密码 (bcrypt)
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cipher AES-GCM 加解密, 密文格式 base64(nonce|sealed)
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher key 长度必须为 16/24/32 字节
func NewCipher(key string) (*Cipher, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("初始化AES失败: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("初始化GCM失败: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt AES加密
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt AES解密
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("密文太短")
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

var (
	mu            sync.RWMutex
	defaultCipher *Cipher
)

// SetKey 设置全局密钥, 启动时由 crypto.aes_key 配置调用
func SetKey(key string) error {
	c, err := NewCipher(key)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultCipher = c
	mu.Unlock()
	return nil
}

func current() (*Cipher, error) {
	mu.RLock()
	defer mu.RUnlock()
	if defaultCipher == nil {
		return nil, fmt.Errorf("加密密钥未配置")
	}
	return defaultCipher, nil
}

// Encrypt 使用全局密钥加密
func Encrypt(plaintext string) (string, error) {
	c, err := current()
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext)
}

// Decrypt 使用全局密钥解密
func Decrypt(ciphertext string) (string, error) {
	c, err := current()
	if err != nil {
		return "", err
	}
	return c.Decrypt(ciphertext)
}
