package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 8
)

// CodeGenerator выдает числовые коды заданной длины.
// Каждая цифра выбирается независимо и равномерно из криптографического источника.
type CodeGenerator struct {
	source io.Reader
}

// NewCodeGenerator использует crypto/rand.Reader
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{source: rand.Reader}
}

func (g *CodeGenerator) Generate(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", fmt.Errorf("%w: code length must be between %d and %d, got %d",
			ErrInvalidInput, MinCodeLength, MaxCodeLength, length)
	}

	ten := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(g.source, ten)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
