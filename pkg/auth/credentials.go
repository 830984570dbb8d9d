package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	DefaultTempPasswordLength = 12
	MinTempPasswordLength     = 4
	LoginTokenBytes           = 32 // 256 bits
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}?"
	allChars    = lowerChars + upperChars + digitChars + symbolChars
)

// GenerateTempPassword returns a random password of the given length holding at
// least one lowercase letter, one uppercase letter, one digit and one symbol.
func GenerateTempPassword(length int) (string, error) {
	if length < MinTempPasswordLength {
		return "", fmt.Errorf("temporary password length must be at least %d, got %d", MinTempPasswordLength, length)
	}

	out := make([]byte, 0, length)
	for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters do not sit at fixed positions
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

// GenerateLoginToken returns a hex-encoded one-time login token
func GenerateLoginToken() (string, error) {
	b := make([]byte, LoginTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate login token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return int(v.Int64()), nil
}
