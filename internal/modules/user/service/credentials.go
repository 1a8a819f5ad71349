package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"anoa.com/p2pcomm/internal/modules/user/repository"
)

const (
	usernameSuffixChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	usernameSuffixLen   = 4

	passwordChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
	// PasswordLength is the size of generated initial credentials. The user
	// is expected to change the password out of band.
	PasswordLength = 12
)

// DeriveUsername builds a username from the email local-part: non-alphanumeric
// characters are stripped (falling back to "user"), a random 4-character
// suffix is appended, and numeric suffixes resolve collisions. Uniqueness
// holds at the instant of the check only; a concurrent registration with the
// same base can still lose at commit time on the unique index.
func DeriveUsername(ctx context.Context, repo repository.UserRepository, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, ch := range local {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}

	suffix, err := randomString(usernameSuffixChars, usernameSuffixLen)
	if err != nil {
		return "", err
	}
	username := base + "." + suffix

	candidate := username
	for i := 1; ; i++ {
		taken, err := repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", username, i)
	}
}

// GeneratePassword draws length characters uniformly from letters, digits
// and a fixed punctuation set.
func GeneratePassword(length int) (string, error) {
	return randomString(passwordChars, length)
}

func randomString(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
