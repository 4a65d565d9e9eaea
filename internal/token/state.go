package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"prombank/internal/port"
)

// stateTTL bounds how long an issued OAuth state stays valid.
const stateTTL = 10 * time.Minute

// StateSigner issues and verifies the per-attempt OAuth state value. The
// state is self-verifying (nonce + timestamp + HMAC) so the callback can be
// checked without server-side storage. A failed check is a hard failure.
type StateSigner struct {
	secret []byte
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// New returns a fresh opaque state value: <nonce>.<unix>.<sig>.
func (s *StateSigner) New() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(buf)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	payload := nonce + "." + ts
	return payload + "." + s.sign(payload), nil
}

// Verify checks the signature and freshness of a state echoed back by the
// provider. Any tampering or expiry yields ErrStateMismatch; claims must
// never be trusted when this fails.
func (s *StateSigner) Verify(state string) error {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return port.ErrStateMismatch
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return port.ErrStateMismatch
	}
	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return port.ErrStateMismatch
	}
	if time.Since(time.Unix(issued, 0)) > stateTTL {
		return fmt.Errorf("%w: state expired", port.ErrStateMismatch)
	}
	return nil
}

func (s *StateSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
