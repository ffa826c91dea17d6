package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"
)

// DailySecret is hex(sha256("yyyy-mm-dd__" + serverSecret)) for day.
func DailySecret(day time.Time, serverSecret string) string {
	sum := sha256.Sum256([]byte(day.Format("2006-01-02") + "__" + serverSecret))
	return hex.EncodeToString(sum[:])
}

// SecretVerifier checks the per-day key callers of the side endpoints present.
type SecretVerifier struct {
	serverSecret string
	loc          *time.Location
	now          func() time.Time
}

func NewSecretVerifier(serverSecret string, loc *time.Location) *SecretVerifier {
	if loc == nil {
		loc = time.Local
	}
	return &SecretVerifier{serverSecret: serverSecret, loc: loc, now: time.Now}
}

// Verify compares candidate against today's key in constant time. Hex case is
// ignored. An unset server secret rejects everything.
func (v *SecretVerifier) Verify(candidate string) bool {
	if v.serverSecret == "" || candidate == "" {
		return false
	}
	want := DailySecret(v.now().In(v.loc), v.serverSecret)
	got := strings.ToLower(strings.TrimSpace(candidate))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
