package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func TestDailySecret(t *testing.T) {
	day := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	sum := sha256.Sum256([]byte("2025-04-07__s3cret"))
	if got := DailySecret(day, "s3cret"); got != hex.EncodeToString(sum[:]) {
		t.Fatalf("DailySecret = %s", got)
	}
}

func TestSecretVerifier(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata not available")
	}
	v := NewSecretVerifier("s3cret", rome)
	// 23:30 UTC on the 6th is already the 7th in Rome.
	v.now = func() time.Time { return time.Date(2025, 4, 6, 23, 30, 0, 0, time.UTC) }

	today := DailySecret(time.Date(2025, 4, 7, 0, 0, 0, 0, rome), "s3cret")
	if !v.Verify(today) || !v.Verify(strings.ToUpper(today)) {
		t.Fatal("today's key rejected")
	}
	yesterday := DailySecret(time.Date(2025, 4, 6, 0, 0, 0, 0, rome), "s3cret")
	if v.Verify(yesterday) {
		t.Fatal("yesterday's key accepted")
	}
	if v.Verify("") {
		t.Fatal("empty key accepted")
	}
	if NewSecretVerifier("", rome).Verify(DailySecret(time.Now(), "")) {
		t.Fatal("unset server secret must reject")
	}
}
