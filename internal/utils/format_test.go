package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:       "0 FCFA",
		100:     "100 FCFA",
		1234:    "1 234 FCFA",
		50000:   "50 000 FCFA",
		1234567: "1 234 567 FCFA",
		-500:    "-500 FCFA",
		-1234:   "-1 234 FCFA",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatAmount(amount))
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	cases := map[string]string{
		now.Add(-30 * time.Second).Format(time.RFC3339): "à l'instant",
		now.Add(-5 * time.Minute).Format(time.RFC3339):  "il y a 5 min",
		now.Add(-3 * time.Hour).Format(time.RFC3339):    "il y a 3 h",
		now.Add(-25 * time.Hour).Format(time.RFC3339):   "il y a 1 jour",
		now.Add(-72 * time.Hour).Format(time.RFC3339):   "il y a 3 jours",
	}
	for raw, want := range cases {
		ts, err := time.Parse(time.RFC3339, raw)
		assert.NoError(t, err)
		assert.Equal(t, want, TimeAgo(ts, now))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "court", Truncate("court", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "éléph…", Truncate("éléphantesque", 6), "rune boundaries, not bytes")
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, "⏳", StatusEmoji("pending"))
	assert.Equal(t, "✅", StatusEmoji("approved"))
	assert.Equal(t, "✅", StatusEmoji("completed"))
	assert.Equal(t, "❌", StatusEmoji("rejected"))
	assert.Equal(t, "❔", StatusEmoji("autre"))

	assert.Equal(t, "Validé", StatusText("approved"))
	assert.Equal(t, "En attente", StatusText("pending"))
	assert.Equal(t, "autre", StatusText("autre"))
}

func TestIsValidPhone(t *testing.T) {
	valid := []string{"691234567", "+237691234567", "237671234567", "6 91 23 45 67"}
	for _, p := range valid {
		assert.True(t, IsValidPhone(p), p)
	}

	invalid := []string{"12345", "791234567", "69123456", "6912345678", "abc"}
	for _, p := range invalid {
		assert.False(t, IsValidPhone(p), p)
	}
}
