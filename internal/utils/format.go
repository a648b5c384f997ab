package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FormatAmount renders integer FCFA with thin-space thousand grouping,
// e.g. 1234 -> "1 234 FCFA".
func FormatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + " FCFA"
}

// TimeAgo renders an elapsed duration in French for the review queue.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "à l'instant"
	case d < time.Hour:
		return fmt.Sprintf("il y a %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("il y a %d h", int(d.Hours()))
	default:
		days := int(d.Hours()) / 24
		if days == 1 {
			return "il y a 1 jour"
		}
		return fmt.Sprintf("il y a %d jours", days)
	}
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// StatusEmoji maps a share or withdrawal status string to its display emoji.
func StatusEmoji(status string) string {
	switch status {
	case "pending":
		return "⏳"
	case "approved", "completed":
		return "✅"
	case "rejected":
		return "❌"
	default:
		return "❔"
	}
}

// StatusText maps a status string to its French label.
func StatusText(status string) string {
	switch status {
	case "pending":
		return "En attente"
	case "approved":
		return "Validé"
	case "completed":
		return "Effectué"
	case "rejected":
		return "Rejeté"
	default:
		return status
	}
}

var phoneRe = regexp.MustCompile(`^(\+?237)?6[0-9]{8}$`)

// IsValidPhone accepts Cameroonian mobile numbers, with or without the
// country prefix, ignoring spaces.
func IsValidPhone(phone string) bool {
	return phoneRe.MatchString(strings.ReplaceAll(phone, " ", ""))
}
