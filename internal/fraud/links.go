package fraud

import (
	"strings"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

var telegramPrefixes = []string{
	"https://t.me/",
	"http://t.me/",
	"t.me/",
	"https://telegram.me/",
	"@",
}

var whatsappPrefixes = []string{
	"https://chat.whatsapp.com/",
	"http://chat.whatsapp.com/",
	"chat.whatsapp.com/",
}

// IsValidTelegramLink accepts t.me / telegram.me links and @handles.
func IsValidTelegramLink(link string) bool {
	return hasAnyPrefix(strings.ToLower(strings.TrimSpace(link)), telegramPrefixes)
}

// IsValidWhatsappLink accepts chat.whatsapp.com invite links.
func IsValidWhatsappLink(link string) bool {
	return hasAnyPrefix(strings.ToLower(strings.TrimSpace(link)), whatsappPrefixes)
}

// ValidateGroupLink checks the link format for the given platform and returns
// a user-facing reason when it is not acceptable.
func ValidateGroupLink(link string, platform models.Platform) (bool, string) {
	switch platform {
	case models.PlatformTelegram:
		if !IsValidTelegramLink(link) {
			return false, "❌ Lien Telegram invalide. Utilisez un lien comme https://t.me/groupe ou @groupe"
		}
	case models.PlatformWhatsapp:
		if !IsValidWhatsappLink(link) {
			return false, "❌ Lien WhatsApp invalide. Utilisez un lien comme https://chat.whatsapp.com/..."
		}
	}
	return true, ""
}

// NormalizeLink canonicalizes a group link for storage and comparisons, so
// "t.me/x", "@x" and "https://t.me/x" all collide in the reuse checks.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)

	switch {
	case strings.HasPrefix(link, "t.me/"),
		strings.HasPrefix(link, "chat.whatsapp.com/"),
		strings.HasPrefix(link, "telegram.me/"):
		link = "https://" + link
	case strings.HasPrefix(link, "@"):
		link = "https://t.me/" + link[1:]
	}

	return link
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
