package bot

import (
	"fmt"
	"sort"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// sortedKeys fixes the button order; ranging the config maps directly would
// reshuffle the keyboard on every message.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mainMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📤 Partager et gagner").WithCallbackData("share"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💰 Mon solde").WithCallbackData("balance"),
			tu.InlineKeyboardButton("💸 Retirer").WithCallbackData("withdraw"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🤝 Parrainage").WithCallbackData("referral"),
			tu.InlineKeyboardButton("📋 Historique").WithCallbackData("history"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("❓ Aide").WithCallbackData("help"),
		),
	)
}

func backToMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Menu principal").WithCallbackData("menu"),
		),
	)
}

func adminBackKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu"),
		),
	)
}

func platformKeyboard(cfg *config.Config) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, key := range sortedKeys(cfg.Platforms) {
		p := cfg.Platforms[key]
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("%s %s", p.Emoji, p.Name)).
				WithCallbackData("share_platform:"+key),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("« Annuler").WithCallbackData("menu"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func testimonialKeyboard(tms []models.TestimonialMessage) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for i, tm := range tms {
		if i >= 5 {
			break
		}
		label := tm.Message
		if len([]rune(label)) > 40 {
			label = string([]rune(label)[:39]) + "…"
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("%d️⃣ %s", i+1, label)).
				WithCallbackData(fmt.Sprintf("share_testimonial:%d", tm.ID)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("⏭ Sans témoignage").WithCallbackData("share_testimonial:0"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func paymentMethodKeyboard(cfg *config.Config) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, key := range sortedKeys(cfg.PaymentMethods) {
		m := cfg.PaymentMethods[key]
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("%s %s", m.Emoji, m.Name)).
				WithCallbackData("withdraw_method:"+key),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("« Annuler").WithCallbackData("menu"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func contactKeyboard() *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(
			tu.KeyboardButton("📱 Partager mon numéro").WithRequestContact(),
		),
	).WithResizeKeyboard().WithOneTimeKeyboard()
}

func helpVideosKeyboard(hvs []models.HelpVideo) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, hv := range hvs {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎬 "+hv.Title).
				WithCallbackData(fmt.Sprintf("help_video:%d", hv.ID)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("« Menu principal").WithCallbackData("menu"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}
