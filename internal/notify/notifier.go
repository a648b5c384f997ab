package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/Youmto/SHAREMONEY/internal/utils"
)

// TelegramNotifier pushes lifecycle notifications to users through the user
// bot. Sends are best-effort: a blocked bot or closed chat is logged and
// dropped, never propagated back into the transaction that triggered it.
type TelegramNotifier struct {
	bot *telego.Bot
	log *zap.SugaredLogger
}

func NewTelegramNotifier(bot *telego.Bot, log *zap.SugaredLogger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, log: log}
}

func (n *TelegramNotifier) send(telegramID int64, text string) {
	_, err := n.bot.SendMessage(context.Background(), tu.Message(tu.ID(telegramID), text))
	if err != nil {
		n.log.Warnw("notification send failed", "telegram_id", telegramID, "error", err)
	}
}

func (n *TelegramNotifier) NotifyShareApproved(telegramID int64, amount, newBalance int64) {
	n.send(telegramID, fmt.Sprintf(
		"✅ Votre partage a été validé !\n\n💰 +%s\n💵 Nouveau solde: %s",
		utils.FormatAmount(amount), utils.FormatAmount(newBalance)))
}

func (n *TelegramNotifier) NotifyShareRejected(telegramID int64, reason string) {
	n.send(telegramID, fmt.Sprintf(
		"❌ Votre partage a été rejeté.\n\n📝 Raison: %s\n\nVous pouvez soumettre un nouveau partage.", reason))
}

func (n *TelegramNotifier) NotifyReferralBonus(telegramID int64, amount int64, referralName string) {
	n.send(telegramID, fmt.Sprintf(
		"🎁 Bonus de parrainage !\n\n%s a fait valider son premier partage.\n💰 +%s",
		referralName, utils.FormatAmount(amount)))
}

func (n *TelegramNotifier) NotifyWithdrawalCompleted(telegramID int64, amount int64, method, details string) {
	n.send(telegramID, fmt.Sprintf(
		"✅ Retrait effectué !\n\n💰 Montant: %s\n💳 Méthode: %s\n📱 Compte: %s",
		utils.FormatAmount(amount), method, details))
}

func (n *TelegramNotifier) NotifyWithdrawalRejected(telegramID int64, amount int64, reason string) {
	n.send(telegramID, fmt.Sprintf(
		"❌ Votre demande de retrait de %s a été refusée.\n\n📝 Raison: %s\n\n💵 Le montant a été recrédité sur votre solde.",
		utils.FormatAmount(amount), reason))
}

func (n *TelegramNotifier) NotifyNewVideo(telegramID int64, title string) {
	n.send(telegramID, fmt.Sprintf(
		"🎬 Nouvelle vidéo disponible !\n\n📹 %s\n\nPartagez-la dans vos groupes pour gagner de l'argent 💰", title))
}
