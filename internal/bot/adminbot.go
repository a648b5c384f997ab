package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/models"
	"github.com/Youmto/SHAREMONEY/internal/notify"
	"github.com/Youmto/SHAREMONEY/internal/service"
	"github.com/Youmto/SHAREMONEY/internal/session"
	"github.com/Youmto/SHAREMONEY/internal/storage"
	"github.com/Youmto/SHAREMONEY/internal/utils"
)

// AdminBot drives the operator console: the review queue, payouts, content
// management, stats and broadcasts. Every handler is gated on the configured
// admin list.
type AdminBot struct {
	bot      *telego.Bot
	cfg      *config.Config
	log      *zap.SugaredLogger
	sessions *session.Store

	users        *service.Users
	videos       *service.Videos
	shares       *service.Shares
	withdrawals  *service.Withdrawals
	testimonials *service.Testimonials
	helpVideos   *service.HelpVideos
	blacklist    *service.Blacklist
	stats        *service.Stats
	analyzer     *fraud.Analyzer
	media        *storage.Client
	broadcaster  *notify.Broadcaster
}

type AdminBotDeps struct {
	Cfg      *config.Config
	Log      *zap.SugaredLogger
	Sessions *session.Store

	Users        *service.Users
	Videos       *service.Videos
	Shares       *service.Shares
	Withdrawals  *service.Withdrawals
	Testimonials *service.Testimonials
	HelpVideos   *service.HelpVideos
	Blacklist    *service.Blacklist
	Stats        *service.Stats
	Analyzer     *fraud.Analyzer
	Media        *storage.Client
	Broadcaster  *notify.Broadcaster
}

func NewAdminBot(token string, deps AdminBotDeps) (*AdminBot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create admin bot: %w", err)
	}

	return &AdminBot{
		bot:          tgBot,
		cfg:          deps.Cfg,
		log:          deps.Log,
		sessions:     deps.Sessions,
		users:        deps.Users,
		videos:       deps.Videos,
		shares:       deps.Shares,
		withdrawals:  deps.Withdrawals,
		testimonials: deps.Testimonials,
		helpVideos:   deps.HelpVideos,
		blacklist:    deps.Blacklist,
		stats:        deps.Stats,
		analyzer:     deps.Analyzer,
		media:        deps.Media,
		broadcaster:  deps.Broadcaster,
	}, nil
}

func (b *AdminBot) Start(ctx context.Context) error {
	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	handler.Handle(b.guard(b.handleStart), th.CommandEqual("start"))
	handler.Handle(b.guard(b.handleBlock), th.CommandEqual("block"))
	handler.Handle(b.guard(b.handleUnblock), th.CommandEqual("unblock"))

	handler.Handle(b.cb(b.showMenu), th.CallbackDataEqual("admin_menu"))
	handler.Handle(b.cb(b.showNextPending), th.CallbackDataEqual("admin_pending"))
	handler.Handle(b.cb(b.approveShare), th.CallbackDataPrefix("share_approve:"))
	handler.Handle(b.cb(b.promptRejectShare), th.CallbackDataPrefix("share_reject:"))
	handler.Handle(b.cb(b.rejectShareWithReason), th.CallbackDataPrefix("share_reason:"))
	handler.Handle(b.cb(b.showWithdrawals), th.CallbackDataEqual("admin_withdrawals"))
	handler.Handle(b.cb(b.completeWithdrawal), th.CallbackDataPrefix("wd_complete:"))
	handler.Handle(b.cb(b.promptRejectWithdrawal), th.CallbackDataPrefix("wd_reject:"))
	handler.Handle(b.cb(b.showStats), th.CallbackDataEqual("admin_stats"))
	handler.Handle(b.cb(b.showVideos), th.CallbackDataEqual("admin_videos"))
	handler.Handle(b.cb(b.promptVideoUpload), th.CallbackDataEqual("admin_video"))
	handler.Handle(b.cb(b.toggleVideo), th.CallbackDataPrefix("admin_vid_toggle:"))
	handler.Handle(b.cb(b.extendVideo), th.CallbackDataPrefix("admin_vid_extend:"))
	handler.Handle(b.cb(b.deleteVideo), th.CallbackDataPrefix("admin_vid_del:"))
	handler.Handle(b.cb(b.showTestimonials), th.CallbackDataEqual("admin_testimonials"))
	handler.Handle(b.cb(b.promptTestimonial), th.CallbackDataEqual("admin_tm_add"))
	handler.Handle(b.cb(b.toggleTestimonial), th.CallbackDataPrefix("admin_tm_toggle:"))
	handler.Handle(b.cb(b.deleteTestimonial), th.CallbackDataPrefix("admin_tm_del:"))
	handler.Handle(b.cb(b.showHelpVideos), th.CallbackDataEqual("admin_help"))
	handler.Handle(b.cb(b.promptHelpVideo), th.CallbackDataEqual("admin_hv_add"))
	handler.Handle(b.cb(b.toggleHelpVideo), th.CallbackDataPrefix("admin_hv_toggle:"))
	handler.Handle(b.cb(b.deleteHelpVideo), th.CallbackDataPrefix("admin_hv_del:"))
	handler.Handle(b.cb(b.showBlacklist), th.CallbackDataEqual("admin_blacklist"))
	handler.Handle(b.cb(b.promptBlacklist), th.CallbackDataEqual("admin_bl_add"))
	handler.Handle(b.cb(b.removeBlacklist), th.CallbackDataPrefix("admin_bl_del:"))
	handler.Handle(b.cb(b.promptBroadcast), th.CallbackDataEqual("admin_broadcast"))

	handler.Handle(b.guard(b.handleVideo), messageWithVideo)
	handler.Handle(b.guard(b.handleText), th.AnyMessageWithText())

	b.log.Info("admin bot started")
	return handler.Start()
}

func messageWithVideo(_ context.Context, update telego.Update) bool {
	return update.Message != nil && update.Message.Video != nil
}

func (b *AdminBot) guard(fn th.Handler) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		if update.Message == nil || !b.cfg.IsAdmin(update.Message.From.ID) {
			return nil
		}
		return fn(ctx, update)
	}
}

func (b *AdminBot) cb(fn func(ctx *th.Context, query telego.CallbackQuery) error) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		query := update.CallbackQuery
		if query == nil || !b.cfg.IsAdmin(query.From.ID) {
			return nil
		}
		err := fn(ctx, *query)
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(query.ID))
		return err
	}
}

func (b *AdminBot) send(ctx *th.Context, chatID int64, text string) {
	_, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(chatID), text))
	if err != nil {
		b.log.Warnw("send message", "chat_id", chatID, "error", err)
	}
}

func (b *AdminBot) sendWithKeyboard(ctx *th.Context, chatID int64, text string, kb telego.ReplyMarkup) {
	_, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(chatID), text).WithReplyMarkup(kb))
	if err != nil {
		b.log.Warnw("send message", "chat_id", chatID, "error", err)
	}
}

func adminMenuKeyboard(pendingShares, pendingPayouts int64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("📥 Partages en attente (%d)", pendingShares)).
				WithCallbackData("admin_pending"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("💸 Retraits (%d)", pendingPayouts)).
				WithCallbackData("admin_withdrawals"),
			tu.InlineKeyboardButton("📊 Statistiques").WithCallbackData("admin_stats"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎬 Vidéos").WithCallbackData("admin_videos"),
			tu.InlineKeyboardButton("💬 Témoignages").WithCallbackData("admin_testimonials"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎓 Tutoriels").WithCallbackData("admin_help"),
			tu.InlineKeyboardButton("🚫 Liste noire").WithCallbackData("admin_blacklist"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📢 Diffusion").WithCallbackData("admin_broadcast"),
		),
	)
}

func (b *AdminBot) handleStart(ctx *th.Context, update telego.Update) error {
	return b.sendMenu(ctx, update.Message.From.ID)
}

func (b *AdminBot) showMenu(ctx *th.Context, query telego.CallbackQuery) error {
	return b.sendMenu(ctx, query.From.ID)
}

func (b *AdminBot) sendMenu(ctx *th.Context, adminID int64) error {
	_ = b.sessions.Clear(ctx.Context(), adminID)

	shares, _ := b.shares.PendingCount(ctx.Context())
	payouts, _ := b.withdrawals.PendingCount(ctx.Context())

	text := "🛠 Console d'administration"
	if exceeded, used, err := b.stats.BudgetExceeded(ctx.Context()); err == nil && exceeded {
		text += fmt.Sprintf("\n\n⚠️ Budget journalier dépassé: %s / %s",
			utils.FormatAmount(used), utils.FormatAmount(b.cfg.DailyBudget))
	}

	b.sendWithKeyboard(ctx, adminID, text, adminMenuKeyboard(shares, payouts))
	return nil
}

// --- Review queue ---

func (b *AdminBot) showNextPending(ctx *th.Context, query telego.CallbackQuery) error {
	pending, err := b.shares.Pending(ctx.Context(), 1)
	if err != nil {
		b.log.Errorw("load pending shares", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement de la file.")
		return nil
	}
	if len(pending) == 0 {
		b.sendWithKeyboard(ctx, query.From.ID, "✅ Aucun partage en attente.", adminBackKeyboard())
		return nil
	}

	share := pending[0]
	b.presentShare(ctx, query.From.ID, &share)
	return nil
}

func (b *AdminBot) presentShare(ctx *th.Context, adminID int64, share *models.Share) {
	analysis, err := b.analyzer.Analyze(ctx.Context(), share.UserID, share.GroupLink, share.Platform)
	if err != nil {
		b.log.Warnw("analyze share", "share_id", share.ID, "error", err)
	}

	approved, resolved, _ := b.shares.UserCounters(ctx.Context(), share.UserID)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📥 Partage #%d\n\n", share.ID))
	sb.WriteString(fmt.Sprintf("👤 %s (ID %d)\n", displayUser(&share.User), share.User.TelegramID))
	sb.WriteString(fmt.Sprintf("📊 Historique: %d validés / %d traités\n", approved, resolved))
	sb.WriteString(fmt.Sprintf("🎬 Vidéo: %s\n", share.Video.Title))
	sb.WriteString(fmt.Sprintf("📱 Plateforme: %s\n", share.Platform))
	sb.WriteString(fmt.Sprintf("👥 Groupe: %s\n🔗 %s\n", share.GroupName, share.GroupLink))
	sb.WriteString(fmt.Sprintf("🕐 Soumis %s\n", utils.TimeAgo(share.CreatedAt, timeNow())))

	if share.AutoScore != nil {
		sb.WriteString(fmt.Sprintf("\n🤖 Score de confiance: %d/100\n", *share.AutoScore))
	}
	sb.WriteString(fmt.Sprintf("⚖️ Risque: %s (%d)\n", analysis.RiskLevel, analysis.RiskScore))
	for _, flag := range analysis.Flags {
		sb.WriteString(flag + "\n")
	}
	if analysis.Recommendation == fraud.RecommendAutoApprove {
		sb.WriteString("💡 Recommandation: validation rapide possible\n")
	}

	kb := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Valider").WithCallbackData(fmt.Sprintf("share_approve:%d", share.ID)),
			tu.InlineKeyboardButton("❌ Rejeter").WithCallbackData(fmt.Sprintf("share_reject:%d", share.ID)),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu"),
		),
	)

	// Proof file ids belong to the user bot, so the cloud URL is the only
	// image this bot can forward.
	if share.ProofImageURL != "" {
		_, err := ctx.Bot().SendPhoto(ctx.Context(),
			tu.Photo(tu.ID(adminID), tu.FileFromURL(share.ProofImageURL)).
				WithCaption(sb.String()).WithReplyMarkup(kb))
		if err == nil {
			return
		}
		b.log.Warnw("send proof photo", "share_id", share.ID, "error", err)
	}

	sb.WriteString("\n⚠️ Capture d'écran non disponible en ligne.")
	b.sendWithKeyboard(ctx, adminID, sb.String(), kb)
}

func (b *AdminBot) approveShare(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "share_approve:")
	if !ok {
		return nil
	}

	applied, err := b.shares.Approve(ctx.Context(), id, query.From.ID)
	if err != nil {
		b.log.Errorw("approve share", "share_id", id, "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors de la validation.")
		return nil
	}
	if !applied {
		b.send(ctx, query.From.ID, "ℹ️ Ce partage a déjà été traité par un autre admin.")
		return b.showNextPending(ctx, query)
	}

	b.send(ctx, query.From.ID, fmt.Sprintf("✅ Partage #%d validé, %s crédités.",
		id, utils.FormatAmount(b.cfg.RewardPerShare)))
	return b.showNextPending(ctx, query)
}

func (b *AdminBot) promptRejectShare(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "share_reject:")
	if !ok {
		return nil
	}

	var rows [][]telego.InlineKeyboardButton
	for key, label := range fraud.RejectionReasons {
		if key == "other" {
			continue
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).WithCallbackData(fmt.Sprintf("share_reason:%d:%s", id, key)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("✏️ Autre raison").WithCallbackData(fmt.Sprintf("share_reason:%d:other", id)),
	))

	b.sendWithKeyboard(ctx, query.From.ID,
		fmt.Sprintf("❌ Rejet du partage #%d\n\nChoisissez la raison :", id),
		&telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	return nil
}

func (b *AdminBot) rejectShareWithReason(ctx *th.Context, query telego.CallbackQuery) error {
	parts := strings.Split(strings.TrimPrefix(query.Data, "share_reason:"), ":")
	if len(parts) != 2 {
		return nil
	}
	id64, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return nil
	}
	id, key := uint(id64), parts[1]

	if key == "other" {
		_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{
			Step:     session.StepAdminRejectReason,
			TargetID: id,
			Method:   "share",
		})
		b.send(ctx, query.From.ID, "✏️ Envoyez la raison du rejet :")
		return nil
	}

	reason, ok := fraud.RejectionReasons[key]
	if !ok {
		return nil
	}
	return b.doRejectShare(ctx, query.From.ID, id, reason)
}

func (b *AdminBot) doRejectShare(ctx *th.Context, adminID int64, shareID uint, reason string) error {
	applied, err := b.shares.Reject(ctx.Context(), shareID, adminID, reason)
	if err != nil {
		b.log.Errorw("reject share", "share_id", shareID, "error", err)
		b.send(ctx, adminID, "❌ Erreur lors du rejet.")
		return nil
	}
	if !applied {
		b.send(ctx, adminID, "ℹ️ Ce partage a déjà été traité par un autre admin.")
		return nil
	}
	b.send(ctx, adminID, fmt.Sprintf("❌ Partage #%d rejeté.", shareID))
	return nil
}

// --- Withdrawals ---

func (b *AdminBot) showWithdrawals(ctx *th.Context, query telego.CallbackQuery) error {
	pending, err := b.withdrawals.Pending(ctx.Context(), 5)
	if err != nil {
		b.log.Errorw("load pending withdrawals", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement des retraits.")
		return nil
	}
	if len(pending) == 0 {
		b.sendWithKeyboard(ctx, query.From.ID, "✅ Aucun retrait en attente.", adminBackKeyboard())
		return nil
	}

	for _, wd := range pending {
		pm := b.cfg.PaymentMethods[wd.PaymentMethod]
		text := fmt.Sprintf(
			"💸 Retrait #%d\n\n👤 %s (ID %d)\n💰 %s\n%s %s\n📱 %s\n🕐 Demandé %s",
			wd.ID, displayUser(&wd.User), wd.User.TelegramID,
			utils.FormatAmount(wd.Amount), pm.Emoji, pm.Name, wd.PaymentDetails,
			utils.TimeAgo(wd.CreatedAt, timeNow()))

		kb := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("✅ Payé").WithCallbackData(fmt.Sprintf("wd_complete:%d", wd.ID)),
				tu.InlineKeyboardButton("❌ Refuser").WithCallbackData(fmt.Sprintf("wd_reject:%d", wd.ID)),
			),
		)
		b.sendWithKeyboard(ctx, query.From.ID, text, kb)
	}
	return nil
}

func (b *AdminBot) completeWithdrawal(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "wd_complete:")
	if !ok {
		return nil
	}

	applied, err := b.withdrawals.Complete(ctx.Context(), id, query.From.ID)
	if err != nil {
		b.log.Errorw("complete withdrawal", "withdrawal_id", id, "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du traitement.")
		return nil
	}
	if !applied {
		b.send(ctx, query.From.ID, "ℹ️ Ce retrait a déjà été traité par un autre admin.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("✅ Retrait #%d marqué comme payé.", id))
	return nil
}

func (b *AdminBot) promptRejectWithdrawal(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "wd_reject:")
	if !ok {
		return nil
	}

	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{
		Step:     session.StepAdminRejectReason,
		TargetID: id,
		Method:   "withdrawal",
	})
	b.send(ctx, query.From.ID, "✏️ Envoyez la raison du refus (le montant sera recrédité) :")
	return nil
}

// --- Stats ---

func (b *AdminBot) showStats(ctx *th.Context, query telego.CallbackQuery) error {
	st, err := b.stats.Daily(ctx.Context())
	if err != nil {
		b.log.Errorw("load stats", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement des statistiques.")
		return nil
	}

	text := fmt.Sprintf(
		"📊 Statistiques du %s\n\n"+
			"👥 Nouveaux utilisateurs: %d\n"+
			"📤 Partages soumis: %d\n"+
			"✅ Validés: %d · ❌ Rejetés: %d\n"+
			"⏳ En attente: %d partages, %d retraits\n\n"+
			"💰 Récompenses du jour: %s\n"+
			"🧾 Budget utilisé: %s / %s\n\n"+
			"📈 Totaux: %d utilisateurs, %d partages\n"+
			"💸 Payé au total: %s\n"+
			"🏦 Soldes dus: %s",
		st.Date.Format("02/01/2006"),
		st.NewUsers, st.SharesToday, st.ApprovedToday, st.RejectedToday,
		st.PendingShares, st.PendingPayouts,
		utils.FormatAmount(st.RewardsToday),
		utils.FormatAmount(st.BudgetUsed), utils.FormatAmount(b.cfg.DailyBudget),
		st.TotalUsers, st.TotalShares,
		utils.FormatAmount(st.TotalPaidOut),
		utils.FormatAmount(st.OutstandingDue))

	b.sendWithKeyboard(ctx, query.From.ID, text, adminBackKeyboard())
	return nil
}

// --- Video management ---

func (b *AdminBot) showVideos(ctx *th.Context, query telego.CallbackQuery) error {
	videos, err := b.videos.List(ctx.Context(), 0, 10)
	if err != nil {
		b.log.Errorw("load videos", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement des vidéos.")
		return nil
	}

	var rows [][]telego.InlineKeyboardButton
	var sb strings.Builder
	sb.WriteString("🎬 Vidéos promotionnelles\n\n")
	if len(videos) == 0 {
		sb.WriteString("Aucune vidéo.\n")
	}
	for _, v := range videos {
		state := "🚫"
		if v.IsActive {
			state = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s — expire le %s\n",
			state, v.ID, utils.Truncate(v.Title, 40), v.ExpiresAt.Format("02/01 15:04")))
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("🔄 #%d", v.ID)).
				WithCallbackData(fmt.Sprintf("admin_vid_toggle:%d", v.ID)),
			tu.InlineKeyboardButton(fmt.Sprintf("⏳ +%dh", int(b.cfg.VideoValidity.Hours()))).
				WithCallbackData(fmt.Sprintf("admin_vid_extend:%d", v.ID)),
			tu.InlineKeyboardButton("🗑").
				WithCallbackData(fmt.Sprintf("admin_vid_del:%d", v.ID)),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Nouvelle vidéo").WithCallbackData("admin_video")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu")),
	)

	b.sendWithKeyboard(ctx, query.From.ID, sb.String(), &telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	return nil
}

func (b *AdminBot) toggleVideo(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_vid_toggle:")
	if !ok {
		return nil
	}

	video, err := b.videos.Toggle(ctx.Context(), id)
	if err != nil {
		b.log.Errorw("toggle video", "video_id", id, "error", err)
		b.send(ctx, query.From.ID, "❌ Vidéo introuvable.")
		return nil
	}

	state := "désactivée"
	if video.IsActive {
		state = "activée"
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🔄 Vidéo #%d %s.", id, state))
	return b.showVideos(ctx, query)
}

func (b *AdminBot) extendVideo(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_vid_extend:")
	if !ok {
		return nil
	}

	if err := b.videos.ExtendValidity(ctx.Context(), id, b.cfg.VideoValidity); err != nil {
		b.log.Errorw("extend video", "video_id", id, "error", err)
		b.send(ctx, query.From.ID, "❌ Vidéo introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("⏳ Vidéo #%d prolongée de %d heures et réactivée.",
		id, int(b.cfg.VideoValidity.Hours())))
	return b.showVideos(ctx, query)
}

func (b *AdminBot) deleteVideo(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_vid_del:")
	if !ok {
		return nil
	}

	if err := b.videos.Delete(ctx.Context(), id); err != nil {
		b.log.Errorw("delete video", "video_id", id, "error", err)
		b.send(ctx, query.From.ID, "❌ Vidéo introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🗑 Vidéo #%d supprimée.", id))
	return b.showVideos(ctx, query)
}

func (b *AdminBot) promptVideoUpload(ctx *th.Context, query telego.CallbackQuery) error {
	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepAdminVideoUpload})
	b.send(ctx, query.From.ID,
		"🎬 Envoyez la nouvelle vidéo promotionnelle.\n\nElle remplacera la vidéo active et sera valable "+
			fmt.Sprintf("%d heures.", int(b.cfg.VideoValidity.Hours())))
	return nil
}

func (b *AdminBot) handleVideo(ctx *th.Context, update telego.Update) error {
	adminID := update.Message.From.ID

	st, err := b.sessions.Get(ctx.Context(), adminID)
	if err != nil || st.Step != session.StepAdminVideoUpload {
		return nil
	}

	video := update.Message.Video

	var cloudURL, cloudPublicID string
	if b.media.Configured() {
		if data, err := b.downloadFile(ctx.Context(), video.FileID); err != nil {
			b.log.Warnw("download video for storage", "error", err)
		} else if up, err := b.media.Upload(ctx.Context(), data, video.MimeType, storage.KindVideo); err != nil {
			b.log.Warnw("upload video to storage", "error", err)
		} else {
			cloudURL, cloudPublicID = up.URL, up.PublicID
		}
	}

	st.Step = session.StepAdminVideoCaption
	st.ProofFileID = video.FileID
	st.ProofURL = cloudURL
	st.ProofPublicID = cloudPublicID
	st.VideoTitle = video.FileName
	_ = b.sessions.Set(ctx.Context(), adminID, st)

	b.send(ctx, adminID, "✏️ Envoyez maintenant le titre et la légende de la vidéo, séparés par une ligne vide :\n\nTitre\n\nLégende…")
	return nil
}

func (b *AdminBot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	data, err := tu.DownloadFile(b.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return data, nil
}

func (b *AdminBot) finishVideoCreation(ctx *th.Context, adminID int64, st session.State, text string) error {
	title, caption := text, text
	if parts := strings.SplitN(text, "\n\n", 2); len(parts) == 2 {
		title = strings.TrimSpace(parts[0])
		caption = strings.TrimSpace(parts[1])
	}

	video, err := b.videos.Create(ctx.Context(), service.CreateVideoInput{
		Title:         utils.Truncate(title, 200),
		Caption:       caption,
		CloudURL:      st.ProofURL,
		CloudPublicID: st.ProofPublicID,
		FileID:        st.ProofFileID,
	})
	if err != nil {
		b.log.Errorw("create video", "error", err)
		b.send(ctx, adminID, "❌ Erreur lors de la création de la vidéo.")
		return nil
	}

	_ = b.sessions.Clear(ctx.Context(), adminID)
	b.send(ctx, adminID, fmt.Sprintf("✅ Vidéo « %s » activée jusqu'au %s.\n\n📢 Annonce envoyée aux utilisateurs.",
		video.Title, video.ExpiresAt.Format("02/01/2006 15:04")))

	// Announce through the user bot, off the handler goroutine.
	go func() {
		ids, err := b.users.AllTelegramIDs(context.Background())
		if err != nil {
			b.log.Errorw("load broadcast recipients", "error", err)
			return
		}
		b.broadcaster.Send(context.Background(), ids, fmt.Sprintf(
			"🎬 Nouvelle vidéo disponible !\n\n📹 %s\n\nPartagez-la dans vos groupes pour gagner %s par partage validé 💰",
			video.Title, utils.FormatAmount(b.cfg.RewardPerShare)))
	}()
	return nil
}

// --- Testimonials ---

func (b *AdminBot) showTestimonials(ctx *th.Context, query telego.CallbackQuery) error {
	tms, err := b.testimonials.All(ctx.Context())
	if err != nil {
		b.log.Errorw("load testimonials", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement des témoignages.")
		return nil
	}

	var rows [][]telego.InlineKeyboardButton
	var sb strings.Builder
	sb.WriteString("💬 Témoignages\n\n")
	for _, tm := range tms {
		state := "✅"
		if !tm.IsActive {
			state = "🚫"
		}
		sb.WriteString(fmt.Sprintf("%s #%d (%d utilisations): %s\n",
			state, tm.ID, tm.UsageCount, utils.Truncate(tm.Message, 60)))
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("🔄 #%d", tm.ID)).
				WithCallbackData(fmt.Sprintf("admin_tm_toggle:%d", tm.ID)),
			tu.InlineKeyboardButton(fmt.Sprintf("🗑 #%d", tm.ID)).
				WithCallbackData(fmt.Sprintf("admin_tm_del:%d", tm.ID)),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Ajouter").WithCallbackData("admin_tm_add")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu")),
	)

	b.sendWithKeyboard(ctx, query.From.ID, sb.String(), &telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	return nil
}

func (b *AdminBot) promptTestimonial(ctx *th.Context, query telego.CallbackQuery) error {
	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepAdminTestimonial})
	b.send(ctx, query.From.ID, "✏️ Envoyez le texte du témoignage :")
	return nil
}

func (b *AdminBot) toggleTestimonial(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_tm_toggle:")
	if !ok {
		return nil
	}
	if err := b.testimonials.Toggle(ctx.Context(), id); err != nil {
		b.send(ctx, query.From.ID, "❌ Témoignage introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🔄 Témoignage #%d basculé.", id))
	return b.showTestimonials(ctx, query)
}

func (b *AdminBot) deleteTestimonial(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_tm_del:")
	if !ok {
		return nil
	}
	if err := b.testimonials.Delete(ctx.Context(), id); err != nil {
		b.send(ctx, query.From.ID, "❌ Témoignage introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🗑 Témoignage #%d supprimé.", id))
	return nil
}

// --- Help videos ---

func (b *AdminBot) showHelpVideos(ctx *th.Context, query telego.CallbackQuery) error {
	hvs, err := b.helpVideos.All(ctx.Context())
	if err != nil {
		b.log.Errorw("load help videos", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement des tutoriels.")
		return nil
	}

	var rows [][]telego.InlineKeyboardButton
	var sb strings.Builder
	sb.WriteString("🎓 Tutoriels vidéo\n\n")
	if len(hvs) == 0 {
		sb.WriteString("Aucun tutoriel.\n")
	}
	for _, hv := range hvs {
		state := "✅"
		if !hv.IsActive {
			state = "🚫"
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s (%d vues)\n",
			state, hv.ID, utils.Truncate(hv.Title, 40), hv.ViewsCount))
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("🔄 #%d", hv.ID)).
				WithCallbackData(fmt.Sprintf("admin_hv_toggle:%d", hv.ID)),
			tu.InlineKeyboardButton(fmt.Sprintf("🗑 #%d", hv.ID)).
				WithCallbackData(fmt.Sprintf("admin_hv_del:%d", hv.ID)),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Ajouter").WithCallbackData("admin_hv_add")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu")),
	)

	b.sendWithKeyboard(ctx, query.From.ID, sb.String(), &telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	return nil
}

func (b *AdminBot) promptHelpVideo(ctx *th.Context, query telego.CallbackQuery) error {
	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepAdminHelpVideo})
	b.send(ctx, query.From.ID,
		"✏️ Envoyez le tutoriel au format :\n\nTitre\nLien de la vidéo\nDescription (optionnelle)")
	return nil
}

func (b *AdminBot) toggleHelpVideo(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_hv_toggle:")
	if !ok {
		return nil
	}
	if err := b.helpVideos.Toggle(ctx.Context(), id); err != nil {
		b.send(ctx, query.From.ID, "❌ Tutoriel introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🔄 Tutoriel #%d basculé.", id))
	return b.showHelpVideos(ctx, query)
}

func (b *AdminBot) deleteHelpVideo(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_hv_del:")
	if !ok {
		return nil
	}
	if err := b.helpVideos.Delete(ctx.Context(), id); err != nil {
		b.send(ctx, query.From.ID, "❌ Tutoriel introuvable.")
		return nil
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("🗑 Tutoriel #%d supprimé.", id))
	return b.showHelpVideos(ctx, query)
}

// --- Blacklist ---

func (b *AdminBot) showBlacklist(ctx *th.Context, query telego.CallbackQuery) error {
	entries, err := b.blacklist.List(ctx.Context())
	if err != nil {
		b.log.Errorw("load blacklist", "error", err)
		b.send(ctx, query.From.ID, "❌ Erreur lors du chargement de la liste noire.")
		return nil
	}

	var rows [][]telego.InlineKeyboardButton
	var sb strings.Builder
	sb.WriteString("🚫 Groupes sur liste noire\n\n")
	if len(entries) == 0 {
		sb.WriteString("Aucun groupe bloqué.\n")
	}
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("#%d %s", e.ID, e.GroupIdentifier))
		if e.Reason != "" {
			sb.WriteString(" — " + e.Reason)
		}
		sb.WriteString("\n")
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("♻️ Retirer #%d", e.ID)).
				WithCallbackData(fmt.Sprintf("admin_bl_del:%d", e.ID)),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Bloquer un groupe").WithCallbackData("admin_bl_add")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Menu").WithCallbackData("admin_menu")),
	)

	b.sendWithKeyboard(ctx, query.From.ID, sb.String(), &telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	return nil
}

func (b *AdminBot) promptBlacklist(ctx *th.Context, query telego.CallbackQuery) error {
	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepAdminBlacklistGroup})
	b.send(ctx, query.From.ID, "✏️ Envoyez le lien du groupe à bloquer, suivi éventuellement de la raison sur la ligne suivante :")
	return nil
}

func (b *AdminBot) removeBlacklist(ctx *th.Context, query telego.CallbackQuery) error {
	id, ok := parseID(query.Data, "admin_bl_del:")
	if !ok {
		return nil
	}

	entries, err := b.blacklist.List(ctx.Context())
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.ID == id {
			if err := b.blacklist.Remove(ctx.Context(), e.GroupIdentifier); err != nil {
				b.send(ctx, query.From.ID, "❌ Erreur lors du retrait.")
				return nil
			}
			b.send(ctx, query.From.ID, fmt.Sprintf("♻️ Groupe %s retiré de la liste noire.", e.GroupIdentifier))
			return nil
		}
	}
	return nil
}

// --- Broadcast ---

func (b *AdminBot) promptBroadcast(ctx *th.Context, query telego.CallbackQuery) error {
	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepAdminBroadcast})
	b.send(ctx, query.From.ID, "📢 Envoyez le message à diffuser à tous les utilisateurs :")
	return nil
}

// --- User moderation ---

func (b *AdminBot) handleBlock(ctx *th.Context, update telego.Update) error {
	return b.toggleBlock(ctx, update, true)
}

func (b *AdminBot) handleUnblock(ctx *th.Context, update telego.Update) error {
	return b.toggleBlock(ctx, update, false)
}

func (b *AdminBot) toggleBlock(ctx *th.Context, update telego.Update, blocked bool) error {
	adminID := update.Message.From.ID
	parts := strings.Fields(update.Message.Text)
	if len(parts) != 2 {
		b.send(ctx, adminID, "Usage: /block <telegram_id> ou /unblock <telegram_id>")
		return nil
	}

	targetID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.send(ctx, adminID, "❌ Identifiant invalide.")
		return nil
	}

	if err := b.users.SetBlocked(ctx.Context(), targetID, blocked); err != nil {
		b.send(ctx, adminID, "❌ Utilisateur introuvable.")
		return nil
	}

	verb := "débloqué"
	if blocked {
		verb = "bloqué"
	}
	b.send(ctx, adminID, fmt.Sprintf("✅ Utilisateur %d %s.", targetID, verb))
	return nil
}

// --- Text routing ---

func (b *AdminBot) handleText(ctx *th.Context, update telego.Update) error {
	adminID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	st, err := b.sessions.Get(ctx.Context(), adminID)
	if err != nil || st.Step == session.StepNone {
		return nil
	}

	switch st.Step {
	case session.StepAdminRejectReason:
		_ = b.sessions.Clear(ctx.Context(), adminID)
		if st.Method == "withdrawal" {
			applied, err := b.withdrawals.Reject(ctx.Context(), st.TargetID, adminID, text)
			if err != nil {
				b.log.Errorw("reject withdrawal", "withdrawal_id", st.TargetID, "error", err)
				b.send(ctx, adminID, "❌ Erreur lors du refus.")
				return nil
			}
			if !applied {
				b.send(ctx, adminID, "ℹ️ Ce retrait a déjà été traité par un autre admin.")
				return nil
			}
			b.send(ctx, adminID, fmt.Sprintf("❌ Retrait #%d refusé, montant recrédité.", st.TargetID))
			return nil
		}
		return b.doRejectShare(ctx, adminID, st.TargetID, text)

	case session.StepAdminVideoCaption:
		return b.finishVideoCreation(ctx, adminID, st, text)

	case session.StepAdminTestimonial:
		_ = b.sessions.Clear(ctx.Context(), adminID)
		if _, err := b.testimonials.Create(ctx.Context(), text); err != nil {
			b.log.Errorw("create testimonial", "error", err)
			b.send(ctx, adminID, "❌ Erreur lors de la création.")
			return nil
		}
		b.send(ctx, adminID, "✅ Témoignage ajouté.")
		return nil

	case session.StepAdminHelpVideo:
		_ = b.sessions.Clear(ctx.Context(), adminID)
		lines := strings.SplitN(text, "\n", 3)
		if len(lines) < 2 || strings.TrimSpace(lines[1]) == "" {
			b.send(ctx, adminID, "❌ Format invalide. Titre sur la première ligne, lien sur la deuxième.")
			return nil
		}
		in := service.CreateHelpVideoInput{
			Title:    utils.Truncate(strings.TrimSpace(lines[0]), 200),
			VideoURL: strings.TrimSpace(lines[1]),
		}
		if len(lines) == 3 {
			in.Description = strings.TrimSpace(lines[2])
		}
		hv, err := b.helpVideos.Create(ctx.Context(), in)
		if err != nil {
			b.log.Errorw("create help video", "error", err)
			b.send(ctx, adminID, "❌ Erreur lors de la création du tutoriel.")
			return nil
		}
		b.send(ctx, adminID, fmt.Sprintf("✅ Tutoriel « %s » ajouté.", hv.Title))
		return nil

	case session.StepAdminBlacklistGroup:
		_ = b.sessions.Clear(ctx.Context(), adminID)
		link, reason := text, ""
		if parts := strings.SplitN(text, "\n", 2); len(parts) == 2 {
			link = strings.TrimSpace(parts[0])
			reason = strings.TrimSpace(parts[1])
		}
		if err := b.blacklist.Add(ctx.Context(), link, reason); err != nil {
			b.log.Errorw("blacklist group", "error", err)
			b.send(ctx, adminID, "❌ Erreur lors du blocage.")
			return nil
		}
		b.send(ctx, adminID, fmt.Sprintf("🚫 Groupe %s ajouté à la liste noire.", link))
		return nil

	case session.StepAdminBroadcast:
		_ = b.sessions.Clear(ctx.Context(), adminID)
		ids, err := b.users.AllTelegramIDs(ctx.Context())
		if err != nil {
			b.log.Errorw("load broadcast recipients", "error", err)
			b.send(ctx, adminID, "❌ Erreur lors du chargement des destinataires.")
			return nil
		}
		b.send(ctx, adminID, fmt.Sprintf("📢 Diffusion lancée vers %d utilisateurs…", len(ids)))
		go func() {
			report := b.broadcaster.Send(context.Background(), ids, text)
			_, _ = b.bot.SendMessage(context.Background(), tu.Message(tu.ID(adminID), fmt.Sprintf(
				"📢 Diffusion terminée.\n\n✅ Envoyés: %d\n❌ Échecs: %d\n👥 Total: %d",
				report.Success, report.Failed, report.Total)))
		}()
		return nil
	}
	return nil
}

func parseID(data, prefix string) (uint, bool) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func displayUser(u *models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("Utilisateur #%d", u.TelegramID)
}
