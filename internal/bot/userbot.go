package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/models"
	"github.com/Youmto/SHAREMONEY/internal/service"
	"github.com/Youmto/SHAREMONEY/internal/session"
	"github.com/Youmto/SHAREMONEY/internal/storage"
	"github.com/Youmto/SHAREMONEY/internal/utils"
)

var timeNow = time.Now

// UserBot drives the member-facing conversation: registration, the share
// flow, withdrawals, referrals and help.
type UserBot struct {
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
	detector     *fraud.Detector
	media        *storage.Client

	username string
}

type UserBotDeps struct {
	Cfg      *config.Config
	Log      *zap.SugaredLogger
	Sessions *session.Store

	Users        *service.Users
	Videos       *service.Videos
	Shares       *service.Shares
	Withdrawals  *service.Withdrawals
	Testimonials *service.Testimonials
	HelpVideos   *service.HelpVideos
	Detector     *fraud.Detector
	Media        *storage.Client
}

func NewUserBot(token string, deps UserBotDeps) (*UserBot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create user bot: %w", err)
	}

	return &UserBot{
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
		detector:     deps.Detector,
		media:        deps.Media,
	}, nil
}

// Instance exposes the underlying client so the notifier can reuse it.
func (b *UserBot) Instance() *telego.Bot {
	return b.bot
}

func (b *UserBot) Start(ctx context.Context) error {
	if me, err := b.bot.GetMe(ctx); err == nil {
		b.username = me.Username
	}

	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	handler.Handle(b.handleStart, th.CommandEqual("start"))
	handler.Handle(b.handleCancel, th.CommandEqual("cancel"))

	handler.Handle(b.cb(b.showMenu), th.CallbackDataEqual("menu"))
	handler.Handle(b.cb(b.startShareFlow), th.CallbackDataEqual("share"))
	handler.Handle(b.cb(b.pickPlatform), th.CallbackDataPrefix("share_platform:"))
	handler.Handle(b.cb(b.pickTestimonial), th.CallbackDataPrefix("share_testimonial:"))
	handler.Handle(b.cb(b.showBalance), th.CallbackDataEqual("balance"))
	handler.Handle(b.cb(b.startWithdrawFlow), th.CallbackDataEqual("withdraw"))
	handler.Handle(b.cb(b.pickPaymentMethod), th.CallbackDataPrefix("withdraw_method:"))
	handler.Handle(b.cb(b.showReferral), th.CallbackDataEqual("referral"))
	handler.Handle(b.cb(b.showHistory), th.CallbackDataEqual("history"))
	handler.Handle(b.cb(b.showHelp), th.CallbackDataEqual("help"))
	handler.Handle(b.cb(b.sendHelpVideo), th.CallbackDataPrefix("help_video:"))

	handler.Handle(b.handleContact, messageWithContact)
	handler.Handle(b.handlePhoto, messageWithPhoto)
	handler.Handle(b.handleText, th.AnyMessageWithText())

	b.log.Info("user bot started")
	return handler.Start()
}

func messageWithContact(_ context.Context, update telego.Update) bool {
	return update.Message != nil && update.Message.Contact != nil
}

func messageWithPhoto(_ context.Context, update telego.Update) bool {
	return update.Message != nil && len(update.Message.Photo) > 0
}

// cb wraps a callback handler with the answer that stops the client spinner.
func (b *UserBot) cb(fn func(ctx *th.Context, query telego.CallbackQuery) error) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		query := update.CallbackQuery
		if query == nil {
			return nil
		}
		err := fn(ctx, *query)
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(query.ID))
		return err
	}
}

func (b *UserBot) send(ctx *th.Context, chatID int64, text string) {
	_, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(chatID), text))
	if err != nil {
		b.log.Warnw("send message", "chat_id", chatID, "error", err)
	}
}

func (b *UserBot) sendWithKeyboard(ctx *th.Context, chatID int64, text string, kb telego.ReplyMarkup) {
	_, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(chatID), text).WithReplyMarkup(kb))
	if err != nil {
		b.log.Warnw("send message", "chat_id", chatID, "error", err)
	}
}

// currentUser loads the caller, refusing blocked users with a message. A nil
// user means the handler should stop.
func (b *UserBot) currentUser(ctx *th.Context, telegramID int64) *models.User {
	user, err := b.users.ByTelegramID(ctx.Context(), telegramID)
	if err != nil {
		b.send(ctx, telegramID, "❌ Utilisateur introuvable. Envoyez /start pour vous inscrire.")
		return nil
	}
	if user.IsBlocked {
		b.send(ctx, telegramID, "🚫 Votre compte est bloqué. Contactez le support.")
		return nil
	}
	b.users.Touch(ctx.Context(), telegramID)
	return user
}

func (b *UserBot) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	from := message.From

	referralCode := ""
	if parts := strings.Split(message.Text, " "); len(parts) > 1 {
		referralCode = strings.TrimSpace(parts[1])
	}

	user, created, err := b.users.Register(ctx.Context(), from.ID, from.Username, from.FirstName, referralCode)
	if err != nil {
		b.log.Errorw("register user", "telegram_id", from.ID, "error", err)
		b.send(ctx, from.ID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}
	if user.IsBlocked {
		b.send(ctx, from.ID, "🚫 Votre compte est bloqué. Contactez le support.")
		return nil
	}

	if created && user.Phone == "" {
		_ = b.sessions.Set(ctx.Context(), from.ID, session.State{Step: session.StepAwaitPhone})
		b.sendWithKeyboard(ctx, from.ID,
			fmt.Sprintf("👋 Bienvenue %s !\n\nGagnez de l'argent en partageant nos vidéos dans vos groupes.\n\n"+
				"💰 %s par partage validé\n🎁 %s par filleul actif\n\n"+
				"Pour commencer, partagez votre numéro de téléphone :",
				from.FirstName, utils.FormatAmount(b.cfg.RewardPerShare), utils.FormatAmount(b.cfg.ReferralBonus)),
			contactKeyboard())
		return nil
	}

	_ = b.sessions.Clear(ctx.Context(), from.ID)
	b.sendWithKeyboard(ctx, from.ID,
		fmt.Sprintf("👋 Bonjour %s !\n\n💰 Solde: %s\n\nQue voulez-vous faire ?",
			from.FirstName, utils.FormatAmount(user.Balance)),
		mainMenuKeyboard())
	return nil
}

func (b *UserBot) handleCancel(ctx *th.Context, update telego.Update) error {
	telegramID := update.Message.From.ID
	_ = b.sessions.Clear(ctx.Context(), telegramID)
	b.sendWithKeyboard(ctx, telegramID, "✅ Opération annulée.", mainMenuKeyboard())
	return nil
}

func (b *UserBot) showMenu(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}
	_ = b.sessions.Clear(ctx.Context(), query.From.ID)
	b.sendWithKeyboard(ctx, query.From.ID,
		fmt.Sprintf("🏠 Menu principal\n\n💰 Solde: %s", utils.FormatAmount(user.Balance)),
		mainMenuKeyboard())
	return nil
}

// --- Share flow ---

func (b *UserBot) startShareFlow(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	video, err := b.videos.Active(ctx.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveVideo) {
			b.sendWithKeyboard(ctx, query.From.ID,
				"😕 Aucune vidéo à partager pour le moment.\n\nRevenez plus tard, vous serez notifié dès qu'une nouvelle vidéo sera disponible !",
				backToMenuKeyboard())
			return nil
		}
		b.log.Errorw("load active video", "error", err)
		b.send(ctx, query.From.ID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}

	b.sendVideoContent(ctx, query.From.ID, video)

	err = b.sessions.Set(ctx.Context(), query.From.ID, session.State{
		Step:    session.StepSharePlatform,
		VideoID: video.ID,
	})
	if err != nil {
		b.log.Errorw("store session", "error", err)
	}

	b.sendWithKeyboard(ctx, query.From.ID,
		"📤 Sur quelle plateforme allez-vous partager cette vidéo ?",
		platformKeyboard(b.cfg))
	return nil
}

func (b *UserBot) sendVideoContent(ctx *th.Context, chatID int64, video *models.Video) {
	caption := fmt.Sprintf("🎬 %s\n\n%s", video.Title, video.Caption)

	if video.FileID != "" {
		_, err := ctx.Bot().SendVideo(ctx.Context(), tu.Video(tu.ID(chatID), tu.FileFromID(video.FileID)).
			WithCaption(caption))
		if err == nil {
			return
		}
		b.log.Warnw("send video by file id", "video_id", video.ID, "error", err)
	}

	url := video.CloudURL
	if url == "" {
		url = video.URL
	}
	b.send(ctx, chatID, fmt.Sprintf("%s\n\n🔗 %s", caption, url))
}

func (b *UserBot) pickPlatform(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	st, err := b.sessions.Get(ctx.Context(), query.From.ID)
	if err != nil || st.Step != session.StepSharePlatform {
		b.send(ctx, query.From.ID, "⚠️ Session expirée. Recommencez depuis le menu.")
		return nil
	}

	platform := strings.TrimPrefix(query.Data, "share_platform:")
	limits, ok := b.cfg.Platforms[platform]
	if !ok {
		return nil
	}

	today, err := b.detector.SharesToday(ctx.Context(), user.ID, models.Platform(platform))
	if err == nil && today >= limits.MaxSharesADay {
		b.sendWithKeyboard(ctx, query.From.ID,
			fmt.Sprintf("❌ Limite atteinte: %d partages %s par jour.\n\nRevenez demain !",
				limits.MaxSharesADay, limits.Name),
			backToMenuKeyboard())
		return nil
	}

	st.Platform = platform
	st.Step = session.StepShareTestimonial
	_ = b.sessions.Set(ctx.Context(), query.From.ID, st)

	tms, err := b.testimonials.Active(ctx.Context())
	if err != nil || len(tms) == 0 {
		return b.promptProof(ctx, query.From.ID, st)
	}

	b.sendWithKeyboard(ctx, query.From.ID,
		"💬 Choisissez un témoignage à publier avec la vidéo (il rend votre partage plus crédible) :",
		testimonialKeyboard(tms))
	return nil
}

func (b *UserBot) pickTestimonial(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	st, err := b.sessions.Get(ctx.Context(), query.From.ID)
	if err != nil || st.Step != session.StepShareTestimonial {
		b.send(ctx, query.From.ID, "⚠️ Session expirée. Recommencez depuis le menu.")
		return nil
	}

	raw := strings.TrimPrefix(query.Data, "share_testimonial:")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}

	if id > 0 {
		tm, err := b.testimonials.ByID(ctx.Context(), uint(id))
		if err == nil {
			st.TestimonialID = tm.ID
			b.send(ctx, query.From.ID, fmt.Sprintf("💬 Témoignage à copier:\n\n%s", tm.Message))
		}
	}

	return b.promptProof(ctx, query.From.ID, st)
}

func (b *UserBot) promptProof(ctx *th.Context, telegramID int64, st session.State) error {
	limits := b.cfg.Platforms[st.Platform]
	st.Step = session.StepShareProof
	_ = b.sessions.Set(ctx.Context(), telegramID, st)

	b.send(ctx, telegramID, fmt.Sprintf(
		"📸 Partagez la vidéo dans un groupe %s d'au moins %d membres, puis envoyez une capture d'écran du partage.\n\n"+
			"⚠️ La capture doit faire au moins %dx%d pixels et montrer clairement le partage.",
		limits.Name, limits.MinMembers, b.cfg.MinImageSize, b.cfg.MinImageSize))
	return nil
}

func (b *UserBot) handlePhoto(ctx *th.Context, update telego.Update) error {
	telegramID := update.Message.From.ID

	user := b.currentUser(ctx, telegramID)
	if user == nil {
		return nil
	}

	st, err := b.sessions.Get(ctx.Context(), telegramID)
	if err != nil || st.Step != session.StepShareProof {
		return nil
	}

	// Largest photo size is last in the array.
	photo := update.Message.Photo[len(update.Message.Photo)-1]

	data, err := b.downloadFile(ctx.Context(), photo.FileID)
	if err != nil {
		b.log.Warnw("download proof", "telegram_id", telegramID, "error", err)
		b.send(ctx, telegramID, "❌ Impossible de télécharger l'image. Réessayez.")
		return nil
	}

	result, err := b.detector.Evaluate(ctx.Context(), data, user.ID, "", models.Platform(st.Platform))
	if err != nil {
		b.log.Errorw("evaluate proof", "telegram_id", telegramID, "error", err)
		b.send(ctx, telegramID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}
	if !result.Admissible {
		b.send(ctx, telegramID, result.Reason+"\n\nEnvoyez une autre capture d'écran.")
		return nil
	}

	st.ProofFileID = photo.FileID
	st.ProofHash = result.Hash
	st.AutoScore = result.Score

	if b.media.Configured() {
		up, err := b.media.Upload(ctx.Context(), data, "image/jpeg", storage.KindProof)
		if err != nil {
			b.log.Warnw("upload proof to storage", "error", err)
		} else {
			st.ProofURL = up.URL
			st.ProofPublicID = up.PublicID
		}
	}

	st.Step = session.StepShareGroupLink
	_ = b.sessions.Set(ctx.Context(), telegramID, st)

	b.send(ctx, telegramID, "🔗 Envoyez maintenant le lien du groupe où vous avez partagé la vidéo.")
	return nil
}

func (b *UserBot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
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

func (b *UserBot) handleText(ctx *th.Context, update telego.Update) error {
	telegramID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	user := b.currentUser(ctx, telegramID)
	if user == nil {
		return nil
	}

	st, err := b.sessions.Get(ctx.Context(), telegramID)
	if err != nil {
		return nil
	}

	switch st.Step {
	case session.StepShareGroupLink:
		return b.handleGroupLink(ctx, user, st, text)
	case session.StepShareGroupName:
		return b.handleGroupName(ctx, user, st, text)
	case session.StepWithdrawDetails:
		return b.handleWithdrawDetails(ctx, user, st, text)
	case session.StepWithdrawAmount:
		return b.handleWithdrawAmount(ctx, user, st, text)
	default:
		b.sendWithKeyboard(ctx, telegramID, "🤔 Je n'ai pas compris. Utilisez le menu :", mainMenuKeyboard())
		return nil
	}
}

func (b *UserBot) handleGroupLink(ctx *th.Context, user *models.User, st session.State, text string) error {
	ok, reason := fraud.ValidateGroupLink(text, models.Platform(st.Platform))
	if !ok {
		b.send(ctx, user.TelegramID, reason)
		return nil
	}

	admitted, reason, err := b.detector.CheckGroup(ctx.Context(), user.ID, text)
	if err != nil {
		b.log.Errorw("check group", "error", err)
		b.send(ctx, user.TelegramID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}
	if !admitted {
		b.send(ctx, user.TelegramID, reason+"\n\nEnvoyez un autre lien de groupe.")
		return nil
	}

	st.GroupLink = text
	st.Step = session.StepShareGroupName
	_ = b.sessions.Set(ctx.Context(), user.TelegramID, st)

	b.send(ctx, user.TelegramID, "✏️ Quel est le nom du groupe ?")
	return nil
}

func (b *UserBot) handleGroupName(ctx *th.Context, user *models.User, st session.State, text string) error {
	in := service.SubmitShareInput{
		UserID:        user.ID,
		VideoID:       st.VideoID,
		Platform:      models.Platform(st.Platform),
		ProofFileID:   st.ProofFileID,
		ProofHash:     st.ProofHash,
		ProofURL:      st.ProofURL,
		ProofPublicID: st.ProofPublicID,
		GroupName:     utils.Truncate(text, 200),
		GroupLink:     st.GroupLink,
	}
	if st.TestimonialID > 0 {
		id := st.TestimonialID
		in.TestimonialID = &id
	}
	score := st.AutoScore
	in.AutoScore = &score

	_, err := b.shares.Submit(ctx.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateProof) {
			b.send(ctx, user.TelegramID, "❌ Cette capture d'écran a déjà été soumise.")
			_ = b.sessions.Clear(ctx.Context(), user.TelegramID)
			return nil
		}
		b.log.Errorw("submit share", "user_id", user.ID, "error", err)
		b.send(ctx, user.TelegramID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}

	_ = b.sessions.Clear(ctx.Context(), user.TelegramID)
	b.sendWithKeyboard(ctx, user.TelegramID, fmt.Sprintf(
		"✅ Partage soumis !\n\n⏳ Un administrateur va vérifier votre capture d'écran.\n"+
			"💰 Vous recevrez %s dès validation.",
		utils.FormatAmount(b.cfg.RewardPerShare)),
		backToMenuKeyboard())
	return nil
}

// --- Withdrawal flow ---

func (b *UserBot) startWithdrawFlow(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	if user.Balance < b.cfg.MinWithdrawal {
		b.sendWithKeyboard(ctx, query.From.ID, fmt.Sprintf(
			"❌ Solde insuffisant pour un retrait.\n\n💰 Votre solde: %s\n📉 Minimum requis: %s\n\nContinuez à partager pour augmenter votre solde !",
			utils.FormatAmount(user.Balance), utils.FormatAmount(b.cfg.MinWithdrawal)),
			backToMenuKeyboard())
		return nil
	}

	_ = b.sessions.Set(ctx.Context(), query.From.ID, session.State{Step: session.StepWithdrawMethod})
	b.sendWithKeyboard(ctx, query.From.ID,
		fmt.Sprintf("💸 Retrait\n\n💰 Solde disponible: %s\n\nChoisissez votre méthode de paiement :",
			utils.FormatAmount(user.Balance)),
		paymentMethodKeyboard(b.cfg))
	return nil
}

func (b *UserBot) pickPaymentMethod(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	st, err := b.sessions.Get(ctx.Context(), query.From.ID)
	if err != nil || st.Step != session.StepWithdrawMethod {
		b.send(ctx, query.From.ID, "⚠️ Session expirée. Recommencez depuis le menu.")
		return nil
	}

	method := strings.TrimPrefix(query.Data, "withdraw_method:")
	pm, ok := b.cfg.PaymentMethods[method]
	if !ok {
		return nil
	}

	st.Method = method
	st.Step = session.StepWithdrawDetails
	_ = b.sessions.Set(ctx.Context(), query.From.ID, st)

	b.send(ctx, query.From.ID, fmt.Sprintf("%s %s\n\n✏️ %s :", pm.Emoji, pm.Name, pm.Placeholder))
	return nil
}

func (b *UserBot) handleWithdrawDetails(ctx *th.Context, user *models.User, st session.State, text string) error {
	if len(text) < 3 {
		b.send(ctx, user.TelegramID, "❌ Informations trop courtes. Réessayez.")
		return nil
	}

	st.Details = utils.Truncate(text, 200)
	st.Step = session.StepWithdrawAmount
	_ = b.sessions.Set(ctx.Context(), user.TelegramID, st)

	b.send(ctx, user.TelegramID, fmt.Sprintf(
		"💰 Quel montant voulez-vous retirer ?\n\nSolde: %s\nMinimum: %s",
		utils.FormatAmount(user.Balance), utils.FormatAmount(b.cfg.MinWithdrawal)))
	return nil
}

func (b *UserBot) handleWithdrawAmount(ctx *th.Context, user *models.User, st session.State, text string) error {
	amount, err := strconv.ParseInt(strings.ReplaceAll(text, " ", ""), 10, 64)
	if err != nil || amount <= 0 {
		b.send(ctx, user.TelegramID, "❌ Montant invalide. Entrez un nombre entier en FCFA.")
		return nil
	}

	_, err = b.withdrawals.Create(ctx.Context(), user.ID, amount, st.Method, st.Details)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmountBelowMinimum):
			b.send(ctx, user.TelegramID, fmt.Sprintf("❌ Le montant minimum de retrait est %s.",
				utils.FormatAmount(b.cfg.MinWithdrawal)))
		case errors.Is(err, service.ErrInsufficientBalance):
			b.send(ctx, user.TelegramID, "❌ Solde insuffisant.")
			_ = b.sessions.Clear(ctx.Context(), user.TelegramID)
		default:
			b.log.Errorw("create withdrawal", "user_id", user.ID, "error", err)
			b.send(ctx, user.TelegramID, "❌ Une erreur est survenue. Réessayez plus tard.")
		}
		return nil
	}

	_ = b.sessions.Clear(ctx.Context(), user.TelegramID)
	pm := b.cfg.PaymentMethods[st.Method]
	b.sendWithKeyboard(ctx, user.TelegramID, fmt.Sprintf(
		"✅ Demande de retrait enregistrée !\n\n💰 Montant: %s\n💳 Méthode: %s\n📱 Compte: %s\n\n"+
			"⏳ Le paiement sera traité sous 24-48h.",
		utils.FormatAmount(amount), pm.Name, st.Details),
		backToMenuKeyboard())
	return nil
}

// --- Account views ---

func (b *UserBot) showBalance(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	approved, resolved, err := b.shares.UserCounters(ctx.Context(), user.ID)
	if err != nil {
		b.log.Warnw("load share counters", "error", err)
	}

	rate := "—"
	if resolved > 0 {
		rate = fmt.Sprintf("%.0f%%", float64(approved)/float64(resolved)*100)
	}

	b.sendWithKeyboard(ctx, query.From.ID, fmt.Sprintf(
		"💰 Mon solde\n\n💵 Disponible: %s\n📈 Total gagné: %s\n✅ Partages validés: %d\n🎯 Taux de validation: %s",
		utils.FormatAmount(user.Balance), utils.FormatAmount(user.TotalEarned), approved, rate),
		backToMenuKeyboard())
	return nil
}

func (b *UserBot) showReferral(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	referred, credited, err := b.users.Referrals(ctx.Context(), user.ID)
	if err != nil {
		b.log.Errorw("load referrals", "error", err)
		b.send(ctx, query.From.ID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.username, user.ReferralCode)
	b.sendWithKeyboard(ctx, query.From.ID, fmt.Sprintf(
		"🤝 Parrainage\n\nInvitez vos amis et gagnez %s pour chaque filleul dont le premier partage est validé !\n\n"+
			"👥 Filleuls: %d\n✅ Filleuls actifs: %d\n💰 Gagné: %s\n\n🔗 Votre lien:\n%s",
		utils.FormatAmount(b.cfg.ReferralBonus), len(referred), credited,
		utils.FormatAmount(credited*b.cfg.ReferralBonus), link),
		backToMenuKeyboard())
	return nil
}

func (b *UserBot) showHistory(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	shares, err := b.shares.UserHistory(ctx.Context(), user.ID, 10)
	if err != nil {
		b.log.Errorw("load share history", "error", err)
		b.send(ctx, query.From.ID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📋 Historique\n\n📤 Derniers partages:\n")
	if len(shares) == 0 {
		sb.WriteString("Aucun partage pour le moment.\n")
	}
	for _, sh := range shares {
		sb.WriteString(fmt.Sprintf("%s %s · %s\n",
			utils.StatusEmoji(string(sh.Status)),
			utils.Truncate(sh.GroupName, 30),
			utils.TimeAgo(sh.CreatedAt, timeNow())))
	}

	wds, err := b.withdrawals.UserHistory(ctx.Context(), user.ID, 5)
	if err == nil && len(wds) > 0 {
		sb.WriteString("\n💸 Derniers retraits:\n")
		for _, wd := range wds {
			sb.WriteString(fmt.Sprintf("%s %s · %s\n",
				utils.StatusEmoji(string(wd.Status)),
				utils.FormatAmount(wd.Amount),
				utils.TimeAgo(wd.CreatedAt, timeNow())))
		}
	}

	b.sendWithKeyboard(ctx, query.From.ID, sb.String(), backToMenuKeyboard())
	return nil
}

func (b *UserBot) showHelp(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	hvs, err := b.helpVideos.Active(ctx.Context())
	if err != nil {
		b.log.Warnw("load help videos", "error", err)
	}

	text := fmt.Sprintf(
		"❓ Comment ça marche\n\n"+
			"1️⃣ Regardez la vidéo du jour\n"+
			"2️⃣ Partagez-la dans un groupe (Telegram: %d+ membres, WhatsApp: %d+ membres)\n"+
			"3️⃣ Envoyez une capture d'écran du partage\n"+
			"4️⃣ Gagnez %s après validation\n\n"+
			"🎁 Bonus: %s par ami parrainé dont le premier partage est validé\n"+
			"💸 Retrait à partir de %s\n\n📢 Canal officiel: %s",
		b.cfg.Platforms["telegram"].MinMembers, b.cfg.Platforms["whatsapp"].MinMembers,
		utils.FormatAmount(b.cfg.RewardPerShare), utils.FormatAmount(b.cfg.ReferralBonus),
		utils.FormatAmount(b.cfg.MinWithdrawal), b.cfg.ChannelLink)

	if len(hvs) > 0 {
		b.sendWithKeyboard(ctx, query.From.ID, text+"\n\n🎬 Tutoriels vidéo :", helpVideosKeyboard(hvs))
	} else {
		b.sendWithKeyboard(ctx, query.From.ID, text, backToMenuKeyboard())
	}
	return nil
}

func (b *UserBot) sendHelpVideo(ctx *th.Context, query telego.CallbackQuery) error {
	user := b.currentUser(ctx, query.From.ID)
	if user == nil {
		return nil
	}

	raw := strings.TrimPrefix(query.Data, "help_video:")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}

	hv, err := b.helpVideos.ByID(ctx.Context(), uint(id))
	if err != nil {
		b.send(ctx, query.From.ID, "❌ Tutoriel introuvable.")
		return nil
	}

	b.helpVideos.RecordView(ctx.Context(), hv.ID)

	caption := fmt.Sprintf("🎬 %s\n\n%s", hv.Title, hv.Description)
	if hv.VideoFileID != "" {
		_, err := ctx.Bot().SendVideo(ctx.Context(), tu.Video(tu.ID(query.From.ID), tu.FileFromID(hv.VideoFileID)).
			WithCaption(caption))
		if err == nil {
			return nil
		}
		b.log.Warnw("send help video", "help_video_id", hv.ID, "error", err)
	}

	url := hv.CloudURL
	if url == "" {
		url = hv.VideoURL
	}
	b.send(ctx, query.From.ID, fmt.Sprintf("%s\n\n🔗 %s", caption, url))
	return nil
}

// --- Registration ---

func (b *UserBot) handleContact(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID

	st, err := b.sessions.Get(ctx.Context(), telegramID)
	if err != nil || st.Step != session.StepAwaitPhone {
		return nil
	}

	// Only accept the sender's own contact card.
	if message.Contact.UserID != telegramID {
		b.send(ctx, telegramID, "❌ Partagez votre propre numéro via le bouton.")
		return nil
	}

	user := b.currentUser(ctx, telegramID)
	if user == nil {
		return nil
	}

	if err := b.users.UpdatePhone(ctx.Context(), user.ID, message.Contact.PhoneNumber); err != nil {
		b.log.Errorw("update phone", "user_id", user.ID, "error", err)
	}
	_ = b.sessions.Clear(ctx.Context(), telegramID)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID),
		"✅ Inscription terminée !").WithReplyMarkup(&telego.ReplyKeyboardRemove{RemoveKeyboard: true}))

	b.sendWithKeyboard(ctx, telegramID,
		"🏠 Menu principal\n\nQue voulez-vous faire ?",
		mainMenuKeyboard())
	return nil
}
