package fraud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/database"
	"github.com/Youmto/SHAREMONEY/internal/models"
)

// Result is the admissibility verdict for one proof submission. Score is
// advisory metadata for the admin review UI and never resolves a share on
// its own.
type Result struct {
	Admissible bool
	Reason     string
	Score      int
	Hash       string
}

// Detector runs the pre-persistence admissibility checks, cheapest first,
// short-circuiting on the first failure. The duplicate-hash pre-check here is
// an optimization only: the unique index on shares.proof_image_hash is the
// authoritative guard against racing submissions of the same image.
type Detector struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.SugaredLogger
	now func() time.Time
}

func NewDetector(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Detector {
	return &Detector{db: db, cfg: cfg, log: log, now: time.Now}
}

// Evaluate validates a proof image plus its submission context. An empty
// groupLink skips the group checks (the conversational flow collects the
// link after the screenshot; CheckGroup covers it then).
func (d *Detector) Evaluate(ctx context.Context, imageData []byte, userID uint, groupLink string, platform models.Platform) (Result, error) {
	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return inadmissible("❌ Fichier image invalide"), nil
	}

	if cfgImg.Width < d.cfg.MinImageSize || cfgImg.Height < d.cfg.MinImageSize {
		return inadmissible(fmt.Sprintf("❌ Image trop petite. Minimum requis: %dx%d pixels",
			d.cfg.MinImageSize, d.cfg.MinImageSize)), nil
	}

	hash := HashImage(imageData)

	dup, err := d.isDuplicateProof(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if dup {
		r := inadmissible("❌ Cette capture d'écran a déjà été soumise")
		r.Hash = hash
		return r, nil
	}

	if groupLink != "" {
		if ok, reason, err := d.checkGroup(ctx, userID, groupLink); err != nil {
			return Result{}, err
		} else if !ok {
			r := inadmissible(reason)
			r.Hash = hash
			return r, nil
		}
	}

	max := d.cfg.MaxSharesPerDay(string(platform))
	today, err := d.SharesToday(ctx, userID, platform)
	if err != nil {
		return Result{}, err
	}
	if max > 0 && today >= max {
		name := d.cfg.Platforms[string(platform)].Name
		r := inadmissible(fmt.Sprintf("❌ Limite atteinte: %d partages %s par jour", max, name))
		r.Hash = hash
		return r, nil
	}

	rate, err := d.ValidationRate(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	return Result{Admissible: true, Score: scoreFromRate(rate), Hash: hash}, nil
}

// CheckGroup runs the group-scoped checks on their own: blacklist veto and
// the per-user reuse window.
func (d *Detector) CheckGroup(ctx context.Context, userID uint, groupLink string) (bool, string, error) {
	return d.checkGroup(ctx, userID, groupLink)
}

func (d *Detector) checkGroup(ctx context.Context, userID uint, groupLink string) (bool, string, error) {
	link := NormalizeLink(groupLink)

	blacklisted, err := d.isGroupBlacklisted(ctx, link)
	if err != nil {
		return false, "", err
	}
	if blacklisted {
		return false, "❌ Ce groupe est sur liste noire", nil
	}

	reused, err := d.groupRecentlyUsed(ctx, userID, link)
	if err != nil {
		return false, "", err
	}
	if reused {
		return false, fmt.Sprintf("❌ Vous avez déjà partagé dans ce groupe ces %d derniers jours",
			d.cfg.GroupReuseDays), nil
	}

	return true, "", nil
}

// HashImage returns the canonical dedup key of a proof image.
func HashImage(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidationRate returns approved/(approved+rejected) over the user's
// resolved shares, as a percentage. Zero means "nothing resolved yet", which
// is distinct from a genuine 0% approval history only via the resolved count.
func (d *Detector) ValidationRate(ctx context.Context, userID uint) (float64, error) {
	var resolved, approved int64

	err := d.db.WithContext(ctx).Model(&models.Share{}).
		Where("user_id = ? AND status <> ?", userID, models.ShareStatusPending).
		Count(&resolved).Error
	if err != nil {
		return 0, fmt.Errorf("count resolved shares: %w", err)
	}
	if resolved == 0 {
		return 0, nil
	}

	err = d.db.WithContext(ctx).Model(&models.Share{}).
		Where("user_id = ? AND status = ?", userID, models.ShareStatusApproved).
		Count(&approved).Error
	if err != nil {
		return 0, fmt.Errorf("count approved shares: %w", err)
	}

	return float64(approved) / float64(resolved) * 100, nil
}

// SharesToday counts the user's submissions on a platform since local
// midnight, regardless of their current status. Detector lookups are
// read-only, so transient connection drops get one retry.
func (d *Detector) SharesToday(ctx context.Context, userID uint, platform models.Platform) (int, error) {
	now := d.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var n int64
	err := database.WithRetry(func() error {
		return d.db.WithContext(ctx).Model(&models.Share{}).
			Where("user_id = ? AND platform = ? AND created_at >= ?", userID, platform, midnight).
			Count(&n).Error
	})
	if err != nil {
		return 0, fmt.Errorf("count shares today: %w", err)
	}
	return int(n), nil
}

func (d *Detector) isDuplicateProof(ctx context.Context, hash string) (bool, error) {
	var n int64
	err := database.WithRetry(func() error {
		return d.db.WithContext(ctx).Model(&models.Share{}).
			Where("proof_image_hash = ?", hash).
			Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("duplicate proof lookup: %w", err)
	}
	return n > 0, nil
}

func (d *Detector) isGroupBlacklisted(ctx context.Context, link string) (bool, error) {
	var n int64
	err := database.WithRetry(func() error {
		return d.db.WithContext(ctx).Model(&models.BlacklistedGroup{}).
			Where("group_identifier = ?", link).
			Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}

func (d *Detector) groupRecentlyUsed(ctx context.Context, userID uint, link string) (bool, error) {
	since := d.now().AddDate(0, 0, -d.cfg.GroupReuseDays)

	var n int64
	err := database.WithRetry(func() error {
		return d.db.WithContext(ctx).Model(&models.Share{}).
			Where("user_id = ? AND group_link = ? AND created_at > ?", userID, link, since).
			Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("group reuse lookup: %w", err)
	}
	return n > 0, nil
}

// scoreFromRate maps the historical validation rate onto the fixed
// confidence bands shown to admins.
func scoreFromRate(rate float64) int {
	switch {
	case rate >= 90:
		return 95
	case rate >= 70:
		return 80
	case rate >= 50:
		return 60
	case rate > 0:
		return 40
	default:
		return 50 // brand-new user
	}
}

func inadmissible(reason string) Result {
	return Result{Admissible: false, Reason: reason}
}
