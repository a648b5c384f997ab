package fraud

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Youmto/SHAREMONEY/internal/models"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	// Recommendations are advisory only; nothing in the system resolves a
	// share automatically from them.
	RecommendAutoApprove  = "auto_approve"
	RecommendManualReview = "manual_review"
)

// Analysis is the soft risk verdict accompanying a submission, used to flag
// or prioritize items in the admin review queue.
type Analysis struct {
	RiskLevel      string
	RiskScore      int
	Flags          []string
	Recommendation string
	ValidationRate float64
}

// Analyzer weighs submission context into a risk bucket, separately from the
// hard admissibility gate.
type Analyzer struct {
	detector *Detector
}

func NewAnalyzer(detector *Detector) *Analyzer {
	return &Analyzer{detector: detector}
}

func (a *Analyzer) Analyze(ctx context.Context, userID uint, groupLink string, platform models.Platform) (Analysis, error) {
	d := a.detector
	var flags []string
	score := 0

	rate, err := d.ValidationRate(ctx, userID)
	if err != nil {
		return Analysis{}, err
	}
	if rate > 0 && rate < 30 {
		flags = append(flags, "⚠️ Faible taux de validation historique")
		score += 30
	}

	today, err := d.SharesToday(ctx, userID, platform)
	if err != nil {
		return Analysis{}, err
	}
	if today >= 4 {
		flags = append(flags, "⚠️ Beaucoup de partages aujourd'hui")
		score += 10
	}

	groupUses, err := a.groupUsesLast24h(ctx, NormalizeLink(groupLink))
	if err != nil {
		return Analysis{}, err
	}
	if groupUses > 10 {
		flags = append(flags, "⚠️ Groupe très utilisé ces dernières 24h")
		score += 20
	}

	young, err := a.accountYoungerThan(ctx, userID, 24*time.Hour)
	if err != nil {
		return Analysis{}, err
	}
	if young {
		flags = append(flags, "ℹ️ Nouvel utilisateur (< 24h)")
		score += 15
	}

	level, recommendation := bucketRisk(score)

	return Analysis{
		RiskLevel:      level,
		RiskScore:      score,
		Flags:          flags,
		Recommendation: recommendation,
		ValidationRate: rate,
	}, nil
}

func (a *Analyzer) groupUsesLast24h(ctx context.Context, link string) (int, error) {
	if link == "" {
		return 0, nil
	}
	since := a.detector.now().Add(-24 * time.Hour)

	var n int64
	err := a.detector.db.WithContext(ctx).Model(&models.Share{}).
		Where("group_link = ? AND created_at > ?", link, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("group usage lookup: %w", err)
	}
	return int(n), nil
}

func (a *Analyzer) accountYoungerThan(ctx context.Context, userID uint, age time.Duration) (bool, error) {
	var user models.User
	err := a.detector.db.WithContext(ctx).Select("created_at").First(&user, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("account age lookup: %w", err)
	}
	return user.CreatedAt.After(a.detector.now().Add(-age)), nil
}

func bucketRisk(score int) (level, recommendation string) {
	switch {
	case score <= 10:
		return RiskLow, RecommendAutoApprove
	case score <= 40:
		return RiskMedium, RecommendManualReview
	default:
		return RiskHigh, RecommendManualReview
	}
}

// RejectionReasons are the preset reasons offered to admins when rejecting a
// share; free-text reasons remain possible.
var RejectionReasons = map[string]string{
	"unreadable":   "Capture d'écran illisible",
	"no_share":     "Le partage n'est pas visible sur la capture",
	"small_group":  "Groupe trop petit (membres insuffisants)",
	"wrong_group":  "Le groupe ne correspond pas au lien fourni",
	"edited_image": "Image modifiée ou suspecte",
	"other":        "Autre raison",
}
