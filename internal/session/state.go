package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Step names the point of a multi-message conversation a user is at. Every
// inbound message is interpreted against the stored step.
type Step string

const (
	StepNone Step = ""

	// Registration.
	StepAwaitPhone Step = "register:phone"

	// Share flow: platform → testimonial → screenshot → group link → group name.
	StepSharePlatform    Step = "share:platform"
	StepShareTestimonial Step = "share:testimonial"
	StepShareProof       Step = "share:proof"
	StepShareGroupLink   Step = "share:group_link"
	StepShareGroupName   Step = "share:group_name"

	// Withdrawal flow: method → details → amount.
	StepWithdrawMethod  Step = "withdraw:method"
	StepWithdrawDetails Step = "withdraw:details"
	StepWithdrawAmount  Step = "withdraw:amount"

	// Admin flows.
	StepAdminVideoUpload    Step = "admin:video_upload"
	StepAdminVideoCaption   Step = "admin:video_caption"
	StepAdminRejectReason   Step = "admin:reject_reason"
	StepAdminBroadcast      Step = "admin:broadcast"
	StepAdminTestimonial    Step = "admin:testimonial"
	StepAdminBlacklistGroup Step = "admin:blacklist_group"
	StepAdminHelpVideo      Step = "admin:help_video"
)

// State is the conversation payload carried between messages. Fields are
// filled incrementally as the flow advances.
type State struct {
	Step Step `json:"step"`

	// Share flow.
	Platform      string `json:"platform,omitempty"`
	VideoID       uint   `json:"video_id,omitempty"`
	TestimonialID uint   `json:"testimonial_id,omitempty"`
	ProofFileID   string `json:"proof_file_id,omitempty"`
	ProofHash     string `json:"proof_hash,omitempty"`
	ProofURL      string `json:"proof_url,omitempty"`
	ProofPublicID string `json:"proof_public_id,omitempty"`
	AutoScore     int    `json:"auto_score,omitempty"`
	GroupLink     string `json:"group_link,omitempty"`

	// Withdrawal flow.
	Method  string `json:"method,omitempty"`
	Details string `json:"details,omitempty"`

	// Admin flows.
	TargetID   uint   `json:"target_id,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`
}

// Store keeps per-user conversation state in redis with a TTL, so abandoned
// flows evaporate instead of trapping the user mid-conversation.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: 30 * time.Minute}
}

func key(telegramID int64) string {
	return fmt.Sprintf("session:%d", telegramID)
}

// Get returns the user's state, or a zero State when none is stored.
func (s *Store) Get(ctx context.Context, telegramID int64) (State, error) {
	raw, err := s.rdb.Get(ctx, key(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load session: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		// Corrupt state is unrecoverable; start the user over.
		return State{}, nil
	}
	return st, nil
}

func (s *Store) Set(ctx context.Context, telegramID int64, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key(telegramID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Clear drops the user's state, ending any flow in progress.
func (s *Store) Clear(ctx context.Context, telegramID int64) error {
	if err := s.rdb.Del(ctx, key(telegramID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
