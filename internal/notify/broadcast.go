package notify

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MessageSender is the slice of the bot API the broadcaster needs; telego's
// *Bot satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// BroadcastReport summarizes one broadcast run.
type BroadcastReport struct {
	Total   int
	Success int
	Failed  int
}

// Broadcaster fans a message out to many users, paced under the Telegram
// bulk-send limit so the bot never trips flood control.
type Broadcaster struct {
	sender  MessageSender
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

func NewBroadcaster(sender MessageSender, log *zap.SugaredLogger) *Broadcaster {
	// Telegram allows ~30 messages/second for bulk sends; stay under it.
	return &Broadcaster{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		log:     log,
	}
}

// Send delivers text to every recipient, skipping failures. Cancelling the
// context stops the run; already-sent messages stay sent.
func (b *Broadcaster) Send(ctx context.Context, recipients []int64, text string) BroadcastReport {
	report := BroadcastReport{Total: len(recipients)}

	for _, id := range recipients {
		if err := b.limiter.Wait(ctx); err != nil {
			b.log.Warnw("broadcast interrupted", "sent", report.Success, "remaining", report.Total-report.Success-report.Failed)
			report.Failed = report.Total - report.Success
			return report
		}

		_, err := b.sender.SendMessage(ctx, tu.Message(tu.ID(id), text))
		if err != nil {
			report.Failed++
			b.log.Debugw("broadcast send failed", "telegram_id", id, "error", err)
			continue
		}
		report.Success++
	}

	b.log.Infow("broadcast finished", "total", report.Total, "success", report.Success, "failed", report.Failed)
	return report
}
