package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

const (
	defaultBackoffBase = 30 * time.Second
	defaultBackoffCap  = 15 * time.Minute
)

// DispatchServiceOptions groups dependencies for DispatchService.
type DispatchServiceOptions struct {
	Jobs        core.JobRepository     // Required: job repository
	Messages    core.MessageRepository // Required: message repository
	Senders     []core.ChannelSender   // Required: one sender per dispatched channel
	Limiter     core.RateLimiter       // Required: per-channel rate limiter
	BackoffBase time.Duration          // Optional: first retry delay, doubled per attempt
	BackoffCap  time.Duration          // Optional: upper bound on retry delay
	Logger      *slog.Logger           // Optional: structured logger
	Now         func() time.Time       // Optional: clock override for tests
}

// DispatchService drains the outreach queue: it claims due messages, sends
// them through the channel's sender under its rate limits, and resolves each
// claim to exactly one outcome.
type DispatchService struct {
	jobs        core.JobRepository
	messages    core.MessageRepository
	senders     map[model.Channel]core.ChannelSender
	limiter     core.RateLimiter
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewDispatchService constructs a new DispatchService.
func NewDispatchService(opts DispatchServiceOptions) (*DispatchService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Messages == nil {
		return nil, errors.New("MessageRepository is required")
	}
	if len(opts.Senders) == 0 {
		return nil, errors.New("at least one ChannelSender is required")
	}
	if opts.Limiter == nil {
		return nil, errors.New("RateLimiter is required")
	}

	senders := make(map[model.Channel]core.ChannelSender, len(opts.Senders))
	for _, sender := range opts.Senders {
		ch := sender.Channel()
		if !ch.Valid() {
			return nil, fmt.Errorf("sender has invalid channel: %s", ch)
		}
		if _, dup := senders[ch]; dup {
			return nil, fmt.Errorf("duplicate sender for channel %s", ch)
		}
		senders[ch] = sender
	}

	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	backoffCap := opts.BackoffCap
	if backoffCap <= 0 {
		backoffCap = defaultBackoffCap
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "dispatch_service")
	}

	return &DispatchService{
		jobs:        opts.Jobs,
		messages:    opts.Messages,
		senders:     senders,
		limiter:     opts.Limiter,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
		logger:      logger,
		now:         now,
	}, nil
}

// MustNewDispatchService constructs a new DispatchService and panics on error.
func MustNewDispatchService(opts DispatchServiceOptions) *DispatchService {
	svc, err := NewDispatchService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create DispatchService: %v", err))
	}
	return svc
}

// Channels returns the channels this dispatcher has senders for.
func (s *DispatchService) Channels() []model.Channel {
	channels := make([]model.Channel, 0, len(s.senders))
	for _, ch := range model.Channels() {
		if _, ok := s.senders[ch]; ok {
			channels = append(channels, ch)
		}
	}
	return channels
}

// ProcessNext claims and resolves one message on the channel. Returns
// model.ErrNoMessagesAvailable when the queue has nothing due.
func (s *DispatchService) ProcessNext(ctx context.Context, channel model.Channel) error {
	sender, ok := s.senders[channel]
	if !ok {
		return fmt.Errorf("no sender configured for channel %s", channel)
	}

	msg, err := s.messages.ClaimNext(ctx, channel)
	if err != nil {
		if errors.Is(err, model.ErrNoMessagesAvailable) {
			return model.ErrNoMessagesAvailable
		}
		return fmt.Errorf("claim message on %s: %w", channel, err)
	}

	canceled, err := s.jobs.IsCancelRequested(ctx, msg.JobID)
	if err != nil {
		// Unknown job state; give the claim back rather than guess.
		_, _ = s.messages.Reschedule(ctx, core.RescheduleParams{
			ID:        msg.ID,
			ErrorMsg:  fmt.Sprintf("cancel check failed: %v", err),
			NotBefore: s.now().Add(s.backoffBase),
		})
		return fmt.Errorf("check cancel for job %s: %w", msg.JobID, err)
	}
	if canceled {
		return s.resolveCanceled(ctx, msg)
	}

	if err := s.limiter.Acquire(ctx, string(channel)); err != nil {
		// Interrupted while waiting for a token; the send never started, so
		// the attempt is given back.
		_, _ = s.messages.Reschedule(ctx, core.RescheduleParams{
			ID:        msg.ID,
			ErrorMsg:  fmt.Sprintf("rate limit wait interrupted: %v", err),
			NotBefore: s.now(),
		})
		return fmt.Errorf("acquire %s token: %w", channel, err)
	}

	return s.resolveSend(ctx, msg, sender.Send(ctx, msg))
}

// resolveSend maps a send outcome to exactly one terminal update or a retry.
func (s *DispatchService) resolveSend(ctx context.Context, msg *model.OutreachMessage, sendErr error) error {
	switch {
	case sendErr == nil:
		if _, err := s.messages.MarkSent(ctx, msg.ID); err != nil {
			return fmt.Errorf("mark message %s sent: %w", msg.ID, err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "message sent",
				"message_id", msg.ID,
				"job_id", msg.JobID,
				"channel", msg.Channel,
				"attempt", msg.AttemptCount,
			)
		}
		return s.maybeCompleteJob(ctx, msg.JobID)

	case apperrors.IsPermanentSend(sendErr):
		if _, err := s.messages.MarkFailed(ctx, msg.ID, sendErr.Error()); err != nil {
			return fmt.Errorf("mark message %s failed: %w", msg.ID, err)
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "message failed permanently",
				"message_id", msg.ID,
				"job_id", msg.JobID,
				"channel", msg.Channel,
				"error", sendErr,
			)
		}
		return s.maybeCompleteJob(ctx, msg.JobID)

	default:
		// Transient, including unclassified errors.
		return s.resolveTransient(ctx, msg, sendErr)
	}
}

func (s *DispatchService) resolveTransient(ctx context.Context, msg *model.OutreachMessage, sendErr error) error {
	if msg.AttemptCount >= msg.MaxAttempts {
		errMsg := fmt.Sprintf("retries exhausted after %d attempts: %v", msg.AttemptCount, sendErr)
		if _, err := s.messages.MarkFailed(ctx, msg.ID, errMsg); err != nil {
			return fmt.Errorf("mark message %s failed: %w", msg.ID, err)
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "message retries exhausted",
				"message_id", msg.ID,
				"job_id", msg.JobID,
				"channel", msg.Channel,
				"attempts", msg.AttemptCount,
				"error", sendErr,
			)
		}
		return s.maybeCompleteJob(ctx, msg.JobID)
	}

	delay := s.backoffDelay(msg.AttemptCount)
	if _, err := s.messages.Reschedule(ctx, core.RescheduleParams{
		ID:        msg.ID,
		ErrorMsg:  sendErr.Error(),
		NotBefore: s.now().Add(delay),
	}); err != nil {
		return fmt.Errorf("reschedule message %s: %w", msg.ID, err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "message send retried later",
			"message_id", msg.ID,
			"job_id", msg.JobID,
			"channel", msg.Channel,
			"attempt", msg.AttemptCount,
			"retry_in", delay,
			"error", sendErr,
		)
	}
	return nil
}

func (s *DispatchService) resolveCanceled(ctx context.Context, msg *model.OutreachMessage) error {
	if _, err := s.messages.MarkFailed(ctx, msg.ID, "job canceled"); err != nil {
		return fmt.Errorf("fail canceled message %s: %w", msg.ID, err)
	}
	if _, err := s.jobs.Fail(ctx, msg.JobID, "canceled by user"); err != nil {
		return fmt.Errorf("fail canceled job %s: %w", msg.JobID, err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "message dropped for canceled job",
			"message_id", msg.ID,
			"job_id", msg.JobID,
		)
	}
	return nil
}

// maybeCompleteJob completes the owning job once its last message resolves.
// The repository guard makes the call idempotent and race-free, so every
// terminal outcome can attempt it.
func (s *DispatchService) maybeCompleteJob(ctx context.Context, jobID string) error {
	completed, err := s.jobs.TryCompleteContacting(ctx, jobID)
	if err != nil {
		return fmt.Errorf("complete contacting job %s: %w", jobID, err)
	}
	if completed && s.logger != nil {
		s.logger.InfoContext(ctx, "job completed", "job_id", jobID)
	}
	return nil
}

// backoffDelay computes the delay before the given attempt is retried:
// base doubled per prior attempt, capped, with up to 25% added jitter.
func (s *DispatchService) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := s.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.backoffCap {
			delay = s.backoffCap
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	delay += jitter
	if delay > s.backoffCap {
		delay = s.backoffCap
	}
	return delay
}

// WaitForNotification blocks until a new message is announced on the channel.
func (s *DispatchService) WaitForNotification(ctx context.Context, channel model.Channel) error {
	return s.messages.WaitForNotification(ctx, channel)
}
