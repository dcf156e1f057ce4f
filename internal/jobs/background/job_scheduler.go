package background

import (
	"context"
	"log"
	"time"

	"authcore/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic cleanup of expired credentials. The cleanup
// is hygiene only: expiry and consumption are always enforced at read time,
// so correctness never depends on these jobs running.
type JobScheduler struct {
	scheduler gocron.Scheduler
	codes     repositories.AuthorizationCodeRepository
	tokens    repositories.TokenRepository
}

// NewJobScheduler creates a new job scheduler.
func NewJobScheduler(codes repositories.AuthorizationCodeRepository, tokens repositories.TokenRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		codes:     codes,
		tokens:    tokens,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler.
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler.
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.cleanupExpiredCredentials, context.Background()),
		gocron.WithName("expired-credentials-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (js *JobScheduler) cleanupExpiredCredentials(ctx context.Context) {
	codes, err := js.codes.DeleteExpired(ctx)
	if err != nil {
		log.Printf("WARN: authorization code cleanup failed: %v", err)
	}

	tokens, err := js.tokens.DeleteExpired(ctx)
	if err != nil {
		log.Printf("WARN: token cleanup failed: %v", err)
	}

	if codes > 0 || tokens > 0 {
		log.Printf("Cleaned up %d expired authorization codes and %d expired tokens", codes, tokens)
	}
}
