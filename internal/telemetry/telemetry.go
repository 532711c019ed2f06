package telemetry

import (
	"context"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

type noopRecorder struct{}

// NewService returns a Recorder for cfg. History is optional: with no
// database path configured a no-op recorder is returned.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled() {
		log.Debug().Msg("History disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return newService(repo, cfg), nil
}

func newService(repo Repository, cfg Config) *service {
	return &service{repo: repo, cfg: cfg}
}

func (s *service) Record(ctx context.Context, u *Update) error {
	errFactory := errors.New()

	if u == nil || u.Name == "" {
		return errFactory.New(ErrInvalidUpdate)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(u); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Recent(ctx context.Context, module, limit int) ([]Update, error) {
	return s.repo.Recent(ctx, module, limit)
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (noopRecorder) Record(context.Context, *Update) error { return nil }

func (noopRecorder) Recent(context.Context, int, int) ([]Update, error) { return nil, nil }

func (noopRecorder) Close() error { return nil }
