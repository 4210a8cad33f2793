// Package report fetches summaries through the backend selector and turns
// them into tables for the terminal, CSV and the clipboard.
package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/pkg/domain"
)

// Kind names a report.
type Kind string

const (
	KindDaily    Kind = "daily"
	KindProjects Kind = "projects"
	KindTags     Kind = "tags"
)

// Kinds lists every report in display order.
var Kinds = []Kind{KindDaily, KindProjects, KindTags}

// Session is the part of the session store reports need.
type Session interface {
	Token() string
	Epoch() uint64
	HandleUnauthorized(epoch uint64)
}

// Service runs reports for the current session.
type Service struct {
	sel  *backend.Selector
	sess Session
	now  func() time.Time
	log  zerolog.Logger
}

// New returns a Service. now defaults to time.Now.
func New(sel *backend.Selector, sess Session, now func() time.Time, log zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		sel:  sel,
		sess: sess,
		now:  now,
		log:  log.With().Str("component", "report").Logger(),
	}
}

// Daily totals per day. Zero bounds default to the last 7 days.
func (s *Service) Daily(ctx context.Context, start, end time.Time) ([]domain.DailySummary, error) {
	start, end = backend.ReportRange(start, end, backend.DailyWindow, s.now())
	return run(ctx, s, "daily summary", func(ctx context.Context, b backend.Backend, token string) ([]domain.DailySummary, error) {
		return b.DailySummary(ctx, token, start, end)
	})
}

// ByProject totals per project. Zero bounds default to the last 30 days.
func (s *Service) ByProject(ctx context.Context, start, end time.Time) ([]domain.ProjectSummary, error) {
	start, end = backend.ReportRange(start, end, backend.SummaryWindow, s.now())
	return run(ctx, s, "project summary", func(ctx context.Context, b backend.Backend, token string) ([]domain.ProjectSummary, error) {
		return b.ProjectSummary(ctx, token, start, end)
	})
}

// ByTag totals per tag. Zero bounds default to the last 30 days.
func (s *Service) ByTag(ctx context.Context, start, end time.Time) ([]domain.TagSummary, error) {
	start, end = backend.ReportRange(start, end, backend.SummaryWindow, s.now())
	return run(ctx, s, "tag summary", func(ctx context.Context, b backend.Backend, token string) ([]domain.TagSummary, error) {
		return b.TagSummary(ctx, token, start, end)
	})
}

// Table runs the report of kind and renders it as a Table.
func (s *Service) Table(ctx context.Context, kind Kind, start, end time.Time) (Table, error) {
	switch kind {
	case KindProjects:
		rows, err := s.ByProject(ctx, start, end)
		if err != nil {
			return Table{}, err
		}
		return ProjectTable(rows), nil
	case KindTags:
		rows, err := s.ByTag(ctx, start, end)
		if err != nil {
			return Table{}, err
		}
		return TagTable(rows), nil
	default:
		rows, err := s.Daily(ctx, start, end)
		if err != nil {
			return Table{}, err
		}
		return DailyTable(rows), nil
	}
}

func run[T any](ctx context.Context, s *Service, op string, fn func(context.Context, backend.Backend, string) ([]T, error)) ([]T, error) {
	token, epoch := s.sess.Token(), s.sess.Epoch()
	rows, used, err := backend.Call(ctx, s.sel, op, token, func(ctx context.Context, b backend.Backend) ([]T, error) {
		return fn(ctx, b, token)
	})
	if err != nil {
		if used != nil && s.sel.CredentialRejected(used, token, err) {
			s.sess.HandleUnauthorized(epoch)
		}
		s.log.Warn().Err(err).Str("op", op).Msg("report failed")
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
