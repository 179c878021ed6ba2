package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/pkg/util"
)

// Blobs is the key-value surface the repository needs from its store.
type Blobs interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// ReportRepository persists the last computed priority report under a fixed
// key. It is a last-write-wins snapshot: no merging, versioning, or TTL.
type ReportRepository struct {
	store Blobs
	key   string
}

// NewReportRepository constructs the repository.
func NewReportRepository(store Blobs, key string) *ReportRepository {
	return &ReportRepository{store: store, key: key}
}

// Store replaces any previously cached report with this one.
func (r *ReportRepository) Store(ctx context.Context, report *domain.PriorityReport) error {
	payload, err := json.Marshal(dto.NewPriorityReportResponse(report))
	if err != nil {
		return util.NewInternalError(err)
	}
	return r.store.Set(ctx, r.key, payload)
}

// Load returns the last stored report, or a cache-miss error when nothing
// has ever been stored.
func (r *ReportRepository) Load(ctx context.Context) (*domain.PriorityReport, error) {
	payload, err := r.store.Get(ctx, r.key)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, util.NewCacheMiss(r.key)
	}
	if err != nil {
		return nil, err
	}

	var response dto.PriorityReportResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, util.NewDataIntegrityError("cached report is not valid JSON",
			map[string]any{"key": r.key}, err)
	}
	return response.ToDomain()
}

// Clear removes the cached report.
func (r *ReportRepository) Clear(ctx context.Context) error {
	return r.store.Del(ctx, r.key)
}
