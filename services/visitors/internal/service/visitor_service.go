package service

import (
	"context"
	"time"

	"github.com/diagnosis/visitor-desk/pkg/events"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/policy"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
)

const maxPageSize = 100

type VisitorService interface {
	CreateVisitor(ctx context.Context, actor domain.Actor, req *domain.CreateVisitorRequest) (*domain.Visitor, error)
	UpdateVisitor(ctx context.Context, actor domain.Actor, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error)
	DeleteVisitor(ctx context.Context, actor domain.Actor, id int64) error
	ListVisitors(ctx context.Context, actor domain.Actor, q domain.VisitorQuery) (*domain.VisitorPage, error)
}

type visitorService struct {
	visitors repository.VisitorRepository
	eventBus events.Publisher
	pageSize int
}

func NewVisitorService(visitors repository.VisitorRepository, eventBus events.Publisher, pageSize int) VisitorService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &visitorService{visitors: visitors, eventBus: eventBus, pageSize: pageSize}
}

// CreateVisitor records a check-in. Everything is validated before the store is touched.
func (s *visitorService) CreateVisitor(ctx context.Context, actor domain.Actor, req *domain.CreateVisitorRequest) (*domain.Visitor, error) {
	if err := policy.Authorize(actor, policy.VisitorCreate, nil); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	timeIn, err := domain.NormalizeTimeOfDay(req.TimeIn)
	if err != nil {
		return nil, domain.ValidationError("timeIn must be a time of day like 09:30", "timeIn")
	}
	timeOut, err := normalizeOptionalTime(req.TimeOut)
	if err != nil {
		return nil, err
	}

	v := &domain.Visitor{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		Address:     req.Address,
		Visiting:    req.Visiting,
		Reason:      req.Reason,
		TimeIn:      timeIn,
		TimeOut:     timeOut,
		Notes:       req.Notes,
	}
	if actor.Authenticated() {
		id := actor.ID
		v.UserID = &id
	}

	created, err := s.visitors.Create(ctx, v)
	if err != nil {
		return nil, domain.NetworkError("Insert failed", err)
	}

	publish(ctx, s.eventBus, events.VisitorCreated, events.VisitorCreatedEvent{
		VisitorID: created.ID,
		FullName:  created.FullName,
		Address:   created.Address,
		Visiting:  created.Visiting,
		TimeIn:    created.TimeIn,
		CreatedBy: created.UserID,
		CreatedAt: created.CreatedAt,
	})

	return created, nil
}

// UpdateVisitor applies a partial update and returns the stored record.
func (s *visitorService) UpdateVisitor(ctx context.Context, actor domain.Actor, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error) {
	if err := policy.Authorize(actor, policy.VisitorUpdate, nil); err != nil {
		return nil, err
	}

	patch.Normalize()
	if err := domain.Validate(patch); err != nil {
		return nil, err
	}
	if patch.TimeIn != nil {
		t, err := domain.NormalizeTimeOfDay(*patch.TimeIn)
		if err != nil {
			return nil, domain.ValidationError("timeIn must be a time of day like 09:30", "timeIn")
		}
		patch.TimeIn = &t
	}
	if patch.TimeOut != nil {
		t, err := normalizeOptionalTime(patch.TimeOut)
		if err != nil {
			return nil, err
		}
		if t == nil {
			patch.TimeOut, patch.ClearTimeOut = nil, true
		} else {
			patch.TimeOut = t
		}
	}

	changes := patch.Changes()
	var (
		updated *domain.Visitor
		err     error
	)
	if len(changes) == 0 {
		updated, err = s.visitors.FindByID(ctx, id)
	} else {
		updated, err = s.visitors.Update(ctx, id, patch)
	}
	if err != nil {
		return nil, domain.NetworkError("Update failed", err)
	}
	if updated == nil {
		return nil, domain.NotFound("visitor")
	}

	if len(changes) > 0 {
		publish(ctx, s.eventBus, events.VisitorUpdated, events.VisitorUpdatedEvent{
			VisitorID: updated.ID,
			Changes:   changes,
			UpdatedBy: actor.ID,
			UpdatedAt: time.Now(),
		})
	}
	return updated, nil
}

// DeleteVisitor hard deletes the record. A missing id succeeds silently.
func (s *visitorService) DeleteVisitor(ctx context.Context, actor domain.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.VisitorDelete, nil); err != nil {
		return err
	}

	removed, err := s.visitors.Delete(ctx, id)
	if err != nil {
		return domain.NetworkError("Delete failed", err)
	}
	if removed {
		publish(ctx, s.eventBus, events.VisitorDeleted, events.VisitorDeletedEvent{
			VisitorID: id,
			DeletedBy: actor.ID,
			DeletedAt: time.Now(),
		})
	}
	return nil
}

func (s *visitorService) ListVisitors(ctx context.Context, actor domain.Actor, q domain.VisitorQuery) (*domain.VisitorPage, error) {
	if err := policy.Authorize(actor, policy.VisitorList, nil); err != nil {
		return nil, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = s.pageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Filter.Gender != "" {
		if _, ok := domain.ParseGender(string(q.Filter.Gender)); !ok {
			return nil, domain.ValidationError("gender must be male or female", "gender")
		}
	}
	if q.Filter.Address != "" && !domain.IsDistrict(q.Filter.Address) {
		return nil, domain.ValidationError("address must be one of the districts", "address")
	}
	if q.Filter.DateEnabled && q.Filter.Dates.End.Before(q.Filter.Dates.Start) {
		return nil, domain.ValidationError("date range ends before it starts", "start_date", "end_date")
	}

	items, total, err := s.visitors.List(ctx, q)
	if err != nil {
		return nil, domain.NetworkError("Failed to fetch visitors", err)
	}
	if items == nil {
		items = []domain.VisitorView{}
	}

	return &domain.VisitorPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: domain.TotalPages(total, q.Limit),
	}, nil
}

// normalizeOptionalTime canonicalizes an optional time; blank means absent.
func normalizeOptionalTime(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	t, err := domain.NormalizeTimeOfDay(*s)
	if err != nil {
		return nil, domain.ValidationError("timeOut must be a time of day like 17:00", "timeOut")
	}
	if t == "" {
		return nil, nil
	}
	return &t, nil
}
