package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/repository"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type slotUsageReader interface {
	Usage(ctx context.Context, scholarshipID string) (*models.SlotUsage, error)
}

// SlotAllocator decides the capacity change of a transition. The change itself
// is committed by the application store in the same transaction as the status
// update, as a conditional increment on scholarships.approved_count.
type SlotAllocator struct {
	machine ApplicationStateMachine
	usage   slotUsageReader
}

// NewSlotAllocator constructs the allocator.
func NewSlotAllocator(usage slotUsageReader) *SlotAllocator {
	return &SlotAllocator{machine: NewApplicationStateMachine(), usage: usage}
}

// Plan maps a status change onto the slot counter change to commit with it.
func (a *SlotAllocator) Plan(from, to models.ApplicationStatus) repository.SlotChange {
	switch a.machine.SlotEffectOf(from, to) {
	case SlotReserve:
		return repository.SlotReserve
	case SlotRelease:
		return repository.SlotRelease
	}
	return repository.SlotUnchanged
}

// Usage returns the capacity figures for a scholarship.
func (a *SlotAllocator) Usage(ctx context.Context, scholarshipID string) (*models.SlotUsage, error) {
	if a.usage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "slot usage reader not configured")
	}
	usage, err := a.usage.Usage(ctx, scholarshipID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read slot usage")
	}
	return usage, nil
}

// CapacityError builds the CAPACITY_EXCEEDED error, attaching current usage when it can be read.
func (a *SlotAllocator) CapacityError(ctx context.Context, scholarshipID string) error {
	message := "no slots remain for this scholarship"
	if a.usage == nil {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, message)
	}
	usage, err := a.usage.Usage(ctx, scholarshipID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, message)
	}
	return appErrors.WithDetails(appErrors.ErrCapacityExceeded,
		fmt.Sprintf("all %d slots for this scholarship are taken", usage.Slots), usage)
}
