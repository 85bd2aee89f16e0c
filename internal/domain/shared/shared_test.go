package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_Touch(t *testing.T) {
	root := NewBaseAggregateRoot()
	before := root.UpdatedAt

	root.Touch()

	assert.Equal(t, 1, root.Version, "only a save bumps the version")
	assert.False(t, root.UpdatedAt.Before(before))
}

func TestBaseAggregateRoot_DomainEvents(t *testing.T) {
	root := NewBaseAggregateRoot()
	evt := NewBaseDomainEvent("ThingHappened", "Thing", root.ID)

	root.AddDomainEvent(&evt)
	assert.Len(t, root.GetDomainEvents(), 1)
	assert.Equal(t, "ThingHappened", root.GetDomainEvents()[0].EventType())

	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Product not found")
	wrapped := fmt.Errorf("load product: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, errors.Is(wrapped, ErrAlreadyExists))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		wantPages  int
		wantPageSz int
	}{
		{"exact", 40, 20, 2, 20},
		{"remainder", 41, 20, 3, 20},
		{"empty", 0, 20, 0, 20},
		{"invalid page size", 5, 0, 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]uuid.UUID{}, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantPageSz, p.PageSize)
		})
	}
}

func TestFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, Filter{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{Page: 0, PageSize: 20}.Offset())
}
