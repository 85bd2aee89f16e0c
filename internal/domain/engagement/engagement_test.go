package engagement

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReview(t *testing.T) {
	r, err := NewReview(uuid.New(), uuid.New(), 4, " Nice ", "Fits well", true)
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusPending, r.Status)
	assert.Equal(t, "Nice", r.Title)
	assert.True(t, r.VerifiedPurchase)

	for _, rating := range []int{0, 6, -1} {
		_, err := NewReview(uuid.New(), uuid.New(), rating, "", "", false)
		assert.Error(t, err, "rating %d", rating)
	}

	_, err = NewReview(uuid.Nil, uuid.New(), 3, "", "", false)
	assert.Error(t, err)

	_, err = NewReview(uuid.New(), uuid.New(), 3, strings.Repeat("a", 121), "", false)
	assert.Error(t, err)
}

func TestReview_Moderation(t *testing.T) {
	r, err := NewReview(uuid.New(), uuid.New(), 5, "", "", false)
	require.NoError(t, err)

	require.NoError(t, r.Approve())
	assert.Error(t, r.Approve())

	require.NoError(t, r.Reject("spam"))
	assert.Equal(t, "spam", r.ModerationNote)
	assert.Error(t, r.Reject("again"))

	require.NoError(t, r.Update(3, "Edited", "changed"))
	assert.Equal(t, ReviewStatusPending, r.Status, "edits go back to moderation")
	assert.Empty(t, r.ModerationNote)
	assert.Equal(t, 3, r.Rating)
}

func TestNewRatingSummary(t *testing.T) {
	id := uuid.New()
	s := NewRatingSummary(id, map[int]int64{5: 3, 4: 1, 1: 1})
	assert.Equal(t, int64(5), s.Count)
	assert.InDelta(t, 4.0, s.Average, 0.0001)
	assert.Equal(t, int64(0), s.Distribution[2])
	assert.Len(t, s.Distribution, 5)

	empty := NewRatingSummary(id, nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Average)
}

func TestWishlist(t *testing.T) {
	userID := uuid.New()
	w, err := NewWishlist(userID, "  Birthday ", false)
	require.NoError(t, err)
	assert.Equal(t, "Birthday", w.Name)
	assert.True(t, w.IsOwnedBy(userID))

	productID := uuid.New()
	item, err := w.AddItem(productID, nil, "size M")
	require.NoError(t, err)

	again, err := w.AddItem(productID, nil, "size L")
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, "size L", again.Note)
	assert.Len(t, w.Items, 1)

	optionID := uuid.New()
	_, err = w.AddItem(productID, &optionID, "")
	require.NoError(t, err)
	assert.Len(t, w.Items, 2)

	removed, err := w.RemoveItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, productID, removed.ProductID)
	_, err = w.RemoveItem(item.ID)
	assert.Error(t, err)

	assert.Error(t, w.Rename(""))
	_, err = NewWishlist(uuid.Nil, "x", false)
	assert.Error(t, err)
}
