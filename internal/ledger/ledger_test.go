package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

func newArticle(t *testing.T, lt floor.LinkingType, planned int) *models.Article {
	t.Helper()
	a := &models.Article{ID: 1, OrderID: 7, ArticleNumber: "ART-001", PlannedQuantity: planned, LinkingType: lt}
	_, err := InitArticle(a)
	require.NoError(t, err)
	return a
}

func intp(v int) *int { return &v }

func TestInitArticle(t *testing.T) {
	a := newArticle(t, floor.AutoLinking, 500)

	assert.Equal(t, floor.Knitting, a.CurrentFloor)
	assert.Equal(t, models.ArticleStatusPending, a.Status)
	assert.Len(t, a.FloorQuantities, 8)
	assert.NotContains(t, a.FloorQuantities, floor.Linking)

	k := a.FloorQuantities[floor.Knitting]
	assert.Equal(t, 500, k.Received)
	assert.Equal(t, 500, k.Remaining)
	assert.Zero(t, a.FloorQuantities[floor.Dispatch].Received)
}

func TestInitArticleRejects(t *testing.T) {
	_, err := InitArticle(&models.Article{PlannedQuantity: 0, LinkingType: floor.HandLinking})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = InitArticle(&models.Article{PlannedQuantity: 10, LinkingType: "Glue Linking"})
	assert.ErrorIs(t, err, ErrUnknownLinkingType)
}

func TestErrorMatchesOnKind(t *testing.T) {
	err := error(newError(KindShiftMismatch, floor.Checking, 10, 12, "nope"))

	assert.True(t, errors.Is(err, ErrShiftMismatch))
	assert.False(t, errors.Is(err, ErrQualityExceedsCapacity))
	assert.Equal(t, "nope", err.Error())

	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 10, lerr.Limit)
	assert.Equal(t, 12, lerr.Actual)
	assert.Equal(t, floor.Checking, lerr.Floor)
}

func TestKindIsValidation(t *testing.T) {
	assert.True(t, KindQuantityExceedsReceived.IsValidation())
	assert.True(t, KindShiftMismatch.IsValidation())
	assert.False(t, KindNoNextFloor.IsValidation())
	assert.False(t, KindQualityInspectionIncomplete.IsValidation())
	assert.False(t, KindFinalQualityNotReady.IsValidation())
}

func TestResolveRejectsFloorOutsideSequence(t *testing.T) {
	a := newArticle(t, floor.AutoLinking, 100)

	_, _, err := ApplyCompletedQuantity(a, floor.Linking, 10)
	assert.ErrorIs(t, err, ErrInvalidFloor)

	_, _, err = ApplyCompletedQuantity(a, floor.Floor("painting"), 10)
	assert.ErrorIs(t, err, ErrInvalidFloor)
}
