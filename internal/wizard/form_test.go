package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equimarket/internal/common/logger"
	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

type mockStepStore struct {
	mock.Mock
}

func (m *mockStepStore) Load(ctx context.Context, formID string) (int, bool, error) {
	args := m.Called(ctx, formID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockStepStore) Save(ctx context.Context, formID string, step int) error {
	return m.Called(ctx, formID, step).Error(0)
}

func (m *mockStepStore) Clear(ctx context.Context, formID string) error {
	return m.Called(ctx, formID).Error(0)
}

func newBookForm(t *testing.T, store StepStore) *Form {
	t.Helper()
	f, err := NewForm(context.Background(), "form-1", models.EntityBook, store, logger.NewTestLogger(t))
	require.NoError(t, err)
	return f
}

func TestForm_NextAndPrevStayInRange(t *testing.T) {
	ctx := context.Background()
	f := newBookForm(t, NewMemoryStepStore())
	f.Record = createTestBook()

	f.Prev(ctx)
	assert.Equal(t, 1, f.Current())

	for i := 0; i < 10; i++ {
		f.Next(ctx)
		assert.GreaterOrEqual(t, f.Current(), 1)
		assert.LessOrEqual(t, f.Current(), f.Total())
	}
	assert.Equal(t, 3, f.Current())
	assert.True(t, f.AtFinal())

	for i := 0; i < 10; i++ {
		f.Prev(ctx)
	}
	assert.Equal(t, 1, f.Current())
}

func TestForm_NextBlockedByInvalidPrice(t *testing.T) {
	ctx := context.Background()
	f := newBookForm(t, NewMemoryStepStore())
	b := createTestBook()
	b.Price = "not-a-number"
	f.Record = b

	require.True(t, f.Next(ctx))
	require.Equal(t, 2, f.Current())

	assert.False(t, f.Next(ctx))
	assert.Equal(t, 2, f.Current())
	assert.False(t, f.AtFinal())
	assert.Equal(t, map[string]string{"price": validation.MsgInvalidNumber}, f.Errors())
}

func TestForm_NextFailureKeepsStepAndSurfacesErrors(t *testing.T) {
	f := newBookForm(t, NewMemoryStepStore())

	assert.False(t, f.Next(context.Background()))
	assert.Equal(t, 1, f.Current())
	assert.Equal(t, validation.MsgRequired, f.Errors()["title"])
}

func TestForm_ResumesFromClampedIndex(t *testing.T) {
	tests := []struct {
		name  string
		saved int
		found bool
		want  int
	}{
		{"nothing saved", 0, false, 1},
		{"in range", 2, true, 2},
		{"above range", 9, true, 3},
		{"below range", -4, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStepStore)
			store.On("Load", mock.Anything, "form-1").Return(tt.saved, tt.found, nil)

			f := newBookForm(t, store)
			assert.Equal(t, tt.want, f.Current())
			store.AssertExpectations(t)
		})
	}
}

func TestForm_StoreFailuresDoNotBlockNavigation(t *testing.T) {
	ctx := context.Background()
	store := new(mockStepStore)
	store.On("Load", mock.Anything, "form-1").Return(0, false, errors.New("redis down"))
	store.On("Save", mock.Anything, "form-1", mock.Anything).Return(errors.New("redis down"))
	store.On("Clear", mock.Anything, "form-1").Return(errors.New("redis down"))

	f := newBookForm(t, store)
	f.Record = createTestBook()

	assert.True(t, f.Next(ctx))
	assert.Equal(t, 2, f.Current())
	f.Prev(ctx)
	assert.Equal(t, 1, f.Current())
	f.Reset(ctx)
	assert.Equal(t, 1, f.Current())
}

func TestForm_PersistsIndexOnMove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStepStore()
	f := newBookForm(t, store)
	f.Record = createTestBook()

	f.Next(ctx)
	step, found, err := store.Load(ctx, "form-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, step)

	f.Reset(ctx)
	_, found, _ = store.Load(ctx, "form-1")
	assert.False(t, found)
}

func TestForm_ResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	f, err := NewForm(ctx, "h-1", models.EntityHorse, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	h := f.Record.(*models.Horse)
	h.Name = "Najm"
	h.ProfileLevel = "gold"
	f.DocumentID = "horse-9"

	f.Reset(ctx)

	assert.Same(t, h, f.Record.(*models.Horse))
	assert.Empty(t, h.Name)
	assert.Equal(t, "basic", h.ProfileLevel)
	assert.Empty(t, f.DocumentID)
}

func TestForm_ValidateForSubmitChecksWholeForm(t *testing.T) {
	f := newBookForm(t, NewMemoryStepStore())
	b := createTestBook()
	b.Title = ""
	f.Record = b

	result := f.ValidateForSubmit()

	assert.False(t, result.Valid())
	assert.Equal(t, map[string]string{"title": validation.MsgRequired}, f.Errors())
}

func TestNewForm_UnknownEntity(t *testing.T) {
	_, err := NewForm(context.Background(), "x", "stable", nil, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestForm_SubmitGuard(t *testing.T) {
	f := newBookForm(t, nil)

	require.True(t, f.BeginSubmit())
	assert.True(t, f.Submitting())
	assert.False(t, f.BeginSubmit())

	f.EndSubmit()
	assert.False(t, f.Submitting())
	assert.True(t, f.BeginSubmit())
}
