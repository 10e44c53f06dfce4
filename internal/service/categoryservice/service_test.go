package categoryservice_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
	"barstock/internal/service/categoryservice"
)

const orgID int64 = 1

// MockCategoryRepository é uma implementação mock da interface CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Save(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, org, id int64) (domain.Category, error) {
	args := m.Called(ctx, org, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllByOrg(ctx context.Context, org int64) ([]domain.Category, error) {
	args := m.Called(ctx, org)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, org int64, name string) (bool, error) {
	args := m.Called(ctx, org, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, org, id int64) error {
	args := m.Called(ctx, org, id)
	return args.Error(0)
}

func TestCreate_TrimsNameAndDefaultsDynamicPricing(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())

	repo.On("ExistsByName", mock.Anything, orgID, "Cervejas").Return(false, nil)
	repo.On("Save", mock.Anything, domain.Category{OrganizationID: orgID, Name: "Cervejas", DynamicPricing: true}).
		Return(domain.Category{ID: 1, OrganizationID: orgID, Name: "Cervejas", DynamicPricing: true}, nil)

	created, err := svc.Create(context.Background(), orgID, domain.CategoryRequest{Name: "  Cervejas  "})

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, created.DynamicPricing)
	repo.AssertExpectations(t)
}

func TestCreate_ExplicitDynamicPricingFalse(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())
	off := false

	repo.On("ExistsByName", mock.Anything, orgID, "Drinks").Return(false, nil)
	repo.On("Save", mock.Anything, domain.Category{OrganizationID: orgID, Name: "Drinks", DynamicPricing: false}).
		Return(domain.Category{ID: 2, OrganizationID: orgID, Name: "Drinks"}, nil)

	_, err := svc.Create(context.Background(), orgID, domain.CategoryRequest{Name: "Drinks", DynamicPricing: &off})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())

	for _, name := range []string{"", "   ", strings.Repeat("x", 101)} {
		_, err := svc.Create(context.Background(), orgID, domain.CategoryRequest{Name: name})
		assert.IsType(t, &apperror.ValidationError{}, err)
	}

	_, err := svc.Create(context.Background(), 0, domain.CategoryRequest{Name: "Vinhos"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreate_DuplicateNameIsConflict(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())
	repo.On("ExistsByName", mock.Anything, orgID, "cervejas").Return(true, nil)

	_, err := svc.Create(context.Background(), orgID, domain.CategoryRequest{Name: "cervejas"})

	assert.IsType(t, &apperror.ConflictError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDelete_ReturnsDeletedCategory(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())
	existing := domain.Category{ID: 4, OrganizationID: orgID, Name: "Petiscos", DynamicPricing: true}

	repo.On("FindByID", mock.Anything, orgID, int64(4)).Return(existing, nil)
	repo.On("Delete", mock.Anything, orgID, int64(4)).Return(nil)

	deleted, err := svc.Delete(context.Background(), orgID, 4)

	require.NoError(t, err)
	assert.Equal(t, existing, deleted)
	repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewNop())
	repo.On("FindByID", mock.Anything, orgID, int64(9)).Return(domain.Category{}, apperror.NewNotFoundError("Categoria 9 não encontrada."))

	_, err := svc.Delete(context.Background(), orgID, 9)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
