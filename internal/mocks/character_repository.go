package mocks

import (
	"context"

	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/domain/repository"
	"github.com/stretchr/testify/mock"
)

// MockCharacterRepository é um mock para o repository.CharacterRepository
type MockCharacterRepository struct {
	mock.Mock
}

// List entrega ao callback cada personagem do primeiro retorno configurado
func (m *MockCharacterRepository) List(ctx context.Context, filter repository.Filter, fn func(*model.Character) error) error {
	args := m.Called(ctx, filter, fn)
	if characters, ok := args.Get(0).([]model.Character); ok {
		for i := range characters {
			if err := fn(&characters[i]); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockCharacterRepository) GetByID(ctx context.Context, id int) (*model.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Character), args.Error(1)
}

func (m *MockCharacterRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCharacterRepository) Create(ctx context.Context, character *model.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *MockCharacterRepository) CreateBatch(ctx context.Context, characters []model.Character) error {
	args := m.Called(ctx, characters)
	return args.Error(0)
}

func (m *MockCharacterRepository) Update(ctx context.Context, character *model.Character) (*model.Character, error) {
	args := m.Called(ctx, character)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Character), args.Error(1)
}

func (m *MockCharacterRepository) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCharacterRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
