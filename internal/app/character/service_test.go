package character_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diillson/sw-characters-go/internal/adapter/database"
	"github.com/diillson/sw-characters-go/internal/app/character"
	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/domain/repository"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/internal/mocks"
	"github.com/diillson/sw-characters-go/internal/testutils"
	"github.com/diillson/sw-characters-go/pkg/cache"
	apperrors "github.com/diillson/sw-characters-go/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T, repo *mocks.MockCharacterRepository, c *mocks.MockCache) *character.Service {
	m := metrics.NewAPIMetrics(prometheus.NewRegistry())
	if c == nil {
		return character.NewService(repo, nil, time.Minute, m, zaptest.NewLogger(t))
	}
	return character.NewService(repo, c, time.Minute, m, zaptest.NewLogger(t))
}

func requireAPIError(t *testing.T, err error, code int, message string) {
	t.Helper()
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, code, apiErr.Code)
	assert.Equal(t, message, apiErr.Message)
}

func TestService_Create_ValidationOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate model.Character
		exists    bool
		code      int
		message   string
	}{
		{
			name:      "conflito tem precedência sobre campos vazios",
			candidate: model.Character{Name: "Yoda"},
			exists:    true,
			code:      http.StatusConflict,
			message:   "Character with name Yoda already exists",
		},
		{
			name:      "nome vazio",
			candidate: model.Character{Name: "   ", Faction: "f", Homeworld: "h", Species: "s"},
			code:      http.StatusBadRequest,
			message:   "Name is required",
		},
		{
			name:      "facção vazia",
			candidate: model.Character{Name: "n", Homeworld: "h"},
			code:      http.StatusBadRequest,
			message:   "Faction is required",
		},
		{
			name:      "planeta natal vazio",
			candidate: model.Character{Name: "n", Faction: "f", Species: "s"},
			code:      http.StatusBadRequest,
			message:   "Homeworld is required",
		},
		{
			name:      "espécie vazia",
			candidate: model.Character{Name: "n", Faction: "f", Homeworld: "h", Species: "\t"},
			code:      http.StatusBadRequest,
			message:   "Species is required",
		},
		{
			name:      "campo longo demais",
			candidate: model.Character{Name: "n", Faction: strings.Repeat("x", 51), Homeworld: "h", Species: "s"},
			code:      http.StatusBadRequest,
			message:   "Faction must be at most 50 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCharacterRepository)
			repo.On("ExistsByName", ctx, tt.candidate.Name).Return(tt.exists, nil)

			_, err := newService(t, repo, nil).Create(ctx, tt.candidate)
			requireAPIError(t, err, tt.code, tt.message)

			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Create_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)

	candidate := model.Character{ID: 99, Name: "Character2", Faction: "Faction2", Homeworld: "HomeWorld2", Species: "Species3"}
	repo.On("ExistsByName", ctx, "Character2").Return(false, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(c *model.Character) bool {
		return c.ID == 0 && c.Name == "Character2"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Character).ID = 21
	}).Return(nil)

	created, err := newService(t, repo, nil).Create(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, 21, created.ID)
	assert.Equal(t, "Species3", created.Species)
	repo.AssertExpectations(t)
}

func TestService_Create_DuplicateAtCommit(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)

	repo.On("ExistsByName", ctx, "Rey").Return(false, nil)
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateName)

	_, err := newService(t, repo, nil).Create(ctx, model.Character{Name: "Rey", Faction: "f", Homeworld: "h", Species: "s"})
	requireAPIError(t, err, http.StatusConflict, "Character with name Rey already exists")
}

func TestService_Create_StorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	repo.On("ExistsByName", ctx, "Rey").Return(false, errors.New("connection reset"))

	_, err := newService(t, repo, nil).Create(ctx, model.Character{Name: "Rey"})
	requireAPIError(t, err, http.StatusInternalServerError, "Internal server error")
}

func TestService_Get_UsesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	shared := cache.NewMemoryCache(time.Minute, time.Minute, nil, zaptest.NewLogger(t))

	luke := &model.Character{ID: 1, Name: "Luke Skywalker", Faction: "Rebel Alliance", Homeworld: "Tatooine", Species: "Human"}
	repo.On("GetByID", ctx, 1).Return(luke, nil).Once()

	service := character.NewService(repo, shared, time.Minute, nil, zaptest.NewLogger(t))
	got, err := service.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, luke, got)

	// A segunda leitura vem do cache
	got, err = service.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *luke, *got)

	repo.AssertExpectations(t)
}

func TestService_Get_CacheErrorFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	c := new(mocks.MockCache)

	c.On("Counter", ctx, "characters:generation").Return(int64(0), errors.New("redis down"))
	repo.On("GetByID", ctx, 5).Return(&model.Character{ID: 5, Name: "Yoda"}, nil)

	got, err := newService(t, repo, c).Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Yoda", got.Name)

	// Sem as versões vigentes nada é lido nem gravado no cache
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// pausingRepository segura a primeira leitura por id depois de consultar o banco
type pausingRepository struct {
	repository.CharacterRepository
	paused  atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepository) GetByID(ctx context.Context, id int) (*model.Character, error) {
	character, err := r.CharacterRepository.GetByID(ctx, id)
	if r.paused.CompareAndSwap(false, true) {
		close(r.read)
		<-r.release
	}
	return character, err
}

func TestService_Get_ConcurrentUpdateDoesNotLeaveStaleEntry(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewMigratedTestDatabase(t)
	logger := zaptest.NewLogger(t)

	base := database.NewCharacterRepository(db.DB(), logger)
	require.NoError(t, base.CreateBatch(ctx, model.DefaultCharacters()))

	repo := &pausingRepository{CharacterRepository: base, read: make(chan struct{}), release: make(chan struct{})}
	service := character.NewService(repo, cache.NewMemoryCache(time.Minute, time.Minute, nil, logger), time.Minute, nil, logger)

	done := make(chan error, 1)
	go func() {
		_, err := service.Get(ctx, 3)
		done <- err
	}()

	// A leitura já obteve "Leia Organa" e ainda não gravou no cache
	<-repo.read
	updated, err := service.Update(ctx, 3, model.Character{Name: "Leia Skywalker"})
	require.NoError(t, err)
	assert.Equal(t, "Leia Skywalker", updated.Name)

	close(repo.release)
	require.NoError(t, <-done)

	got, err := service.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Leia Skywalker", got.Name)
}

func TestService_InstancesSharingDatabaseSeeDeletes(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewMigratedTestDatabase(t)
	logger := zaptest.NewLogger(t)

	repo := database.NewCharacterRepository(db.DB(), logger)
	require.NoError(t, repo.CreateBatch(ctx, model.DefaultCharacters()))

	tests := []struct {
		name   string
		caches func() (cache.Cache, cache.Cache)
	}{
		{"sem cache", func() (cache.Cache, cache.Cache) { return nil, nil }},
		{"cache compartilhado", func() (cache.Cache, cache.Cache) {
			shared := cache.NewMemoryCache(time.Minute, time.Minute, nil, logger)
			return shared, shared
		}},
	}

	for n, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := 2 + n
			cacheA, cacheB := tt.caches()
			a := character.NewService(database.NewCharacterRepository(db.DB(), logger), cacheA, time.Minute, nil, logger)
			b := character.NewService(database.NewCharacterRepository(db.DB(), logger), cacheB, time.Minute, nil, logger)

			_, err := a.Get(ctx, id)
			require.NoError(t, err)

			deleted, err := b.Delete(ctx, repository.Filter{ID: &id})
			require.NoError(t, err)
			require.Equal(t, int64(1), deleted)

			_, err = a.Get(ctx, id)
			requireAPIError(t, err, http.StatusNotFound, fmt.Sprintf("Character with id %d not found", id))
		})
	}
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	repo.On("GetByID", ctx, 42).Return(nil, repository.ErrCharacterNotFound)

	_, err := newService(t, repo, nil).Get(ctx, 42)
	requireAPIError(t, err, http.StatusNotFound, "Character with id 42 not found")
	assert.ErrorIs(t, err, repository.ErrCharacterNotFound)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("não encontrado", func(t *testing.T) {
		repo := new(mocks.MockCharacterRepository)
		repo.On("GetByID", ctx, 7).Return(nil, repository.ErrCharacterNotFound)

		_, err := newService(t, repo, nil).Update(ctx, 7, model.Character{Name: "x"})
		requireAPIError(t, err, http.StatusNotFound, "Character with id 7 not found")
		repo.AssertNotCalled(t, "ExistsByName", mock.Anything, mock.Anything)
	})

	t.Run("nome em uso inclusive pelo próprio registro", func(t *testing.T) {
		repo := new(mocks.MockCharacterRepository)
		repo.On("GetByID", ctx, 1).Return(&model.Character{ID: 1, Name: "Luke Skywalker"}, nil)
		repo.On("ExistsByName", ctx, "Luke Skywalker").Return(true, nil)

		_, err := newService(t, repo, nil).Update(ctx, 1, model.Character{Name: "Luke Skywalker"})
		requireAPIError(t, err, http.StatusConflict, "Character with name Luke Skywalker already exists")
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("mescla apenas campos preenchidos e invalida o cache", func(t *testing.T) {
		repo := new(mocks.MockCharacterRepository)
		c := new(mocks.MockCache)

		current := &model.Character{ID: 1, Name: "Luke Skywalker", Faction: "Rebel Alliance", Homeworld: "Tatooine", Species: "Human"}
		repo.On("GetByID", ctx, 1).Return(current, nil)
		repo.On("ExistsByName", ctx, "").Return(false, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(c *model.Character) bool {
			return c.Name == "Luke Skywalker" && c.Faction == "Jedi Order" && c.Homeworld == "Tatooine"
		})).Return(&model.Character{ID: 1, Name: "Luke Skywalker", Faction: "Jedi Order", Homeworld: "Tatooine", Species: "Human"}, nil)
		c.On("Incr", ctx, "character:1:version").Return(int64(1), nil)

		updated, err := newService(t, repo, c).Update(ctx, 1, model.Character{Name: "", Faction: "Jedi Order", Homeworld: " "})
		require.NoError(t, err)
		assert.Equal(t, "Jedi Order", updated.Faction)
		repo.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("campo longo demais", func(t *testing.T) {
		repo := new(mocks.MockCharacterRepository)
		repo.On("GetByID", ctx, 1).Return(&model.Character{ID: 1, Name: "Luke", Faction: "f", Homeworld: "h", Species: "s"}, nil)
		repo.On("ExistsByName", ctx, "").Return(false, nil)

		_, err := newService(t, repo, nil).Update(ctx, 1, model.Character{Species: strings.Repeat("é", 51)})
		requireAPIError(t, err, http.StatusBadRequest, "Species must be at most 50 characters")
	})

	t.Run("unicidade violada na gravação", func(t *testing.T) {
		repo := new(mocks.MockCharacterRepository)
		repo.On("GetByID", ctx, 1).Return(&model.Character{ID: 1, Name: "Luke", Faction: "f", Homeworld: "h", Species: "s"}, nil)
		repo.On("ExistsByName", ctx, "Leia").Return(false, nil)
		repo.On("Update", ctx, mock.Anything).Return(nil, repository.ErrDuplicateName)

		_, err := newService(t, repo, nil).Update(ctx, 1, model.Character{Name: "Leia"})
		requireAPIError(t, err, http.StatusConflict, "Character with name Leia already exists")
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	c := new(mocks.MockCache)

	id := 3
	repo.On("DeleteWhere", ctx, repository.Filter{ID: &id}).Return(int64(1), nil)
	c.On("Incr", ctx, "characters:generation").Return(int64(1), nil).Once()

	deleted, err := newService(t, repo, c).Delete(ctx, repository.Filter{ID: &id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	repo.On("DeleteWhere", ctx, repository.Filter{}).Return(int64(0), nil)
	deleted, err = newService(t, repo, c).Delete(ctx, repository.Filter{})
	require.NoError(t, err)
	assert.Zero(t, deleted)

	c.AssertExpectations(t)
	c.AssertNotCalled(t, "Clear", mock.Anything)
}

func TestService_Delete_ClearsCacheWhenInvalidationFails(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)
	c := new(mocks.MockCache)

	repo.On("DeleteWhere", ctx, repository.Filter{}).Return(int64(20), nil)
	c.On("Incr", ctx, "characters:generation").Return(int64(0), errors.New("redis down"))
	c.On("Clear", ctx).Return(nil).Once()

	deleted, err := newService(t, repo, c).Delete(ctx, repository.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(20), deleted)
	c.AssertExpectations(t)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCharacterRepository)

	faction := "Sith"
	repo.On("List", ctx, repository.Filter{Faction: &faction}, mock.Anything).
		Return([]model.Character{{ID: 11, Name: "Darth Maul"}, {ID: 18, Name: "Count Dooku"}}, nil)

	var names []string
	err := newService(t, repo, nil).List(ctx, repository.Filter{Faction: &faction}, func(c *model.Character) error {
		names = append(names, c.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Darth Maul", "Count Dooku"}, names)
}
