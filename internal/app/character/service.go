package character

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/domain/repository"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	"github.com/diillson/sw-characters-go/pkg/cache"
	apperrors "github.com/diillson/sw-characters-go/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Service concentra as regras de negócio do catálogo de personagens
type Service struct {
	repo     repository.CharacterRepository
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.APIMetrics
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService cria o serviço de personagens
func NewService(repo repository.CharacterRepository, c cache.Cache, cacheTTL time.Duration, m *metrics.APIMetrics, logger *zap.Logger) *Service {
	if c == nil {
		c = &cache.NoOpCache{}
	}

	return &Service{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		metrics:  m,
		validate: validator.New(),
		logger:   logger,
	}
}

// generationKey é incrementado a cada remoção e invalida todas as entradas
const generationKey = "characters:generation"

func cacheKey(id int) string {
	return fmt.Sprintf("character:%d", id)
}

// versionKey é incrementado a cada alteração do personagem
func versionKey(id int) string {
	return fmt.Sprintf("character:%d:version", id)
}

type cacheStamp struct {
	generation int64
	version    int64
}

// cachedCharacter guarda o personagem com as versões lidas antes da consulta ao banco.
// Uma entrada só é válida enquanto essas versões forem as vigentes.
type cachedCharacter struct {
	Generation int64           `json:"generation"`
	Version    int64           `json:"version"`
	Character  model.Character `json:"character"`
}

func (c cachedCharacter) stamp() cacheStamp {
	return cacheStamp{generation: c.Generation, version: c.Version}
}

// readStamp lê as versões vigentes. Sem elas o cache não é usado.
func (s *Service) readStamp(ctx context.Context, id int) (cacheStamp, bool) {
	generation, err := s.cache.Counter(ctx, generationKey)
	if err != nil {
		s.logger.Warn("Erro ao ler versão do cache", zap.Error(err))
		return cacheStamp{}, false
	}

	version, err := s.cache.Counter(ctx, versionKey(id))
	if err != nil {
		s.logger.Warn("Erro ao ler versão do cache", zap.Int("id", id), zap.Error(err))
		return cacheStamp{}, false
	}

	return cacheStamp{generation: generation, version: version}, true
}

func (s *Service) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.CharacterOperation(operation, outcome)
	}
}

// fail registra o resultado e converte erros de armazenamento em 500
func (s *Service) fail(operation string, err error) error {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		s.record(operation, outcomeFor(apiErr.Code))
		return apiErr
	}

	s.record(operation, "error")
	s.logger.Error("Falha ao acessar o armazenamento",
		zap.String("operation", operation),
		zap.Error(err))
	return apperrors.InternalServer("", err)
}

func outcomeFor(code int) string {
	switch code {
	case 400:
		return "invalid"
	case 404:
		return "not_found"
	case 409:
		return "conflict"
	default:
		return "error"
	}
}

// List entrega a fn cada personagem que satisfaz o filtro, na ordem de id
func (s *Service) List(ctx context.Context, filter repository.Filter, fn func(*model.Character) error) error {
	if err := s.repo.List(ctx, filter, fn); err != nil {
		s.record("list", "error")
		return err
	}
	s.record("list", "ok")
	return nil
}

// Get obtém um personagem pelo id, consultando o cache antes do banco
func (s *Service) Get(ctx context.Context, id int) (*model.Character, error) {
	stamp, useCache := s.readStamp(ctx, id)
	if useCache {
		var cached cachedCharacter
		found, err := s.cache.Get(ctx, cacheKey(id), &cached)
		if err != nil {
			s.logger.Warn("Erro ao buscar personagem do cache", zap.Int("id", id), zap.Error(err))
		} else if found && cached.stamp() == stamp {
			s.record("get", "ok")
			return &cached.Character, nil
		}
	}

	character, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, s.fail("get", apperrors.NotFound(fmt.Sprintf("Character with id %d not found", id), err))
		}
		return nil, s.fail("get", err)
	}

	if useCache {
		entry := cachedCharacter{Generation: stamp.generation, Version: stamp.version, Character: *character}
		if err := s.cache.Set(ctx, cacheKey(id), entry, s.cacheTTL); err != nil {
			s.logger.Warn("Erro ao armazenar personagem no cache", zap.Int("id", id), zap.Error(err))
		}
	}

	s.record("get", "ok")
	return character, nil
}

// Create valida e persiste um novo personagem
func (s *Service) Create(ctx context.Context, candidate model.Character) (*model.Character, error) {
	exists, err := s.repo.ExistsByName(ctx, candidate.Name)
	if err != nil {
		return nil, s.fail("create", err)
	}
	if exists {
		return nil, s.fail("create", conflict(candidate.Name))
	}

	if err := requireFields(candidate); err != nil {
		return nil, s.fail("create", err)
	}
	if err := s.validateLength(candidate); err != nil {
		return nil, s.fail("create", err)
	}

	record := model.Character{
		Name:      candidate.Name,
		Faction:   candidate.Faction,
		Homeworld: candidate.Homeworld,
		Species:   candidate.Species,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, s.fail("create", conflict(candidate.Name))
		}
		return nil, s.fail("create", err)
	}

	s.logger.Info("Personagem criado", zap.Int("id", record.ID), zap.String("name", record.Name))
	s.record("create", "ok")
	return &record, nil
}

// Update aplica os campos não vazios do candidato ao personagem existente.
// O nome do candidato é sempre verificado, inclusive contra o próprio registro.
func (s *Service) Update(ctx context.Context, id int, candidate model.Character) (*model.Character, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, s.fail("update", apperrors.NotFound(fmt.Sprintf("Character with id %d not found", id), err))
		}
		return nil, s.fail("update", err)
	}

	exists, err := s.repo.ExistsByName(ctx, candidate.Name)
	if err != nil {
		return nil, s.fail("update", err)
	}
	if exists {
		return nil, s.fail("update", conflict(candidate.Name))
	}

	current.Merge(candidate)
	if err := s.validateLength(*current); err != nil {
		return nil, s.fail("update", err)
	}

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateName):
			return nil, s.fail("update", conflict(current.Name))
		case errors.Is(err, repository.ErrCharacterNotFound):
			return nil, s.fail("update", apperrors.NotFound(fmt.Sprintf("Character with id %d not found", id), err))
		}
		return nil, s.fail("update", err)
	}

	if _, err := s.cache.Incr(ctx, versionKey(id)); err != nil {
		s.logger.Warn("Erro ao invalidar personagem no cache", zap.Int("id", id), zap.Error(err))
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			s.logger.Warn("Erro ao remover personagem do cache", zap.Int("id", id), zap.Error(err))
		}
	}

	s.record("update", "ok")
	return updated, nil
}

// Delete remove os personagens que satisfazem o filtro e retorna quantos foram removidos
func (s *Service) Delete(ctx context.Context, filter repository.Filter) (int64, error) {
	deleted, err := s.repo.DeleteWhere(ctx, filter)
	if err != nil {
		return 0, s.fail("delete", err)
	}

	if deleted > 0 {
		if _, err := s.cache.Incr(ctx, generationKey); err != nil {
			s.logger.Warn("Erro ao invalidar o cache", zap.Error(err))
			if err := s.cache.Clear(ctx); err != nil {
				s.logger.Warn("Erro ao limpar o cache", zap.Error(err))
			}
		}
	}

	s.logger.Info("Personagens removidos", zap.Int64("count", deleted), zap.Bool("all", filter.IsEmpty()))
	s.record("delete", "ok")
	return deleted, nil
}

func conflict(name string) *apperrors.APIError {
	return apperrors.Conflict(fmt.Sprintf("Character with name %s already exists", name), repository.ErrDuplicateName)
}

// requireFields verifica os campos obrigatórios na ordem name, faction, homeworld, species
func requireFields(c model.Character) error {
	switch {
	case model.IsBlank(c.Name):
		return apperrors.BadRequest("Name is required", nil)
	case model.IsBlank(c.Faction):
		return apperrors.BadRequest("Faction is required", nil)
	case model.IsBlank(c.Homeworld):
		return apperrors.BadRequest("Homeworld is required", nil)
	case model.IsBlank(c.Species):
		return apperrors.BadRequest("Species is required", nil)
	}
	return nil
}

func (s *Service) validateLength(c model.Character) error {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		field := validationErrors[0].Field()
		return apperrors.BadRequest(fmt.Sprintf("%s must be at most %d characters", field, model.MaxFieldLength), err)
	}
	return apperrors.BadRequest("Invalid character", err)
}
