package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/domain/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const charactersTable = "SwCharacters"

// CharacterRepository implementa repository.CharacterRepository
type CharacterRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCharacterRepository cria um novo repositório de personagens
func NewCharacterRepository(db *gorm.DB, logger *zap.Logger) repository.CharacterRepository {
	return &CharacterRepository{
		db:     db,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("sw-characters.repository.character"),
	}
}

func (r *CharacterRepository) startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", operation),
		attribute.String("db.table", charactersTable),
	)
	return r.tracer.Start(ctx, "CharacterRepository."+name, trace.WithAttributes(attrs...))
}

func recordError(span trace.Span, description string, err error) {
	span.SetStatus(codes.Error, description)
	span.RecordError(err)
}

// applyFilter adiciona um predicado de igualdade por campo informado
func applyFilter(tx *gorm.DB, filter repository.Filter) *gorm.DB {
	eq := func(column string, value interface{}) {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}

	if filter.ID != nil {
		eq("Id", *filter.ID)
	}
	if filter.Name != nil {
		eq("Name", *filter.Name)
	}
	if filter.Faction != nil {
		eq("Faction", *filter.Faction)
	}
	if filter.Homeworld != nil {
		eq("Homeworld", *filter.Homeworld)
	}
	if filter.Species != nil {
		eq("Species", *filter.Species)
	}
	return tx
}

func filterAttributes(filter repository.Filter) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool("filter.empty", filter.IsEmpty())}
	if filter.ID != nil {
		attrs = append(attrs, attribute.Int("filter.id", *filter.ID))
	}
	if filter.Name != nil {
		attrs = append(attrs, attribute.String("filter.name", *filter.Name))
	}
	if filter.Faction != nil {
		attrs = append(attrs, attribute.String("filter.faction", *filter.Faction))
	}
	if filter.Homeworld != nil {
		attrs = append(attrs, attribute.String("filter.homeworld", *filter.Homeworld))
	}
	if filter.Species != nil {
		attrs = append(attrs, attribute.String("filter.species", *filter.Species))
	}
	return attrs
}

// List percorre os personagens em ordem de id sem carregar o resultado inteiro em memória
func (r *CharacterRepository) List(ctx context.Context, filter repository.Filter, fn func(*model.Character) error) error {
	ctx, span := r.startSpan(ctx, "List", "select", filterAttributes(filter)...)
	defer span.End()

	tx := applyFilter(r.db.WithContext(ctx).Model(&model.Character{}), filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "Id"}})

	rows, err := tx.Rows()
	if err != nil {
		r.logger.Error("falha ao buscar personagens", zap.Error(err))
		recordError(span, "database error", err)
		return fmt.Errorf("falha ao buscar personagens: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var character model.Character
		if err := r.db.ScanRows(rows, &character); err != nil {
			recordError(span, "scan error", err)
			return fmt.Errorf("falha ao ler personagem: %w", err)
		}

		if err := fn(&character); err != nil {
			recordError(span, "consumer error", err)
			return err
		}
		count++
	}

	if err := rows.Err(); err != nil {
		recordError(span, "database error", err)
		return fmt.Errorf("falha ao percorrer personagens: %w", err)
	}

	span.SetAttributes(attribute.Int("characters.count", count))
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID obtém um personagem pelo id
func (r *CharacterRepository) GetByID(ctx context.Context, id int) (*model.Character, error) {
	ctx, span := r.startSpan(ctx, "GetByID", "select", attribute.Int("character.id", id))
	defer span.End()

	var character model.Character
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "Id"}, Value: id}).
		Take(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetAttributes(attribute.Bool("character.found", false))
			return nil, repository.ErrCharacterNotFound
		}
		r.logger.Error("falha ao buscar personagem por id", zap.Int("id", id), zap.Error(err))
		recordError(span, "database error", err)
		return nil, fmt.Errorf("falha ao buscar personagem: %w", err)
	}

	span.SetAttributes(attribute.Bool("character.found", true))
	span.SetStatus(codes.Ok, "")
	return &character, nil
}

// ExistsByName verifica se algum personagem usa exatamente o nome informado
func (r *CharacterRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ctx, span := r.startSpan(ctx, "ExistsByName", "select", attribute.String("character.name", name))
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Character{}).
		Where(clause.Eq{Column: clause.Column{Name: "Name"}, Value: name}).
		Count(&count).Error
	if err != nil {
		r.logger.Error("falha ao verificar nome", zap.String("name", name), zap.Error(err))
		recordError(span, "database error", err)
		return false, fmt.Errorf("falha ao verificar nome: %w", err)
	}

	span.SetAttributes(attribute.Bool("character.exists", count > 0))
	span.SetStatus(codes.Ok, "")
	return count > 0, nil
}

// Create insere um personagem e preenche o ID gerado
func (r *CharacterRepository) Create(ctx context.Context, character *model.Character) error {
	ctx, span := r.startSpan(ctx, "Create", "insert", attribute.String("character.name", character.Name))
	defer span.End()

	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		if isDuplicateKey(err) {
			span.SetStatus(codes.Error, "duplicate name")
			return repository.ErrDuplicateName
		}
		r.logger.Error("falha ao criar personagem", zap.String("name", character.Name), zap.Error(err))
		recordError(span, "database error", err)
		return fmt.Errorf("falha ao criar personagem: %w", err)
	}

	span.SetAttributes(attribute.Int("character.id", character.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// CreateBatch insere vários personagens numa única transação
func (r *CharacterRepository) CreateBatch(ctx context.Context, characters []model.Character) error {
	ctx, span := r.startSpan(ctx, "CreateBatch", "insert", attribute.Int("characters.count", len(characters)))
	defer span.End()

	if len(characters) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(characters, 100).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			span.SetStatus(codes.Error, "duplicate name")
			return repository.ErrDuplicateName
		}
		r.logger.Error("falha ao inserir personagens", zap.Int("count", len(characters)), zap.Error(err))
		recordError(span, "database error", err)
		return fmt.Errorf("falha ao inserir personagens: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update persiste os campos do personagem e relê o estado gravado
func (r *CharacterRepository) Update(ctx context.Context, character *model.Character) (*model.Character, error) {
	ctx, span := r.startSpan(ctx, "Update", "update", attribute.Int("character.id", character.ID))
	defer span.End()

	err := r.db.WithContext(ctx).Model(&model.Character{}).
		Where(clause.Eq{Column: clause.Column{Name: "Id"}, Value: character.ID}).
		Updates(map[string]interface{}{
			"Name":      character.Name,
			"Faction":   character.Faction,
			"Homeworld": character.Homeworld,
			"Species":   character.Species,
		}).Error
	if err != nil {
		if isDuplicateKey(err) {
			span.SetStatus(codes.Error, "duplicate name")
			return nil, repository.ErrDuplicateName
		}
		r.logger.Error("falha ao atualizar personagem", zap.Int("id", character.ID), zap.Error(err))
		recordError(span, "database error", err)
		return nil, fmt.Errorf("falha ao atualizar personagem: %w", err)
	}

	// Algumas bases não contam linhas sem alteração, então o estado final é relido
	updated, err := r.GetByID(ctx, character.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrCharacterNotFound) {
			recordError(span, "database error", err)
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// DeleteWhere remove os personagens que satisfazem o filtro. Um filtro vazio remove todos.
func (r *CharacterRepository) DeleteWhere(ctx context.Context, filter repository.Filter) (int64, error) {
	ctx, span := r.startSpan(ctx, "DeleteWhere", "delete", filterAttributes(filter)...)
	defer span.End()

	tx := r.db.WithContext(ctx)
	if filter.IsEmpty() {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}

	result := applyFilter(tx, filter).Delete(&model.Character{})
	if result.Error != nil {
		r.logger.Error("falha ao remover personagens", zap.Error(result.Error))
		recordError(span, "database error", result.Error)
		return 0, fmt.Errorf("falha ao remover personagens: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("characters.deleted", result.RowsAffected))
	span.SetStatus(codes.Ok, "")
	return result.RowsAffected, nil
}

// Count retorna o total de personagens
func (r *CharacterRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := r.startSpan(ctx, "Count", "select")
	defer span.End()

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Character{}).Count(&count).Error; err != nil {
		recordError(span, "database error", err)
		return 0, fmt.Errorf("falha ao contar personagens: %w", err)
	}

	span.SetAttributes(attribute.Int64("characters.count", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}

// isDuplicateKey reconhece violações da restrição de unicidade em qualquer dialeto
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
