package repository

import (
	"context"
	"errors"

	"github.com/diillson/sw-characters-go/internal/domain/model"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrDuplicateName     = errors.New("character name already exists")
)

// Filter reúne predicados de igualdade opcionais combinados com AND.
// Um campo nil não restringe a consulta.
type Filter struct {
	ID        *int
	Name      *string
	Faction   *string
	Homeworld *string
	Species   *string
}

// IsEmpty indica se nenhum predicado foi informado
func (f Filter) IsEmpty() bool {
	return f.ID == nil && f.Name == nil && f.Faction == nil && f.Homeworld == nil && f.Species == nil
}

// CharacterRepository define a interface para armazenamento de personagens
type CharacterRepository interface {
	// List percorre os personagens que satisfazem o filtro, um de cada vez
	List(ctx context.Context, filter Filter, fn func(*model.Character) error) error

	// GetByID obtém um personagem pelo id
	GetByID(ctx context.Context, id int) (*model.Character, error)

	// ExistsByName verifica se algum personagem usa o nome
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Create insere um personagem e preenche o ID gerado
	Create(ctx context.Context, character *model.Character) error

	// CreateBatch insere vários personagens numa única transação
	CreateBatch(ctx context.Context, characters []model.Character) error

	// Update persiste o personagem e retorna o estado gravado
	Update(ctx context.Context, character *model.Character) (*model.Character, error)

	// DeleteWhere remove os personagens que satisfazem o filtro
	DeleteWhere(ctx context.Context, filter Filter) (int64, error)

	// Count retorna o total de personagens
	Count(ctx context.Context) (int64, error)
}
