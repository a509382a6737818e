package model

import "strings"

// MaxFieldLength é o tamanho máximo de cada campo textual de um personagem
const MaxFieldLength = 50

// Character é a representação de domínio de um personagem do catálogo
type Character struct {
	ID        int    `json:"id" gorm:"column:Id;primaryKey;autoIncrement"`
	Name      string `json:"name" gorm:"column:Name;size:50;not null;uniqueIndex:IX_SwCharacters_Name" validate:"max=50"`
	Faction   string `json:"faction" gorm:"column:Faction;size:50;not null" validate:"max=50"`
	Homeworld string `json:"homeworld" gorm:"column:Homeworld;size:50;not null" validate:"max=50"`
	Species   string `json:"species" gorm:"column:Species;size:50;not null" validate:"max=50"`
}

// TableName define o nome da tabela
func (Character) TableName() string {
	return "SwCharacters"
}

// Merge sobrescreve os campos com os valores não vazios do candidato.
// Campos vazios ou compostos apenas de espaços são mantidos.
func (c *Character) Merge(candidate Character) {
	if !IsBlank(candidate.Name) {
		c.Name = candidate.Name
	}
	if !IsBlank(candidate.Faction) {
		c.Faction = candidate.Faction
	}
	if !IsBlank(candidate.Homeworld) {
		c.Homeworld = candidate.Homeworld
	}
	if !IsBlank(candidate.Species) {
		c.Species = candidate.Species
	}
}

// IsBlank verifica se a string é vazia ou contém apenas espaços
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
