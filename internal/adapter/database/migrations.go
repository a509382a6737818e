package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations
var embeddedMigrations embed.FS

// Migration representa uma migração de banco de dados aplicada
type Migration struct {
	ID        uint  `gorm:"primaryKey"`
	Version   int64 `gorm:"uniqueIndex"`
	Name      string
	AppliedAt time.Time
}

// TableName define o nome da tabela de controle de migrações
func (Migration) TableName() string {
	return "schema_migrations"
}

// MigrationFile representa um arquivo de migração
type MigrationFile struct {
	Version int64
	Name    string
	Path    string
}

// MigrationManager gerencia migrações de banco de dados
type MigrationManager struct {
	db     *gorm.DB
	logger *zap.Logger
	fsys   fs.FS
}

// EmbeddedMigrations retorna as migrações embutidas para o driver informado
func EmbeddedMigrations(driver string) (fs.FS, error) {
	sub, err := fs.Sub(embeddedMigrations, path.Join("migrations", driver))
	if err != nil {
		return nil, fmt.Errorf("migrações indisponíveis para o driver %s: %w", driver, err)
	}
	return sub, nil
}

// MigrationSource escolhe o diretório configurado ou, se vazio, as migrações embutidas
func MigrationSource(driver, directory string) (fs.FS, error) {
	if directory != "" {
		return os.DirFS(directory), nil
	}
	return EmbeddedMigrations(driver)
}

// ErrNoMigrationFiles indica que a origem configurada não contém nenhuma migração
var ErrNoMigrationFiles = errors.New("nenhum arquivo de migração encontrado")

// NewMigrationManager cria um novo gerenciador de migrações
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, fsys fs.FS) *MigrationManager {
	return &MigrationManager{
		db:     db,
		logger: logger,
		fsys:   fsys,
	}
}

// Initialize inicializa a tabela de migrações
func (m *MigrationManager) Initialize(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("falha ao criar tabela de migrações: %w", err)
	}
	return nil
}

// Pending retorna as migrações ainda não aplicadas, em ordem de versão
func (m *MigrationManager) Pending(ctx context.Context) ([]MigrationFile, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	var applied []Migration
	if err := m.db.WithContext(ctx).Order("version").Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("falha ao buscar migrações aplicadas: %w", err)
	}

	appliedVersions := make(map[int64]bool, len(applied))
	for _, migration := range applied {
		appliedVersions[migration.Version] = true
	}

	files, err := m.findMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("falha ao listar arquivos de migração: %w", err)
	}

	pending := make([]MigrationFile, 0, len(files))
	for _, file := range files {
		if !appliedVersions[file.Version] {
			pending = append(pending, file)
		}
	}
	return pending, nil
}

// ApplyMigrations aplica todas as migrações pendentes e retorna quantas foram aplicadas
func (m *MigrationManager) ApplyMigrations(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		m.logger.Info("Nenhuma migração pendente")
		return 0, nil
	}

	for i, file := range pending {
		m.logger.Info("Aplicando migração", zap.Int64("version", file.Version), zap.String("name", file.Name))

		if err := m.apply(ctx, file); err != nil {
			return i, err
		}

		m.logger.Info("Migração aplicada com sucesso", zap.Int64("version", file.Version), zap.String("name", file.Name))
	}

	return len(pending), nil
}

// apply executa uma migração e registra sua versão na mesma transação
func (m *MigrationManager) apply(ctx context.Context, file MigrationFile) error {
	content, err := fs.ReadFile(m.fsys, file.Path)
	if err != nil {
		return fmt.Errorf("falha ao ler arquivo de migração: %w", err)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sqlCmd := range splitSQLCommands(string(content)) {
			sqlCmd = strings.TrimSpace(sqlCmd)
			if sqlCmd == "" {
				continue
			}

			if err := tx.Exec(sqlCmd).Error; err != nil {
				return fmt.Errorf("falha ao executar migração %d_%s: %w", file.Version, file.Name, err)
			}
		}

		if err := tx.Create(&Migration{
			Version:   file.Version,
			Name:      file.Name,
			AppliedAt: time.Now().UTC(),
		}).Error; err != nil {
			return fmt.Errorf("falha ao registrar migração: %w", err)
		}

		return nil
	})
}

// Função auxiliar para dividir o SQL em comandos individuais
func splitSQLCommands(sql string) []string {
	// Dividir por ponto e vírgula, mas ignorar ponto e vírgula dentro de strings ou comentários
	var commands []string
	var currentCommand strings.Builder
	inString := false
	inLineComment := false
	inBlockComment := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if !inString && !inBlockComment && !inLineComment && i < len(sql)-1 && ch == '-' && sql[i+1] == '-' {
			inLineComment = true
			currentCommand.WriteByte(ch)
			continue
		}

		if inLineComment && ch == '\n' {
			inLineComment = false
			currentCommand.WriteByte(ch)
			continue
		}

		if !inString && !inLineComment && !inBlockComment && i < len(sql)-1 && ch == '/' && sql[i+1] == '*' {
			inBlockComment = true
			currentCommand.WriteByte(ch)
			continue
		}

		if inBlockComment && i < len(sql)-1 && ch == '*' && sql[i+1] == '/' {
			inBlockComment = false
			currentCommand.WriteString("*/")
			i++
			continue
		}

		if !inLineComment && !inBlockComment && ch == '\'' {
			inString = !inString
		}

		if !inString && !inLineComment && !inBlockComment && ch == ';' {
			currentCommand.WriteByte(ch)
			commands = append(commands, currentCommand.String())
			currentCommand.Reset()
			continue
		}

		currentCommand.WriteByte(ch)
	}

	if lastCommand := strings.TrimSpace(currentCommand.String()); lastCommand != "" {
		commands = append(commands, lastCommand)
	}

	return commands
}

// findMigrationFiles encontra todos os arquivos de migração .sql ordenados por versão
func (m *MigrationManager) findMigrationFiles() ([]MigrationFile, error) {
	var files []MigrationFile

	err := fs.WalkDir(m.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		file, ok := parseMigrationName(d.Name())
		if !ok {
			m.logger.Warn("Formato de arquivo de migração inválido", zap.String("file", d.Name()))
			return nil
		}
		file.Path = p

		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoMigrationFiles
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})

	return files, nil
}

// parseMigrationName extrai versão e nome (formato: YYYYMMDDHHMMSS_name.sql)
func parseMigrationName(filename string) (MigrationFile, bool) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) != 2 {
		return MigrationFile{}, false
	}

	version, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return MigrationFile{}, false
	}

	return MigrationFile{
		Version: version,
		Name:    strings.TrimSuffix(parts[1], ".sql"),
	}, true
}

// CreateMigration cria um novo arquivo de migração vazio no diretório informado
func CreateMigration(directory, name string) (string, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if name == "" {
		return "", errors.New("nome da migração é obrigatório")
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("falha ao criar diretório: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.sql", time.Now().Format("20060102150405"), name)
	fullPath := filepath.Join(directory, filename)

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("falha ao criar arquivo: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("falha ao fechar arquivo: %w", err)
	}

	return fullPath, nil
}
