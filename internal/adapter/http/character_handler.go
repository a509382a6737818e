package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/diillson/sw-characters-go/internal/app/character"
	"github.com/diillson/sw-characters-go/internal/domain/model"
	"github.com/diillson/sw-characters-go/internal/domain/repository"
	"github.com/diillson/sw-characters-go/internal/infra/metrics"
	apperrors "github.com/diillson/sw-characters-go/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BasePath é o prefixo das rotas de personagens
const BasePath = "/sw-characters"

// characterRequest é o corpo aceito por POST e PUT
type characterRequest struct {
	Name      string `json:"name"`
	Faction   string `json:"faction"`
	Homeworld string `json:"homeworld"`
	Species   string `json:"species"`
}

func (r characterRequest) toModel() model.Character {
	return model.Character{
		Name:      r.Name,
		Faction:   r.Faction,
		Homeworld: r.Homeworld,
		Species:   r.Species,
	}
}

// CharacterHandler implementa os handlers do catálogo de personagens
type CharacterHandler struct {
	service *character.Service
	logger  *zap.Logger
	metrics *metrics.APIMetrics
}

// NewCharacterHandler cria um novo handler de personagens
func NewCharacterHandler(service *character.Service, logger *zap.Logger) *CharacterHandler {
	return &CharacterHandler{
		service: service,
		logger:  logger,
	}
}

// SetMetrics configura o objeto de métricas
func (h *CharacterHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

// Register registra as rotas de personagens no grupo informado
func (h *CharacterHandler) Register(r gin.IRoutes) {
	r.GET(BasePath, h.List)
	r.GET(BasePath+"/:id", h.Get)
	r.POST(BasePath, h.Create)
	r.PUT(BasePath+"/:id", h.Update)
	r.DELETE(BasePath, h.Delete)
	r.DELETE(BasePath+"/:id", h.Delete)
}

// List transmite os personagens filtrados como um array JSON, um elemento por vez
func (h *CharacterHandler) List(c *gin.Context) {
	filter, err := parseFilter(c, false)
	if err != nil {
		h.writeError(c, err)
		return
	}

	written := 0
	err = h.service.List(c.Request.Context(), filter, func(ch *model.Character) error {
		data, err := json.Marshal(ch)
		if err != nil {
			return err
		}

		if written == 0 {
			c.Header("Content-Type", "application/json; charset=utf-8")
			c.Status(http.StatusOK)
			if _, err := c.Writer.WriteString("["); err != nil {
				return err
			}
		} else if _, err := c.Writer.WriteString(","); err != nil {
			return err
		}

		if _, err := c.Writer.Write(data); err != nil {
			return err
		}
		c.Writer.Flush()
		written++
		return nil
	})

	if err != nil {
		if written == 0 {
			h.writeError(c, apperrors.InternalServer("", err))
			return
		}
		// O status já foi enviado: a resposta é interrompida sem fechar o array
		h.logger.Error("Listagem interrompida após o início da resposta",
			zap.Int("written", written),
			zap.Error(err))
		if h.metrics != nil {
			h.metrics.RequestError(c.FullPath(), c.Request.Method, "stream_aborted")
		}
		c.Abort()
		return
	}

	if written == 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte("[]"))
		return
	}
	_, _ = c.Writer.WriteString("]")
}

// Get retorna um personagem pelo id
func (h *CharacterHandler) Get(c *gin.Context) {
	id, err := parsePathID(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	ch, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ch)
}

// Create cadastra um novo personagem
func (h *CharacterHandler) Create(c *gin.Context) {
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperrors.BadRequest("Invalid request body", err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), req.toModel())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", BasePath, created.ID))
	c.JSON(http.StatusCreated, created)
}

// Update altera os campos informados de um personagem existente
func (h *CharacterHandler) Update(c *gin.Context) {
	id, err := parsePathID(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperrors.BadRequest("Invalid request body", err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req.toModel())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete remove por id na rota ou por filtros na query e retorna a quantidade removida
func (h *CharacterHandler) Delete(c *gin.Context) {
	filter, err := parseFilter(c, true)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if raw := c.Param("id"); raw != "" {
		id, err := parsePathID(raw)
		if err != nil {
			h.writeError(c, err)
			return
		}
		filter.ID = &id
	}

	deleted, err := h.service.Delete(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleted)
}

// writeError escreve o erro como uma única linha de texto em JSON
func (h *CharacterHandler) writeError(c *gin.Context, err error) {
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apperrors.InternalServer("", err)
	}

	if apiErr.Code >= http.StatusInternalServerError {
		h.logger.Error("Erro ao processar requisição",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err))
	}

	if apiErr.Code == http.StatusNotFound {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(apiErr.Code, apiErr.Message)
}

// parsePathID trata um id não numérico na rota como rota inexistente
func parsePathID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NotFound(fmt.Sprintf("No route matches id '%s'", raw), err)
	}
	return id, nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.BadRequest(fmt.Sprintf("The value '%s' is not a valid id", raw), err)
	}
	return id, nil
}

// filterKeys são os parâmetros de filtro aceitos, em minúsculas
var filterKeys = []string{"id", "name", "faction", "homeworld", "species"}

// parseFilter lê os filtros da query sem diferenciar maiúsculas nos nomes.
// Valores vazios não restringem a consulta. Quando o mesmo filtro chega com
// grafias diferentes, vale a primeira grafia em ordem lexicográfica.
func parseFilter(c *gin.Context, allowID bool) (repository.Filter, error) {
	var filter repository.Filter

	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, name := range filterKeys {
		if name == "id" && !allowID {
			continue
		}

		value, ok := lookupQuery(query, keys, name)
		if !ok {
			continue
		}

		switch name {
		case "id":
			id, err := parseID(value)
			if err != nil {
				return filter, err
			}
			filter.ID = &id
		case "name":
			filter.Name = &value
		case "faction":
			filter.Faction = &value
		case "homeworld":
			filter.Homeworld = &value
		case "species":
			filter.Species = &value
		}
	}

	return filter, nil
}

// lookupQuery retorna o primeiro valor não vazio do parâmetro, percorrendo as chaves já ordenadas
func lookupQuery(query url.Values, keys []string, name string) (string, bool) {
	for _, key := range keys {
		if strings.ToLower(key) != name {
			continue
		}
		if values := query[key]; len(values) > 0 && values[0] != "" {
			return values[0], true
		}
	}
	return "", false
}
