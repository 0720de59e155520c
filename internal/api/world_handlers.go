package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
	"github.com/annel0/raycast/internal/world/entity"
)

// BlockRequest - тело PUT /api/blocks. Блок задаётся именем или ID.
type BlockRequest struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Z       int     `json:"z"`
	Block   string  `json:"block"`
	BlockID *uint16 `json:"block_id"`
}

// BlockResponse описывает воксель
type BlockResponse struct {
	Position vec.Vec3 `json:"position"`
	BlockID  uint16   `json:"block_id"`
	Block    string   `json:"block"`
	Kind     string   `json:"kind"`
}

func (rs *RestServer) blockResponse(pos vec.Vec3) (BlockResponse, error) {
	voxel, err := rs.world.VoxelAt(pos)
	if err != nil {
		return BlockResponse{}, err
	}
	out := BlockResponse{Position: pos, BlockID: uint16(voxel.ID), Kind: voxel.Kind.String(), Block: "air"}
	if b, ok := block.Get(block.BlockID(voxel.ID)); ok {
		out.Block = b.Name()
	}
	return out, nil
}

func resolveBlock(req BlockRequest) (block.BlockID, error) {
	if req.BlockID != nil {
		return block.BlockID(*req.BlockID), nil
	}
	switch req.Block {
	case "":
		return 0, fmt.Errorf("%w: нужен block или block_id", errBadRequest)
	case "air":
		return block.AirBlockID, nil
	}
	b, ok := block.ByName(req.Block)
	if !ok {
		return 0, fmt.Errorf("%w: неизвестный блок %q", errBadRequest, req.Block)
	}
	return b.ID(), nil
}

// handleGetBlock читает воксель: GET /api/blocks?x=&y=&z=
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(name))
		if err != nil {
			rs.fail(c, http.StatusBadRequest, "Неверная координата "+name)
			return
		}
		coords[i] = v
	}

	resp, err := rs.blockResponse(vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]})
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.ok(c, http.StatusOK, "Блок получен", resp)
}

// handleSetBlock ставит блок. Сохранение секции и рассылка инвалидации
// выполняются обработчиками изменений мира.
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}

	id, err := resolveBlock(req)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	if err := rs.world.SetBlock(c.Request.Context(), pos, id); err != nil {
		rs.abortWithError(c, err)
		return
	}

	resp, err := rs.blockResponse(pos)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.ok(c, http.StatusOK, "Блок установлен", resp)
}

// EntityRequest - тело POST /api/entities
type EntityRequest struct {
	Type     string        `json:"type" binding:"required"`
	Position vec.Vec3Float `json:"position"`
	Yaw      float64       `json:"yaw"`
	Pitch    float64       `json:"pitch"`
}

// EntityUpdateRequest - тело PATCH /api/entities/:id
type EntityUpdateRequest struct {
	Position *vec.Vec3Float `json:"position"`
	Yaw      *float64       `json:"yaw"`
	Pitch    *float64       `json:"pitch"`
}

func parseEntityID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: неверный ID сущности %q", errBadRequest, c.Param("id"))
	}
	return id, nil
}

// persistEntity сохраняет сущность в репозиторий, если он настроен
func (rs *RestServer) persistEntity(c *gin.Context, e *entity.Entity) error {
	if rs.entityRepo == nil {
		return nil
	}
	if err := rs.entityRepo.Save(c.Request.Context(), e); err != nil {
		return fmt.Errorf("сохранение сущности %d: %w", e.ID, err)
	}
	return nil
}

// handleListEntities возвращает все сущности мира
func (rs *RestServer) handleListEntities(c *gin.Context) {
	entities := rs.world.Entities().GetAllEntities()
	rs.ok(c, http.StatusOK, "Сущности получены", gin.H{
		"entities": entities,
		"total":    len(entities),
	})
}

// handleGetEntity возвращает сущность вместе с её хитбоксом
func (rs *RestServer) handleGetEntity(c *gin.Context) {
	id, err := parseEntityID(c)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	e, ok := rs.world.GetEntity(id)
	if !ok {
		rs.abortWithError(c, fmt.Errorf("%w: %d", entity.ErrEntityNotFound, id))
		return
	}
	rs.ok(c, http.StatusOK, "Сущность получена", gin.H{
		"entity": e,
		"box":    e.Box(),
	})
}

// handleCreateEntity создаёт сущность-кандидата
func (rs *RestServer) handleCreateEntity(c *gin.Context) {
	var req EntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	entityType, ok := entity.ParseEntityType(req.Type)
	if !ok {
		rs.abortWithError(c, fmt.Errorf("%w: неизвестный тип сущности %q", errBadRequest, req.Type))
		return
	}

	e := rs.world.SpawnEntity(entityType, req.Position)
	if req.Yaw != 0 || req.Pitch != 0 {
		looked, err := rs.world.LookEntity(e.ID, req.Yaw, req.Pitch)
		if err != nil {
			rs.abortWithError(c, err)
			return
		}
		e = looked
	}

	if err := rs.persistEntity(c, e); err != nil {
		rs.world.DespawnEntity(e.ID)
		rs.abortWithError(c, err)
		return
	}

	rs.ok(c, http.StatusCreated, "Сущность создана", e)
}

// handleUpdateEntity перемещает сущность или меняет направление взгляда
func (rs *RestServer) handleUpdateEntity(c *gin.Context) {
	id, err := parseEntityID(c)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	var req EntityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}

	e, ok := rs.world.GetEntity(id)
	if !ok {
		rs.abortWithError(c, fmt.Errorf("%w: %d", entity.ErrEntityNotFound, id))
		return
	}

	if req.Position != nil {
		if !req.Position.IsFinite() {
			rs.abortWithError(c, fmt.Errorf("%w: позиция должна быть конечной", errBadRequest))
			return
		}
		if e, err = rs.world.MoveEntity(id, *req.Position); err != nil {
			rs.abortWithError(c, err)
			return
		}
	}
	if req.Yaw != nil || req.Pitch != nil {
		yaw, pitch := e.Yaw, e.Pitch
		if req.Yaw != nil {
			yaw = *req.Yaw
		}
		if req.Pitch != nil {
			pitch = *req.Pitch
		}
		if e, err = rs.world.LookEntity(id, yaw, pitch); err != nil {
			rs.abortWithError(c, err)
			return
		}
	}

	if err := rs.persistEntity(c, e); err != nil {
		rs.abortWithError(c, err)
		return
	}
	rs.ok(c, http.StatusOK, "Сущность обновлена", e)
}

// handleDeleteEntity удаляет сущность из мира и хранилища
func (rs *RestServer) handleDeleteEntity(c *gin.Context) {
	id, err := parseEntityID(c)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	if !rs.world.DespawnEntity(id) {
		rs.abortWithError(c, fmt.Errorf("%w: %d", entity.ErrEntityNotFound, id))
		return
	}
	if rs.entityRepo != nil {
		if err := rs.entityRepo.Delete(c.Request.Context(), id); err != nil {
			rs.abortWithError(c, fmt.Errorf("удаление сущности %d: %w", id, err))
			return
		}
	}

	rs.ok(c, http.StatusOK, "Сущность удалена", gin.H{"id": id})
}
