package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/raycast/internal/observability"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/vec"
	"github.com/annel0/raycast/internal/world/block"
	"github.com/annel0/raycast/internal/world/entity"
)

// maxTraceSamples ограничивает ответ /api/raycast/trace
const maxTraceSamples = 4096

// CastRequest - тело POST /api/raycast.
// Направление задаётся вектором direction или углами yaw/pitch. Если указан
// actor_id, луч идёт из глаз сущности по её взгляду, а сама сущность
// исключается из кандидатов.
type CastRequest struct {
	Origin        *vec.Vec3Float `json:"origin"`
	Direction     *vec.Vec3Float `json:"direction"`
	Yaw           *float64       `json:"yaw"`
	Pitch         *float64       `json:"pitch"`
	ActorID       uint64         `json:"actor_id"`
	MaxDistance   *float64       `json:"max_distance"`
	IgnoreLiquids bool           `json:"ignore_liquids"`
	Policy        string         `json:"policy"`
	Mode          string         `json:"mode"`
	Exclude       []uint64       `json:"exclude"`
}

// TraceRequest - тело POST /api/raycast/trace
type TraceRequest struct {
	CastRequest
	Interval float64 `json:"interval"`
}

// HitResponse - результат броска в ответе API
type HitResponse struct {
	Result    string        `json:"result"`
	Mode      string        `json:"mode"`
	Policy    string        `json:"policy"`
	Voxel     vec.Vec3      `json:"voxel"`
	VoxelKind string        `json:"voxel_kind"`
	BlockID   uint32        `json:"block_id"`
	Block     string        `json:"block,omitempty"`
	Face      string        `json:"face,omitempty"`
	EntityID  uint64        `json:"entity_id,omitempty"`
	Position  vec.Vec3Float `json:"position"`
	Traveled  float64       `json:"traveled"`
	Steps     int           `json:"steps"`
	Occluded  bool          `json:"occluded"`
}

// StepSample - выборка наблюдателя
type StepSample struct {
	Step     int           `json:"step"`
	Position vec.Vec3Float `json:"position"`
	Traveled float64       `json:"traveled"`
}

// TraceResponse - выборки и итог трассировки
type TraceResponse struct {
	Samples   []StepSample `json:"samples"`
	Truncated bool         `json:"truncated"`
	Hit       HitResponse  `json:"hit"`
}

func newHitResponse(mode raycast.Mode, req raycast.Request, res raycast.HitResult) HitResponse {
	out := HitResponse{
		Result:    res.Kind.String(),
		Mode:      mode.String(),
		Policy:    req.Policy.Name,
		Voxel:     res.Voxel.Pos,
		VoxelKind: res.Voxel.Kind.String(),
		BlockID:   res.Voxel.ID,
		Position:  res.Position,
		Traveled:  res.Traveled,
		Steps:     res.Steps,
		Occluded:  res.Occluded,
	}
	if b, ok := block.Get(block.BlockID(res.Voxel.ID)); ok {
		out.Block = b.Name()
	}
	switch res.Kind {
	case raycast.HitBlock:
		out.Face = res.Face.String()
	case raycast.HitEntity:
		out.EntityID = res.EntityID
	}
	return out
}

// buildRequest превращает тело запроса в параметры броска
func (rs *RestServer) buildRequest(body CastRequest) (raycast.Mode, raycast.Request, error) {
	mode, err := raycast.ParseMode(body.Mode)
	if err != nil {
		return 0, raycast.Request{}, err
	}

	policyName := body.Policy
	if policyName == "" {
		policyName = rs.defaultPolicy
	}
	policy, ok := rs.policies.Lookup(policyName)
	if !ok {
		return 0, raycast.Request{}, fmt.Errorf("%w: %q", errPolicyNotFound, policyName)
	}

	maxDistance := rs.maxDistance
	if body.MaxDistance != nil {
		maxDistance = *body.MaxDistance
		if maxDistance > rs.maxDistance {
			return 0, raycast.Request{}, fmt.Errorf("%w: max_distance %g больше допустимого %g",
				errBadRequest, maxDistance, rs.maxDistance)
		}
	}

	var req raycast.Request
	if body.ActorID != 0 {
		actor, ok := rs.world.GetEntity(body.ActorID)
		if !ok {
			return 0, raycast.Request{}, fmt.Errorf("%w: actor %d", entity.ErrEntityNotFound, body.ActorID)
		}
		req = raycast.ActorRequest(actor, maxDistance, body.IgnoreLiquids, policy)
	} else {
		if body.Origin == nil {
			return 0, raycast.Request{}, fmt.Errorf("%w: нужен origin или actor_id", errBadRequest)
		}
		req = raycast.Request{
			Origin:        *body.Origin,
			MaxDistance:   maxDistance,
			IgnoreLiquids: body.IgnoreLiquids,
			Policy:        policy,
		}
	}

	switch {
	case body.Direction != nil:
		req.Direction = body.Direction.Normalized()
	case body.Yaw != nil || body.Pitch != nil:
		var yaw, pitch float64
		if body.Yaw != nil {
			yaw = *body.Yaw
		}
		if body.Pitch != nil {
			pitch = *body.Pitch
		}
		req.Direction = vec.DirectionFromYawPitch(yaw, pitch)
	case body.ActorID == 0:
		return 0, raycast.Request{}, fmt.Errorf("%w: нужен direction или yaw/pitch", errBadRequest)
	}

	req.Exclude = append(req.Exclude, body.Exclude...)
	return mode, req, nil
}

// withCastSpan ограничивает бросок по времени и оборачивает его в span
func (rs *RestServer) withCastSpan(
	ctx context.Context,
	mode raycast.Mode,
	req raycast.Request,
	cast func(ctx context.Context) (raycast.HitResult, error),
) (raycast.HitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.castTimeout)
	defer cancel()

	ctx, span := observability.StartCastSpan(ctx, mode, req)
	res, err := cast(ctx)
	observability.EndCastSpan(span, res, err)
	return res, err
}

// handleCast выполняет один бросок
func (rs *RestServer) handleCast(c *gin.Context) {
	var body CastRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}

	mode, req, err := rs.buildRequest(body)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	res, err := rs.withCastSpan(c.Request.Context(), mode, req, func(ctx context.Context) (raycast.HitResult, error) {
		return rs.marcher.Cast(ctx, mode, req)
	})
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	rs.ok(c, http.StatusOK, "Бросок выполнен", newHitResponse(mode, req, res))
}

// handleTrace выполняет бросок с наблюдателем и возвращает выборки
func (rs *RestServer) handleTrace(c *gin.Context) {
	var body TraceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}

	mode, req, err := rs.buildRequest(body.CastRequest)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	out := TraceResponse{Samples: make([]StepSample, 0, 64)}
	onStep := func(ev raycast.StepEvent) {
		if len(out.Samples) >= maxTraceSamples {
			out.Truncated = true
			return
		}
		out.Samples = append(out.Samples, StepSample{Step: ev.Step, Position: ev.Position, Traveled: ev.Traveled})
	}
	onFinish := func(res raycast.HitResult) {
		out.Hit = newHitResponse(mode, req, res)
	}

	_, err = rs.withCastSpan(c.Request.Context(), mode, req, func(ctx context.Context) (raycast.HitResult, error) {
		return rs.marcher.CastWithStepObserver(ctx, mode, req, body.Interval, onStep, onFinish)
	})
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	rs.ok(c, http.StatusOK, "Трассировка выполнена", out)
}

// handlePolicies возвращает доступные пресеты шага
func (rs *RestServer) handlePolicies(c *gin.Context) {
	rs.ok(c, http.StatusOK, "Пресеты получены", gin.H{
		"policies": rs.policies.All(),
		"default":  rs.defaultPolicy,
	})
}
