package raycast

import "github.com/annel0/raycast/internal/vec"

// Actor - объект, из глаз которого бросается луч
type Actor interface {
	ActorID() uint64
	EyePosition() vec.Vec3Float
	LookDirection() vec.Vec3Float
}

// ActorRequest строит запрос из положения глаз и взгляда актёра.
// Сам актёр исключается из снимка кандидатов.
func ActorRequest(a Actor, maxDistance float64, ignoreLiquids bool, policy StepPolicy) Request {
	return Request{
		Origin:        a.EyePosition(),
		Direction:     a.LookDirection().Normalized(),
		MaxDistance:   maxDistance,
		IgnoreLiquids: ignoreLiquids,
		Policy:        policy,
		Exclude:       []uint64{a.ActorID()},
	}
}
