package raycast

import (
	"context"
	"math"

	"github.com/annel0/raycast/internal/vec"
)

// StepEvent - выборка, переданная наблюдателю
type StepEvent struct {
	Step     int
	Position vec.Vec3Float
	Traveled float64
}

// StepFunc вызывается с шагом отчёта, не чаще каждой проверки
type StepFunc func(StepEvent)

// FinishFunc получает итог броска ровно один раз
type FinishFunc func(HitResult)

// CastWithStepObserver выполняет Cast и дополнительно сообщает о выборках.
//
// interval - расстояние, которое должно накопиться между вызовами onStep;
// проверки препятствий по-прежнему идут с шагом req.Policy.Advance.
// При interval <= advance наблюдатель вызывается на каждой проверке.
// onFinish вызывается с тем же результатом, что вернёт Cast, при любом
// штатном завершении (включая EMPTY) и не вызывается при ошибке.
func (m *Marcher) CastWithStepObserver(
	ctx context.Context,
	mode Mode,
	req Request,
	interval float64,
	onStep StepFunc,
	onFinish FinishFunc,
) (HitResult, error) {
	if math.IsNaN(interval) || math.IsInf(interval, 0) || interval < 0 {
		return HitResult{}, invalidArgument("observer interval must be finite and non-negative, got %v", interval)
	}

	var hook stepHook
	if onStep != nil {
		advance := req.Policy.Advance
		sinceLast := 0.0
		hook = func(step int, pos vec.Vec3Float, traveled float64) {
			sinceLast += advance
			if sinceLast+stepEpsilon < interval {
				return
			}
			sinceLast = 0
			onStep(StepEvent{Step: step, Position: pos, Traveled: traveled})
		}
	}

	res, err := m.march(ctx, mode, req, hook)
	if err != nil {
		return HitResult{}, err
	}
	if onFinish != nil {
		onFinish(res)
	}
	return res, nil
}
