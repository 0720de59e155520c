package raycast

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// StepPolicy - именованная длина шага, с которой луч проверяет мир.
// Значение передаётся вызывающим кодом, ядро не знает о конкретных пресетах.
type StepPolicy struct {
	Name    string  `json:"name" yaml:"name"`
	Advance float64 `json:"advance" yaml:"advance"`
}

// Validate проверяет, что шаг конечен и положителен
func (p StepPolicy) Validate() error {
	if math.IsNaN(p.Advance) || math.IsInf(p.Advance, 0) || p.Advance <= 0 {
		return invalidArgument("step policy %q: advance must be finite and positive, got %v", p.Name, p.Advance)
	}
	return nil
}

func (p StepPolicy) String() string {
	return fmt.Sprintf("%s(%g)", p.Name, p.Advance)
}

// Встроенные пресеты: грубые и точные шаги для блоков и для сущностей
var (
	ImpreciseBlock     = StepPolicy{Name: "imprecise_block", Advance: 1.0}
	ImpreciseEntity    = StepPolicy{Name: "imprecise_entity", Advance: 0.25}
	SemiAccurateBlock  = StepPolicy{Name: "semi_accurate_block", Advance: 0.5}
	SemiAccurateEntity = StepPolicy{Name: "semi_accurate_entity", Advance: 0.125}
	AccurateBlock      = StepPolicy{Name: "accurate_block", Advance: 0.25}
	AccurateEntity     = StepPolicy{Name: "accurate_entity", Advance: 0.05}
	PreciseBlock       = StepPolicy{Name: "precise_block", Advance: 0.1}
	PreciseEntity      = StepPolicy{Name: "precise_entity", Advance: 0.01}
)

var builtinPolicies = []StepPolicy{
	ImpreciseBlock, ImpreciseEntity,
	SemiAccurateBlock, SemiAccurateEntity,
	AccurateBlock, AccurateEntity,
	PreciseBlock, PreciseEntity,
}

// PolicySet - потокобезопасный реестр пресетов шага
type PolicySet struct {
	mu       sync.RWMutex
	policies map[string]StepPolicy
}

// NewPolicySet создаёт пустой реестр
func NewPolicySet() *PolicySet {
	return &PolicySet{policies: make(map[string]StepPolicy)}
}

// DefaultPolicies возвращает реестр со встроенными пресетами
func DefaultPolicies() *PolicySet {
	ps := NewPolicySet()
	for _, p := range builtinPolicies {
		ps.policies[p.Name] = p
	}
	return ps
}

// Register добавляет или заменяет пресет
func (ps *PolicySet) Register(p StepPolicy) error {
	if p.Name == "" {
		return invalidArgument("step policy name is empty")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.policies[p.Name] = p
	return nil
}

// Merge регистрирует пресеты из карты имя → шаг (формат конфигурации)
func (ps *PolicySet) Merge(advances map[string]float64) error {
	for name, advance := range advances {
		if err := ps.Register(StepPolicy{Name: name, Advance: advance}); err != nil {
			return err
		}
	}
	return nil
}

// Lookup ищет пресет по имени
func (ps *PolicySet) Lookup(name string) (StepPolicy, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.policies[name]
	return p, ok
}

// All возвращает пресеты, отсортированные по убыванию шага, затем по имени
func (ps *PolicySet) All() []StepPolicy {
	ps.mu.RLock()
	out := make([]StepPolicy, 0, len(ps.policies))
	for _, p := range ps.policies {
		out = append(out, p)
	}
	ps.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Advance != out[j].Advance {
			return out[i].Advance > out[j].Advance
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names возвращает имена всех пресетов в порядке All
func (ps *PolicySet) Names() []string {
	all := ps.All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names
}
