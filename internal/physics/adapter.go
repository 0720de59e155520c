package physics

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrMissingField возвращается, когда во внешнем представлении хитбокса нет нужного поля
var ErrMissingField = errors.New("bounding volume field is missing")

// MissingFieldError уточняет, какого поля не хватает и в каком типе
type MissingFieldError struct {
	Type  reflect.Type
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%v: %s.%s", ErrMissingField, e.Type, e.Field)
}

// Is позволяет сравнивать через errors.Is(err, ErrMissingField)
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Известные раскладки полей внешних хитбоксов. Порядок: minX, minY, minZ, maxX, maxY, maxZ.
// Первая раскладка соответствует обфусцированным именам, вторая - читаемым.
var knownLayouts = [][6]string{
	{"a", "b", "c", "d", "e", "f"},
	{"minX", "minY", "minZ", "maxX", "maxY", "maxZ"},
}

// boxLayout хранит индексы шести полей для конкретного типа
type boxLayout struct {
	fields [6]int
}

// BoxAdapter читает AABB из произвольной структуры с одной из известных раскладок полей.
// Раскладка определяется один раз на тип и кешируется, чтение значения идёт по индексам.
type BoxAdapter struct {
	mu      sync.RWMutex
	layouts map[reflect.Type]boxLayout
}

// NewBoxAdapter создаёт адаптер с пустым кешем раскладок
func NewBoxAdapter() *BoxAdapter {
	return &BoxAdapter{layouts: make(map[reflect.Type]boxLayout)}
}

// Resolve проверяет тип заранее, вне горячего цикла.
// Возвращает MissingFieldError, если тип не подходит ни под одну раскладку.
func (a *BoxAdapter) Resolve(t reflect.Type) error {
	_, err := a.layoutFor(derefType(t))
	return err
}

// BoxOf читает хитбокс из значения (структуры или указателя на структуру)
func (a *BoxAdapter) BoxOf(value interface{}) (AABB, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return AABB{}, fmt.Errorf("bounding volume is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return AABB{}, fmt.Errorf("bounding volume must be a struct, got %s", v.Kind())
	}

	layout, err := a.layoutFor(v.Type())
	if err != nil {
		return AABB{}, err
	}

	var c [6]float64
	for i, idx := range layout.fields {
		c[i] = numericValue(v.Field(idx))
	}
	return NewAABBFromBounds(c[0], c[1], c[2], c[3], c[4], c[5]), nil
}

func (a *BoxAdapter) layoutFor(t reflect.Type) (boxLayout, error) {
	a.mu.RLock()
	layout, ok := a.layouts[t]
	a.mu.RUnlock()
	if ok {
		return layout, nil
	}

	if t.Kind() != reflect.Struct {
		return boxLayout{}, fmt.Errorf("bounding volume must be a struct, got %s", t.Kind())
	}

	var lastErr error
	for _, names := range knownLayouts {
		layout, lastErr = matchLayout(t, names)
		if lastErr == nil {
			a.mu.Lock()
			a.layouts[t] = layout
			a.mu.Unlock()
			return layout, nil
		}
	}
	return boxLayout{}, lastErr
}

func matchLayout(t reflect.Type, names [6]string) (boxLayout, error) {
	var layout boxLayout
	for i, name := range names {
		idx := -1
		for f := 0; f < t.NumField(); f++ {
			field := t.Field(f)
			if strings.EqualFold(field.Name, name) && isNumericKind(field.Type.Kind()) {
				idx = f
				break
			}
		}
		if idx < 0 {
			return boxLayout{}, &MissingFieldError{Type: t, Field: name}
		}
		layout.fields[i] = idx
	}
	return layout, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// numericValue читает число, в том числе из неэкспортированного поля
func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return float64(v.Int())
	}
}
