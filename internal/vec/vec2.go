package vec

// Vec2 представляет координаты колонны блоков (X, Z) на горизонтальной плоскости
type Vec2 struct {
	X, Z int
}
