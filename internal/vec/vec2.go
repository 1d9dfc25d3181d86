package vec

// Vec2 колонка мира (X, Z). Y хранит мировую Z.
type Vec2 struct {
	X, Y int
}
