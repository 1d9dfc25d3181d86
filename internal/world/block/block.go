package block

import "fmt"

// ID представляет тип блока. Набор типов закрыт: любой код,
// разбирающий блоки, обязан обрабатывать все варианты через switch.
type ID uint8

// Константы типов блоков
const (
	Air       ID = iota // 0 - пустота
	Stone               // 1 - камень
	Grass               // 2 - трава
	Mulch               // 3 - мульча (еда)
	Acidic              // 4 - кислотный блок, удваивает потерю здоровья
	Container           // 5 - неразрушимая граница/препятствие
	Nest                // 6 - гнездо, построенное королевой

	count // всегда последний: количество типов
)

// Count возвращает число вариантов блока
func Count() int {
	return int(count)
}

// Name возвращает имя типа блока
func (id ID) Name() string {
	switch id {
	case Air:
		return "Air"
	case Stone:
		return "Stone"
	case Grass:
		return "Grass"
	case Mulch:
		return "Mulch"
	case Acidic:
		return "Acidic"
	case Container:
		return "Container"
	case Nest:
		return "Nest"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(id))
	}
}

// String реализует fmt.Stringer
func (id ID) String() string {
	return id.Name()
}

// IsValid проверяет, является ли значение допустимым типом блока
func (id ID) IsValid() bool {
	return id < count
}

// IsAir возвращает true для пустоты
func (id ID) IsAir() bool {
	return id == Air
}

// Diggable возвращает true, если муравей может выкопать блок
func (id ID) Diggable() bool {
	switch id {
	case Air, Container:
		return false
	case Stone, Grass, Mulch, Acidic, Nest:
		return true
	default:
		return false
	}
}

// Ground возвращает true для твёрдого блока, который не является границей мира
func (id ID) Ground() bool {
	switch id {
	case Stone, Grass, Mulch, Acidic, Nest:
		return true
	case Air, Container:
		return false
	default:
		return false
	}
}
