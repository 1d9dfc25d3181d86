package evolution

import "time"

// TickInfo сведения об одном тике симуляции
type TickInfo struct {
	Generation int
	Elapsed    float64 // симулированные секунды с начала поколения
	Nests      int
	LiveAgents int
	Wall       time.Duration // реальное время обработки тика
}

// Listener получает уведомления движка. Вызывается синхронно из Step:
// реализации не должны блокироваться и вызывать методы Engine.
type Listener interface {
	TickCompleted(t TickInfo)
	GenerationEnded(rec GenerationRecord)
	RunCompleted(s Summary)
}

// NopListener пустая реализация для встраивания
type NopListener struct{}

func (NopListener) TickCompleted(TickInfo) {}
func (NopListener) GenerationEnded(GenerationRecord) {}
func (NopListener) RunCompleted(Summary) {}
