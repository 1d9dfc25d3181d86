package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, INFO, ParseLevel("что-то"), "Неизвестный уровень должен давать INFO")
}

func TestWriterLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("test", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("граница %d", 1)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [test] граница 1")
	assert.Contains(t, out, "[ERROR] [test] ошибка")
}

func TestLoggerManager_ReusesComponentLogger(t *testing.T) {
	SetLogDir("")
	lm := GetLoggerManager()

	a := lm.MustGetLogger("unit")
	b := lm.MustGetLogger("unit")
	assert.Same(t, a, b, "Логгер компонента должен переиспользоваться")
	assert.Contains(t, lm.Components(), "unit")
	assert.NoError(t, lm.SetLogLevel("unit", ERROR, ERROR))
	assert.Error(t, lm.SetLogLevel("missing", ERROR, ERROR))
}

func TestLoggerManager_ConsoleLevelAppliesToComponents(t *testing.T) {
	SetLogDir("")
	lm := GetLoggerManager()
	defer lm.SetConsoleLevel(INFO)

	before := lm.MustGetLogger("level-before")
	lm.SetConsoleLevel(TRACE)
	after := lm.MustGetLogger("level-after")

	assert.Equal(t, TRACE, before.minConsoleLevel)
	assert.Equal(t, TRACE, after.minConsoleLevel)
}
