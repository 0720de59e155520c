package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Имена компонентов сервиса
const (
	ComponentRaycast = "raycast"
	ComponentWorld   = "world"
	ComponentStorage = "storage"
	ComponentCache   = "cache"
	ComponentAPI     = "api"
)

// LoggerManager хранит логгеры компонентов и их переопределённые уровни.
// Переопределение консольного уровня действует и на уже созданные логгеры,
// и на те, что будут созданы позже.
type LoggerManager struct {
	mu        sync.Mutex
	loggers   map[string]*Logger
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]LogLevel),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	if level, ok := lm.overrides[component]; ok {
		logger.SetLevel(level, minLevel(level, options().FileLevel))
	}

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или пустой логгер при ошибке создания
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		Warn("логгер %s недоступен: %v", component, err)
		return NewNopLogger()
	}
	return logger
}

// SetComponentLevels задаёт консольные уровни отдельных компонентов.
// Файловый уровень опускается до консольного, если тот подробнее.
func (lm *LoggerManager) SetComponentLevels(levels map[string]LogLevel) {
	fileLevel := options().FileLevel

	lm.mu.Lock()
	defer lm.mu.Unlock()

	for component, level := range levels {
		lm.overrides[component] = level
		if logger, ok := lm.loggers[component]; ok {
			logger.SetLevel(level, minLevel(level, fileLevel))
		}
	}
}

// SetLogLevel меняет уровни уже созданного логгера компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	logger, ok := lm.loggers[component]
	lm.mu.Unlock()

	if !ok {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}
	logger.SetLevel(consoleLevel, fileLevel)
	return nil
}

// ListComponents возвращает отсортированный список компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает все логгеры; возвращается первая ошибка
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var firstErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("закрытие логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return firstErr
}

// GetComponentLogger - короткая форма GetLoggerManager().MustGetLogger
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func minLevel(a, b LogLevel) LogLevel {
	if a < b {
		return a
	}
	return b
}
