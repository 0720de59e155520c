package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования: %q", s)
	}
}

// zap не знает TRACE, поэтому заводим уровень ниже Debug
const zapTraceLevel = zapcore.DebugLevel - 1

func toZapLevel(l LogLevel) zapcore.Level {
	switch l {
	case TRACE:
		return zapTraceLevel
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == zapTraceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

// Options задаёт, как создаются новые логгеры
type Options struct {
	ConsoleLevel LogLevel
	FileLevel    LogLevel
	FileOutput   bool   // писать ли в файл logs/<component>_<время>.log
	Dir          string // директория для файлов логов
	JSONConsole  bool   // JSON вместо человекочитаемого вывода в консоль
}

var (
	optionsMu      sync.RWMutex
	currentOptions = Options{
		ConsoleLevel: INFO,
		FileLevel:    DEBUG,
		Dir:          "logs",
	}
)

// Configure меняет настройки для логгеров, создаваемых после вызова
func Configure(opts Options) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	optionsMu.Lock()
	currentOptions = opts
	optionsMu.Unlock()
}

func options() Options {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return currentOptions
}

// Logger - логгер компонента поверх zap
type Logger struct {
	component    string
	base         *zap.Logger
	consoleLevel zap.AtomicLevel
	fileLevel    zap.AtomicLevel
	file         *os.File
}

// NewLogger создаёт логгер компонента по текущим Options
func NewLogger(component string) (*Logger, error) {
	opts := options()

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = encodeLevel

	var consoleEncoder zapcore.Encoder
	if opts.JSONConsole {
		consoleEncoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	}

	l := &Logger{
		component:    component,
		consoleLevel: zap.NewAtomicLevelAt(toZapLevel(opts.ConsoleLevel)),
		fileLevel:    zap.NewAtomicLevelAt(toZapLevel(opts.FileLevel)),
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), l.consoleLevel),
	}

	if opts.FileOutput {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		l.file = file
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), l.fileLevel))
	}

	l.base = zap.New(zapcore.NewTee(cores...)).With(zap.String("component", component))
	return l, nil
}

// NewNopLogger возвращает логгер, который ничего не пишет
func NewNopLogger() *Logger {
	return &Logger{
		component:    "nop",
		base:         zap.NewNop(),
		consoleLevel: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		fileLevel:    zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

// With возвращает дочерний логгер с дополнительным полем
func (l *Logger) With(key string, value interface{}) *Logger {
	child := *l
	child.base = l.base.With(zap.Any(key, value))
	child.file = nil // файлом владеет родитель
	return &child
}

// Zap открывает доступ к нижележащему логгеру (для интеграций)
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// SetLevel меняет минимальные уровни консоли и файла
func (l *Logger) SetLevel(console, file LogLevel) {
	l.consoleLevel.SetLevel(toZapLevel(console))
	l.fileLevel.SetLevel(toZapLevel(file))
}

func (l *Logger) Trace(format string, args ...interface{}) { l.logf(zapTraceLevel, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(zapcore.DebugLevel, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(zapcore.InfoLevel, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(zapcore.WarnLevel, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.logf(zapcore.ErrorLevel, format, args...) }

func (l *Logger) logf(level zapcore.Level, format string, args ...interface{}) {
	if l == nil || !l.base.Core().Enabled(level) {
		return
	}
	l.base.Log(level, fmt.Sprintf(format, args...))
}

// Close сбрасывает буферы и закрывает файл
func (l *Logger) Close() error {
	_ = l.base.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Глобальный логгер процесса
var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// InitDefaultLogger создаёт глобальный логгер для пакетных функций Info/Debug/...
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = logger
	defaultMu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер
func CloseDefaultLogger() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		_ = defaultLogger.Close()
		defaultLogger = nil
	}
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// До InitDefaultLogger сообщения пакетных функций отбрасываются

func Trace(format string, args ...interface{}) { current().Trace(format, args...) }
func Debug(format string, args ...interface{}) { current().Debug(format, args...) }
func Info(format string, args ...interface{})  { current().Info(format, args...) }
func Warn(format string, args ...interface{})  { current().Warn(format, args...) }
func Error(format string, args ...interface{}) { current().Error(format, args...) }
