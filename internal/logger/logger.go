// Package logger — логирование с префиксом сервиса и асинхронной записью,
// чтобы запросы к Gate API и WebSocket-поток не ждали вывода в stderr.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const asyncBufferSize = 4096

// slowThreshold — при LOG_LEVEL=info LogDuration пишет только вызовы дольше этого порога.
const slowThreshold = 200 * time.Millisecond

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

var (
	mu       sync.RWMutex
	prefix   string
	logLevel = levelInfo
	ch       chan string
	done     chan struct{}
	closed   bool
	once     sync.Once
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

func parseLevel(s string) level {
	switch s {
	case "debug", "trace":
		return levelDebug
	case "error", "quiet":
		return levelError
	default:
		return levelInfo
	}
}

func initWorker() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		setLevel(parseLevel(v))
	}
	ch = make(chan string, asyncBufferSize)
	done = make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			std.Print(msg)
		}
	}()
}

func enqueue(l level, msg string) {
	once.Do(initWorker)
	if l < currentLevel() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if closed {
		return
	}
	select {
	case ch <- msg:
	default:
		// буфер полон: лог теряется, вызывающий не блокируется
	}
}

func setLevel(l level) {
	mu.Lock()
	logLevel = l
	mu.Unlock()
}

func currentLevel() level {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetPrefix задаёт префикс для всех последующих логов ("dashboard", "gatectl").
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// SetLevel переопределяет LOG_LEVEL значением из конфига.
func SetLevel(s string) {
	once.Do(initWorker)
	setLevel(parseLevel(s))
}

// SetOutput перенаправляет вывод (CLI пишет в stderr, тесты — в буфер).
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Sync дожидается записи накопленных сообщений; вызывать один раз при выходе из процесса.
func Sync(timeout time.Duration) {
	once.Do(initWorker)
	mu.Lock()
	if closed {
		mu.Unlock()
		return
	}
	closed = true
	close(ch)
	mu.Unlock()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func tag() string {
	mu.RLock()
	defer mu.RUnlock()
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

// Debugf пишет только при LOG_LEVEL=debug.
func Debugf(format string, v ...any) {
	enqueue(levelDebug, tag()+"DEBUG: "+fmt.Sprintf(format, v...))
}

// Info пишет в log с префиксом (асинхронно).
func Info(v ...any) {
	enqueue(levelInfo, tag()+fmt.Sprint(v...))
}

// Infof форматирует и пишет с префиксом (асинхронно).
func Infof(format string, v ...any) {
	enqueue(levelInfo, tag()+fmt.Sprintf(format, v...))
}

// Error пишет ошибку с префиксом (асинхронно).
func Error(v ...any) {
	enqueue(levelError, tag()+"ERROR: "+fmt.Sprint(v...))
}

// Errorf форматирует ошибку с префиксом (асинхронно).
func Errorf(format string, v ...any) {
	enqueue(levelError, tag()+"ERROR: "+fmt.Sprintf(format, v...))
}

// LogDuration логирует имя операции и время выполнения в миллисекундах.
// При LOG_LEVEL=debug — все вызовы, иначе только медленные (>= slowThreshold).
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if currentLevel() == levelDebug || elapsed >= slowThreshold {
		enqueue(levelInfo, fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration — для defer: defer logger.DeferLogDuration("gatemaster.List", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}
