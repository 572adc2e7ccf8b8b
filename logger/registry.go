package logger

import "sync"

// components caches one logger per stepflow component ("flow", "config",
// "observability"). Registered loggers take precedence over the global one.
var components sync.Map

// Register makes Get(name) return l.
func Register(name string, l *Logger) {
	components.Store(name, l)
}

// Get returns the logger registered for a component, or the global logger
// tagged with the component name.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// Unregister removes a component logger.
func Unregister(name string) {
	components.Delete(name)
}
