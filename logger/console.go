package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// newConsoleWriter renders entries for humans. Step entries get a scope
// prefix built from their definition, index and step fields:
//
//	15:04:05 DBG [checkout#2 charge] run step duration_ms=3 status=success
func newConsoleWriter(cfg *Config, w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05",
		FormatPrepare: func(evt map[string]interface{}) error {
			if scope := scopeOf(evt); scope != "" {
				msg, _ := evt[zerolog.MessageFieldName].(string)
				evt[zerolog.MessageFieldName] = "[" + scope + "] " + msg
			}
			return nil
		},
	}
}

// scopeOf removes the definition, index and step fields from evt and joins
// them into "definition#index step".
func scopeOf(evt map[string]interface{}) string {
	var scope string
	if def, ok := evt[FieldDefinition]; ok {
		scope = fmt.Sprint(def)
		delete(evt, FieldDefinition)
	}
	if idx, ok := evt[FieldIndex]; ok {
		scope += "#" + fmt.Sprint(idx)
		delete(evt, FieldIndex)
	}
	if step, ok := evt[FieldStep]; ok {
		if scope != "" {
			scope += " "
		}
		scope += fmt.Sprint(step)
		delete(evt, FieldStep)
	}
	return scope
}
