package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/stepflow/errors"
)

// documentKeys are the struct tags consulted, in order, for the name a field
// is reported under.
var documentKeys = []string{"yaml", "mapstructure"}

// tagMessages renders a failed validate tag; param is the tag argument.
var tagMessages = map[string]func(param string) string{
	"required":      func(string) string { return "is required" },
	"min":           func(p string) string { return "must be at least " + p },
	"max":           func(p string) string { return "must be at most " + p },
	"gte":           func(p string) string { return "must be greater than or equal to " + p },
	"lte":           func(p string) string { return "must be less than or equal to " + p },
	"oneof":         func(p string) string { return "must be one of: " + p },
	"hostname_port": func(string) string { return "must be a host:port address" },
}

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(documentKey)
	return v
})

// Validate checks s against its validate struct tags. Failures are reported
// under their document path, e.g. "engine.definition_dirs[0]: is required".
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	failed, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(failed))
	for i, fe := range failed {
		fields[i] = FieldError{Field: documentPath(fe), Message: tagMessage(fe)}
	}
	return fieldsError(fields)
}

// documentKey names a field by its yaml or mapstructure key, falling back to
// the snake_cased Go name. "-" hides the field.
func documentKey(f reflect.StructField) string {
	for _, tag := range documentKeys {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		switch name {
		case "":
			continue
		case "-":
			return ""
		}
		return name
	}
	return snakeCase(f.Name)
}

// documentPath strips the root type from the validator namespace:
// "Config.engine.definition_dirs[0]" becomes "engine.definition_dirs[0]".
func documentPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	if render, ok := tagMessages[fe.Tag()]; ok {
		return render(fe.Param())
	}
	return "is invalid"
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
