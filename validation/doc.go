// Package validation checks configuration and pipeline definition documents.
//
// Struct tag validation uses go-playground/validator; field names in
// messages come from yaml or mapstructure tags. Cross-field rules that tags
// cannot express go through the fluent Validator. Both report a single
// errors.AppError with code INVALID_INPUT and the failing fields in Details.
//
// # Struct Tag Validation
//
//	type Engine struct {
//	    DefinitionDirs []string `mapstructure:"definition_dirs" validate:"dive,required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
// Validators returned by At and Index report under a nested path and share
// the errors of the root:
//
//	v := validation.New()
//	v.Required("name", doc.Name)
//	v.Index("steps", 0).ExactlyOne("", map[string]bool{
//	    "service": step.Service != "",
//	    "method":  step.Method != "",
//	})
//	err := v.Err() // "steps[0]: must set exactly one of: method, service"
package validation
