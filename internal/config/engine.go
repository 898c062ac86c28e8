package config

import "time"

// Engine holds the settings the form engine is constructed with
type Engine struct {
	// CollectionPrefix is prepended to every collection name
	CollectionPrefix string `yaml:"collectionPrefix"`

	// DefaultAnswerSheetType names the answer sheet type created when the
	// caller does not pick one
	DefaultAnswerSheetType string `yaml:"defaultAnswerSheetType" validate:"required"`

	// FromEmail is the sender address for messages about answer sheets
	FromEmail string `yaml:"fromEmail" validate:"required,email"`

	// DateLayout parses and formats date question values (Go layout)
	DateLayout string `yaml:"dateLayout" validate:"required"`

	// ChoiceSourceDir is the root for local choice documents; empty disables them
	ChoiceSourceDir string `yaml:"choiceSourceDir"`

	ChoiceFetchTimeout time.Duration `yaml:"choiceFetchTimeout" validate:"gt=0"`
	ChoiceCacheTTL     time.Duration `yaml:"choiceCacheTtl"`
	MaxUploadBytes     int64         `yaml:"maxUploadBytes" validate:"gt=0"`
}

// DefaultEngine returns the built-in engine settings
func DefaultEngine() Engine {
	return Engine{
		CollectionPrefix:       "fe_",
		DefaultAnswerSheetType: "application",
		FromEmail:              "info@example.com",
		DateLayout:             time.DateOnly,
		ChoiceFetchTimeout:     10 * time.Second,
		ChoiceCacheTTL:         time.Hour,
		MaxUploadBytes:         10 << 20,
	}
}

// Collection returns the prefixed collection name
func (e Engine) Collection(name string) string {
	return e.CollectionPrefix + name
}

func (e *Engine) loadEnv() {
	e.CollectionPrefix = getEnv("COLLECTION_PREFIX", e.CollectionPrefix)
	e.DefaultAnswerSheetType = getEnv("ANSWER_SHEET_TYPE", e.DefaultAnswerSheetType)
	e.FromEmail = getEnv("FROM_EMAIL", e.FromEmail)
	e.DateLayout = getEnv("DATE_LAYOUT", e.DateLayout)
	e.ChoiceSourceDir = getEnv("CHOICE_SOURCE_DIR", e.ChoiceSourceDir)
	e.ChoiceFetchTimeout = getDuration("CHOICE_FETCH_TIMEOUT", e.ChoiceFetchTimeout)
	e.ChoiceCacheTTL = getDuration("CHOICE_CACHE_TTL", e.ChoiceCacheTTL)
	e.MaxUploadBytes = getInt64("MAX_UPLOAD_BYTES", e.MaxUploadBytes)
}
