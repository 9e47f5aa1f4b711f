package persistence

import (
	"errors"
	"fmt"

	"masarify/internal/core"
)

var (
	// ErrNotLoaded is returned by Save before the initial Load has completed.
	ErrNotLoaded = errors.New("state not loaded yet")

	ErrInvalidStructure = errors.New("invalid structure")
	ErrCategoryInUse    = errors.New("category has linked transactions")
	ErrCurrencyLocked   = errors.New("currency locked while transactions exist")
	ErrUnknownCurrency  = errors.New("unsupported currency")
)

// ImportError reports why a backup was rejected. It unwraps to ErrInvalidStructure.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", e.Reason, e.Err)
	}
	return "import: " + e.Reason
}

func (e *ImportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidStructure, e.Err}
	}
	return []error{ErrInvalidStructure}
}

var messages = map[error]map[core.Language]string{
	ErrCategoryInUse: {
		core.English: "Cannot delete this category because it has linked transactions. Please delete the transactions first.",
		core.Arabic:  "لا يمكن حذف هذا التصنيف لوجود معاملات مرتبطة به. يرجى حذف المعاملات أولاً.",
	},
	ErrCurrencyLocked: {
		core.English: "Cannot change currency while transactions exist. Please delete all transactions first.",
		core.Arabic:  "لا يمكن تغيير العملة في حال وجود عمليات مسجلة. يرجى حذف المعاملات أولاً.",
	},
	ErrInvalidStructure: {
		core.English: "Failed to restore data. Invalid file format.",
		core.Arabic:  "فشل استعادة البيانات. الملف تالف أو غير صالح.",
	},
}

// Message returns the user-facing text for err, or "" when it has none.
func Message(err error, lang core.Language) string {
	for target, byLang := range messages {
		if errors.Is(err, target) {
			if msg, ok := byLang[lang]; ok {
				return msg
			}
			return byLang[core.English]
		}
	}
	return ""
}
