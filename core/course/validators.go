package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecclesia/core"
)

var (
	quizOnlyTag  = "quizonly"
	quizOnlyText = "{0} is only allowed on quiz lessons"

	distinctOptionsTag  = "distinctoptions"
	distinctOptionsText = "{0} must all be different"
)

// InitValidators registers the course validations & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newLessonStructValidation, NewLesson{})
	core.RegisterCustomTranslation(validate, translator, quizOnlyTag, quizOnlyText)

	validate.RegisterStructValidation(newQuestionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, distinctOptionsTag, distinctOptionsText)
}

func newLessonStructValidation(sl validator.StructLevel) {
	nl := sl.Current().Interface().(NewLesson)
	if nl.PassThreshold != nil && nl.Type != LessonQuiz {
		sl.ReportError(nl.PassThreshold, "passThreshold", "PassThreshold", quizOnlyTag, "")
	}
}

func newQuestionStructValidation(sl validator.StructLevel) {
	nq := sl.Current().Interface().(NewQuestion)
	seen := make(map[string]bool, len(nq.Options))
	for _, o := range nq.Options {
		o = core.CleanString(o, true)
		if seen[o] {
			sl.ReportError(nq.Options, "options", "Options", distinctOptionsTag, "")
			return
		}
		seen[o] = true
	}
}
