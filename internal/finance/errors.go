// backend-erp/internal/finance/errors.go
package finance

import (
	"errors"
	"fmt"
)

// Ошибки бизнес-логики. Обработчики переводят их в HTTP-статусы:
// ValidationError и ErrNoPaymentPlan/ErrInactiveRecurring -> 400.
var (
	// ErrInactiveRecurring - генерация запрошена для приостановленного шаблона.
	ErrInactiveRecurring = errors.New("шаблон расхода приостановлен, генерация невозможна")

	// ErrNoPaymentPlan - у проекта нет плана оплаты.
	ErrNoPaymentPlan = errors.New("у проекта не настроен план оплаты")
)

// ValidationError - входные данные не проходят проверку (неизвестная
// периодичность, отсутствует обязательное поле плана и т.п.).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation сообщает, является ли ошибка ошибкой валидации входных данных.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
