package iocli

// IO абстрагирует терминальный ввод-вывод, чтобы команды CLI можно было
// тестировать без настоящего терминала.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}
