package core

// Toast levels
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastWarning = "warning"
	ToastInfo    = "info"
)

// Toast is a user visible notification.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifier is the notification surface. Notify is fire-and-forget.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(t Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

func Success(n Notifier, msg string) { n.Notify(Toast{Level: ToastSuccess, Message: msg}) }
func Failure(n Notifier, msg string) { n.Notify(Toast{Level: ToastError, Message: msg}) }
func Warning(n Notifier, msg string) { n.Notify(Toast{Level: ToastWarning, Message: msg}) }
