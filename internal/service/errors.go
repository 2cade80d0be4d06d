package service

import "errors"

// Taxonomía de fallas del core. Todas son terminales para la operación:
// no hay retry local y ninguna escritura procede tras una precondición
// fallida. La capa HTTP las traduce a respuestas distinguibles.
var (
	// ErrUnauthenticated: no hay sesión verificada.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUserNotFound: sesión válida pero sin User provisionado
	// (inconsistencia de provisioning, distinta de "no logueado").
	ErrUserNotFound = errors.New("user not found")
	// ErrConversationNotFound: la conversación referida no existe.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrForbidden: autenticado pero no participante de la conversación.
	ErrForbidden = errors.New("not a participant of this conversation")
)

// Invalidator notifica que los registros bajo un tópico cambiaron, para
// que las live queries suscritas recomputen. Las implementaciones deben
// ser no bloqueantes respecto del camino de escritura.
type Invalidator interface {
	Invalidate(topics ...string)
}

// TopicConversation es el tópico que leen los feeds de una conversación.
func TopicConversation(conversationID string) string {
	return "conversation:" + conversationID
}

// TopicUser es el tópico que lee la lista de conversaciones de un usuario.
func TopicUser(userID string) string {
	return "user:" + userID
}
