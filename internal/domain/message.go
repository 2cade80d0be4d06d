package domain

import "time"

// MessageType distingue el payload de un mensaje.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
)

// IsValid indica si el tipo es uno de los soportados.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo:
		return true
	}
	return false
}

// Message es una unidad de comunicación inmutable, append-only, dentro de
// una conversación. Para image/video, Content es la URL durable resuelta
// al momento de la escritura. Seq lo asigna el store y desempata mensajes
// con el mismo created_at, dando un orden total estable por conversación.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation"`
	Sender         string      `json:"sender"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	CreatedAt      time.Time   `json:"created_at"`
	Seq            int64       `json:"-"`
}

// EnrichedMessage acompaña un mensaje con el perfil completo del emisor.
type EnrichedMessage struct {
	Message
	SenderProfile User `json:"sender_profile"`
}
