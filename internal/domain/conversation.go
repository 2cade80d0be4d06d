package domain

import (
	"sort"
	"strings"
	"time"
)

// Conversation es el registro durable de un conjunto de participantes y su
// metadata opcional de grupo. El conjunto de participantes es inmutable
// después de la creación.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	IsGroup      bool      `json:"is_group"`
	GroupName    string    `json:"group_name,omitempty"`
	GroupImage   string    `json:"group_image,omitempty"`
	Admin        string    `json:"admin,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationSummary enriquece una conversación con el perfil del otro
// participante (solo uno-a-uno) y el mensaje más reciente, si existe.
type ConversationSummary struct {
	Conversation
	OtherUser   *User    `json:"other_user,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
}

// ParticipantsKey canonicaliza un conjunto de participantes: deduplica,
// ordena y concatena. Dos conjuntos iguales producen la misma clave sin
// importar el orden de los elementos, para cualquier cantidad de miembros.
func ParticipantsKey(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)
	return strings.Join(unique, "|")
}

// HasParticipant indica si el usuario pertenece a la conversación.
func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant devuelve el id del participante distinto al dado.
// Solo tiene sentido para conversaciones uno-a-uno.
func (c Conversation) OtherParticipant(userID string) string {
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}
