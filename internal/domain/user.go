package domain

import "time"

// User representa una identidad durable provisionada desde el proveedor
// de autenticación externo. TokenIdentifier es el subject opaco verificado;
// es único e inmutable después de la creación.
type User struct {
	ID              string    `json:"id"`
	TokenIdentifier string    `json:"-"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email"`
	Image           string    `json:"image,omitempty"`
	IsOnline        bool      `json:"is_online"`
	CreatedAt       time.Time `json:"created_at"`
}
