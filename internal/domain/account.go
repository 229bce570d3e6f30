package domain

import (
	"context"
	"time"
)

// Account representa a conta de um participante do marketplace (vendedor ou comprador).
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountRegistration representa o payload de entrada para o registro.
type AccountRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountRepository define o contrato de persistência para a entidade Account.
type AccountRepository interface {
	Save(ctx context.Context, account Account) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
}
