package models

import "github.com/google/uuid"

// assignID gives rows a client-side UUID so the same models work on SQLite
// where gen_random_uuid() is unavailable.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for test schemas.
func All() []any {
	return []any{
		&Shop{},
		&Category{},
		&ProductModel{},
		&Product{},
		&Parameter{},
		&ProductParameter{},
		&Contact{},
		&DeliveryAddress{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}
