package models

import "github.com/google/uuid"

// newID fills an empty string primary key with a random UUID.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All returns every model managed by the schema, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserPreference{},
		&Conversation{},
		&Message{},
		&TokenUsage{},
		&APIKey{},
		&Node{},
	}
}
