package entity

// User is a single directory record.
// Records are loaded once at startup and treated as immutable values;
// nothing in the service mutates them after the store is built.
type User struct {
	ID      string `json:"_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Age     int    `json:"age" validate:"gte=0"`
	Company string `json:"company" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}
