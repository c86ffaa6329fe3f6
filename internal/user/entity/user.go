package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in the `users` collection.
// The password hash and the token-revocation counter are internal: both are
// excluded from every JSON response.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Age          int                `bson:"age" json:"age"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	TokenVersion int64              `bson:"tokenVersion" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
