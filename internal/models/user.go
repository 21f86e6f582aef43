package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// SecurityQuestion stores a recovery question with a bcrypt hash of its answer.
type SecurityQuestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (u *User) ToAuthUser() *AuthUser {
	return &AuthUser{
		ID:    u.ID.Hex(),
		Email: u.Email,
		Name:  u.Name,
	}
}
