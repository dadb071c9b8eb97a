package model

import "time"

type Comment struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	ProductID  string    `json:"product_id" bson:"product_id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	AuthorName string    `json:"author_name" bson:"author_name"`
	Rating     int       `json:"rating" bson:"rating"`
	Body       string    `json:"body" bson:"body"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
