package model

import (
	"time"
)

type Product struct {
	ProductID string    `json:"productId" dynamodbav:"productId"`
	Name      string    `json:"name" dynamodbav:"name"`
	Price     float64   `json:"price" dynamodbav:"price"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}
