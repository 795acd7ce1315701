package dto

type FindOneOrderRequest struct {
	ID string `json:"id"`
}
