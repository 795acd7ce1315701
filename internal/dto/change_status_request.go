package dto

type ChangeOrderStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
