package dto

type OrderPaginationRequest struct {
	Status string `json:"status,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type PageMetadata struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"lastPage"`
}

type OrderPageResponse struct {
	Data     []OrderResponse `json:"data"`
	Metadata PageMetadata    `json:"metadata"`
}
