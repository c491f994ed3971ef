package handler

type replaceGrantsRequest struct {
	Permissions []string `json:"permissions"`
}

type grantsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}
