package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TicketListResponse struct {
	Status string           `json:"status"`
	Count  int              `json:"count"`
	Data   []TicketEvidence `json:"data"`
}

type SimilarTicketsResponse struct {
	Status string           `json:"status"`
	Query  string           `json:"query"`
	Data   []TicketEvidence `json:"data"`
}

type SyncRequest struct {
	Status string `json:"status"`
}

// TicketBoardResponse - GET /api/tickets (dashboard), 트래커 이슈 원본 형태
type TicketBoardResponse struct {
	Done       []JiraIssue `json:"done"`
	InProgress []JiraIssue `json:"inProgress"`
}
