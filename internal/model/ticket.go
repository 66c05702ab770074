// Jira REST v3 응답 구조체와 티켓/임베딩 도메인 모델
// client, service, db 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import (
	"encoding/json"
	"strings"
	"time"
)

const UnknownField = "Unknown"

// JiraSearchResponse - GET /rest/api/3/search 응답
type JiraSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []JiraIssue `json:"issues"`
}

// JiraIssue - 개별 이슈
type JiraIssue struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"`
	Fields JiraFields `json:"fields"`
}

type JiraFields struct {
	Summary string `json:"summary"`

	// Description: ADF 문서 (중첩 rich-text 트리), 비어있으면 null
	Description json.RawMessage `json:"description"`

	Priority *JiraNamed `json:"priority"`
	Status   *JiraNamed `json:"status"`
}

type JiraNamed struct {
	Name string `json:"name"`
}

// JiraCommentList - GET /rest/api/3/issue/{id}/comment 응답
type JiraCommentList struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Comments   []JiraComment `json:"comments"`
}

type JiraComment struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

// Ticket - 정규화된 티켓 레코드
type Ticket struct {
	ID          string
	Key         string
	Title       string
	Description string
	Comments    []string
	Priority    string
	Status      string
}

// Solution joins the comment thread; resolved tickets carry their fix there.
func (t Ticket) Solution() string {
	var parts []string
	for _, c := range t.Comments {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return "No comments available"
	}
	return strings.Join(parts, " ")
}

// CanonicalText is the unit that gets embedded: title, description, comments.
func (t Ticket) CanonicalText() string {
	return t.Title + " " + t.Description + " " + t.Solution()
}

func (t Ticket) Metadata() TicketMetadata {
	return TicketMetadata{
		Key:         t.Key,
		Summary:     t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Solution:    t.Solution(),
	}
}

// TicketMetadata - embedding 레코드와 함께 저장되는 JSONB 문서
type TicketMetadata struct {
	Key         string `json:"key,omitempty"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Solution    string `json:"solution,omitempty"`
}

// TicketEmbedding - ticket_embeddings 테이블의 한 행
type TicketEmbedding struct {
	TicketID  string
	Vector    []float32
	Metadata  TicketMetadata
	UpdatedAt time.Time
}

// ScoredTicket - nearest 조회 결과 (distance 오름차순)
type ScoredTicket struct {
	TicketID string
	Metadata TicketMetadata
	Distance float64
}

// TicketEvidence - 프롬프트에 주입되는 근거 티켓
type TicketEvidence struct {
	TicketID    string  `json:"ticket_id"`
	Key         string  `json:"key,omitempty"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Solution    string  `json:"solution,omitempty"`
	Distance    float64 `json:"distance"`
}

func EvidenceFromScored(s ScoredTicket) TicketEvidence {
	return TicketEvidence{
		TicketID:    s.TicketID,
		Key:         s.Metadata.Key,
		Summary:     s.Metadata.Summary,
		Description: s.Metadata.Description,
		Priority:    s.Metadata.Priority,
		Status:      s.Metadata.Status,
		Solution:    s.Metadata.Solution,
		Distance:    s.Distance,
	}
}

// SyncResult - 한 번의 ingestion 실행 결과
type SyncResult struct {
	Status   string        `json:"status"`
	Fetched  int           `json:"fetched"`
	Indexed  int           `json:"indexed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}
