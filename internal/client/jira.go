// Jira REST API 와 HTTP 통신하는 클라이언트 정의 (read-only)
//
// 환경변수:
//   - JIRA_BASE_URL: 예) https://your-team.atlassian.net
//   - JIRA_EMAIL, JIRA_API_TOKEN: basic auth
//   - JIRA_PAGE_SIZE (default: 50)
//   - JIRA_RATE_LIMIT: 초당 요청 수 (default: 5)
//
// 200 이외의 응답은 errs.ErrTrackerUnavailable 로 감싸서 반환합니다.
// 빈 결과로 degrade 할지는 호출 측(ingestion)이 결정합니다.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ticket-rag/backend/internal/adf"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/model"
	"golang.org/x/time/rate"
)

// JiraClient 구조체 정의
type JiraClient struct {
	baseURL    string
	email      string
	apiToken   string
	pageSize   int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// JiraClient 객체 생성
func NewJiraClient(cfg config.JiraConfig) *JiraClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &JiraClient{
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		apiToken: cfg.APIToken,
		pageSize: pageSize,
		limiter:  limiter,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Jira 설정 여부 체크
func (c *JiraClient) IsConfigured() bool {
	return c.baseURL != "" && c.apiToken != ""
}

// GET /rest/api/3/search - status 필터로 전체 페이지 조회
func (c *JiraClient) SearchTickets(ctx context.Context, status string) ([]model.JiraIssue, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: jira is not configured", errs.ErrTrackerUnavailable)
	}

	var issues []model.JiraIssue
	startAt := 0
	for {
		q := url.Values{}
		q.Set("jql", fmt.Sprintf("status = %q", status))
		q.Set("fields", "summary,description,priority,status")
		q.Set("startAt", fmt.Sprint(startAt))
		q.Set("maxResults", fmt.Sprint(c.pageSize))

		var page model.JiraSearchResponse
		if err := c.getJSON(ctx, "/rest/api/3/search?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return issues, nil
}

// GET /rest/api/3/issue/{id}/comment - 코멘트 본문을 plain text 로 변환해 순서대로 반환
func (c *JiraClient) FetchComments(ctx context.Context, ticketID string) ([]string, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: jira is not configured", errs.ErrTrackerUnavailable)
	}

	var comments []string
	startAt := 0
	for {
		q := url.Values{}
		q.Set("startAt", fmt.Sprint(startAt))
		q.Set("maxResults", fmt.Sprint(c.pageSize))

		var page model.JiraCommentList
		path := "/rest/api/3/issue/" + url.PathEscape(ticketID) + "/comment?" + q.Encode()
		if err := c.getJSON(ctx, path, &page); err != nil {
			return nil, err
		}
		for _, comment := range page.Comments {
			if text := adf.CommentText(comment.Body); text != "" {
				comments = append(comments, text)
			}
		}

		startAt += len(page.Comments)
		if len(page.Comments) == 0 || startAt >= page.Total {
			break
		}
	}
	return comments, nil
}

func (c *JiraClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.email, c.apiToken)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: failed to send request to jira: %v", errs.ErrTrackerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: jira returned status %d: %s", errs.ErrTrackerUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", errs.ErrTrackerUnavailable, err)
	}
	return nil
}
