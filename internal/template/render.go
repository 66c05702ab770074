// Package template provides grounded prompt rendering.
//
// 지원하는 변수 형식:
//
//	{{persona}}, {{evidence}}, {{history}}, {{ticket_count}}
//
// 각 변수는 strings.Replacer 한 번으로 치환되므로 티켓 본문이나 대화 내용에
// 같은 문자열이 들어 있어도 다시 치환되지 않습니다.
package template

import (
	"strconv"
	"strings"

	"github.com/ticket-rag/backend/internal/model"
)

const Persona = "Jira Ticket Solver, a Jira issue-solving assistant"

// DefaultPrompt - 시스템 지시문 + 근거 티켓 + 대화 이력
const DefaultPrompt = `Act as {{persona}}. Here are {{ticket_count}} resolved Jira tickets and their solutions:

{{evidence}}
Using the solutions above, help me solve new Jira tickets or answer questions about existing ones.
When answering, prefer the solution of a similar resolved ticket and build the answer from it.
Mention a ticket ID only when that ticket's solution actually informed the answer; otherwise do not mention ticket IDs.
Never describe how tickets were found or say that they are "similar"; just use what they contain.
If the conversation below has no earlier bot turns, begin with a short introduction.

Conversation so far:
{{history}}
Now respond to the latest user message based on the above history.`

const emptyEvidence = "(no resolved tickets available)\n"

// PromptData - 프롬프트 렌더링에 사용할 데이터
type PromptData struct {
	Persona  string
	Evidence []model.TicketEvidence
	History  []model.ChatTurn
}

// EvidenceBlock - 근거 티켓을 한 블록으로 직렬화 (입력 순서 유지)
func EvidenceBlock(evidence []model.TicketEvidence) string {
	if len(evidence) == 0 {
		return emptyEvidence
	}
	var sb strings.Builder
	for _, ev := range evidence {
		sb.WriteString("Ticket ID: " + ev.TicketID + "\n")
		if ev.Key != "" {
			sb.WriteString("Key: " + ev.Key + "\n")
		}
		sb.WriteString("Title: " + ev.Summary + "\n")
		sb.WriteString("Priority: " + ev.Priority + "\n")
		sb.WriteString("Status: " + ev.Status + "\n")
		sb.WriteString("Description: " + ev.Description + "\n")
		if ev.Solution != "" {
			sb.WriteString("Solution (Comments): " + ev.Solution + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// HistoryBlock - "sender: message" 한 줄씩, 도착 순서 그대로
func HistoryBlock(history []model.ChatTurn) string {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(turn.Sender + ": " + turn.Message + "\n")
	}
	return sb.String()
}

// RenderPrompt - 템플릿의 변수를 실제 값으로 치환
func RenderPrompt(tmpl string, data PromptData) string {
	persona := data.Persona
	if persona == "" {
		persona = Persona
	}
	return strings.NewReplacer(
		"{{persona}}", persona,
		"{{evidence}}", EvidenceBlock(data.Evidence),
		"{{history}}", HistoryBlock(data.History),
		"{{ticket_count}}", strconv.Itoa(len(data.Evidence)),
	).Replace(tmpl)
}

// Preview - 앞 n 글자(rune) + "..."
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}
