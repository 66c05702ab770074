package template

import (
	"strings"
	"testing"

	"github.com/ticket-rag/backend/internal/model"
)

func TestRenderPrompt(t *testing.T) {
	data := PromptData{
		Evidence: []model.TicketEvidence{
			{TicketID: "10001", Summary: "VPN drops", Description: "hourly disconnects", Priority: "High", Status: "Done", Solution: "update client to 5.2"},
			{TicketID: "10002", Summary: "Slow login", Description: "No description available", Priority: "Low", Status: "Done"},
		},
		History: []model.ChatTurn{
			{Sender: model.SenderBot, Message: "Hi!"},
			{Sender: model.SenderUser, Message: "my vpn keeps dropping {{evidence}}"},
		},
	}

	got := RenderPrompt(DefaultPrompt, data)

	for _, want := range []string{
		"Act as " + Persona,
		"Here are 2 resolved Jira tickets",
		"Ticket ID: 10001\nTitle: VPN drops\nPriority: High\nStatus: Done\nDescription: hourly disconnects\nSolution (Comments): update client to 5.2\n",
		"Ticket ID: 10002\n",
		"bot: Hi!\nuser: my vpn keeps dropping {{evidence}}\n",
		"Mention a ticket ID only when",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q\n---\n%s", want, got)
		}
	}
	if strings.Index(got, "10001") > strings.Index(got, "10002") {
		t.Fatalf("evidence order must be preserved")
	}
	if strings.Index(got, "bot: Hi!") > strings.Index(got, "user: my vpn") {
		t.Fatalf("history order must be preserved")
	}
}

func TestRenderPromptWithoutEvidence(t *testing.T) {
	got := RenderPrompt(DefaultPrompt, PromptData{History: []model.ChatTurn{{Sender: "user", Message: "hello"}}})
	if !strings.Contains(got, emptyEvidence) || !strings.Contains(got, "Here are 0 resolved") {
		t.Fatalf("expected empty evidence marker, got:\n%s", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "short", input: "hello", n: 100, want: "hello..."},
		{name: "exact", input: strings.Repeat("a", 100), n: 100, want: strings.Repeat("a", 100) + "..."},
		{name: "long", input: strings.Repeat("b", 150), n: 100, want: strings.Repeat("b", 100) + "..."},
		{name: "multibyte", input: strings.Repeat("가", 120), n: 100, want: strings.Repeat("가", 100) + "..."},
		{name: "empty", input: "", n: 100, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input, tt.n); got != tt.want {
				t.Fatalf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}
