// Package advice generates financial guidance from a control's transaction
// history using Gemini. Failures degrade to a canned localized message so
// the feature never breaks the rest of the application.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"fincontrol/internal/core"
	applog "fincontrol/internal/log"
)

// Generator produces text for a prompt. Satisfied by the Gemini client and
// by test fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini wraps the genai client as a Generator.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.7)
	topP := float32(0.8)
	topK := float32(40)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
		TopP:        &topP,
		TopK:        &topK,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// Advisor turns a transaction history into advice text.
type Advisor struct {
	gen     Generator
	timeout time.Duration
	logger  *applog.Logger
}

func New(gen Generator, timeout time.Duration, logger *applog.Logger) *Advisor {
	return &Advisor{gen: gen, timeout: timeout, logger: logger}
}

// Advise analyzes the transactions and returns advice in the requested
// language. It never returns an error: an empty ledger or a model failure
// yields a localized fallback message instead.
func (a *Advisor) Advise(ctx context.Context, transactions []core.Transaction, lang string) string {
	if len(transactions) == 0 {
		if lang == "en-US" {
			return "Add some transactions so I can analyze your finances!"
		}
		return "Adicione algumas transações para que eu possa analisar suas finanças!"
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.gen.Generate(ctx, BuildPrompt(transactions, lang))
	if err != nil {
		if a.logger != nil {
			a.logger.WarnContext(ctx, "Advice generation failed", applog.FieldError, err.Error())
		}
		if lang == "en-US" {
			return "Sorry, I couldn't analyze your finances at the moment. Please try again later."
		}
		return "Desculpe, não consegui analisar suas finanças no momento. Tente novamente mais tarde."
	}
	return text
}

// promptTransaction is the reduced view of a transaction sent to the model.
type promptTransaction struct {
	Type        core.TransactionType      `json:"tipo"`
	Amount      string                    `json:"valor"`
	Category    core.Category             `json:"categoria"`
	Description string                    `json:"descricao"`
	Frequency   core.TransactionFrequency `json:"frequencia"`
	Date        string                    `json:"data"`
}

// BuildPrompt renders the analysis request, asking for a behaviour summary,
// waste spotting, three practical tips and an overall health rating.
func BuildPrompt(transactions []core.Transaction, lang string) string {
	summary := make([]promptTransaction, 0, len(transactions))
	for _, t := range transactions {
		summary = append(summary, promptTransaction{
			Type:        t.Type,
			Amount:      t.Amount.String(),
			Category:    t.Category,
			Description: t.Description,
			Frequency:   t.Frequency,
			Date:        t.Date.Format("2006-01-02"),
		})
	}
	data, _ := json.MarshalIndent(summary, "", "  ")

	langText := "Português do Brasil"
	if lang == "en-US" {
		langText = "English (US)"
	}

	var b strings.Builder
	b.WriteString("Analise o seguinte histórico de transações financeiras e forneça:\n")
	b.WriteString("1. Um breve resumo do comportamento financeiro, destacando o impacto de gastos mensais fixos vs pontuais.\n")
	b.WriteString("2. Identifique possíveis desperdícios ou categorias com gastos elevados.\n")
	b.WriteString("3. Dê 3 dicas práticas e personalizadas para economizar ou investir melhor, considerando os compromissos recorrentes.\n")
	b.WriteString("4. Avalie a saúde financeira geral (Ótima, Boa, Alerta ou Crítica).\n\n")
	b.WriteString("Transações:\n")
	b.Write(data)
	b.WriteString("\n\nResponda em ")
	b.WriteString(langText)
	b.WriteString(", de forma amigável e profissional. Use Markdown para formatação.\n")
	return b.String()
}
