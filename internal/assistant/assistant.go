// Package assistant answers free-form questions about the directory by
// embedding a snapshot of the donor records into a prompt and sending
// it to a completion provider.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"donorhub/internal/domain"
)

// Completer produces a completion for a prompt. Implementations map
// connectivity problems to domain.ErrProviderFailure.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	recordsHeader = "--- donor records"
	recordsFooter = "--- end of records ---"

	// defaultMaxDonors caps how many records ride along in a prompt.
	defaultMaxDonors = 200
)

// Service turns questions plus the current working set into provider
// calls.
type Service struct {
	completer Completer
	maxDonors int
}

// NewService wires a completer. maxDonors <= 0 selects the default cap.
func NewService(completer Completer, maxDonors int) *Service {
	if maxDonors <= 0 {
		maxDonors = defaultMaxDonors
	}
	return &Service{completer: completer, maxDonors: maxDonors}
}

// Answer builds the prompt for the question and completes it.
func (s *Service) Answer(ctx context.Context, question string, donors []domain.Donor, now time.Time) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	prompt := BuildPrompt(question, donors, now, s.maxDonors)
	return s.completer.Complete(ctx, prompt)
}

// BuildPrompt renders the instruction preamble, one line per donor and
// the question. Donors beyond maxDonors are dropped with a count so
// the model knows the list is truncated.
func BuildPrompt(question string, donors []domain.Donor, now time.Time, maxDonors int) string {
	if maxDonors <= 0 {
		maxDonors = defaultMaxDonors
	}
	var sb strings.Builder
	sb.WriteString("You are an assistant for a blood donor directory. ")
	sb.WriteString("Answer using only the donor records between the markers ")
	sb.WriteString("and the compatibility rules below. Be concise, do not ")
	sb.WriteString("invent records and do not give medical advice beyond ")
	sb.WriteString("those rules.\n\n")
	fmt.Fprintf(&sb, "Current date: %s\n\n", now.UTC().Format("2006-01-02"))

	sb.WriteString("Blood compatibility rules:\n")
	for _, entry := range domain.CompatibilityTable() {
		fmt.Fprintf(&sb, "%s donates to %s; receives from %s\n",
			entry.Type, joinTypes(entry.DonateTo), joinTypes(entry.ReceiveFrom))
	}
	sb.WriteByte('\n')

	shown := donors
	omitted := 0
	if len(shown) > maxDonors {
		omitted = len(shown) - maxDonors
		shown = shown[:maxDonors]
	}
	fmt.Fprintf(&sb, "%s (%d) ---\n", recordsHeader, len(donors))
	for _, d := range shown {
		sb.WriteString(donorLine(d, now))
		sb.WriteByte('\n')
	}
	if omitted > 0 {
		fmt.Fprintf(&sb, "(+%d more donors omitted)\n", omitted)
	}
	sb.WriteString(recordsFooter)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", question)
	return sb.String()
}

func joinTypes(types []domain.BloodType) string {
	parts := make([]string, 0, len(types))
	for _, bt := range types {
		parts = append(parts, string(bt))
	}
	return strings.Join(parts, ", ")
}

func donorLine(d domain.Donor, now time.Time) string {
	notes := strings.TrimSpace(d.Notes)
	if notes == "" {
		notes = "-"
	}
	phone := strings.TrimSpace(d.Phone)
	if phone == "" {
		phone = "-"
	}
	return fmt.Sprintf("%s | %s | %s | %s | %s | %s",
		d.ID, d.Name, phone, d.BloodType, d.EligibilityLabel(now), notes)
}

// StaticCompleter answers without a provider by summarizing the record
// lines in the prompt. It keeps the endpoint useful when no API key is
// configured.
type StaticCompleter struct{}

func NewStaticCompleter() *StaticCompleter {
	return &StaticCompleter{}
}

func (s *StaticCompleter) Complete(_ context.Context, prompt string) (string, error) {
	total, eligible := countRecords(prompt)
	if total == 0 {
		return "The directory has no donors yet. Register a donor to get started.", nil
	}
	return fmt.Sprintf(
		"The directory lists %d donors, %d of them currently eligible to donate. Configure an assistant API key for detailed answers.",
		total, eligible), nil
}

func countRecords(prompt string) (total, eligible int) {
	inRecords := false
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, recordsHeader):
			inRecords = true
			continue
		case trimmed == recordsFooter:
			return total, eligible
		}
		if !inRecords || trimmed == "" {
			continue
		}
		fields := strings.Split(trimmed, " | ")
		if len(fields) != 6 {
			continue
		}
		total++
		if fields[4] == "eligible" {
			eligible++
		}
	}
	return total, eligible
}

var _ Completer = (*StaticCompleter)(nil)
