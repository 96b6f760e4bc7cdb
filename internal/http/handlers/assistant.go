package handlers

import (
	"encoding/json"
	"net/http"

	"donorhub/internal/assistant"
)

type assistantRequest struct {
	Question string `json:"question"`
}

func (a *App) AssistantAsk(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	svc, err := a.assistantService()
	if err != nil {
		a.fail(w, err)
		return
	}
	answer, err := svc.Answer(r.Context(), req.Question, a.Sync.Donors(), a.now())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"answer": answer})
}

// assistantService builds the completer per request so a key saved in
// settings takes effect without a restart. A key from settings wins
// over the env default; with no key at all the static completer
// answers from the records alone.
func (a *App) assistantService() (*assistant.Service, error) {
	settings, err := a.Settings.Load()
	if err != nil {
		return nil, err
	}
	key := settings.AssistantAPIKey
	if key == "" {
		key = a.Config.GeminiAPIKey
	}
	var completer assistant.Completer = assistant.NewStaticCompleter()
	if key != "" {
		gemini, err := assistant.NewGeminiCompleter(assistant.GeminiOptions{
			APIKey:   key,
			Model:    a.Config.GeminiModel,
			BaseURL:  a.Config.GeminiBaseURL,
			Fallback: assistant.NewStaticCompleter(),
		})
		if err != nil {
			return nil, err
		}
		completer = gemini
	}
	return assistant.NewService(completer, a.Config.AssistantMaxDonors), nil
}
