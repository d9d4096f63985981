package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"google.golang.org/api/option"

	"parentyn-backend/internal/models"
)

// GeneratorService is the content-generation collaborator: it turns a
// lesson note into playable levels via Gemini. The session sync core
// never depends on it; it only ever sees the opaque module ids the
// generated modules end up under.
type GeneratorService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // token bucket
}

func NewGeneratorService(apiKey string, concurrentReqs int) (*GeneratorService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeneratorService{client: client, model: model, rateChan: rateChan}, nil
}

func (s *GeneratorService) Close() {
	s.client.Close()
}

func (s *GeneratorService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeneratorService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateLevels produces levels of one activity type grounded strictly
// in the given lesson note.
func (s *GeneratorService) GenerateLevels(ctx context.Context, req models.GenerateLevelsRequest) ([]models.Level, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildLevelsPrompt(req)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini generation error: %w", err)
	}

	levels, err := parseLevels(extractText(resp), req.ActivityType)
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// ExtendLessonNote deepens an existing note, keeping its markdown shape.
func (s *GeneratorService) ExtendLessonNote(ctx context.Context, note, subject, classLevel, instruction string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	task := `- Add more real-world examples and analysis.`
	if instruction != "" {
		task = fmt.Sprintf("TEACHER INSTRUCTION: %q", instruction)
	}

	prompt := fmt.Sprintf(`You are an expert curriculum developer for %s school %s.

TASK: Extend and deepen the following lesson note.
%s
- Keep the Markdown formatting (### headers, **bold**, - lists).
- Maintain the same topic. Do not simply repeat the existing note.

CURRENT NOTE:
%s`, classLevel, subject, task, note)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini extension error: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return note, nil
	}
	return text, nil
}

func buildLevelsPrompt(req models.GenerateLevelsRequest) string {
	note := req.LessonNote
	if len(note) > 5000 {
		note = note[:5000]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a game level designer for %s school %s.
Base your content STRICTLY on this lesson note:
%q

`, req.ClassLevel, req.Subject, note)

	switch req.ActivityType {
	case "flashcards":
		b.WriteString(`Generate 5-8 high-quality flashcards for key terms and concepts.
Return ONLY a JSON object: {"flashcards":[{"front":"...","back":"..."}]}`)
	case "matching":
		b.WriteString(`Generate 5-8 matching pairs (term to definition, or cause to effect).
Return ONLY a JSON object: {"pairs":[{"left":"...","right":"..."}]}`)
	case "fill_blank":
		b.WriteString(`Generate 4-6 fill-in-the-blank sentences. Mark the blank with ___ and give the exact missing word.
Return ONLY a JSON object: {"blanks":[{"sentence":"...","correct_answer":"..."}]}`)
	default: // quiz
		b.WriteString(`Generate 5-8 multiple-choice questions with exactly one correct option out of four.
Return ONLY a JSON object: {"questions":[{"question":"...","options":[{"text":"...","correct":true}],"concept":"short explanation"}]}`)
	}

	return b.String()
}

func parseLevels(raw, activityType string) ([]models.Level, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var payload struct {
		Flashcards []models.Flashcard    `json:"flashcards"`
		Pairs      []models.MatchingPair `json:"pairs"`
		Blanks     []struct {
			Sentence string `json:"sentence"`
			Answer   string `json:"correct_answer"`
		} `json:"blanks"`
		Questions []struct {
			Question string               `json:"question"`
			Options  []models.LevelOption `json:"options"`
			Concept  string               `json:"concept"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("Gemini returned unparseable levels: %w", err)
	}

	var levels []models.Level
	switch activityType {
	case "flashcards":
		if len(payload.Flashcards) == 0 {
			return nil, fmt.Errorf("Gemini returned no flashcards")
		}
		for i := range payload.Flashcards {
			payload.Flashcards[i].ID = uuid.New().String()
		}
		levels = append(levels, models.Level{
			ID:     uuid.New().String(),
			Title:  "Key Terms",
			Type:   "flashcards",
			Points: 50,
			Cards:  payload.Flashcards,
		})
	case "matching":
		if len(payload.Pairs) == 0 {
			return nil, fmt.Errorf("Gemini returned no pairs")
		}
		for i := range payload.Pairs {
			payload.Pairs[i].ID = uuid.New().String()
		}
		levels = append(levels, models.Level{
			ID:     uuid.New().String(),
			Title:  "Match the Concepts",
			Type:   "matching",
			Points: 100,
			Pairs:  payload.Pairs,
		})
	case "fill_blank":
		if len(payload.Blanks) == 0 {
			return nil, fmt.Errorf("Gemini returned no blanks")
		}
		for _, blank := range payload.Blanks {
			levels = append(levels, models.Level{
				ID:       uuid.New().String(),
				Title:    "Complete the Sentence",
				Type:     "fill_blank",
				Points:   20,
				Sentence: blank.Sentence,
				Answer:   blank.Answer,
			})
		}
	default:
		if len(payload.Questions) == 0 {
			return nil, fmt.Errorf("Gemini returned no questions")
		}
		for _, q := range payload.Questions {
			for i := range q.Options {
				q.Options[i].ID = uuid.New().String()
			}
			levels = append(levels, models.Level{
				ID:       uuid.New().String(),
				Title:    "Quiz",
				Type:     "quiz",
				Points:   20,
				Question: q.Question,
				Options:  q.Options,
				Concept:  q.Concept,
			})
		}
	}
	return levels, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
