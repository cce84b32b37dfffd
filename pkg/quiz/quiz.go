// Package quiz generates and grades topic quizzes from ingested course
// material.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/store"
	"tutorkit/pkg/vectorstore"
)

const (
	questionsPerQuiz   = 3
	optionsPerQuestion = 4
	retrievalDepth     = 5
)

var (
	// ErrNoContent is returned when a subject has no ingested books to
	// draw questions from.
	ErrNoContent = errors.New("no ingested content for subject")
	// ErrMalformedResponse is returned when the model output cannot be
	// parsed into a valid quiz.
	ErrMalformedResponse = errors.New("model returned a malformed quiz")
)

// Question is one multiple-choice question. Options carry their letter
// prefix, for example "A) Inductive bias".
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Quiz is a generated set of questions for one topic.
type Quiz struct {
	ID        string     `json:"id"`
	SubjectID int64      `json:"subject_id"`
	TopicID   int64      `json:"topic_id"`
	TopicName string     `json:"topic_name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// LanguageModel is the slice of the runtime client the generator needs.
type LanguageModel interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Generator builds quizzes by retrieving relevant chunks and prompting
// the language model.
type Generator struct {
	log        logging.Logger
	repo       *store.Repository
	vectors    *vectorstore.Store
	model      LanguageModel
	llmModel   string
	embedModel string
}

func NewGenerator(log logging.Logger, repo *store.Repository, vectors *vectorstore.Store, model LanguageModel, llmModel, embedModel string) *Generator {
	return &Generator{
		log:        log,
		repo:       repo,
		vectors:    vectors,
		model:      model,
		llmModel:   llmModel,
		embedModel: embedModel,
	}
}

// Generate creates a quiz for a topic, pitched at the student's current
// confidence.
func (g *Generator) Generate(ctx context.Context, subjectID, topicID int64, confidence float64) (*Quiz, error) {
	topicCtx, err := g.repo.GetTopicContext(subjectID, topicID)
	if err != nil {
		return nil, err
	}

	count, err := g.vectors.Count(subjectID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.Wrapf(ErrNoContent, "subject %d", subjectID)
	}

	query := fmt.Sprintf("%s %s %s %s",
		topicCtx.SubjectName, topicCtx.ModuleName, topicCtx.TopicName, topicCtx.TopicDescription)
	queryVec, err := g.model.Embed(ctx, g.embedModel, query)
	if err != nil {
		return nil, errors.Wrap(err, "embedding retrieval query")
	}
	results, err := g.vectors.Search(subjectID, queryVec, retrievalDepth)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(results))
	for _, result := range results {
		contents = append(contents, result.Content)
	}
	prompt := buildPrompt(strings.Join(contents, "\n\n"), topicCtx, confidence)

	raw, err := g.model.Generate(ctx, g.llmModel, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "generating quiz")
	}
	questions, err := parseQuestions(raw)
	if err != nil {
		g.log.Debugf("unparseable model output: %.200s", raw)
		return nil, err
	}

	return &Quiz{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		TopicID:   topicID,
		TopicName: topicCtx.TopicName,
		Questions: questions,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func buildPrompt(context string, topic *store.TopicContext, confidence float64) string {
	return fmt.Sprintf(`You are creating quiz questions based on the provided academic content.

Context from textbooks: %s

Subject: %s
Module: %s
Topic: %s
Topic Description: %s

Create exactly %d multiple-choice questions about "%s" based on the context provided.
Focus specifically on the topic within the context of the module and subject.

Requirements:
- Use the provided context to create relevant questions
- Each question must have exactly 4 options (A, B, C, D)
- Only one option should be correct
- Provide clear explanations
- Cover different aspects of the topic
- Difficulty should match student confidence level (0.0-1.0): %.2f

Respond with valid JSON:
[
  {
    "question": "Question text here?",
    "options": [
      "A) First option",
      "B) Second option",
      "C) Third option",
      "D) Fourth option"
    ],
    "answer": "A",
    "explanation": "Explanation of why this answer is correct."
  }
]`, context, topic.SubjectName, topic.ModuleName, topic.TopicName, topic.TopicDescription,
		questionsPerQuiz, topic.TopicName, confidence)
}

// parseQuestions extracts the JSON array from the raw model output and
// validates its shape. Models wrap the JSON in prose often enough that
// the array is located positionally rather than parsed from position 0.
func parseQuestions(raw string) ([]Question, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.Wrap(ErrMalformedResponse, "no JSON array in output")
	}

	var questions []Question
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if len(questions) == 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "empty question list")
	}
	for i, question := range questions {
		if err := validateQuestion(question); err != nil {
			return nil, errors.Wrapf(ErrMalformedResponse, "question %d: %s", i+1, err)
		}
	}
	return questions, nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) != optionsPerQuestion {
		return errors.Errorf("%d options instead of %d", len(q.Options), optionsPerQuestion)
	}
	letter := AnswerLetter(q.Answer)
	if letter < "A" || letter > "D" {
		return errors.Errorf("answer %q is not one of A-D", q.Answer)
	}
	return nil
}

// AnswerLetter reduces an answer or a selected option to its letter, so
// "B) Version space" and "b" both grade as "B".
func AnswerLetter(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}
	return strings.ToUpper(answer[:1])
}

// Grade scores submitted answers against a quiz. Missing answers count
// as wrong.
func Grade(questions []Question, answers []string) int {
	score := 0
	for i, question := range questions {
		if i >= len(answers) {
			break
		}
		if AnswerLetter(answers[i]) == AnswerLetter(question.Answer) {
			score++
		}
	}
	return score
}
