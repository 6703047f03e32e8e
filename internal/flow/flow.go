// Package flow реализует многошаговые диалоги: добавление и правка товара,
// оформление заказа, ответ в поддержку. Каждый поток — последовательность
// именованных шагов с валидацией ввода; накопленные ответы живут в
// состоянии пользователя и отдаются в commit целиком.
package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lavka/internal/domain"
	"lavka/internal/models"

	"github.com/rs/zerolog"
)

// Kind определяет, какой ввод принимает шаг.
type Kind int

const (
	KindText Kind = iota
	KindPrice
	KindImage
)

type Step struct {
	Name      string
	Kind      Kind
	Skippable bool
	Key       string // ключ в TempData; пустой ключ не сохраняет ответ
	Prompt    string
}

// Input — нормализованный пользовательский ввод одного сообщения.
type Input struct {
	Text        string
	PhotoFileID string
}

// CommitFunc получает собранные данные потока после последнего шага.
type CommitFunc func(ctx context.Context, userID int64, data map[string]interface{}) error

type Flow struct {
	Name   string
	Steps  []Step
	Commit CommitFunc
}

// Result — исход Advance.
type Result struct {
	Done    bool   // поток завершён, commit выполнен
	Next    *Step  // следующий шаг, nil при Done или Invalid
	Invalid string // текст ошибки валидации, шаг не сдвинулся
}

type Engine struct {
	flows  map[string]*Flow
	state  domain.StateManager
	logger *zerolog.Logger
}

func NewEngine(state domain.StateManager, logger *zerolog.Logger) *Engine {
	return &Engine{
		flows:  make(map[string]*Flow),
		state:  state,
		logger: logger,
	}
}

func (e *Engine) Register(flow *Flow) {
	e.flows[flow.Name] = flow
}

// IsSkip распознаёт команду пропуска шага.
func IsSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "/skip"
}

func stepMarker(flowName, stepName string) string {
	return flowName + ":" + stepName
}

// Start запускает поток с первого шага. Уже идущий поток любого типа
// вытесняется. seed кладётся в данные потока до первого ответа.
func (e *Engine) Start(ctx context.Context, userID int64, flowName string, seed map[string]interface{}) (*Step, error) {
	flow, ok := e.flows[flowName]
	if !ok {
		return nil, fmt.Errorf("unknown flow: %s", flowName)
	}
	if len(flow.Steps) == 0 {
		return nil, fmt.Errorf("flow %s has no steps", flowName)
	}

	data := make(map[string]interface{}, len(seed))
	for k, v := range seed {
		data[k] = v
	}

	first := &flow.Steps[0]
	if err := e.state.SetUserState(ctx, userID, stepMarker(flowName, first.Name), data); err != nil {
		return nil, err
	}
	return first, nil
}

// Current возвращает активный поток и шаг пользователя, или nil-ы, если
// поток не идёт.
func (e *Engine) Current(ctx context.Context, userID int64) (*Flow, *Step, *models.UserState, error) {
	state, err := e.state.GetUserState(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if state == nil || state.CurrentStep == "" {
		return nil, nil, nil, nil
	}

	flowName, stepName, ok := strings.Cut(state.CurrentStep, ":")
	if !ok {
		return nil, nil, nil, nil
	}
	flow, ok := e.flows[flowName]
	if !ok {
		return nil, nil, nil, nil
	}
	for i := range flow.Steps {
		if flow.Steps[i].Name == stepName {
			return flow, &flow.Steps[i], state, nil
		}
	}
	return nil, nil, nil, nil
}

// Advance применяет ввод к текущему шагу. Невалидный ввод не двигает поток.
// После последнего шага вызывается Commit; состояние очищается и при
// успехе, и при ошибке commit — полузаполненный поток не переживает сбой.
func (e *Engine) Advance(ctx context.Context, userID int64, input Input) (*Result, error) {
	flow, step, state, err := e.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, fmt.Errorf("no active flow for user %d", userID)
	}

	value, invalid := validate(step, input)
	if invalid != "" {
		return &Result{Invalid: invalid}, nil
	}

	data := state.TempData
	if data == nil {
		data = make(map[string]interface{})
	}
	if value != nil && step.Key != "" {
		data[step.Key] = value
	}

	idx := stepIndex(flow, step.Name)
	if idx+1 < len(flow.Steps) {
		next := &flow.Steps[idx+1]
		if err := e.state.SetUserState(ctx, userID, stepMarker(flow.Name, next.Name), data); err != nil {
			return nil, err
		}
		return &Result{Next: next}, nil
	}

	// Состояние чистится до commit: commit вправе завести новое состояние
	// (например, ожидание финального подтверждения), а упавший commit не
	// оставляет пользователя в залипшем потоке.
	if err := e.state.ClearUserState(ctx, userID); err != nil {
		e.logger.Error().Err(err).Int64("user_id", userID).Msg("flow state clear error")
	}
	if err := flow.Commit(ctx, userID, data); err != nil {
		return nil, err
	}
	return &Result{Done: true}, nil
}

// Cancel обрывает активный поток без commit.
func (e *Engine) Cancel(ctx context.Context, userID int64) error {
	return e.state.ClearUserState(ctx, userID)
}

func stepIndex(flow *Flow, name string) int {
	for i := range flow.Steps {
		if flow.Steps[i].Name == name {
			return i
		}
	}
	return -1
}

// validate возвращает значение для сохранения и текст ошибки. Пропуск
// допустим только на skippable-шаге; на обычном шаге "skip" — это просто
// текст.
func validate(step *Step, input Input) (interface{}, string) {
	if step.Skippable && (IsSkip(input.Text) && input.PhotoFileID == "") {
		return nil, ""
	}

	switch step.Kind {
	case KindPrice:
		price, err := strconv.ParseFloat(strings.TrimSpace(input.Text), 64)
		if err != nil || price <= 0 {
			return nil, "Введите корректную цену (например, 19.99)."
		}
		return price, ""
	case KindImage:
		if input.PhotoFileID == "" {
			return nil, "Пожалуйста, отправьте изображение."
		}
		return input.PhotoFileID, ""
	default:
		text := strings.TrimSpace(input.Text)
		if text == "" {
			return nil, "Сообщение не должно быть пустым."
		}
		return text, ""
	}
}
