// Package numgen генерирует внешние номера счетов.
// Стратегия генерации спрятана за интерфейсом, чтобы случайный перебор
// можно было заменить на счётчик или UUID, не трогая сервис счетов.
package numgen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"ledger-prototype/internal/utils"
)

// ErrExhausted - все попытки подбора номера упёрлись в коллизию.
// Для текущего запроса это фатально: счёт с неуникальным номером создавать нельзя.
var ErrExhausted = errors.New("не удалось сгенерировать уникальный номер счёта после нескольких попыток")

// NumberLength - длина номера счёта (десятичные цифры, ведущие нули допустимы).
const NumberLength = 10

const maxAttempts = 5

// ExistsProbe отвечает на вопрос, занят ли номер.
// Проверка не атомарна со вставкой: настоящую уникальность гарантирует
// ограничение в хранилище, а коллизия на вставке всплывает как конфликт.
type ExistsProbe interface {
	NumberExists(ctx context.Context, number string) (bool, error)
}

type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// RandomGenerator подбирает номер равномерно случайным образом
// и проверяет его на занятость, с ограниченным числом попыток.
type RandomGenerator struct {
	probe ExistsProbe
}

func NewRandomGenerator(probe ExistsProbe) *RandomGenerator {
	return &RandomGenerator{probe: probe}
}

func (g *RandomGenerator) Generate(ctx context.Context) (string, error) {
	maxValue := new(big.Int).Exp(big.NewInt(10), big.NewInt(NumberLength), nil) // 10^10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, maxValue)
		if err != nil {
			return "", fmt.Errorf("ошибка генерации случайного числа: %w", err)
		}

		number := fmt.Sprintf("%0*d", NumberLength, n)

		exists, err := g.probe.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("ошибка проверки уникальности номера: %w", err)
		}

		if !exists {
			return number, nil
		}

		utils.LogWarning("NumGen", "%s", fmt.Sprintf("Коллизия номера счёта %s, попытка %d/%d", number, attempt+1, maxAttempts))
	}

	return "", ErrExhausted
}
