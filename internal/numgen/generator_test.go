package numgen

import (
	"context"
	"errors"
	"testing"
)

type fakeProbe struct {
	taken map[string]bool
	calls int
}

func (p *fakeProbe) NumberExists(ctx context.Context, number string) (bool, error) {
	p.calls++
	return p.taken[number], nil
}

func TestGenerateFormat(t *testing.T) {
	gen := NewRandomGenerator(&fakeProbe{})

	for i := 0; i < 50; i++ {
		number, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(number) != NumberLength {
			t.Fatalf("номер %q: длина %d, ожидалось %d", number, len(number), NumberLength)
		}
		for _, r := range number {
			if r < '0' || r > '9' {
				t.Fatalf("номер %q содержит не-цифру %q", number, r)
			}
		}
	}
}

func TestGenerateUnique(t *testing.T) {
	probe := &fakeProbe{taken: make(map[string]bool)}
	gen := NewRandomGenerator(probe)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[number] {
			t.Fatalf("номер %q выдан дважды", number)
		}
		seen[number] = true
		probe.taken[number] = true
	}
}

type alwaysTakenProbe struct{ calls int }

func (p *alwaysTakenProbe) NumberExists(ctx context.Context, number string) (bool, error) {
	p.calls++
	return true, nil
}

func TestGenerateExhausted(t *testing.T) {
	probe := &alwaysTakenProbe{}
	gen := NewRandomGenerator(probe)

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("ожидался ErrExhausted, получено: %v", err)
	}
	if probe.calls != maxAttempts {
		t.Fatalf("ожидалось %d попыток, было %d", maxAttempts, probe.calls)
	}
}

type failingProbe struct{}

func (p *failingProbe) NumberExists(ctx context.Context, number string) (bool, error) {
	return false, errors.New("storage down")
}

func TestGenerateProbeError(t *testing.T) {
	gen := NewRandomGenerator(&failingProbe{})

	_, err := gen.Generate(context.Background())
	if err == nil {
		t.Fatal("ожидалась ошибка проверки уникальности")
	}
	if errors.Is(err, ErrExhausted) {
		t.Fatal("ошибка хранилища не должна маскироваться под ErrExhausted")
	}
}
