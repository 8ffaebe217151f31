package game

import "testing"

func TestScoreCorrectAnswers(t *testing.T) {
	cases := []struct {
		name    string
		elapsed float64
		limit   float64
		want    int
	}{
		{"instant", 0, 10, 1000},
		{"two of ten", 2, 10, 800},
		{"late", 9, 10, 100},
		{"at the wire", 10, 10, 0},
		{"past the limit", 12, 10, 0},
		{"negative elapsed treated as instant", -1, 10, 1000},
		{"half of thirty", 15, 30, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(true, tc.elapsed, tc.limit); got != tc.want {
				t.Fatalf("Score(true, %v, %v) = %d, want %d", tc.elapsed, tc.limit, got, tc.want)
			}
		})
	}
}

func TestScoreWrongAnswerIsZero(t *testing.T) {
	for _, elapsed := range []float64{0, 5, 10} {
		if got := Score(false, elapsed, 10); got != 0 {
			t.Fatalf("Score(false, %v, 10) = %d, want 0", elapsed, got)
		}
	}
}

func TestScoreInvalidLimit(t *testing.T) {
	if got := Score(true, 1, 0); got != 0 {
		t.Fatalf("zero limit should score 0, got %d", got)
	}
	if got := Score(true, 1, -5); got != 0 {
		t.Fatalf("negative limit should score 0, got %d", got)
	}
}

func TestScoreMonotonicallyNonIncreasing(t *testing.T) {
	prev := 1001
	for elapsed := 0; elapsed <= 20; elapsed++ {
		got := Score(true, float64(elapsed), 20)
		if got < 0 || got > 1000 {
			t.Fatalf("score %d out of [0,1000] at elapsed %d", got, elapsed)
		}
		if got > prev {
			t.Fatalf("score increased from %d to %d at elapsed %d", prev, got, elapsed)
		}
		prev = got
	}
}
