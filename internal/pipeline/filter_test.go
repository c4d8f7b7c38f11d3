package pipeline

import (
	"errors"
	"math"
	"slices"
	"testing"

	"linepair/pkg/contract"
)

func cand(oi int, ov int64, ii int, iv int64) contract.Candidate {
	return contract.Candidate{
		Outer: contract.LineValue{Index: oi, Value: ov},
		Inner: contract.LineValue{Index: ii, Value: iv},
	}
}

func TestSatisfies(t *testing.T) {
	cases := []struct {
		name string
		c    contract.Candidate
		a    int64
		want bool
	}{
		{"equal a=1", cand(0, 1, 1, 2), 1, true},
		{"self a=0", cand(0, 5, 0, 5), 0, true},
		{"mismatch", cand(0, 1, 1, 3), 1, false},
		{"reversed order", cand(1, 1, 0, 3), 2, true},
		{"negative values", cand(0, -5, 1, -4), 1, true},
		{"overflow never equal", cand(0, math.MaxInt64, 1, math.MinInt64), 1, false},
		{"max edge", cand(0, math.MaxInt64-1, 1, math.MaxInt64), 1, true},
		{"negative a", cand(0, 3, 1, 1), -2, true},
		{"underflow never equal", cand(0, math.MinInt64, 1, math.MaxInt64), -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Satisfies(tc.c, tc.a); got != tc.want {
				t.Fatalf("Satisfies(%+v, %d)=%v want %v", tc.c, tc.a, got, tc.want)
			}
		})
	}
}

func seqOf(cs []contract.Candidate, tail error) func(func(contract.Candidate, error) bool) {
	return func(yield func(contract.Candidate, error) bool) {
		for _, c := range cs {
			if !yield(c, nil) {
				return
			}
		}
		if tail != nil {
			yield(contract.Candidate{}, tail)
		}
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	in := []contract.Candidate{cand(0, 1, 0, 1), cand(0, 1, 1, 2), cand(1, 2, 0, 1), cand(2, 0, 2, 1)}
	var got []contract.Candidate
	for c, err := range Filter(seqOf(in, nil), 1) {
		if err != nil {
			t.Fatalf("unexpected err %v", err)
		}
		got = append(got, c)
	}
	want := []contract.Candidate{in[1], in[3]}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestFilterPassesError(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	var gotErr error
	for _, err := range Filter(seqOf([]contract.Candidate{cand(0, 1, 0, 1)}, boom), 0) {
		if err != nil {
			gotErr = err
			continue
		}
		n++
	}
	if n != 1 || !errors.Is(gotErr, boom) {
		t.Fatalf("n=%d err=%v", n, gotErr)
	}
}

func TestInspectCountsAndStops(t *testing.T) {
	in := []contract.Candidate{cand(0, 1, 0, 1), cand(0, 1, 1, 2), cand(1, 2, 0, 1)}
	seen := 0
	for range Inspect(seqOf(in, nil), func(contract.Candidate) { seen++ }) {
		break
	}
	if seen != 1 {
		t.Fatalf("Inspect 应随消费方停止，seen=%d", seen)
	}
}
