package pii

import "testing"

func TestFilterSafeDropsPIIQuestions(t *testing.T) {
	in := []Response{
		{Question: "What is your SSN?", Response: "123"},
		{Question: "Favorite color?", Response: "blue"},
		{Question: "What is your full name", Response: "x"},
		{Question: "Where do you LIVE?", Response: "y"},
		{Question: "What is your home address?", Response: "z"},
		{Question: "Favorite food?", Response: "ramen"},
	}

	got := FilterSafe(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 safe responses, got %d: %+v", len(got), got)
	}
	if got[0].Question != "Favorite color?" || got[1].Question != "Favorite food?" {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestFilterSafeIsIdempotent(t *testing.T) {
	in := []Response{
		{Question: "Favorite color?", Response: "blue"},
		{Question: "Describe your ideal weekend", Response: "hiking"},
	}
	once := FilterSafe(in)
	twice := FilterSafe(once)
	if len(once) != len(in) || len(twice) != len(once) {
		t.Fatalf("filtering already-safe data changed it: %d -> %d -> %d", len(in), len(once), len(twice))
	}
}

func TestFilterSafeTotalOnEmpty(t *testing.T) {
	if got := FilterSafe(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestIsPIIQuestion(t *testing.T) {
	cases := []struct {
		question string
		want     bool
	}{
		{"What is your SSN?", true},
		{"what is your ip address", true},
		{"Favorite color?", false},
		{"", false},
		{"WHERE DO YOU LIVE", true},
	}
	for _, tc := range cases {
		if got := IsPIIQuestion(tc.question); got != tc.want {
			t.Fatalf("IsPIIQuestion(%q)=%v, want %v", tc.question, got, tc.want)
		}
	}
}
