package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1", "1.00", nil},
		{"1.23", "1.23", nil},
		{"1,23", "1.23", nil},
		{" 2.50 ", "2.50", nil},
		{"0", "0.00", nil},
		{"-1", "", ErrNegativeAmount},
		{"abc", "", ErrInvalidAmount},
		{"", "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q expected a validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got.String() != tc.out {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestEvalAmountExpr(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"12", "12.00", nil},
		{"+23.69+23.87", "47.56", nil},
		{"100 - 12,50", "87.50", nil},
		{" 1 + 2 + 3 ", "6.00", nil},
		{".5+.5", "1.00", nil},
		{"-5+10", "5.00", nil},
		{"0.1+0.2", "0.30", nil},
		{"", "", ErrInvalidExpression},
		{"1+", "", ErrInvalidExpression},
		{"1++2", "", ErrInvalidExpression},
		{"1 2", "", ErrInvalidExpression},
		{"1.2.3", "", ErrInvalidExpression},
		{"1.", "", ErrInvalidExpression},
		{"abc", "", ErrInvalidExpression},
		{"10*2", "", ErrInvalidExpression},
		{"5-10", "", ErrNegativeAmount},
	}
	for _, tc := range cases {
		got, err := EvalAmountExpr(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v (value %s)", tc.in, tc.err, err, got)
			}
			continue
		}
		if err != nil || got.String() != tc.out {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Money{"a": MustParseMoney("1500.50")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":1500.5}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var got struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.25,"b":"3","c":null}`), &got); err != nil {
		t.Fatal(err)
	}
	if got.A.String() != "12.25" || got.B.String() != "3.00" || !got.C.IsZero() {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[string]string{
		"0":      "$0.00",
		"1900":   "$1,900.00",
		"1234.5": "$1,234.50",
		"0.456":  "$0.46",
	}
	for in, want := range cases {
		if got := MustParseMoney(in).Format(); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	if got := MoneyFromInt(-50).Format(); got != "-$50.00" {
		t.Fatalf("negative: got %s", got)
	}
}
